// Package oauth runs the redirect-based handshakes against the external
// identity providers. Each provider normalizes its callback into one
// flow.ExternalProfile consumed by the shared reconciliation routine.
package oauth

import (
	"context"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	"github.com/verigate/verigate/config"
	"github.com/verigate/verigate/domain"
	"github.com/verigate/verigate/flow"
	"github.com/verigate/verigate/identity"
)

const googleIssuer = "https://accounts.google.com"

// Provider is one external identity provider capable of the full
// code-for-profile exchange.
type Provider interface {
	Name() identity.Provider
	AuthURL(state string) string
	Profile(ctx context.Context, code string) (flow.ExternalProfile, error)
}

type Manager struct {
	providers map[identity.Provider]Provider
}

// NewManager builds the configured providers. Unknown names in the
// config map are rejected rather than ignored.
func NewManager(ctx context.Context, cfgs map[string]config.OAuthProvider) (*Manager, error) {
	providers := make(map[identity.Provider]Provider)

	for name, cfg := range cfgs {
		switch identity.Provider(name) {
		case identity.ProviderGoogle:
			p, err := newGoogleProvider(ctx, cfg)
			if err != nil {
				return nil, fmt.Errorf("oauth: google provider: %w", err)
			}
			providers[identity.ProviderGoogle] = p
		case identity.ProviderGitHub:
			providers[identity.ProviderGitHub] = newGitHubProvider(cfg)
		default:
			return nil, fmt.Errorf("oauth: unknown provider %q", name)
		}
	}

	return &Manager{providers: providers}, nil
}

func (m *Manager) Provider(name string) (Provider, error) {
	p, ok := m.providers[identity.Provider(name)]
	if !ok {
		return nil, domain.ErrUnknownProvider
	}
	return p, nil
}

type googleProvider struct {
	oauth    *oauth2.Config
	verifier *oidc.IDTokenVerifier
}

func newGoogleProvider(ctx context.Context, cfg config.OAuthProvider) (*googleProvider, error) {
	provider, err := oidc.NewProvider(ctx, googleIssuer)
	if err != nil {
		return nil, err
	}

	return &googleProvider{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     provider.Endpoint(),
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
		},
		verifier: provider.Verifier(&oidc.Config{ClientID: cfg.ClientID}),
	}, nil
}

func (p *googleProvider) Name() identity.Provider { return identity.ProviderGoogle }

func (p *googleProvider) AuthURL(state string) string {
	return p.oauth.AuthCodeURL(state)
}

func (p *googleProvider) Profile(ctx context.Context, code string) (flow.ExternalProfile, error) {
	var profile flow.ExternalProfile

	token, err := p.oauth.Exchange(ctx, code)
	if err != nil {
		return profile, fmt.Errorf("google: exchange code: %w", err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok {
		return profile, fmt.Errorf("google: no id_token in token response")
	}

	idToken, err := p.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return profile, fmt.Errorf("google: verify id token: %w", err)
	}

	var claims struct {
		Subject string `json:"sub"`
		Email   string `json:"email"`
		Name    string `json:"name"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return profile, fmt.Errorf("google: parse claims: %w", err)
	}

	return flow.ExternalProfile{
		Email:      claims.Email,
		Provider:   identity.ProviderGoogle,
		ProviderID: claims.Subject,
		Name:       claims.Name,
	}, nil
}

var (
	_ Provider = (*googleProvider)(nil)
	_ Provider = (*githubProvider)(nil)
)
