package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"

	"github.com/verigate/verigate/config"
	"github.com/verigate/verigate/flow"
	"github.com/verigate/verigate/identity"
)

// githubProvider speaks plain OAuth2: GitHub is not an OIDC issuer, so
// the profile comes from its REST API instead of an id_token.
type githubProvider struct {
	oauth   *oauth2.Config
	apiBase string
}

func newGitHubProvider(cfg config.OAuthProvider) *githubProvider {
	return &githubProvider{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     github.Endpoint,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{"read:user", "user:email"},
		},
		apiBase: "https://api.github.com",
	}
}

func (p *githubProvider) Name() identity.Provider { return identity.ProviderGitHub }

func (p *githubProvider) AuthURL(state string) string {
	return p.oauth.AuthCodeURL(state)
}

func (p *githubProvider) Profile(ctx context.Context, code string) (flow.ExternalProfile, error) {
	var profile flow.ExternalProfile

	token, err := p.oauth.Exchange(ctx, code)
	if err != nil {
		return profile, fmt.Errorf("github: exchange code: %w", err)
	}
	client := p.oauth.Client(ctx, token)

	var user struct {
		ID    int64  `json:"id"`
		Login string `json:"login"`
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	if err := p.get(ctx, client, "/user", &user); err != nil {
		return profile, fmt.Errorf("github: fetch user: %w", err)
	}

	email := user.Email
	if email == "" {
		// The profile email is empty when the user keeps it private;
		// the user:email scope still exposes the verified addresses.
		email, err = p.primaryEmail(ctx, client)
		if err != nil {
			return profile, err
		}
	}

	name := user.Name
	if name == "" {
		name = user.Login
	}

	return flow.ExternalProfile{
		Email:      email,
		Provider:   identity.ProviderGitHub,
		ProviderID: strconv.FormatInt(user.ID, 10),
		Name:       name,
	}, nil
}

func (p *githubProvider) primaryEmail(ctx context.Context, client *http.Client) (string, error) {
	var emails []struct {
		Email    string `json:"email"`
		Primary  bool   `json:"primary"`
		Verified bool   `json:"verified"`
	}
	if err := p.get(ctx, client, "/user/emails", &emails); err != nil {
		return "", fmt.Errorf("github: fetch emails: %w", err)
	}
	for _, e := range emails {
		if e.Primary && e.Verified {
			return e.Email, nil
		}
	}
	return "", fmt.Errorf("github: no verified primary email")
}

func (p *githubProvider) get(ctx context.Context, client *http.Client, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.apiBase+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, path)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
