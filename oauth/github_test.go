package oauth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/verigate/verigate/config"
	"github.com/verigate/verigate/identity"
)

func newGitHubStub(t *testing.T, user map[string]interface{}, emails []map[string]interface{}) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"access_token": "stub-access-token",
			"token_type":   "bearer",
		})
	})
	mux.HandleFunc("/user", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(user)
	})
	mux.HandleFunc("/user/emails", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(emails)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func stubProvider(srv *httptest.Server) *githubProvider {
	p := newGitHubProvider(config.OAuthProvider{ClientID: "id", ClientSecret: "secret"})
	p.oauth.Endpoint = oauth2.Endpoint{
		AuthURL:  srv.URL + "/authorize",
		TokenURL: srv.URL + "/token",
	}
	p.apiBase = srv.URL
	return p
}

func TestGitHubProfile(t *testing.T) {
	srv := newGitHubStub(t, map[string]interface{}{
		"id": 42, "login": "alice", "name": "Alice", "email": "alice@x.com",
	}, nil)
	p := stubProvider(srv)

	profile, err := p.Profile(context.Background(), "auth-code")
	require.NoError(t, err)
	assert.Equal(t, identity.ProviderGitHub, profile.Provider)
	assert.Equal(t, "42", profile.ProviderID)
	assert.Equal(t, "alice@x.com", profile.Email)
	assert.Equal(t, "Alice", profile.Name)
}

func TestGitHubProfilePrivateEmail(t *testing.T) {
	srv := newGitHubStub(t, map[string]interface{}{
		"id": 42, "login": "alice",
	}, []map[string]interface{}{
		{"email": "old@x.com", "primary": false, "verified": true},
		{"email": "alice@x.com", "primary": true, "verified": true},
	})
	p := stubProvider(srv)

	profile, err := p.Profile(context.Background(), "auth-code")
	require.NoError(t, err)
	assert.Equal(t, "alice@x.com", profile.Email, "primary verified address wins")
	assert.Equal(t, "alice", profile.Name, "login is the name fallback")
}

func TestGitHubProfileNoVerifiedEmail(t *testing.T) {
	srv := newGitHubStub(t, map[string]interface{}{
		"id": 42, "login": "alice",
	}, []map[string]interface{}{
		{"email": "alice@x.com", "primary": true, "verified": false},
	})
	p := stubProvider(srv)

	_, err := p.Profile(context.Background(), "auth-code")
	require.Error(t, err)
}

func TestNewManagerRejectsUnknownProvider(t *testing.T) {
	_, err := NewManager(context.Background(), map[string]config.OAuthProvider{
		"myspace": {ClientID: "id", ClientSecret: "secret"},
	})
	require.Error(t, err)
}
