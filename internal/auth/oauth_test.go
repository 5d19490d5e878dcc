package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

// fakeProviderServer serves a token endpoint plus the given API routes.
func fakeProviderServer(t *testing.T, routes map[string]any) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		if r.Form.Get("code") != "good-code" {
			http.Error(w, `{"error":"bad_verification_code"}`, http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"access-123","token_type":"bearer"}`))
	})
	for path, body := range routes {
		body := body
		mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "Bearer access-123" {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(body)
		})
	}

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testEndpoint(srv *httptest.Server) ProviderOption {
	return WithEndpoint(oauth2.Endpoint{
		AuthURL:   srv.URL + "/authorize",
		TokenURL:  srv.URL + "/token",
		AuthStyle: oauth2.AuthStyleInParams,
	}, srv.URL)
}

var testProviderConfig = ProviderConfig{
	ClientID:     "client-id",
	ClientSecret: "client-secret",
	CallbackURL:  "http://localhost:8080/auth/github/callback",
}

func TestGitHubProvider_AuthURL(t *testing.T) {
	p := NewGitHubProvider(testProviderConfig)

	u, err := url.Parse(p.AuthURL("the-state", nil))
	require.NoError(t, err)

	q := u.Query()
	assert.Equal(t, "the-state", q.Get("state"))
	assert.Equal(t, "client-id", q.Get("client_id"))
	assert.Equal(t, "read:user user:email", q.Get("scope"))
}

func TestFacebookProvider_AuthURL_ExplicitScopes(t *testing.T) {
	p := NewFacebookProvider(testProviderConfig)

	u, err := url.Parse(p.AuthURL("s", []string{"email", "public_profile"}))
	require.NoError(t, err)
	assert.Equal(t, "email public_profile", u.Query().Get("scope"))
	assert.Equal(t, "www.facebook.com", u.Host)
}

func TestGitHubProvider_ExchangeAndProfile(t *testing.T) {
	srv := fakeProviderServer(t, map[string]any{
		"/user": map[string]any{
			"id":         42,
			"login":      "octocat",
			"name":       "The Octocat",
			"email":      "octocat@github.com",
			"avatar_url": "https://avatars.githubusercontent.com/u/42",
		},
	})
	p := NewGitHubProvider(testProviderConfig, testEndpoint(srv))

	token, err := p.Exchange(context.Background(), "good-code")
	require.NoError(t, err)

	profile, err := p.Profile(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, &Profile{
		Provider:  "github",
		ID:        "42",
		Name:      "The Octocat",
		Email:     "octocat@github.com",
		AvatarURL: "https://avatars.githubusercontent.com/u/42",
	}, profile)
}

func TestGitHubProvider_HiddenEmailFallsBackToPrimary(t *testing.T) {
	srv := fakeProviderServer(t, map[string]any{
		"/user": map[string]any{"id": 7, "login": "shy"},
		"/user/emails": []map[string]any{
			{"email": "old@example.com", "primary": false, "verified": true},
			{"email": "shy@example.com", "primary": true, "verified": true},
		},
	})
	p := NewGitHubProvider(testProviderConfig, testEndpoint(srv))

	profile, err := p.Profile(context.Background(), &oauth2.Token{AccessToken: "access-123"})
	require.NoError(t, err)
	assert.Equal(t, "shy@example.com", profile.Email)
	assert.Equal(t, "shy", profile.Name, "login is used when the display name is empty")
}

func TestGitHubProvider_BadCode(t *testing.T) {
	srv := fakeProviderServer(t, nil)
	p := NewGitHubProvider(testProviderConfig, testEndpoint(srv))

	_, err := p.Exchange(context.Background(), "bad-code")
	assert.Error(t, err)
}

func TestFacebookProvider_Profile(t *testing.T) {
	srv := fakeProviderServer(t, map[string]any{
		"/me": map[string]any{"id": "1001", "name": "Zuck", "email": "zuck@example.com"},
	})
	p := NewFacebookProvider(testProviderConfig, testEndpoint(srv))

	profile, err := p.Profile(context.Background(), &oauth2.Token{AccessToken: "access-123"})
	require.NoError(t, err)
	assert.Equal(t, "facebook", profile.Provider)
	assert.Equal(t, "1001", profile.ID)
	assert.Equal(t, "https://graph.facebook.com/1001/picture?type=large", profile.AvatarURL)
}

func TestFacebookProvider_APIError(t *testing.T) {
	srv := fakeProviderServer(t, nil) // no /me route → 404
	p := NewFacebookProvider(testProviderConfig, testEndpoint(srv))

	_, err := p.Profile(context.Background(), &oauth2.Token{AccessToken: "access-123"})
	assert.Error(t, err)
}

func TestFacebookPictureURL(t *testing.T) {
	assert.Equal(t,
		"https://graph.facebook.com/abc/picture?type=large",
		FacebookPictureURL("abc"))
}
