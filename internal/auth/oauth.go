package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/facebook"
	"golang.org/x/oauth2/github"
)

const (
	githubAPIURL   = "https://api.github.com"
	facebookAPIURL = "https://graph.facebook.com"
)

// Profile is the normalized identity a provider returns after a successful
// handshake. It is what the find-or-create callbacks receive.
type Profile struct {
	Provider  string
	ID        string // provider's user id, as a string
	Name      string
	Email     string
	AvatarURL string
}

// Provider is one OAuth 2.0 identity provider.
type Provider interface {
	Name() string
	// AuthURL returns the consent page URL. scopes, when non-empty,
	// replace the provider's default scopes for this request.
	AuthURL(state string, scopes []string) string
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
	Profile(ctx context.Context, token *oauth2.Token) (*Profile, error)
}

// ProviderConfig holds the credentials registered with a provider.
type ProviderConfig struct {
	ClientID     string
	ClientSecret string
	CallbackURL  string
}

// ProviderOption customizes a provider; used to point it at a test server.
type ProviderOption func(*oauthProvider)

// WithEndpoint overrides the OAuth endpoint and the API base URL.
func WithEndpoint(endpoint oauth2.Endpoint, apiURL string) ProviderOption {
	return func(p *oauthProvider) {
		p.config.Endpoint = endpoint
		p.apiURL = strings.TrimSuffix(apiURL, "/")
	}
}

// oauthProvider holds what GitHub and Facebook have in common: an
// authorization-code config and a JSON API reached with the access token.
type oauthProvider struct {
	config *oauth2.Config
	apiURL string
}

func newOAuthProvider(cfg ProviderConfig, endpoint oauth2.Endpoint, scopes []string, apiURL string, opts []ProviderOption) oauthProvider {
	p := oauthProvider{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.CallbackURL,
			Scopes:       scopes,
			Endpoint:     endpoint,
		},
		apiURL: apiURL,
	}
	for _, opt := range opts {
		opt(&p)
	}
	return p
}

func (p *oauthProvider) AuthURL(state string, scopes []string) string {
	var opts []oauth2.AuthCodeOption
	opts = append(opts, oauth2.AccessTypeOnline)
	if len(scopes) > 0 {
		opts = append(opts, oauth2.SetAuthURLParam("scope", strings.Join(scopes, " ")))
	}
	return p.config.AuthCodeURL(state, opts...)
}

// Exchange trades the authorization code for an access token (server to server).
func (p *oauthProvider) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("auth: exchanging OAuth code: %w", err)
	}
	return token, nil
}

// getJSON calls the provider API with the token and decodes the response into dst.
func (p *oauthProvider) getJSON(ctx context.Context, token *oauth2.Token, path string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.apiURL+path, nil)
	if err != nil {
		return fmt.Errorf("auth: building request for %s: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")

	// Client adds "Authorization: Bearer <token>" to every request.
	resp, err := p.config.Client(ctx, token).Do(req)
	if err != nil {
		return fmt.Errorf("auth: calling %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("auth: %s returned status %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("auth: decoding %s response: %w", path, err)
	}
	return nil
}

// =========================================================================
// GitHub
// =========================================================================

// GitHubUser is the portion of the GitHub /user response we use.
type GitHubUser struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	Name      string `json:"name"`
	Email     string `json:"email"` // empty if hidden in GitHub settings
	AvatarURL string `json:"avatar_url"`
}

type githubEmail struct {
	Email    string `json:"email"`
	Primary  bool   `json:"primary"`
	Verified bool   `json:"verified"`
}

// GitHubProvider implements Provider for GitHub.
type GitHubProvider struct {
	oauthProvider
}

// NewGitHubProvider requests "read:user" and "user:email" by default.
func NewGitHubProvider(cfg ProviderConfig, opts ...ProviderOption) *GitHubProvider {
	return &GitHubProvider{
		oauthProvider: newOAuthProvider(cfg, github.Endpoint,
			[]string{"read:user", "user:email"}, githubAPIURL, opts),
	}
}

func (g *GitHubProvider) Name() string { return string(StrategyGitHub) }

// Profile fetches /user. When the public email is hidden it falls back to
// the primary verified address from /user/emails, since email is the key
// accounts are linked on.
func (g *GitHubProvider) Profile(ctx context.Context, token *oauth2.Token) (*Profile, error) {
	var gh GitHubUser
	if err := g.getJSON(ctx, token, "/user", &gh); err != nil {
		return nil, err
	}
	if gh.ID == 0 {
		return nil, fmt.Errorf("auth: GitHub returned an invalid user (ID = 0)")
	}

	if gh.Email == "" {
		var emails []githubEmail
		if err := g.getJSON(ctx, token, "/user/emails", &emails); err != nil {
			return nil, err
		}
		for _, e := range emails {
			if e.Primary && e.Verified {
				gh.Email = e.Email
				break
			}
		}
	}

	name := gh.Name
	if name == "" {
		name = gh.Login
	}

	return &Profile{
		Provider:  g.Name(),
		ID:        strconv.FormatInt(gh.ID, 10),
		Name:      name,
		Email:     gh.Email,
		AvatarURL: gh.AvatarURL,
	}, nil
}

// =========================================================================
// Facebook
// =========================================================================

type facebookUser struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// FacebookProvider implements Provider for Facebook.
type FacebookProvider struct {
	oauthProvider
}

// NewFacebookProvider requests "email" and "public_profile" by default.
func NewFacebookProvider(cfg ProviderConfig, opts ...ProviderOption) *FacebookProvider {
	return &FacebookProvider{
		oauthProvider: newOAuthProvider(cfg, facebook.Endpoint,
			[]string{"email", "public_profile"}, facebookAPIURL, opts),
	}
}

func (f *FacebookProvider) Name() string { return string(StrategyFacebook) }

func (f *FacebookProvider) Profile(ctx context.Context, token *oauth2.Token) (*Profile, error) {
	var fb facebookUser
	if err := f.getJSON(ctx, token, "/me?fields=id,name,email", &fb); err != nil {
		return nil, err
	}
	if fb.ID == "" {
		return nil, fmt.Errorf("auth: Facebook returned a user without id")
	}

	return &Profile{
		Provider:  f.Name(),
		ID:        fb.ID,
		Name:      fb.Name,
		Email:     fb.Email,
		AvatarURL: FacebookPictureURL(fb.ID),
	}, nil
}

// FacebookPictureURL is the canonical large profile picture for a Facebook user.
func FacebookPictureURL(id string) string {
	return fmt.Sprintf("https://graph.facebook.com/%s/picture?type=large", id)
}
