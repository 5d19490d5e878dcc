package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/sakif/wetube/internal/model"
	"golang.org/x/oauth2"
)

// StrategyName identifies a way of proving who a user is.
type StrategyName string

const (
	StrategyLocal    StrategyName = "local"
	StrategyGitHub   StrategyName = "github"
	StrategyFacebook StrategyName = "facebook"
)

// Outcome is what a strategy concluded about a request.
type Outcome int

const (
	// OutcomeSuccess means Result.User is authenticated.
	OutcomeSuccess Outcome = iota
	// OutcomeFailure means the credentials or the handshake were rejected.
	OutcomeFailure
	// OutcomeDenied means the user refused consent at the provider.
	OutcomeDenied
	// OutcomeRedirect means the browser must be sent to Result.RedirectURL
	// (the provider's consent page) before anything can be decided.
	OutcomeRedirect
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeFailure:
		return "failure"
	case OutcomeDenied:
		return "denied"
	case OutcomeRedirect:
		return "redirect"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Result is returned by Strategy.Authenticate.
type Result struct {
	Outcome     Outcome
	User        *model.User
	RedirectURL string
	Err         error
}

func failed(err error) Result { return Result{Outcome: OutcomeFailure, Err: err} }

// Strategy authenticates a request.
type Strategy interface {
	Name() StrategyName
	Authenticate(r *http.Request, policy RedirectPolicy) Result
}

// ErrAccessDenied is reported when the user declines at the provider.
var ErrAccessDenied = errors.New("auth: access denied by user")

// =========================================================================
// Local (email + password)
// =========================================================================

// CredentialsFunc checks an email/password pair and returns the user.
type CredentialsFunc func(ctx context.Context, email, password string) (*model.User, error)

// LocalStrategy authenticates the "email" and "password" form fields.
type LocalStrategy struct {
	verify CredentialsFunc
}

var _ Strategy = (*LocalStrategy)(nil)

func NewLocalStrategy(verify CredentialsFunc) *LocalStrategy {
	return &LocalStrategy{verify: verify}
}

func (s *LocalStrategy) Name() StrategyName { return StrategyLocal }

func (s *LocalStrategy) Authenticate(r *http.Request, _ RedirectPolicy) Result {
	email := r.FormValue("email")
	password := r.FormValue("password")
	if email == "" || password == "" {
		return failed(errors.New("auth: missing credentials"))
	}

	user, err := s.verify(r.Context(), email, password)
	if err != nil {
		return failed(err)
	}
	return Result{Outcome: OutcomeSuccess, User: user}
}

// =========================================================================
// OAuth 2.0 providers
// =========================================================================

// VerifyFunc maps a provider identity to a local user, creating or linking
// the account as needed. An error fails the login.
type VerifyFunc func(ctx context.Context, token *oauth2.Token, profile *Profile) (*model.User, error)

// StateStore keeps the nonce of a pending handshake between the ask
// request and the callback. *session.Manager implements it.
type StateStore interface {
	PutOAuthState(ctx context.Context, provider, nonce string)
	PopOAuthState(ctx context.Context, provider string) string
}

// OAuthStrategy runs the authorization-code flow against one Provider.
//
// The same strategy serves both legs. A request without "code" or "error"
// starts the handshake and yields OutcomeRedirect; the provider's callback
// carries one of them and is resolved to a user through verify.
type OAuthStrategy struct {
	provider Provider
	states   *StateService
	store    StateStore
	verify   VerifyFunc
}

var _ Strategy = (*OAuthStrategy)(nil)

func NewOAuthStrategy(provider Provider, states *StateService, store StateStore, verify VerifyFunc) *OAuthStrategy {
	return &OAuthStrategy{
		provider: provider,
		states:   states,
		store:    store,
		verify:   verify,
	}
}

func (s *OAuthStrategy) Name() StrategyName { return StrategyName(s.provider.Name()) }

func (s *OAuthStrategy) Authenticate(r *http.Request, policy RedirectPolicy) Result {
	ctx := r.Context()
	name := s.provider.Name()
	q := r.URL.Query()

	if e := q.Get("error"); e != "" {
		return Result{
			Outcome: OutcomeDenied,
			Err:     fmt.Errorf("%w: %s: %s", ErrAccessDenied, e, q.Get("error_description")),
		}
	}

	code := q.Get("code")
	if code == "" {
		state, nonce, err := s.states.Issue(name)
		if err != nil {
			return failed(err)
		}
		s.store.PutOAuthState(ctx, name, nonce)
		return Result{
			Outcome:     OutcomeRedirect,
			RedirectURL: s.provider.AuthURL(state, policy.Scopes),
		}
	}

	// Pop before checking so a state can never be replayed.
	expected := s.store.PopOAuthState(ctx, name)
	nonce, err := s.states.Verify(q.Get("state"), name)
	if err != nil {
		return failed(err)
	}
	if expected == "" || nonce != expected {
		return failed(fmt.Errorf("%w: nonce does not match session", ErrInvalidState))
	}

	token, err := s.provider.Exchange(ctx, code)
	if err != nil {
		return failed(err)
	}
	profile, err := s.provider.Profile(ctx, token)
	if err != nil {
		return failed(err)
	}

	user, err := s.verify(ctx, token, profile)
	if err != nil {
		return failed(fmt.Errorf("auth: %s callback: %w", name, err))
	}
	if user == nil {
		return failed(fmt.Errorf("auth: %s callback returned no user", name))
	}
	return Result{Outcome: OutcomeSuccess, User: user}
}
