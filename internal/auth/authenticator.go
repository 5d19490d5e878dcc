package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/sakif/wetube/internal/routes"
	"github.com/sakif/wetube/internal/session"
)

// RedirectPolicy says where the browser goes and which notice it sees for
// each outcome of an authentication attempt.
type RedirectPolicy struct {
	// SuccessRedirect is where an authenticated user is sent. When empty
	// the next handler in the chain runs instead, with the user in its
	// SessionContext.
	SuccessRedirect string
	// FailureRedirect defaults to the login page.
	FailureRedirect string

	SuccessFlash string
	FailureFlash string
	// DeniedFlash is shown when the user refuses consent at the provider.
	// It falls back to FailureFlash.
	DeniedFlash string

	// Scopes replace the provider's default scopes on the consent page.
	Scopes []string
}

// Authenticator runs a named Strategy and turns its Result into a session
// login, a flash notice and a redirect.
type Authenticator struct {
	sessions   *session.Manager
	strategies map[StrategyName]Strategy
	logger     *slog.Logger
}

func NewAuthenticator(sessions *session.Manager, logger *slog.Logger, strategies ...Strategy) *Authenticator {
	a := &Authenticator{
		sessions:   sessions,
		strategies: make(map[StrategyName]Strategy, len(strategies)),
		logger:     logger,
	}
	for _, s := range strategies {
		a.Use(s)
	}
	return a
}

// Use registers s, replacing any strategy with the same name.
func (a *Authenticator) Use(s Strategy) {
	a.strategies[s.Name()] = s
}

// Authenticate returns middleware that authenticates the request with the
// named strategy and applies policy to the outcome.
func (a *Authenticator) Authenticate(name StrategyName, policy RedirectPolicy) func(http.Handler) http.Handler {
	if policy.FailureRedirect == "" {
		policy.FailureRedirect = routes.Login
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			strategy, ok := a.strategies[name]
			if !ok {
				a.fail(w, r, name, policy, policy.FailureFlash,
					fmt.Errorf("auth: unknown strategy %q", name))
				return
			}

			res := strategy.Authenticate(r, policy)
			switch res.Outcome {
			case OutcomeRedirect:
				http.Redirect(w, r, res.RedirectURL, http.StatusFound)

			case OutcomeSuccess:
				a.succeed(w, r, next, name, policy, res)

			case OutcomeDenied:
				msg := policy.DeniedFlash
				if msg == "" {
					msg = policy.FailureFlash
				}
				a.fail(w, r, name, policy, msg, res.Err)

			default:
				a.fail(w, r, name, policy, policy.FailureFlash, res.Err)
			}
		})
	}
}

func (a *Authenticator) succeed(w http.ResponseWriter, r *http.Request, next http.Handler, name StrategyName, policy RedirectPolicy, res Result) {
	ctx := r.Context()

	if err := a.sessions.Login(ctx, res.User.ID); err != nil {
		a.fail(w, r, name, policy, policy.FailureFlash, fmt.Errorf("auth: starting session: %w", err))
		return
	}

	a.logger.Info("user logged in",
		slog.String("strategy", string(name)),
		slog.String("user_id", res.User.ID),
	)

	if policy.SuccessFlash != "" {
		a.sessions.Flash(ctx, session.LevelSuccess, policy.SuccessFlash)
	}

	if policy.SuccessRedirect != "" {
		http.Redirect(w, r, policy.SuccessRedirect, http.StatusFound)
		return
	}
	next.ServeHTTP(w, r.WithContext(WithSessionContext(ctx, SessionContext{User: res.User})))
}

func (a *Authenticator) fail(w http.ResponseWriter, r *http.Request, name StrategyName, policy RedirectPolicy, flash string, err error) {
	a.logger.Warn("authentication failed",
		slog.String("strategy", string(name)),
		slog.Any("error", err),
	)
	if flash != "" {
		a.sessions.Flash(r.Context(), session.LevelError, flash)
	}
	http.Redirect(w, r, policy.FailureRedirect, http.StatusFound)
}

// Logout ends the authenticated session. Queued notices are kept.
func (a *Authenticator) Logout(ctx context.Context) error {
	return a.sessions.Logout(ctx)
}
