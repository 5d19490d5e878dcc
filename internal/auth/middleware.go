package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/wetube/internal/apperror"
	"github.com/sakif/wetube/internal/model"
	"github.com/sakif/wetube/internal/repository"
	"github.com/sakif/wetube/internal/routes"
	"github.com/sakif/wetube/internal/session"
)

// contextKey is an unexported type used for context keys in this package,
// so no other package can read or shadow the values stored under it.
type contextKey string

const sessionContextKey contextKey = "session"

// SessionContext is what a handler knows about the browser it is serving.
// It is passed to handlers explicitly; see WithSession.
type SessionContext struct {
	User *model.User // nil for anonymous requests
}

// Authenticated reports whether a user is logged in.
func (s SessionContext) Authenticated() bool { return s.User != nil }

// WithSessionContext returns a copy of ctx carrying sc.
func WithSessionContext(ctx context.Context, sc SessionContext) context.Context {
	return context.WithValue(ctx, sessionContextKey, sc)
}

// SessionFromContext returns the SessionContext stored by LoadUser, or an
// anonymous one.
func SessionFromContext(ctx context.Context) SessionContext {
	sc, _ := ctx.Value(sessionContextKey).(SessionContext)
	return sc
}

// UserFinder is the slice of the user repository LoadUser needs.
type UserFinder interface {
	GetUserByID(ctx context.Context, id string, opts repository.GetOptions) (*model.User, error)
}

// LoadUser resolves the session's user id to a user and stores it in the
// request's SessionContext. It never blocks a request: a session pointing at
// a deleted user is logged out, and a lookup error leaves the request
// anonymous.
func LoadUser(sessions *session.Manager, users UserFinder, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			var sc SessionContext

			if id := sessions.UserID(ctx); id != "" {
				user, err := users.GetUserByID(ctx, id, repository.GetOptions{})
				switch {
				case err == nil:
					sc.User = user
				case errors.Is(err, apperror.ErrNotFound):
					_ = sessions.Logout(ctx)
				default:
					logger.Error("loading session user",
						slog.String("user_id", id),
						slog.Any("error", err),
					)
				}
			}

			next.ServeHTTP(w, r.WithContext(WithSessionContext(ctx, sc)))
		})
	}
}

// OnlyPublic sends logged-in users home. It guards the join and login pages.
func OnlyPublic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if SessionFromContext(r.Context()).Authenticated() {
			http.Redirect(w, r, routes.Home, http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// OnlyPrivate sends anonymous visitors home.
func OnlyPrivate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !SessionFromContext(r.Context()).Authenticated() {
			http.Redirect(w, r, routes.Home, http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// SessionHandlerFunc is an http.HandlerFunc that also receives the
// request's SessionContext.
type SessionHandlerFunc func(w http.ResponseWriter, r *http.Request, sc SessionContext)

// WithSession adapts fn to an http.HandlerFunc.
func WithSession(fn SessionHandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fn(w, r, SessionFromContext(r.Context()))
	}
}
