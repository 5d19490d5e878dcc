package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"golang.org/x/oauth2"

	"github.com/sakif/wetube/internal/auth"
	"github.com/sakif/wetube/internal/model"
	"github.com/sakif/wetube/internal/routes"
	"github.com/sakif/wetube/internal/service"
	"github.com/sakif/wetube/internal/session"
	"github.com/sakif/wetube/internal/storage"
	"github.com/sakif/wetube/internal/view"
)

// AccountService is what UserHandler needs from the account layer.
// *service.AccountService implements it.
type AccountService interface {
	Register(ctx context.Context, user *model.User, password string) error
	ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error
	GetUserWithVideos(ctx context.Context, id string) (*model.User, error)
	UpdateProfile(ctx context.Context, userID string, in service.ProfileInput) (*model.User, error)
	LinkGitHub(ctx context.Context, profile *auth.Profile) (*model.User, error)
	LinkFacebook(ctx context.Context, profile *auth.Profile) (*model.User, error)
}

var _ AccountService = (*service.AccountService)(nil)

// UserHandler serves registration, login (local, GitHub, Facebook), logout,
// profile pages and password changes.
//
// Every failure a user can cause or a collaborator can report ends in a
// flash notice and a redirect; nothing reaches a generic error page.
type UserHandler struct {
	accounts AccountService
	auth     *auth.Authenticator
	pages
}

func NewUserHandler(
	accounts AccountService,
	authenticator *auth.Authenticator,
	sessions *session.Manager,
	views view.Renderer,
	logger *slog.Logger,
) *UserHandler {
	return &UserHandler{
		accounts: accounts,
		auth:     authenticator,
		pages:    pages{sessions: sessions, views: views, logger: logger},
	}
}

// =========================================================================
// Join
// =========================================================================

// GetJoin renders the registration form.
func (h *UserHandler) GetJoin(w http.ResponseWriter, r *http.Request, sc auth.SessionContext) {
	h.render(w, r, sc, http.StatusOK, view.Join, "Join", nil)
}

// PostJoin registers the submitted account and hands the request to next,
// which logs the new user in. Mismatched passwords re-render the form with
// a 400 and store nothing.
func (h *UserHandler) PostJoin(next http.Handler) http.Handler {
	return auth.WithSession(func(w http.ResponseWriter, r *http.Request, sc auth.SessionContext) {
		ctx := r.Context()
		password := r.FormValue("password")

		if password != r.FormValue("verifyPassword") {
			h.flash(ctx, session.LevelError, "Check your password")
			h.render(w, r, sc, http.StatusBadRequest, view.Join, "Join", nil)
			return
		}

		user := &model.User{
			Name:  r.FormValue("name"),
			Email: r.FormValue("email"),
		}
		if err := h.accounts.Register(ctx, user, password); err != nil {
			h.logger.Warn("registration failed",
				slog.String("email", user.Email),
				slog.Any("error", err),
			)
			h.flash(ctx, session.LevelError, "Can't register user now")
			redirect(w, r, routes.Home)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// =========================================================================
// Local login
// =========================================================================

// GetLogin renders the login form.
func (h *UserHandler) GetLogin(w http.ResponseWriter, r *http.Request, sc auth.SessionContext) {
	h.render(w, r, sc, http.StatusOK, view.Login, "Log In", nil)
}

// PostLogin checks the email and password form fields.
func (h *UserHandler) PostLogin() http.Handler {
	return h.auth.Authenticate(auth.StrategyLocal, auth.RedirectPolicy{
		SuccessRedirect: routes.Home,
		FailureRedirect: routes.Login,
		SuccessFlash:    "Welcome!",
		FailureFlash:    "Check you email or password",
	})(http.HandlerFunc(goHome))
}

// =========================================================================
// GitHub
// =========================================================================

const githubDenied = "We need your permission to login with you Github Account"

// GitHubLogin sends the browser to GitHub's consent page.
func (h *UserHandler) GitHubLogin() http.Handler {
	return h.auth.Authenticate(auth.StrategyGitHub, auth.RedirectPolicy{
		FailureFlash: githubDenied,
		DeniedFlash:  githubDenied,
	})(http.HandlerFunc(goHome))
}

// GitHubLoginCallback links the GitHub identity to an account with the same
// email, or creates one. Its error fails the login.
func (h *UserHandler) GitHubLoginCallback(ctx context.Context, _ *oauth2.Token, profile *auth.Profile) (*model.User, error) {
	return h.accounts.LinkGitHub(ctx, profile)
}

// GitHubLoginFindOrCreate completes the handshake on GitHub's callback and
// passes logged-in users on to next.
func (h *UserHandler) GitHubLoginFindOrCreate() func(http.Handler) http.Handler {
	return h.auth.Authenticate(auth.StrategyGitHub, auth.RedirectPolicy{
		FailureRedirect: routes.Login,
		SuccessFlash:    "Welcome!",
		FailureFlash:    "Can't log in",
		DeniedFlash:     githubDenied,
	})
}

func (h *UserHandler) GitHubLoginSuccess(w http.ResponseWriter, r *http.Request) {
	goHome(w, r)
}

// =========================================================================
// Facebook
// =========================================================================

const facebookDenied = "We need your permission to login with you Facebook Account"

// FacebookLogin sends the browser to Facebook's consent page, asking for
// the email and public profile.
func (h *UserHandler) FacebookLogin() http.Handler {
	return h.auth.Authenticate(auth.StrategyFacebook, auth.RedirectPolicy{
		FailureFlash: facebookDenied,
		DeniedFlash:  facebookDenied,
		Scopes:       []string{"email", "public_profile"},
	})(http.HandlerFunc(goHome))
}

// FacebookLoginCallback is GitHubLoginCallback for Facebook.
func (h *UserHandler) FacebookLoginCallback(ctx context.Context, _ *oauth2.Token, profile *auth.Profile) (*model.User, error) {
	return h.accounts.LinkFacebook(ctx, profile)
}

func (h *UserHandler) FacebookLoginFindOrCreate() func(http.Handler) http.Handler {
	return h.auth.Authenticate(auth.StrategyFacebook, auth.RedirectPolicy{
		FailureRedirect: routes.Login,
		SuccessFlash:    "Welcome!",
		FailureFlash:    "Can't log in",
		DeniedFlash:     facebookDenied,
	})
}

func (h *UserHandler) FacebookLoginSuccess(w http.ResponseWriter, r *http.Request) {
	goHome(w, r)
}

// =========================================================================
// Logout
// =========================================================================

// Logout always ends up at home, whatever state the session was in.
func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	h.flash(ctx, session.LevelSuccess, "Logged Out")
	if err := h.auth.Logout(ctx); err != nil {
		h.logger.Warn("logout", slog.Any("error", err))
	}
	goHome(w, r)
}

// =========================================================================
// Profiles
// =========================================================================

// GetMe shows the logged-in user's profile. Any failure goes home without
// a notice.
func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request, sc auth.SessionContext) {
	if !sc.Authenticated() {
		goHome(w, r)
		return
	}

	user, err := h.accounts.GetUserWithVideos(r.Context(), sc.User.ID)
	if err != nil {
		h.logger.Warn("loading own profile",
			slog.String("user_id", sc.User.ID),
			slog.Any("error", err),
		)
		goHome(w, r)
		return
	}
	h.render(w, r, sc, http.StatusOK, view.UserDetail, "User Detail", user)
}

// UserDetail shows the profile of the user in the path.
func (h *UserHandler) UserDetail(w http.ResponseWriter, r *http.Request, sc auth.SessionContext) {
	id := chi.URLParam(r, "id")

	user, err := h.accounts.GetUserWithVideos(r.Context(), id)
	if err != nil {
		h.logger.Info("user detail lookup failed",
			slog.String("user_id", id),
			slog.Any("error", err),
		)
		h.flash(r.Context(), session.LevelError, "User not found")
		goHome(w, r)
		return
	}
	h.render(w, r, sc, http.StatusOK, view.UserDetail, "User Detail", user)
}

// GetEditProfile renders the edit form; the template fills it from the
// logged-in user.
func (h *UserHandler) GetEditProfile(w http.ResponseWriter, r *http.Request, sc auth.SessionContext) {
	h.render(w, r, sc, http.StatusOK, view.EditProfile, "Edit Profile", nil)
}

// PostEditProfile saves name, email and, when a file was uploaded, the
// avatar. It must run behind storage.UploadAvatar.
func (h *UserHandler) PostEditProfile(w http.ResponseWriter, r *http.Request, sc auth.SessionContext) {
	ctx := r.Context()
	fail := func(msg string, err error) {
		h.logger.Warn(msg, slog.Any("error", err))
		h.flash(ctx, session.LevelError, "Can't edit profile")
		redirect(w, r, routes.EditProfile)
	}

	if !sc.Authenticated() {
		goHome(w, r)
		return
	}

	location, err := storage.UploadedFrom(ctx)
	if err != nil {
		fail("avatar upload", err)
		return
	}

	_, err = h.accounts.UpdateProfile(ctx, sc.User.ID, service.ProfileInput{
		Name:      r.FormValue("name"),
		Email:     r.FormValue("email"),
		AvatarURL: location,
	})
	if err != nil {
		fail("profile update", err)
		return
	}

	h.flash(ctx, session.LevelSuccess, "Profile updated")
	redirect(w, r, routes.Me)
}

// =========================================================================
// Change password
// =========================================================================

func (h *UserHandler) GetChangePassword(w http.ResponseWriter, r *http.Request, sc auth.SessionContext) {
	h.render(w, r, sc, http.StatusOK, view.ChangePassword, "Change Password", nil)
}

// PostChangePassword verifies the old password and stores the new one.
//
// When the two new passwords differ the response status becomes 400 and a
// notice is queued, but the change is still attempted with newPassword.
// The final redirect carries that 400.
func (h *UserHandler) PostChangePassword(w http.ResponseWriter, r *http.Request, sc auth.SessionContext) {
	ctx := r.Context()
	if !sc.Authenticated() {
		goHome(w, r)
		return
	}

	newPassword := r.FormValue("newPassword")
	status := http.StatusFound
	if newPassword != r.FormValue("newPassword1") {
		h.flash(ctx, session.LevelError, "Check if password match")
		status = http.StatusBadRequest
	}

	if err := h.accounts.ChangePassword(ctx, sc.User.ID, r.FormValue("oldPassword"), newPassword); err != nil {
		h.logger.Warn("password change failed",
			slog.String("user_id", sc.User.ID),
			slog.Any("error", err),
		)
		h.flash(ctx, session.LevelError, "Can't change password")
		http.Redirect(w, r, routes.ChangePassword, http.StatusBadRequest)
		return
	}

	h.flash(ctx, session.LevelSuccess, "Password changed")
	http.Redirect(w, r, routes.Me, status)
}
