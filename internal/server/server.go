// Package server wires the application together and runs the HTTP server.
//
// New is the composition root: it opens the store, builds the services and
// handlers, and mounts them on a chi router. Nothing else in the module
// constructs a concrete dependency.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/wetube/internal/auth"
	"github.com/sakif/wetube/internal/config"
	"github.com/sakif/wetube/internal/handler"
	"github.com/sakif/wetube/internal/middleware"
	"github.com/sakif/wetube/internal/repository"
	mongoRepo "github.com/sakif/wetube/internal/repository/mongo"
	sqliteRepo "github.com/sakif/wetube/internal/repository/sqlite"
	"github.com/sakif/wetube/internal/routes"
	"github.com/sakif/wetube/internal/service"
	"github.com/sakif/wetube/internal/session"
	"github.com/sakif/wetube/internal/storage"
	"github.com/sakif/wetube/internal/view"
)

// Server owns the router and the store. The store is closed when Start
// returns.
type Server struct {
	router *chi.Mux
	config config.Config
	logger *slog.Logger
	store  repository.Store
}

// New builds the whole dependency graph from cfg.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Server, error) {
	store, err := openStore(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		store:  store,
	}

	if err := s.setupRoutes(ctx); err != nil {
		store.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}
	return s, nil
}

// openStore picks the backend named by cfg.Driver.
func openStore(ctx context.Context, cfg config.StoreConfig) (repository.Store, error) {
	switch cfg.Driver {
	case config.StoreMongo:
		store, err := mongoRepo.New(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, fmt.Errorf("opening mongo store: %w", err)
		}
		return store, nil

	case config.StoreSQLite:
		if cfg.DBPath != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
				return nil, fmt.Errorf("creating database directory: %w", err)
			}
		}
		db, err := sqliteRepo.New(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("opening database: %w", err)
		}
		return db, nil

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

// openUploads returns the avatar storage, and for local storage the
// directory to serve under /uploads/.
func openUploads(ctx context.Context, cfg config.UploadConfig) (storage.Storage, string, error) {
	switch cfg.Driver {
	case config.UploadS3:
		s3, err := storage.NewS3Storage(ctx, storage.S3Config{
			Bucket:         cfg.S3Bucket,
			Region:         cfg.S3Region,
			AccessKeyID:    cfg.S3AccessKeyID,
			SecretKey:      cfg.S3SecretKey,
			Endpoint:       cfg.S3Endpoint,
			BaseURL:        cfg.S3BaseURL,
			ForcePathStyle: cfg.S3ForcePathStyle,
		})
		if err != nil {
			return nil, "", err
		}
		return s3, "", nil

	default:
		local, err := storage.NewLocalStorage(cfg.Dir, routes.Uploads)
		if err != nil {
			return nil, "", err
		}
		return local, local.Dir(), nil
	}
}

// setupRoutes configures middleware and routes.
//
//	GET  /                        home (recent videos)
//	GET  /uploads/*               local avatars (UPLOAD_DRIVER=local)
//	GET  /join, /login            forms              (anonymous only)
//	POST /join, /login            register / log in  (anonymous only)
//	GET  /auth/{github,facebook}[/callback]          (anonymous only)
//	GET  /users/{id}              profile
//	GET  /logout, /me             (logged in only)
//	GET  /users/edit-profile, /users/change-password and their POSTs (logged in only)
func (s *Server) setupRoutes(ctx context.Context) error {
	cfg := s.config

	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)

	uploads, uploadDir, err := openUploads(ctx, cfg.Upload)
	if err != nil {
		return fmt.Errorf("opening upload storage: %w", err)
	}
	if uploadDir != "" {
		s.router.Handle(routes.Uploads+"*", http.StripPrefix(routes.Uploads, http.FileServer(http.Dir(uploadDir))))
	}

	views, err := view.New(s.logger)
	if err != nil {
		return err
	}
	states, err := auth.NewStateService(cfg.Session.StateSecret)
	if err != nil {
		return err
	}

	sessions := session.New(session.Config{
		CookieName: cfg.Session.CookieName,
		Lifetime:   cfg.Session.Lifetime,
		Secure:     cfg.Session.CookieSecure,
	})

	accounts := service.NewAccountService(s.store, s.store, auth.NewPasswordService(), s.logger)
	authn := auth.NewAuthenticator(sessions, s.logger, auth.NewLocalStrategy(accounts.Authenticate))
	users := handler.NewUserHandler(accounts, authn, sessions, views, s.logger)
	home := handler.NewHomeHandler(accounts, sessions, views, s.logger)

	// The provider strategies call back into the handler, so they are
	// registered after it exists.
	if cfg.GitHub.Enabled() {
		gh := auth.NewGitHubProvider(auth.ProviderConfig(cfg.GitHub))
		authn.Use(auth.NewOAuthStrategy(gh, states, sessions, users.GitHubLoginCallback))
	} else {
		s.logger.Warn("GitHub login disabled: GITHUB_CLIENT_ID/GITHUB_CLIENT_SECRET not set")
	}
	if cfg.Facebook.Enabled() {
		fb := auth.NewFacebookProvider(auth.ProviderConfig(cfg.Facebook))
		authn.Use(auth.NewOAuthStrategy(fb, states, sessions, users.FacebookLoginCallback))
	} else {
		s.logger.Warn("Facebook login disabled: FACEBOOK_CLIENT_ID/FACEBOOK_CLIENT_SECRET not set")
	}

	s.router.Group(func(r chi.Router) {
		r.Use(sessions.LoadAndSave)
		r.Use(auth.LoadUser(sessions, s.store, s.logger))

		r.Get(routes.Home, auth.WithSession(home.Home))
		r.Get(routes.UserDetailPath, auth.WithSession(users.UserDetail))

		r.Group(func(r chi.Router) {
			r.Use(auth.OnlyPublic)

			r.Get(routes.Join, auth.WithSession(users.GetJoin))
			r.Method(http.MethodPost, routes.Join, users.PostJoin(users.PostLogin()))
			r.Get(routes.Login, auth.WithSession(users.GetLogin))
			r.Method(http.MethodPost, routes.Login, users.PostLogin())

			r.Method(http.MethodGet, routes.GitHub, users.GitHubLogin())
			r.Method(http.MethodGet, routes.GitHubCallback,
				users.GitHubLoginFindOrCreate()(http.HandlerFunc(users.GitHubLoginSuccess)))
			r.Method(http.MethodGet, routes.Facebook, users.FacebookLogin())
			r.Method(http.MethodGet, routes.FacebookCallback,
				users.FacebookLoginFindOrCreate()(http.HandlerFunc(users.FacebookLoginSuccess)))
		})

		r.Group(func(r chi.Router) {
			r.Use(auth.OnlyPrivate)

			r.Get(routes.Logout, users.Logout)
			r.Get(routes.Me, auth.WithSession(users.GetMe))
			r.Get(routes.EditProfile, auth.WithSession(users.GetEditProfile))
			r.With(storage.UploadAvatar(uploads, cfg.Upload.MaxAvatarBytes, s.logger)).
				Post(routes.EditProfile, auth.WithSession(users.PostEditProfile))
			r.Get(routes.ChangePassword, auth.WithSession(users.GetChangePassword))
			r.Post(routes.ChangePassword, auth.WithSession(users.PostChangePassword))
		})
	})

	return nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until SIGINT/SIGTERM, then drains in-flight requests for up
// to 30 seconds and closes the store.
func (s *Server) Start() error {
	defer s.store.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", s.config.BaseURL),
			slog.String("store", s.config.Store.Driver),
			slog.String("uploads", s.config.Upload.Driver),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
