// Package main is the entry point for the wetube server.
//
// The main package stays small: it loads configuration, builds the logger
// and hands both to internal/server, where everything else is wired.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/sakif/wetube/internal/config"
	"github.com/sakif/wetube/internal/server"
)

func main() {
	// === 1. CONFIGURATION ===
	// .env is read first, then the process environment. STATE_SECRET is the
	// only required variable; see internal/config for the rest.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// === 2. LOGGING ===
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)

	// === 3. CREATE AND START THE SERVER ===
	srv, err := server.New(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start blocks until the server is shut down (Ctrl+C or SIGTERM).
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
