// Command server runs the GitPeek web front end.
//
// It is the same front end as `gitpeek serve`, for deployments that only
// want the server binary. Configuration comes from the environment and an
// optional .env file (see internal/config).
package main

import (
	"log/slog"
	"os"

	"github.com/sakif/gitpeek/internal/config"
	"github.com/sakif/gitpeek/internal/server"
)

func main() {
	cfg, err := config.Load(config.NewViper())
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	if err := cfg.EnsureVisitorSecret(logger); err != nil {
		logger.Error("visitor secret", slog.String("error", err.Error()))
		os.Exit(1)
	}

	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start blocks until SIGINT/SIGTERM.
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
