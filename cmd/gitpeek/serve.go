package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/sakif/gitpeek/internal/config"
	"github.com/sakif/gitpeek/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the GitPeek web front end",
	RunE: func(cmd *cobra.Command, args []string) error {
		srvLogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))

		if err := cfg.EnsureVisitorSecret(srvLogger); err != nil {
			return err
		}

		srv, err := server.New(cfg, srvLogger)
		if err != nil {
			return err
		}
		return srv.Start()
	},
}

func init() {
	serveCmd.Flags().Int("port", 8080, "port to listen on (env PORT)")
	serveCmd.Flags().String("db", "", "SQLite database path (env DB_PATH)")
	serveCmd.Flags().String("public-url", "", "public base URL of the front end (env PUBLIC_URL)")
	bindFlags(serveCmd, map[string]string{
		config.KeyPort:      "port",
		config.KeyDBPath:    "db",
		config.KeyPublicURL: "public-url",
	})
}
