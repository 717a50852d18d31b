// Command gitpeek is the GitPeek terminal client and server launcher.
//
//	gitpeek search octocat --range month
//	gitpeek login | logout | whoami
//	gitpeek serve
//
// The terminal client keeps its session id in the OS keychain and drives the
// same auth controller and search flow as the web front end.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/sakif/gitpeek/internal/api"
	"github.com/sakif/gitpeek/internal/config"
	"github.com/sakif/gitpeek/internal/repository/keyring"
	"github.com/sakif/gitpeek/internal/service"
)

var (
	// Version is set by build flags.
	Version = "dev"

	v       = config.NewViper()
	cfg     *config.Config
	logger  *slog.Logger
	verbose bool
)

// keyringAccount names the keychain item holding the session id.
const keyringAccount = "default"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "gitpeek",
	Short: "GitPeek - peek into anyone's GitHub activity",
	Long: `GitPeek shows a GitHub user's recent commits, repositories and
contribution activity, from the terminal or a small web front end.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(v)
		if err != nil {
			return err
		}

		level := slog.LevelWarn
		if verbose {
			level = slog.LevelDebug
		}
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().String("api-url", "", "GitPeek API base URL (env API_BASE_URL)")
	must(v.BindPFlag(config.KeyAPIBaseURL, rootCmd.PersistentFlags().Lookup("api-url")))

	rootCmd.AddCommand(searchCmd, loginCmd, logoutCmd, whoamiCmd, serveCmd)
}

// must panics on flag wiring mistakes, which are programmer errors.
func must(err error) {
	if err != nil {
		panic(err)
	}
}

// bindFlags binds a command's flag to a config key, so flag > env > .env > default.
func bindFlags(cmd *cobra.Command, pairs map[string]string) {
	for key, flag := range pairs {
		must(v.BindPFlag(key, cmd.Flags().Lookup(flag)))
	}
}

// newLocalVisitor builds the terminal user's client: keychain-backed session
// store, API client and controllers. Auth is not resolved yet; call Init
// when the command needs to know who is logged in.
func newLocalVisitor() (*service.Visitor, error) {
	store := keyring.New(keyringAccount, logger)
	backend, err := api.New(cfg.APIBaseURL, &http.Client{Timeout: cfg.RequestTimeout}, store, logger)
	if err != nil {
		return nil, err
	}
	return service.NewVisitor("cli", store, backend, logger), nil
}
