package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/pkg/browser"
	"github.com/rs/xid"
	"github.com/spf13/cobra"

	"github.com/sakif/gitpeek/internal/config"
	"github.com/sakif/gitpeek/internal/service"
	"github.com/sakif/gitpeek/internal/view"
)

// loginTimeout bounds how long we wait for the browser to come back.
const loginTimeout = 5 * time.Minute

const loginDonePage = `<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>GitPeek</title></head>
<body style="font-family: sans-serif; text-align: center; padding: 48px">
<h1>GitPeek</h1><p>Login received. You can close this window and return to your terminal.</p>
</body></html>`

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in with GitHub",
	Long: `Log in with GitHub through the GitPeek API.

Your browser is opened on GitHub's authorization page. GitHub sends it back
to a temporary listener on this machine, and the resulting session is stored
in the OS keychain.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		vis, err := newLocalVisitor()
		if err != nil {
			return err
		}
		return runLogin(cmd.Context(), cmd.OutOrStdout(), vis, loginOptions{
			Addr:          cfg.CLICallbackAddr,
			CallbackDelay: cfg.CallbackDelay,
			OpenURL:       browser.OpenURL,
			Logger:        logger,
		})
	},
}

func init() {
	loginCmd.Flags().String("callback-addr", "", "local address for the OAuth callback listener (env CLI_CALLBACK_ADDR)")
	bindFlags(loginCmd, map[string]string{config.KeyCLICallbackAddr: "callback-addr"})
}

type loginOptions struct {
	Addr          string
	CallbackDelay time.Duration
	OpenURL       func(string) error
	Logger        *slog.Logger
	Timeout       time.Duration // defaults to loginTimeout
}

// runLogin performs the loopback OAuth flow:
//
//  1. listen on Addr and ask the backend for an authorization URL that
//     returns to http://Addr/callback?nonce=<xid>
//  2. open the URL in the browser
//  3. wait for the callback and hand its query to the callback service
//
// A callback without this run's nonce did not originate from it and is
// rejected.
func runLogin(ctx context.Context, out io.Writer, vis *service.Visitor, opts loginOptions) error {
	vis.Init(ctx)
	if st := vis.Auth.State(); st.IsAuthenticated() {
		fmt.Fprintf(out, "Already logged in as %s. Run 'gitpeek logout' to sign out.\n", st.User.Login)
		return nil
	}

	ln, err := net.Listen("tcp", opts.Addr)
	if err != nil {
		return fmt.Errorf("starting callback listener on %s: %w", opts.Addr, err)
	}

	nonce := xid.New().String()
	redirectURI := fmt.Sprintf("http://%s/callback?%s", ln.Addr(), url.Values{"nonce": {nonce}}.Encode())

	results := make(chan url.Values, 1)
	router := chi.NewRouter()
	router.Get("/callback", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if got := q.Get("nonce"); got != nonce {
			opts.Logger.Warn("login callback with unexpected nonce", slog.String("nonce", got))
			http.Error(w, "This login was not started by this terminal.", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		io.WriteString(w, loginDonePage)
		select {
		case results <- q:
		default:
		}
	})

	srv := &http.Server{Handler: router, ReadHeaderTimeout: 10 * time.Second}
	go srv.Serve(ln)
	defer srv.Close()

	authURL, err := vis.Backend.InitiateLogin(ctx, redirectURI)
	if err != nil {
		return fmt.Errorf("starting login: %w", err)
	}

	fmt.Fprintln(out, "Opening your browser to log in with GitHub...")
	if err := opts.OpenURL(authURL); err != nil {
		fmt.Fprintf(out, "Could not open a browser. Visit this URL to continue:\n\n  %s\n\n", authURL)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = loginTimeout
	}
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var query url.Values
	select {
	case query = <-results:
	case <-waitCtx.Done():
		return errors.New("login cancelled or timed out")
	}

	callback := service.NewCallbackService(vis.Backend, opts.CallbackDelay, opts.Logger)
	if res := callback.Complete(ctx, query, vis.Auth); !res.OK() {
		return errors.New(res.Error)
	}

	if st := vis.Auth.State(); st.User != nil {
		return view.RenderProfile(out, st.User)
	}
	fmt.Fprintln(out, "Logged in.")
	return nil
}
