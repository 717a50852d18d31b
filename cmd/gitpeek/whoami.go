package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/sakif/gitpeek/internal/service"
	"github.com/sakif/gitpeek/internal/view"
)

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the logged-in GitHub user",
	RunE: func(cmd *cobra.Command, args []string) error {
		vis, err := newLocalVisitor()
		if err != nil {
			return err
		}
		return runWhoami(cmd.Context(), cmd.OutOrStdout(), vis)
	},
}

func runWhoami(ctx context.Context, out io.Writer, vis *service.Visitor) error {
	vis.Init(ctx)
	st := vis.Auth.State()
	if !st.IsAuthenticated() {
		fmt.Fprintln(out, "Not logged in. Run 'gitpeek login' to sign in.")
		return nil
	}
	return view.RenderProfile(out, st.User)
}
