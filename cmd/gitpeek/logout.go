package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/sakif/gitpeek/internal/service"
)

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Log out and remove the stored session",
	RunE: func(cmd *cobra.Command, args []string) error {
		vis, err := newLocalVisitor()
		if err != nil {
			return err
		}
		return runLogout(cmd.Context(), cmd.OutOrStdout(), vis)
	},
}

// runLogout always clears the local session, even if the backend is unreachable.
func runLogout(ctx context.Context, out io.Writer, vis *service.Visitor) error {
	vis.Init(ctx)
	vis.Auth.Logout(ctx)
	fmt.Fprintln(out, "Logged out.")
	return nil
}
