package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/sakif/gitpeek/internal/model"
	"github.com/sakif/gitpeek/internal/service"
	"github.com/sakif/gitpeek/internal/view"
)

var (
	searchRange string
	searchAuth  bool
)

var searchCmd = &cobra.Command{
	Use:   "search <username>",
	Short: "Show a GitHub user's recent activity",
	Long: `Show a GitHub user's commits, repositories and commit activity.

With --auth the stored login is used, so private repositories you can
access are included.`,
	Example: "  gitpeek search octocat --range month",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tr, ok := model.ParseTimeRange(searchRange)
		if !ok {
			return fmt.Errorf("invalid --range %q (want day, week, month or year)", searchRange)
		}

		vis, err := newLocalVisitor()
		if err != nil {
			return err
		}
		return runSearch(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), vis, args[0], tr, searchAuth)
	},
}

func init() {
	searchCmd.Flags().StringVarP(&searchRange, "range", "r", string(model.DefaultTimeRange), "time range: day, week, month or year")
	searchCmd.Flags().BoolVar(&searchAuth, "auth", false, "search with the stored login")
}

func runSearch(ctx context.Context, out, errOut io.Writer, vis *service.Visitor, username string, tr model.TimeRange, useLogin bool) error {
	if useLogin {
		vis.Init(ctx)
		if !vis.Auth.IsAuthenticated() {
			fmt.Fprintln(errOut, "Not logged in; showing public activity only. Run 'gitpeek login' to sign in.")
		}
	}

	if !vis.Search.Search(ctx, username, tr) {
		return errors.New("username must not be blank")
	}

	st := vis.Search.State()
	if st.Status == service.SearchError {
		return errors.New(st.Error)
	}
	return view.RenderActivity(out, st.Data)
}
