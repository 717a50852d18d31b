package view

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"unicode/utf8"

	"github.com/sakif/gitpeek/internal/model"
)

// chartWidth is the widest bar, in characters, of the terminal chart.
const chartWidth = 40

// RenderActivity writes a terminal rendition of a search result:
// header, stats, chart, repositories and commits, each with its empty state.
func RenderActivity(w io.Writer, a *model.UserActivity) error {
	ew := &errWriter{w: w}

	header := a.Username + " - GitHub Activity Overview"
	ew.printf("%s\n%s\n\n", header, strings.Repeat("=", utf8.RuneCountInString(header)))

	ew.printf("Total Commits: %d    Repositories: %d    Time Range: %s\n\n",
		a.TotalCommits, len(a.Repositories), Capitalize(string(a.TimeRange)))

	ew.printf("Commit Activity\n")
	if len(a.ActivityChart) == 0 {
		ew.printf("  No commit activity found for this time period\n\n")
	} else {
		for _, b := range ChartBars(a.ActivityChart) {
			ew.printf("  %-12s %-*s %s\n", b.Date, chartWidth,
				strings.Repeat("#", b.Percent*chartWidth/100),
				Pluralize(b.Count, "commit", "commits"))
		}
		ew.printf("\n")
	}

	if len(a.Repositories) == 0 {
		ew.printf("Repositories\n  No repositories found\n\n")
	} else {
		ew.printf("Repositories (%d)\n", len(a.Repositories))
		tw := tabwriter.NewWriter(ew, 0, 4, 2, ' ', 0)
		for _, r := range a.Repositories {
			name := r.Name
			if r.Private {
				name += " [private]"
			}
			lang := r.Language
			if lang == "" {
				lang = "-"
			}
			fmt.Fprintf(tw, "  %s\t%s\t★ %d\tforks %d\t%s\n", name, lang, r.Stars, r.Forks, r.HTMLURL)
		}
		tw.Flush()
		ew.printf("\n")
	}

	if len(a.Commits) == 0 {
		ew.printf("Recent Commits\n  No commits found for this time period\n")
	} else {
		ew.printf("Recent Commits (%d)\n", len(a.Commits))
		for _, c := range a.Commits {
			ew.printf("  %s  %s\n", ShortSHA(c.SHA), TruncateText(FirstLine(c.Message), CommitMessageLimit))
			ew.printf("           %s • %s\n", c.Repository, FormatDateTime(c.Date))
		}
	}

	return ew.err
}

// RenderProfile writes the logged-in user line shown by `gitpeek whoami`.
func RenderProfile(w io.Writer, u *model.UserProfile) error {
	var err error
	if u.Name != "" && u.Name != u.Login {
		_, err = fmt.Fprintf(w, "Logged in as %s (%s)\n", u.Login, u.Name)
	} else {
		_, err = fmt.Fprintf(w, "Logged in as %s\n", u.Login)
	}
	return err
}

// errWriter remembers the first write error so rendering code stays linear.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) Write(p []byte) (int, error) {
	if e.err != nil {
		return 0, e.err
	}
	n, err := e.w.Write(p)
	e.err = err
	return n, err
}

func (e *errWriter) printf(format string, args ...any) {
	fmt.Fprintf(e, format, args...)
}
