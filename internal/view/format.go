// Package view holds GitPeek's presentation helpers: the small formatting
// rules shared by the HTML templates and the terminal renderer.
//
// Nothing here has state or mutates its input. Lists are rendered in the
// order the backend returned them, keyed by Repository.ID and Commit.SHA.
package view

import (
	"fmt"
	"html/template"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/sakif/gitpeek/internal/model"
)

// Ellipsis is appended to truncated text.
const Ellipsis = "..."

// CommitMessageLimit is how many characters of a commit message are shown.
const CommitMessageLimit = 80

const (
	dateLayout     = "Jan 2, 2006"
	dateTimeLayout = "Jan 2, 2006, 3:04 PM"
)

// TruncateText shortens text to n characters plus Ellipsis.
// Text of n characters or fewer is returned unchanged.
func TruncateText(text string, n int) string {
	if n < 0 {
		n = 0
	}
	if utf8.RuneCountInString(text) <= n {
		return text
	}
	runes := []rune(text)
	return string(runes[:n]) + Ellipsis
}

// FirstLine returns the subject line of a commit message.
func FirstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimRight(s[:i], "\r")
	}
	return s
}

// FormatDate renders t like "Jan 15, 2024".
func FormatDate(t time.Time) string {
	return t.Format(dateLayout)
}

// FormatDateTime renders t like "Jan 15, 2024, 12:30 PM".
func FormatDateTime(t time.Time) string {
	return t.Format(dateTimeLayout)
}

// FormatDateString parses an RFC 3339 timestamp and renders it with FormatDate.
// Unparseable input is returned as-is.
func FormatDateString(s string) string {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return s
	}
	return FormatDate(t)
}

// FormatDateTimeString is FormatDateString for FormatDateTime.
func FormatDateTimeString(s string) string {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return s
	}
	return FormatDateTime(t)
}

// Pluralize renders a count with its noun: "1 commit", "3 commits".
func Pluralize(count int, singular, plural string) string {
	if count == 1 {
		return fmt.Sprintf("%d %s", count, singular)
	}
	return fmt.Sprintf("%d %s", count, plural)
}

// ShortSHA is the 7-character abbreviated commit hash.
func ShortSHA(sha string) string {
	if len(sha) <= 7 {
		return sha
	}
	return sha[:7]
}

// Capitalize upper-cases the first letter: "week" → "Week".
func Capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// Bar is one column of the activity chart, scaled against the tallest column.
type Bar struct {
	Date    string
	Count   int
	Percent int // 0..100, relative to the busiest bucket
}

// ChartBars scales an activity series for display. Order is preserved.
func ChartBars(series []model.CommitActivity) []Bar {
	maxCount := 0
	for _, p := range series {
		if p.Count > maxCount {
			maxCount = p.Count
		}
	}

	bars := make([]Bar, 0, len(series))
	for _, p := range series {
		pct := 0
		if maxCount > 0 && p.Count > 0 {
			pct = p.Count * 100 / maxCount
			if pct == 0 {
				pct = 1 // keep non-zero buckets visible
			}
		}
		bars = append(bars, Bar{Date: p.Date, Count: p.Count, Percent: pct})
	}
	return bars
}

// FuncMap exposes the helpers to html/template.
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"truncate":       TruncateText,
		"firstLine":      FirstLine,
		"formatDate":     FormatDate,
		"formatDateTime": FormatDateTime,
		"pluralize":      Pluralize,
		"shortSHA":       ShortSHA,
		"capitalize":     Capitalize,
		"chartBars":      ChartBars,
		"commitLimit":    func() int { return CommitMessageLimit },
	}
}
