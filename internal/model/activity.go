package model

import (
	"strings"
	"time"
)

// TimeRange is the window of activity requested from the backend.
//
// It is a string type rather than an int enum because the backend speaks in
// these exact strings ("day", "week", ...), so the value can go on the wire
// and into HTML <option> values without translation.
type TimeRange string

const (
	TimeRangeDay   TimeRange = "day"
	TimeRangeWeek  TimeRange = "week"
	TimeRangeMonth TimeRange = "month"
	TimeRangeYear  TimeRange = "year"
)

// DefaultTimeRange is preselected in the search form.
const DefaultTimeRange = TimeRangeWeek

// TimeRanges lists every valid range in display order.
var TimeRanges = []TimeRange{TimeRangeDay, TimeRangeWeek, TimeRangeMonth, TimeRangeYear}

// ParseTimeRange converts user input into a TimeRange.
// Input is matched case-insensitively; ok is false for anything outside the enumeration.
func ParseTimeRange(s string) (TimeRange, bool) {
	tr := TimeRange(strings.ToLower(strings.TrimSpace(s)))
	for _, valid := range TimeRanges {
		if tr == valid {
			return tr, true
		}
	}
	return "", false
}

// Label is the human-readable option text, e.g. "Past Week".
func (tr TimeRange) Label() string {
	switch tr {
	case TimeRangeDay:
		return "Past Day"
	case TimeRangeWeek:
		return "Past Week"
	case TimeRangeMonth:
		return "Past Month"
	case TimeRangeYear:
		return "Past Year"
	}
	return string(tr)
}

// Repository is one repository owned by the searched user.
// ID is the uniqueness key.
type Repository struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	HTMLURL     string `json:"html_url"`
	Description string `json:"description,omitempty"` // empty when GitHub has none
	Private     bool   `json:"private"`
	Language    string `json:"language,omitempty"` // empty when GitHub could not detect one
	Stars       int    `json:"stars"`
	Forks       int    `json:"forks"`
}

// Commit is one commit authored by the searched user. SHA is the uniqueness key.
type Commit struct {
	SHA        string    `json:"sha"`
	Message    string    `json:"message"`
	HTMLURL    string    `json:"html_url"`
	Repository string    `json:"repository"`
	Date       time.Time `json:"date"`
}

// CommitActivity is one bucket of the activity chart.
// Date is kept as the backend's label ("2024-01-15") because it is only displayed.
type CommitActivity struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// UserActivity is the full result of one username search.
//
// It is always replaced as a whole: the search flow never merges two results,
// so Repositories, Commits and ActivityChart always belong to the same search.
type UserActivity struct {
	Username      string           `json:"username"`
	AvatarURL     string           `json:"avatar_url,omitempty"`
	TimeRange     TimeRange        `json:"time_range"`
	TotalCommits  int              `json:"total_commits"`
	Repositories  []Repository     `json:"repositories"`
	Commits       []Commit         `json:"commits"`
	ActivityChart []CommitActivity `json:"activity_chart"`
}
