package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/sakif/gitpeek/internal/apperror"
	"github.com/sakif/gitpeek/internal/model"
)

// DefaultSearchError is shown when a failed search carries no message of its own.
const DefaultSearchError = "Failed to fetch user activity. Please try again."

// SearchStatus is the phase of the search state machine.
type SearchStatus int

const (
	SearchIdle SearchStatus = iota
	SearchLoading
	SearchSuccess
	SearchError
)

func (s SearchStatus) String() string {
	switch s {
	case SearchIdle:
		return "idle"
	case SearchLoading:
		return "loading"
	case SearchSuccess:
		return "success"
	case SearchError:
		return "error"
	}
	return "unknown"
}

// SearchState is a snapshot of the search flow.
//
// Data is set only in SearchSuccess and Error only in SearchError; entering
// SearchLoading clears both, so results from a previous query are never shown
// next to a new one.
type SearchState struct {
	Status    SearchStatus
	Username  string
	TimeRange model.TimeRange
	Data      *model.UserActivity
	Error     string
}

// Authenticator reports whether the client currently has a resolved user.
type Authenticator interface {
	IsAuthenticated() bool
}

// SearchFlow runs username searches and holds the latest result.
//
//	Idle ──Search──► Loading ──ok──► Success(data)
//	                    │    └─err─► Error(message)
//	Success|Error ──Search──► Loading
//
// Overlapping searches are not cancelled. Each one is tagged with a sequence
// number and only the most recently issued search may write its outcome;
// older completions are dropped.
type SearchFlow struct {
	backend ActivityBackend
	auth    Authenticator
	logger  *slog.Logger

	mu    sync.Mutex
	state SearchState
	seq   uint64
}

func NewSearchFlow(backend ActivityBackend, auth Authenticator, logger *slog.Logger) *SearchFlow {
	return &SearchFlow{
		backend: backend,
		auth:    auth,
		logger:  logger,
	}
}

// Search looks up username over tr and blocks until the backend answers.
//
// It returns false, without touching state, when username is blank.
// The outcome is read back through State.
func (f *SearchFlow) Search(ctx context.Context, username string, tr model.TimeRange) bool {
	username = strings.TrimSpace(username)
	if username == "" {
		return false
	}

	f.mu.Lock()
	f.seq++
	seq := f.seq
	f.state = SearchState{
		Status:    SearchLoading,
		Username:  username,
		TimeRange: tr,
	}
	f.mu.Unlock()

	data, err := f.backend.GetUserActivity(ctx, username, tr, f.auth.IsAuthenticated())

	f.mu.Lock()
	defer f.mu.Unlock()

	if seq != f.seq {
		f.logger.Debug("discarding stale search result",
			slog.String("username", username),
			slog.Uint64("seq", seq),
			slog.Uint64("latest", f.seq),
		)
		return true
	}

	if err != nil {
		f.logger.Info("search failed",
			slog.String("username", username),
			slog.String("timeRange", string(tr)),
			slog.String("kind", errorKind(err)),
			slog.String("error", err.Error()),
		)
		f.state = SearchState{
			Status:    SearchError,
			Username:  username,
			TimeRange: tr,
			Error:     apperror.Message(err, DefaultSearchError),
		}
		return true
	}

	f.state = SearchState{
		Status:    SearchSuccess,
		Username:  username,
		TimeRange: tr,
		Data:      data,
	}
	return true
}

// State returns a snapshot of the flow. Data is shared, not copied: callers
// only render it and must not mutate it.
func (f *SearchFlow) State() SearchState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// errorKind names the apperror sentinel behind err, for log fields.
func errorKind(err error) string {
	switch {
	case errors.Is(err, apperror.ErrNotFound):
		return "not_found"
	case errors.Is(err, apperror.ErrRateLimit):
		return "rate_limited"
	case errors.Is(err, apperror.ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, apperror.ErrAuth):
		return "auth"
	case errors.Is(err, apperror.ErrAPI):
		return "api"
	}
	return "unknown"
}
