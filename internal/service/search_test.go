package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/gitpeek/internal/apperror"
	"github.com/sakif/gitpeek/internal/model"
)

func TestSearchFlow_StartsIdle(t *testing.T) {
	f := NewSearchFlow(&fakeBackend{}, staticAuth(false), testLogger)
	assert.Equal(t, SearchIdle, f.State().Status)
}

func TestSearchFlow_BlankUsernameIsNoop(t *testing.T) {
	for _, username := range []string{"", "   ", "\t\n"} {
		backend := &fakeBackend{}
		f := NewSearchFlow(backend, staticAuth(false), testLogger)

		started := f.Search(context.Background(), username, model.TimeRangeWeek)

		assert.False(t, started)
		assert.Empty(t, backend.searchCalls)
		assert.Equal(t, SearchIdle, f.State().Status)
	}
}

func TestSearchFlow_Success(t *testing.T) {
	want := &model.UserActivity{
		Username:     "alice",
		TimeRange:    model.TimeRangeMonth,
		TotalCommits: 7,
		Repositories: []model.Repository{{ID: 1, Name: "a"}},
		Commits:      []model.Commit{{SHA: "abc"}},
	}
	backend := &fakeBackend{
		activity: func(context.Context, string, model.TimeRange, bool) (*model.UserActivity, error) {
			return want, nil
		},
	}
	f := NewSearchFlow(backend, staticAuth(true), testLogger)

	require.True(t, f.Search(context.Background(), "  alice ", model.TimeRangeMonth))

	st := f.State()
	assert.Equal(t, SearchSuccess, st.Status)
	assert.Same(t, want, st.Data, "activity is stored verbatim")
	assert.Empty(t, st.Error)
	assert.Equal(t, []searchCall{{"alice", model.TimeRangeMonth, true}}, backend.searchCalls)
}

func TestSearchFlow_Errors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantMsg string
	}{
		{"not found", apperror.NotFound("ghost"), `GitHub user "ghost" not found`},
		{"rate limited", apperror.RateLimited("GitHub API rate limit exceeded"), "GitHub API rate limit exceeded"},
		{"plain error uses fallback", errors.New("boom"), DefaultSearchError},
		{"empty message uses fallback", apperror.API(500, ""), DefaultSearchError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := &fakeBackend{
				activity: func(context.Context, string, model.TimeRange, bool) (*model.UserActivity, error) {
					return nil, tt.err
				},
			}
			f := NewSearchFlow(backend, staticAuth(false), testLogger)

			f.Search(context.Background(), "ghost", model.TimeRangeWeek)

			st := f.State()
			assert.Equal(t, SearchError, st.Status)
			assert.Equal(t, tt.wantMsg, st.Error)
			assert.Nil(t, st.Data, "error state never carries data")
		})
	}
}

func TestSearchFlow_LoadingClearsPreviousResult(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	calls := 0
	backend := &fakeBackend{
		activity: func(_ context.Context, u string, tr model.TimeRange, _ bool) (*model.UserActivity, error) {
			calls++
			if calls == 2 {
				close(started)
				<-release
			}
			return &model.UserActivity{Username: u, TimeRange: tr}, nil
		},
	}
	f := NewSearchFlow(backend, staticAuth(false), testLogger)
	f.Search(context.Background(), "alice", model.TimeRangeWeek)
	require.Equal(t, SearchSuccess, f.State().Status)

	done := make(chan struct{})
	go func() {
		f.Search(context.Background(), "bob", model.TimeRangeYear)
		close(done)
	}()

	<-started
	st := f.State()
	assert.Equal(t, SearchLoading, st.Status)
	assert.Nil(t, st.Data, "old data must not linger while a new search runs")
	assert.Empty(t, st.Error)
	assert.Equal(t, "bob", st.Username)

	close(release)
	<-done
	assert.Equal(t, "bob", f.State().Data.Username)
}

func TestSearchFlow_StaleCompletionDiscarded(t *testing.T) {
	slowStarted := make(chan struct{})
	releaseSlow := make(chan struct{})
	backend := &fakeBackend{
		activity: func(_ context.Context, u string, tr model.TimeRange, _ bool) (*model.UserActivity, error) {
			if u == "slow" {
				close(slowStarted)
				<-releaseSlow
			}
			return &model.UserActivity{Username: u, TimeRange: tr}, nil
		},
	}
	f := NewSearchFlow(backend, staticAuth(false), testLogger)

	done := make(chan struct{})
	go func() {
		f.Search(context.Background(), "slow", model.TimeRangeWeek)
		close(done)
	}()
	<-slowStarted

	f.Search(context.Background(), "fast", model.TimeRangeWeek)
	close(releaseSlow)
	<-done

	st := f.State()
	assert.Equal(t, SearchSuccess, st.Status)
	assert.Equal(t, "fast", st.Data.Username, "the older search must not overwrite the newer one")
}

func TestSearchStatus_String(t *testing.T) {
	assert.Equal(t, "idle", SearchIdle.String())
	assert.Equal(t, "loading", SearchLoading.String())
	assert.Equal(t, "success", SearchSuccess.String())
	assert.Equal(t, "error", SearchError.String())
}
