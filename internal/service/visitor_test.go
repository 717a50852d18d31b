package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/gitpeek/internal/repository"
	"github.com/sakif/gitpeek/internal/repository/memory"
)

// newTestVisitors returns a registry whose visitors all share one fake backend.
// Stores are kept per id so a re-created visitor finds its old session.
func newTestVisitors(backend *fakeBackend, ttl time.Duration) (*Visitors, map[string]*memory.Store) {
	stores := map[string]*memory.Store{}
	var mu sync.Mutex
	vs := NewVisitors(
		func(id string) repository.SessionStore {
			mu.Lock()
			defer mu.Unlock()
			if s, ok := stores[id]; ok {
				return s
			}
			s := memory.New()
			stores[id] = s
			return s
		},
		func(repository.SessionStore) (Backend, error) { return backend, nil },
		ttl,
		testLogger,
	)
	return vs, stores
}

func TestVisitors_GetCachesPerID(t *testing.T) {
	vs, _ := newTestVisitors(&fakeBackend{}, time.Hour)

	a1, err := vs.Get(context.Background(), "a")
	require.NoError(t, err)
	a2, err := vs.Get(context.Background(), "a")
	require.NoError(t, err)
	b, err := vs.Get(context.Background(), "b")
	require.NoError(t, err)

	assert.Same(t, a1, a2)
	assert.NotSame(t, a1, b)
	assert.Equal(t, 2, vs.Len())
	assert.False(t, a1.Auth.State().IsLoading, "Get initialises the visitor")
}

func TestVisitors_RejectsEmptyID(t *testing.T) {
	vs, _ := newTestVisitors(&fakeBackend{}, time.Hour)
	_, err := vs.Get(context.Background(), "")
	assert.Error(t, err)
}

func TestVisitors_BackendFactoryError(t *testing.T) {
	vs := NewVisitors(
		func(string) repository.SessionStore { return memory.New() },
		func(repository.SessionStore) (Backend, error) { return nil, errors.New("bad url") },
		time.Hour,
		testLogger,
	)
	_, err := vs.Get(context.Background(), "a")
	assert.Error(t, err)
	assert.Equal(t, 0, vs.Len())
}

func TestVisitors_InitRunsOnce(t *testing.T) {
	backend := &fakeBackend{}
	vs, stores := newTestVisitors(backend, time.Hour)

	// Pre-seed a persisted session so Init has something to resolve.
	vs.newStore("a")
	require.NoError(t, stores["a"].Set(context.Background(), "sess"))

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = vs.Get(context.Background(), "a")
		}()
	}
	wg.Wait()

	users, _ := backend.counts()
	assert.Equal(t, 1, users)
}

func TestVisitors_SweepEvictsIdle(t *testing.T) {
	backend := &fakeBackend{}
	vs, stores := newTestVisitors(backend, time.Minute)
	now := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	vs.now = func() time.Time { return now }

	v, err := vs.Get(context.Background(), "old")
	require.NoError(t, err)
	require.NoError(t, v.Auth.Login(context.Background(), "persisted"))

	now = now.Add(2 * time.Minute)
	_, err = vs.Get(context.Background(), "fresh")
	require.NoError(t, err)

	assert.Equal(t, 1, vs.Sweep())
	assert.Equal(t, 1, vs.Len())

	// The session outlives the in-memory visitor.
	again, err := vs.Get(context.Background(), "old")
	require.NoError(t, err)
	assert.NotSame(t, v, again)
	assert.True(t, again.Auth.IsAuthenticated())
	id, _, _ := stores["old"].Get(context.Background())
	assert.Equal(t, "persisted", id)
}

func TestVisitors_CloseIsIdempotent(t *testing.T) {
	vs, _ := newTestVisitors(&fakeBackend{}, time.Minute)
	vs.StartSweeper(time.Hour)
	vs.Close()
	vs.Close()
}
