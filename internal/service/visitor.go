package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sakif/gitpeek/internal/repository"
)

// Visitor is one client of GitPeek: one browser for the web front end, or
// the local user for the terminal client. It is the composition root of the
// client-side state; every piece is created here and lives as long as it does.
type Visitor struct {
	ID      string
	Auth    *AuthController
	Search  *SearchFlow
	Backend Backend

	initOnce sync.Once
}

// NewVisitor wires a visitor's controllers around its session store and backend.
func NewVisitor(id string, store repository.SessionStore, backend Backend, logger *slog.Logger) *Visitor {
	logger = logger.With(slog.String("visitor", id))
	auth := NewAuthController(store, backend, logger)
	return &Visitor{
		ID:      id,
		Auth:    auth,
		Search:  NewSearchFlow(backend, auth, logger),
		Backend: backend,
	}
}

// Init resolves the persisted session exactly once, however many callers race here.
func (v *Visitor) Init(ctx context.Context) {
	v.initOnce.Do(func() {
		v.Auth.Init(ctx)
	})
}

// StoreFactory returns the session store for a visitor id.
type StoreFactory func(visitorID string) repository.SessionStore

// BackendFactory builds a backend client that reads its session from store.
type BackendFactory func(store repository.SessionStore) (Backend, error)

type visitorEntry struct {
	visitor  *Visitor
	lastSeen time.Time
}

// Visitors lazily creates and caches one Visitor per id.
//
// Only in-memory state is evicted: a visitor idle for longer than idleTTL is
// dropped, and the next request re-creates it from its persisted session.
type Visitors struct {
	newStore   StoreFactory
	newBackend BackendFactory
	idleTTL    time.Duration
	logger     *slog.Logger
	now        func() time.Time

	mu       sync.Mutex
	visitors map[string]*visitorEntry

	stopOnce sync.Once
	stopCh   chan struct{}
}

func NewVisitors(newStore StoreFactory, newBackend BackendFactory, idleTTL time.Duration, logger *slog.Logger) *Visitors {
	return &Visitors{
		newStore:   newStore,
		newBackend: newBackend,
		idleTTL:    idleTTL,
		logger:     logger,
		now:        time.Now,
		visitors:   make(map[string]*visitorEntry),
		stopCh:     make(chan struct{}),
	}
}

// Get returns the visitor for id, creating and initialising it on first use.
func (vs *Visitors) Get(ctx context.Context, id string) (*Visitor, error) {
	if id == "" {
		return nil, fmt.Errorf("service/visitors: visitor id must not be empty")
	}

	vs.mu.Lock()
	entry, ok := vs.visitors[id]
	if !ok {
		store := vs.newStore(id)
		backend, err := vs.newBackend(store)
		if err != nil {
			vs.mu.Unlock()
			return nil, fmt.Errorf("service/visitors: creating backend for %s: %w", id, err)
		}
		entry = &visitorEntry{visitor: NewVisitor(id, store, backend, vs.logger)}
		vs.visitors[id] = entry
		vs.logger.Debug("visitor created", slog.String("visitor", id))
	}
	entry.lastSeen = vs.now()
	v := entry.visitor
	vs.mu.Unlock()

	// The network call happens outside the registry lock.
	v.Init(ctx)
	return v, nil
}

// Len reports how many visitors are cached.
func (vs *Visitors) Len() int {
	vs.mu.Lock()
	defer vs.mu.Unlock()
	return len(vs.visitors)
}

// Sweep evicts visitors idle for longer than idleTTL and returns how many went.
func (vs *Visitors) Sweep() int {
	if vs.idleTTL <= 0 {
		return 0
	}
	cutoff := vs.now().Add(-vs.idleTTL)

	vs.mu.Lock()
	defer vs.mu.Unlock()

	evicted := 0
	for id, e := range vs.visitors {
		if e.lastSeen.Before(cutoff) {
			delete(vs.visitors, id)
			evicted++
		}
	}
	return evicted
}

// StartSweeper runs Sweep every interval until Close is called.
func (vs *Visitors) StartSweeper(interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n := vs.Sweep(); n > 0 {
					vs.logger.Info("evicted idle visitors", slog.Int("count", n))
				}
			case <-vs.stopCh:
				return
			}
		}
	}()
}

// Close stops the sweeper. Safe to call more than once.
func (vs *Visitors) Close() {
	vs.stopOnce.Do(func() { close(vs.stopCh) })
}
