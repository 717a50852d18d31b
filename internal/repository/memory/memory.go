// Package memory is a process-local repository.SessionStore.
// It does not survive restarts; tests and one-shot commands use it.
package memory

import (
	"context"
	"sync"

	"github.com/sakif/gitpeek/internal/repository"
)

var _ repository.SessionStore = (*Store)(nil)

type Store struct {
	mu        sync.Mutex
	sessionID string
	set       bool
}

// New returns an empty store.
func New() *Store {
	return &Store{}
}

// NewWithSession returns a store that already holds sessionID.
func NewWithSession(sessionID string) *Store {
	return &Store{sessionID: sessionID, set: true}
}

func (s *Store) Get(_ context.Context) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessionID, s.set, nil
}

func (s *Store) Set(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessionID, s.set = sessionID, true
	return nil
}

func (s *Store) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessionID, s.set = "", false
	return nil
}
