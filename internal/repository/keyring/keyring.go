// Package keyring stores the terminal client's session id in the OS keychain.
//
// macOS uses Keychain, Windows uses Credential Manager, Linux uses the
// Secret Service (libsecret). The item lives under service "GitPeek".
package keyring

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/zalando/go-keyring"

	"github.com/sakif/gitpeek/internal/repository"
)

// Service is the keychain service name.
const Service = "GitPeek"

var _ repository.SessionStore = (*Store)(nil)

// Store is a repository.SessionStore for one keychain account.
type Store struct {
	account string
	logger  *slog.Logger
}

// New returns a store for account (usually "default").
func New(account string, logger *slog.Logger) *Store {
	return &Store{
		account: account,
		logger:  logger.With(slog.String("component", "keyring")),
	}
}

func (s *Store) item() string {
	return s.account + "/" + repository.SessionKey
}

func (s *Store) Get(_ context.Context) (string, bool, error) {
	id, err := keyring.Get(Service, s.item())
	if errors.Is(err, keyring.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("keyring: reading session: %w", err)
	}
	return id, id != "", nil
}

func (s *Store) Set(_ context.Context, sessionID string) error {
	if sessionID == "" {
		return errors.New("keyring: session id cannot be empty")
	}
	if err := keyring.Set(Service, s.item(), sessionID); err != nil {
		return fmt.Errorf("keyring: saving session: %w", err)
	}
	s.logger.Debug("session saved to keychain", slog.String("service", Service))
	return nil
}

func (s *Store) Clear(_ context.Context) error {
	err := keyring.Delete(Service, s.item())
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("keyring: deleting session: %w", err)
	}
	return nil
}
