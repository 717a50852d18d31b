package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sakif/gitpeek/internal/repository"
)

// compile-time check that *ClientStore implements repository.SessionStore
var _ repository.SessionStore = (*ClientStore)(nil)

// GetValue reads one key from a client's namespace.
// ok is false when the key has never been set or was deleted.
func (db *DB) GetValue(ctx context.Context, clientID, key string) (string, bool, error) {
	var value string
	err := db.conn.QueryRowContext(ctx,
		`SELECT value FROM client_storage WHERE client_id = ? AND key = ?`,
		clientID, key,
	).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("sqlite: reading %s for client %s: %w", key, clientID, err)
	}
	return value, true, nil
}

// SetValue writes one key, replacing any previous value.
func (db *DB) SetValue(ctx context.Context, clientID, key, value string) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO client_storage (client_id, key, value, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (client_id, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		clientID, key, value, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("sqlite: writing %s for client %s: %w", key, clientID, err)
	}
	return nil
}

// DeleteValue removes one key. Deleting a missing key is not an error.
func (db *DB) DeleteValue(ctx context.Context, clientID, key string) error {
	_, err := db.conn.ExecContext(ctx,
		`DELETE FROM client_storage WHERE client_id = ? AND key = ?`,
		clientID, key,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting %s for client %s: %w", key, clientID, err)
	}
	return nil
}

// ClientStore is one visitor's session store, backed by the shared DB.
type ClientStore struct {
	db       *DB
	clientID string
}

// SessionStore returns the session store scoped to clientID.
func (db *DB) SessionStore(clientID string) *ClientStore {
	return &ClientStore{db: db, clientID: clientID}
}

func (s *ClientStore) Get(ctx context.Context) (string, bool, error) {
	return s.db.GetValue(ctx, s.clientID, repository.SessionKey)
}

func (s *ClientStore) Set(ctx context.Context, sessionID string) error {
	return s.db.SetValue(ctx, s.clientID, repository.SessionKey, sessionID)
}

func (s *ClientStore) Clear(ctx context.Context) error {
	return s.db.DeleteValue(ctx, s.clientID, repository.SessionKey)
}
