// Package repository defines the storage contracts the services depend on.
//
// Implementations live in sub-packages (sqlite, keyring, memory). Services
// only ever see these interfaces, so the web front end and the terminal
// client can share the same controllers while persisting sessions in very
// different places.
package repository

import "context"

// SessionKey is the fixed key under which the session id is persisted.
const SessionKey = "session_id"

// SessionStore holds the opaque session id for exactly one client.
//
// Get reports ok=false when no session is stored; that is not an error.
// No expiry is tracked here: a stale id is only discovered when the backend
// rejects it, at which point the auth controller calls Clear.
type SessionStore interface {
	Get(ctx context.Context) (sessionID string, ok bool, err error)
	Set(ctx context.Context, sessionID string) error
	Clear(ctx context.Context) error
}
