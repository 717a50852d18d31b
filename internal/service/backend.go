// Package service holds GitPeek's client-side state machines.
//
// Each consumer declares the narrow slice of the backend it needs, so tests
// can fake exactly that slice:
//
//	AuthController → AuthBackend     (current user, logout)
//	SearchFlow     → ActivityBackend (user activity)
//	CallbackService→ CodeExchanger   (OAuth code exchange)
//
// *api.Client satisfies all of them (and Backend, their union).
//
// None of these types know about HTTP handlers, templates or cookies; the
// web front end and the terminal client drive the same controllers.
package service

import (
	"context"

	"github.com/sakif/gitpeek/internal/model"
)

type AuthBackend interface {
	GetCurrentUser(ctx context.Context) (*model.UserProfile, error)
	Logout(ctx context.Context) error
}

type ActivityBackend interface {
	GetUserActivity(ctx context.Context, username string, tr model.TimeRange, authenticated bool) (*model.UserActivity, error)
}

type CodeExchanger interface {
	ExchangeCode(ctx context.Context, code string) (*model.LoginResult, error)
}

// LoginInitiator returns the URL that starts the GitHub authorization flow.
type LoginInitiator interface {
	InitiateLogin(ctx context.Context, redirectURI string) (string, error)
}

// Backend is everything one client needs from the GitPeek API.
type Backend interface {
	AuthBackend
	ActivityBackend
	CodeExchanger
	LoginInitiator
}
