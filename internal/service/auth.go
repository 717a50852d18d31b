package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/sakif/gitpeek/internal/apperror"
	"github.com/sakif/gitpeek/internal/model"
	"github.com/sakif/gitpeek/internal/repository"
)

// AuthState is a snapshot of the auth controller.
type AuthState struct {
	SessionID string
	User      *model.UserProfile
	IsLoading bool
}

// IsAuthenticated is derived from User, never stored separately.
func (s AuthState) IsAuthenticated() bool {
	return s.User != nil
}

// AuthController owns one client's session id and the profile behind it.
//
// STATE MACHINE:
//
//	         Init / Login / RefreshUser
//	unauthenticated ─────────────────────► loading ──ok──► authenticated
//	       ▲                                  │
//	       └──────── fetch failed ────────────┘  (session cleared)
//	       ▲
//	       └──────── Logout (from any state)
//
// Resolution of the user is an explicit transition triggered by Init, Login
// and RefreshUser, not a side effect of the session id changing.
//
// STALE COMPLETIONS:
// Login and Logout bump a generation counter. A profile fetch that started
// under an older generation is discarded when it completes, so a slow
// "unauthorized" cannot wipe a newer session and a slow success cannot
// resurrect a logged-out client.
type AuthController struct {
	store   repository.SessionStore
	backend AuthBackend
	logger  *slog.Logger

	mu         sync.Mutex
	sessionID  string
	user       *model.UserProfile
	loading    bool
	generation uint64
}

// NewAuthController creates a controller in the loading state; call Init
// before rendering anything that depends on it.
func NewAuthController(store repository.SessionStore, backend AuthBackend, logger *slog.Logger) *AuthController {
	return &AuthController{
		store:   store,
		backend: backend,
		logger:  logger,
		loading: true,
	}
}

// Init reads the persisted session and, if there is one, resolves the user.
func (c *AuthController) Init(ctx context.Context) {
	id, ok, err := c.store.Get(ctx)
	if err != nil {
		c.logger.Warn("reading persisted session failed", slog.String("error", err.Error()))
		ok = false
	}

	c.mu.Lock()
	if ok {
		c.sessionID = id
	}
	gen := c.generation
	c.mu.Unlock()

	c.resolve(ctx, gen)
}

// Login persists a freshly issued session id and resolves its user.
// It returns an error only if the id could not be persisted.
func (c *AuthController) Login(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("service/auth: session id must not be empty")
	}

	if err := c.store.Set(ctx, sessionID); err != nil {
		return fmt.Errorf("service/auth: persisting session: %w", err)
	}

	c.mu.Lock()
	c.generation++
	gen := c.generation
	c.sessionID = sessionID
	c.user = nil
	c.loading = true
	c.mu.Unlock()

	c.resolve(ctx, gen)
	return nil
}

// Logout invalidates the session server-side on a best-effort basis and then
// clears local state. Backend failures are logged, never returned.
func (c *AuthController) Logout(ctx context.Context) {
	c.mu.Lock()
	c.generation++
	gen := c.generation
	hadSession := c.sessionID != ""
	c.mu.Unlock()

	if hadSession {
		if err := c.backend.Logout(ctx); err != nil {
			c.logger.Warn("backend logout failed, clearing local session anyway",
				slog.String("error", err.Error()),
			)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// A Login that landed while the backend call was in flight wins.
	if gen != c.generation {
		c.logger.Debug("logout superseded by a newer login")
		return
	}
	c.reset(ctx)
}

// RefreshUser re-resolves the user for the current session.
func (c *AuthController) RefreshUser(ctx context.Context) {
	c.mu.Lock()
	gen := c.generation
	c.mu.Unlock()

	c.resolve(ctx, gen)
}

// State returns a snapshot of the controller.
func (c *AuthController) State() AuthState {
	c.mu.Lock()
	defer c.mu.Unlock()

	var user *model.UserProfile
	if c.user != nil {
		u := *c.user
		user = &u
	}
	return AuthState{
		SessionID: c.sessionID,
		User:      user,
		IsLoading: c.loading,
	}
}

func (c *AuthController) IsAuthenticated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.user != nil
}

// resolve fetches the user for the session current at generation gen.
func (c *AuthController) resolve(ctx context.Context, gen uint64) {
	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		return
	}
	if c.sessionID == "" {
		c.user = nil
		c.loading = false
		c.mu.Unlock()
		return
	}
	c.loading = true
	c.mu.Unlock()

	user, err := c.backend.GetCurrentUser(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.generation {
		c.logger.Debug("discarding stale user fetch")
		return
	}
	if err != nil {
		// The only path that silently discards a persisted session.
		if errors.Is(err, apperror.ErrUnauthorized) {
			c.logger.Info("session expired, clearing it")
		} else {
			c.logger.Warn("user fetch failed, clearing session", slog.String("error", err.Error()))
		}
		c.reset(ctx)
		return
	}

	c.user = user
	c.loading = false
	c.logger.Info("session resolved", slog.String("login", user.Login))
}

// reset returns to the unauthenticated terminal state. Caller holds c.mu.
func (c *AuthController) reset(ctx context.Context) {
	if err := c.store.Clear(ctx); err != nil {
		c.logger.Warn("clearing persisted session failed", slog.String("error", err.Error()))
	}
	c.sessionID = ""
	c.user = nil
	c.loading = false
}
