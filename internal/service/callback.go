package service

import (
	"context"
	"log/slog"
	"net/url"
	"time"
)

// DefaultCallbackDelay is how long a failed login's message stays on screen
// before the client is sent back to the landing page.
const DefaultCallbackDelay = 3 * time.Second

const (
	msgNoCode     = "No authorization code received"
	msgAuthFailed = "Authentication failed. Please try again."
)

// LoginCompleter accepts a freshly issued session id.
// *AuthController satisfies it.
type LoginCompleter interface {
	Login(ctx context.Context, sessionID string) error
}

// CallbackResult tells the caller what to show and where to go next.
type CallbackResult struct {
	Error      string        // empty on success
	RedirectTo string        // always the landing page
	Delay      time.Duration // zero on success
}

func (r CallbackResult) OK() bool {
	return r.Error == ""
}

// CallbackService completes the OAuth redirect: it reads the authorization
// code GitHub appended to the callback URL, exchanges it for a session id
// and hands that id to the client's auth controller.
//
// It is a one-shot sequence. A code can be exchanged only once; replaying
// the same callback URL is expected to fail at the backend.
type CallbackService struct {
	exchanger CodeExchanger
	delay     time.Duration
	logger    *slog.Logger
}

func NewCallbackService(exchanger CodeExchanger, delay time.Duration, logger *slog.Logger) *CallbackService {
	if delay <= 0 {
		delay = DefaultCallbackDelay
	}
	return &CallbackService{
		exchanger: exchanger,
		delay:     delay,
		logger:    logger,
	}
}

// Complete runs the callback sequence for the given query string.
//
//  1. No code → error, delayed redirect, backend never called.
//  2. Exchange fails → error, delayed redirect.
//  3. Exchange succeeds → session handed to auth, immediate redirect.
func (s *CallbackService) Complete(ctx context.Context, query url.Values, auth LoginCompleter) CallbackResult {
	if denied := query.Get("error"); denied != "" {
		s.logger.Info("auth callback: authorization denied", slog.String("error", denied))
	}

	code := query.Get("code")
	if code == "" {
		s.logger.Warn("auth callback: missing code")
		return s.failure(msgNoCode)
	}

	res, err := s.exchanger.ExchangeCode(ctx, code)
	if err != nil {
		s.logger.Error("auth callback: code exchange failed", slog.String("error", err.Error()))
		return s.failure(msgAuthFailed)
	}

	if err := auth.Login(ctx, res.SessionID); err != nil {
		s.logger.Error("auth callback: storing session failed", slog.String("error", err.Error()))
		return s.failure(msgAuthFailed)
	}

	s.logger.Info("user authenticated", slog.String("login", res.Username))
	return CallbackResult{RedirectTo: "/"}
}

func (s *CallbackService) failure(msg string) CallbackResult {
	return CallbackResult{
		Error:      msg,
		RedirectTo: "/",
		Delay:      s.delay,
	}
}
