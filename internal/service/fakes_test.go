package service

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/sakif/gitpeek/internal/model"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// fakeBackend is a hand-written Backend. Each hook is optional; unset hooks
// succeed with zero values. Calls are counted so tests can assert "exactly once".
type fakeBackend struct {
	mu sync.Mutex

	currentUser  func(ctx context.Context) (*model.UserProfile, error)
	logout       func(ctx context.Context) error
	activity     func(ctx context.Context, username string, tr model.TimeRange, authenticated bool) (*model.UserActivity, error)
	exchange     func(ctx context.Context, code string) (*model.LoginResult, error)
	initiate     func(ctx context.Context, redirectURI string) (string, error)
	userCalls    int
	logoutCalls  int
	searchCalls  []searchCall
	exchangeArgs []string
}

type searchCall struct {
	Username      string
	TimeRange     model.TimeRange
	Authenticated bool
}

func (f *fakeBackend) GetCurrentUser(ctx context.Context) (*model.UserProfile, error) {
	f.mu.Lock()
	f.userCalls++
	hook := f.currentUser
	f.mu.Unlock()
	if hook == nil {
		return &model.UserProfile{Login: "octocat"}, nil
	}
	return hook(ctx)
}

func (f *fakeBackend) Logout(ctx context.Context) error {
	f.mu.Lock()
	f.logoutCalls++
	hook := f.logout
	f.mu.Unlock()
	if hook == nil {
		return nil
	}
	return hook(ctx)
}

func (f *fakeBackend) GetUserActivity(ctx context.Context, username string, tr model.TimeRange, authenticated bool) (*model.UserActivity, error) {
	f.mu.Lock()
	f.searchCalls = append(f.searchCalls, searchCall{username, tr, authenticated})
	hook := f.activity
	f.mu.Unlock()
	if hook == nil {
		return &model.UserActivity{Username: username, TimeRange: tr}, nil
	}
	return hook(ctx, username, tr, authenticated)
}

func (f *fakeBackend) ExchangeCode(ctx context.Context, code string) (*model.LoginResult, error) {
	f.mu.Lock()
	f.exchangeArgs = append(f.exchangeArgs, code)
	hook := f.exchange
	f.mu.Unlock()
	if hook == nil {
		return &model.LoginResult{SessionID: "sess-" + code}, nil
	}
	return hook(ctx, code)
}

func (f *fakeBackend) InitiateLogin(ctx context.Context, redirectURI string) (string, error) {
	if f.initiate == nil {
		return "https://github.com/login/oauth/authorize", nil
	}
	return f.initiate(ctx, redirectURI)
}

func (f *fakeBackend) counts() (user, logout int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.userCalls, f.logoutCalls
}

// staticAuth is an Authenticator with a fixed answer.
type staticAuth bool

func (a staticAuth) IsAuthenticated() bool { return bool(a) }
