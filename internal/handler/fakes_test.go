package handler_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sakif/gitpeek/internal/auth"
	"github.com/sakif/gitpeek/internal/handler"
	"github.com/sakif/gitpeek/internal/model"
	"github.com/sakif/gitpeek/internal/repository"
	"github.com/sakif/gitpeek/internal/repository/memory"
	"github.com/sakif/gitpeek/internal/service"
	"github.com/sakif/gitpeek/web"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

const (
	testVisitor     = "visitor-1"
	testCallbackURL = "http://gitpeek.test/auth/callback"
)

// MockBackend is a hand-written service.Backend. Unset hooks succeed.
type MockBackend struct {
	mu sync.Mutex

	UserFn     func() (*model.UserProfile, error)
	LogoutFn   func() error
	ActivityFn func(username string, tr model.TimeRange) (*model.UserActivity, error)
	ExchangeFn func(code string) (*model.LoginResult, error)
	InitiateFn func(redirectURI string) (string, error)

	Searches     []SearchCall
	Exchanges    []string
	RedirectURIs []string
	LogoutCalls  int
}

type SearchCall struct {
	Username      string
	TimeRange     model.TimeRange
	Authenticated bool
}

func (m *MockBackend) GetCurrentUser(ctx context.Context) (*model.UserProfile, error) {
	if m.UserFn != nil {
		return m.UserFn()
	}
	return &model.UserProfile{Login: "octocat"}, nil
}

func (m *MockBackend) Logout(ctx context.Context) error {
	m.mu.Lock()
	m.LogoutCalls++
	m.mu.Unlock()
	if m.LogoutFn != nil {
		return m.LogoutFn()
	}
	return nil
}

func (m *MockBackend) GetUserActivity(ctx context.Context, username string, tr model.TimeRange, authenticated bool) (*model.UserActivity, error) {
	m.mu.Lock()
	m.Searches = append(m.Searches, SearchCall{username, tr, authenticated})
	m.mu.Unlock()
	if m.ActivityFn != nil {
		return m.ActivityFn(username, tr)
	}
	return &model.UserActivity{Username: username, TimeRange: tr}, nil
}

func (m *MockBackend) ExchangeCode(ctx context.Context, code string) (*model.LoginResult, error) {
	m.mu.Lock()
	m.Exchanges = append(m.Exchanges, code)
	m.mu.Unlock()
	if m.ExchangeFn != nil {
		return m.ExchangeFn(code)
	}
	return &model.LoginResult{SessionID: "sess-new", Username: "octocat"}, nil
}

func (m *MockBackend) InitiateLogin(ctx context.Context, redirectURI string) (string, error) {
	m.mu.Lock()
	m.RedirectURIs = append(m.RedirectURIs, redirectURI)
	m.mu.Unlock()
	if m.InitiateFn != nil {
		return m.InitiateFn(redirectURI)
	}
	return "https://github.com/login/oauth/authorize?client_id=x", nil
}

func (m *MockBackend) searches() []SearchCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SearchCall(nil), m.Searches...)
}

// testEnv wires real visitors, templates and handlers around a MockBackend.
type testEnv struct {
	backend  *MockBackend
	store    *memory.Store
	visitors *service.Visitors
	pages    *handler.Renderer
	home     *handler.HomeHandler
	auth     *handler.AuthHandler
}

func newTestEnv(t *testing.T, backend *MockBackend, store *memory.Store) *testEnv {
	t.Helper()
	if store == nil {
		store = memory.New()
	}

	visitors := service.NewVisitors(
		func(string) repository.SessionStore { return store },
		func(repository.SessionStore) (service.Backend, error) { return backend, nil },
		time.Hour,
		testLogger,
	)
	t.Cleanup(visitors.Close)

	pages, err := handler.NewRenderer(web.FS, testLogger)
	require.NoError(t, err)

	return &testEnv{
		backend:  backend,
		store:    store,
		visitors: visitors,
		pages:    pages,
		home:     handler.NewHomeHandler(visitors, pages, 5*time.Second, testLogger),
		auth:     handler.NewAuthHandler(visitors, pages, testCallbackURL, 3*time.Second, testLogger),
	}
}

func (e *testEnv) visitor(t *testing.T) *service.Visitor {
	t.Helper()
	v, err := e.visitors.Get(context.Background(), testVisitor)
	require.NoError(t, err)
	return v
}

func newRequest(method, target string, form url.Values) *http.Request {
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	return req.WithContext(auth.WithVisitorID(req.Context(), testVisitor))
}

func serve(h http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h(rr, req)
	return rr
}

func newHomeWithWait(t *testing.T, env *testEnv, wait time.Duration) *handler.HomeHandler {
	t.Helper()
	return handler.NewHomeHandler(env.visitors, env.pages, wait, testLogger)
}
