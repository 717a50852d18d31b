package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/gitpeek/internal/apperror"
	"github.com/sakif/gitpeek/internal/handler"
	"github.com/sakif/gitpeek/internal/model"
	"github.com/sakif/gitpeek/internal/repository/memory"
)

func TestAuthHandler_Login(t *testing.T) {
	env := newTestEnv(t, &MockBackend{}, nil)

	rr := serve(env.auth.HandleLogin, newRequest(http.MethodPost, "/auth/login", nil))

	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "https://github.com/login/oauth/authorize?client_id=x", rr.Header().Get("Location"))
	assert.Equal(t, []string{testCallbackURL}, env.backend.RedirectURIs)
}

func TestAuthHandler_LoginFailureReturnsHome(t *testing.T) {
	env := newTestEnv(t, &MockBackend{
		InitiateFn: func(string) (string, error) {
			return "", apperror.API(0, "Unable to reach the GitPeek API. Please try again.")
		},
	}, nil)

	rr := serve(env.auth.HandleLogin, newRequest(http.MethodPost, "/auth/login", nil))

	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/", rr.Header().Get("Location"))
}

func TestAuthHandler_CallbackWithoutCode(t *testing.T) {
	env := newTestEnv(t, &MockBackend{}, nil)

	rr := serve(env.auth.HandleCallback, newRequest(http.MethodGet, "/auth/callback", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "No authorization code received")
	assert.Contains(t, body, "Redirecting to home page")
	assert.Contains(t, body, `http-equiv="refresh"`)
	assert.Contains(t, body, `content="3;`)
	assert.Empty(t, env.backend.Exchanges, "no backend call without a code")
}

func TestAuthHandler_CallbackSuccess(t *testing.T) {
	env := newTestEnv(t, &MockBackend{
		UserFn: func() (*model.UserProfile, error) { return &model.UserProfile{Login: "octocat"}, nil },
	}, nil)

	rr := serve(env.auth.HandleCallback, newRequest(http.MethodGet, "/auth/callback?code=abc", nil))

	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/", rr.Header().Get("Location"))
	assert.Equal(t, []string{"abc"}, env.backend.Exchanges)

	id, ok, err := env.store.Get(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "sess-new", id)
	assert.True(t, env.visitor(t).Auth.IsAuthenticated())
}

func TestAuthHandler_CallbackExchangeFails(t *testing.T) {
	env := newTestEnv(t, &MockBackend{
		ExchangeFn: func(string) (*model.LoginResult, error) { return nil, apperror.Auth("Invalid or expired code") },
	}, nil)

	rr := serve(env.auth.HandleCallback, newRequest(http.MethodGet, "/auth/callback?code=used", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Authentication failed. Please try again.")
	assert.Equal(t, []string{"used"}, env.backend.Exchanges)

	_, ok, _ := env.store.Get(context.Background())
	assert.False(t, ok)
}

func TestAuthHandler_Logout(t *testing.T) {
	tests := []struct {
		name      string
		logoutErr error
	}{
		{"backend succeeds", nil},
		{"backend fails", errors.New("connection refused")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, &MockBackend{
				LogoutFn: func() error { return tt.logoutErr },
			}, memory.NewWithSession("sess-1"))
			require.True(t, env.visitor(t).Auth.IsAuthenticated())

			rr := serve(env.auth.HandleLogout, newRequest(http.MethodPost, "/auth/logout", nil))

			assert.Equal(t, http.StatusSeeOther, rr.Code)
			assert.Equal(t, 1, env.backend.LogoutCalls)
			assert.False(t, env.visitor(t).Auth.IsAuthenticated())
			_, ok, _ := env.store.Get(context.Background())
			assert.False(t, ok, "persisted session must be gone")
		})
	}
}

func TestAuthHandler_HeaderReflectsLogin(t *testing.T) {
	env := newTestEnv(t, &MockBackend{
		UserFn: func() (*model.UserProfile, error) {
			return &model.UserProfile{Login: "octocat", AvatarURL: "https://avatars.example/octocat"}, nil
		},
	}, memory.NewWithSession("sess-1"))

	rr := serve(env.home.HandleHome, newRequest(http.MethodGet, "/", nil))

	body := rr.Body.String()
	assert.Contains(t, body, "octocat")
	assert.Contains(t, body, "Logout")
	assert.NotContains(t, body, "Login with GitHub")
}

func TestAuthHandler_Me(t *testing.T) {
	t.Run("anonymous", func(t *testing.T) {
		env := newTestEnv(t, &MockBackend{}, nil)

		rr := serve(env.auth.HandleMe, newRequest(http.MethodGet, "/api/me", nil))

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		var res handler.ErrorResponse
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&res))
		assert.Equal(t, "unauthorized", res.Error)
	})

	t.Run("logged in", func(t *testing.T) {
		env := newTestEnv(t, &MockBackend{}, memory.NewWithSession("sess-1"))

		rr := serve(env.auth.HandleMe, newRequest(http.MethodGet, "/api/me", nil))

		assert.Equal(t, http.StatusOK, rr.Code)
		var res handler.MeResponse
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&res))
		assert.True(t, res.Authenticated)
		assert.Equal(t, "octocat", res.User.Login)
	})
}

func TestHandleHealth(t *testing.T) {
	rr := serve(handler.HandleHealth, newRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
}
