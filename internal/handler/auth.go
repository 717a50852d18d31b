package handler

import (
	"context"
	"log/slog"
	"math"
	"net/http"
	"time"

	"github.com/sakif/gitpeek/internal/apperror"
	"github.com/sakif/gitpeek/internal/model"
	"github.com/sakif/gitpeek/internal/service"
)

// AuthHandler drives the visitor's login, OAuth callback and logout.
//
//   - HandleLogin    → ask the backend for a GitHub authorization URL, redirect there
//   - HandleCallback → exchange the returned code for a session id
//   - HandleLogout   → end the session
//   - HandleMe       → the visitor's auth state as JSON
type AuthHandler struct {
	visitors      VisitorSource
	pages         *Renderer
	callbackURL   string
	callbackDelay time.Duration
	logger        *slog.Logger
}

// NewAuthHandler creates an AuthHandler. callbackURL is the public URL of
// GET /auth/callback, handed to the backend as the OAuth redirect target;
// callbackDelay is how long a failed callback's message stays up.
func NewAuthHandler(
	visitors VisitorSource,
	pages *Renderer,
	callbackURL string,
	callbackDelay time.Duration,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		visitors:      visitors,
		pages:         pages,
		callbackURL:   callbackURL,
		callbackDelay: callbackDelay,
		logger:        logger,
	}
}

// HandleLogin redirects the browser to GitHub.
//
// HTTP: POST /auth/login
//
// If the backend cannot start the flow the failure is logged and the visitor
// is sent back to the landing page.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	v, ok := currentVisitor(h.visitors, w, r, h.logger)
	if !ok {
		return
	}

	authURL, err := v.Backend.InitiateLogin(r.Context(), h.callbackURL)
	if err != nil {
		h.logger.Error("login failed", slog.String("error", err.Error()))
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	http.Redirect(w, r, authURL, http.StatusSeeOther)
}

// HandleCallback completes the OAuth flow.
//
// HTTP: GET /auth/callback?code=xxx
//
// On success the session id is stored for the visitor and the browser goes
// straight to /. On failure an error page is shown that returns to / after
// the callback delay.
func (h *AuthHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	v, ok := currentVisitor(h.visitors, w, r, h.logger)
	if !ok {
		return
	}

	// The exchange goes through the visitor's own client.
	callback := service.NewCallbackService(v.Backend, h.callbackDelay, h.logger)
	res := callback.Complete(context.WithoutCancel(r.Context()), r.URL.Query(), v.Auth)
	if res.OK() {
		http.Redirect(w, r, res.RedirectTo, http.StatusSeeOther)
		return
	}

	h.pages.Render(w, http.StatusOK, "callback", pageData{
		Title:          "Authentication - GitPeek",
		Auth:           v.Auth.State(),
		Message:        res.Error,
		RefreshSeconds: int(math.Ceil(res.Delay.Seconds())),
		RefreshURL:     res.RedirectTo,
	})
}

// HandleLogout ends the visitor's session. Backend failures are swallowed by
// the auth controller; the local session is always cleared.
//
// HTTP: POST /auth/logout
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	v, ok := currentVisitor(h.visitors, w, r, h.logger)
	if !ok {
		return
	}

	v.Auth.Logout(context.WithoutCancel(r.Context()))
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// MeResponse is the body of GET /api/me.
type MeResponse struct {
	Authenticated bool               `json:"authenticated"`
	User          *model.UserProfile `json:"user"`
}

// HandleMe returns the logged-in user, or 401 for an anonymous visitor.
//
// HTTP: GET /api/me
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	v, ok := currentVisitor(h.visitors, w, r, h.logger)
	if !ok {
		return
	}

	st := v.Auth.State()
	if !st.IsAuthenticated() {
		writeError(w, apperror.Unauthorized("not logged in"))
		return
	}

	writeJSON(w, http.StatusOK, MeResponse{Authenticated: true, User: st.User})
}
