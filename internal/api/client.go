// Package api is the HTTP client for the GitPeek backend.
//
// The backend owns everything GitHub-related: the OAuth token exchange, the
// server-side session, and the GitHub REST calls. This client only speaks the
// backend's small JSON contract:
//
//	GET  /api/auth/login      → {"auth_url": "..."}
//	POST /api/auth/callback   {"code"} → {"session_id", "username", "avatar_url"}
//	GET  /api/auth/me         → {"login", "avatar_url", "name"}
//	POST /api/auth/logout     → 2xx
//	POST /api/public/activity {"username", "time_range"} → UserActivity
//	POST /api/auth/activity   same, session required, includes private repos
//
// SESSION ATTACHMENT:
// Whenever the session store holds an id, every request carries it as
// "Authorization: Bearer <session_id>". The header is added by an
// oauth2.Transport wrapping the base transport, so request code never
// touches credentials directly.
//
// NO RETRIES:
// Every failure goes straight back to the caller as an *apperror.AppError.
// Whether to retry, clear the session, or show a message is the caller's call.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/sakif/gitpeek/internal/apperror"
	"github.com/sakif/gitpeek/internal/model"
	"github.com/sakif/gitpeek/internal/repository"
)

// DefaultTimeout bounds a single backend call when the caller supplies no http.Client.
const DefaultTimeout = 15 * time.Second

// maxErrorBody caps how much of an error response we read looking for "detail".
const maxErrorBody = 64 << 10

// Client talks to the backend on behalf of one client (one browser visitor,
// or the terminal user). It reads the session id from that client's store on
// every call, so a login or logout takes effect on the very next request.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	session repository.SessionStore
	logger  *slog.Logger
}

// New creates a Client for the backend at baseURL.
// httpClient may be nil, in which case a client with DefaultTimeout is used.
func New(baseURL string, httpClient *http.Client, session repository.SessionStore, logger *slog.Logger) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("api: parsing base URL %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("api: base URL %q must be http or https", baseURL)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	return &Client{
		baseURL: u,
		http:    httpClient,
		session: session,
		logger:  logger,
	}, nil
}

// InitiateLogin asks the backend where to send the browser for GitHub authorization.
// redirectURI, when non-empty, tells the backend which callback GitHub should return to.
func (c *Client) InitiateLogin(ctx context.Context, redirectURI string) (string, error) {
	q := url.Values{}
	if redirectURI != "" {
		q.Set("redirect_uri", redirectURI)
	}

	var resp struct {
		AuthURL string `json:"auth_url"`
		URL     string `json:"url"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/auth/login", q, nil, &resp, classifyDefault); err != nil {
		return "", fmt.Errorf("api: initiating login: %w", err)
	}

	authURL := resp.AuthURL
	if authURL == "" {
		authURL = resp.URL
	}
	if authURL == "" {
		return "", apperror.API(http.StatusOK, "The GitPeek API did not return a login URL")
	}
	return authURL, nil
}

// ExchangeCode trades a GitHub authorization code for a backend session id.
// A rejected code (expired, invalid or already used) is an apperror.ErrAuth.
func (c *Client) ExchangeCode(ctx context.Context, code string) (*model.LoginResult, error) {
	if code == "" {
		return nil, apperror.Auth("No authorization code received")
	}

	var result model.LoginResult
	body := map[string]string{"code": code}
	if err := c.do(ctx, http.MethodPost, "/api/auth/callback", nil, body, &result, classifyExchange); err != nil {
		return nil, fmt.Errorf("api: exchanging code: %w", err)
	}
	if result.SessionID == "" {
		return nil, apperror.Auth("No session received from the GitPeek API")
	}
	return &result, nil
}

// GetCurrentUser returns the profile behind the stored session.
// A missing or rejected session is an apperror.ErrUnauthorized.
func (c *Client) GetCurrentUser(ctx context.Context) (*model.UserProfile, error) {
	if _, ok := c.sessionID(ctx); !ok {
		return nil, apperror.Unauthorized("Not logged in")
	}

	var user model.UserProfile
	if err := c.do(ctx, http.MethodGet, "/api/auth/me", nil, nil, &user, classifySession); err != nil {
		return nil, fmt.Errorf("api: fetching current user: %w", err)
	}
	return &user, nil
}

// Logout invalidates the session server-side. Callers clear local state
// regardless of the result, so the error is only worth logging.
func (c *Client) Logout(ctx context.Context) error {
	if _, ok := c.sessionID(ctx); !ok {
		return nil
	}
	if err := c.do(ctx, http.MethodPost, "/api/auth/logout", nil, nil, nil, classifySession); err != nil {
		return fmt.Errorf("api: logging out: %w", err)
	}
	return nil
}

// GetUserActivity fetches the activity summary for username over tr.
//
// When authenticated is true and a session is stored, the authenticated
// endpoint is used so private repositories are included.
func (c *Client) GetUserActivity(ctx context.Context, username string, tr model.TimeRange, authenticated bool) (*model.UserActivity, error) {
	path := "/api/public/activity"
	if _, ok := c.sessionID(ctx); ok && authenticated {
		path = "/api/auth/activity"
	}

	body := map[string]string{
		"username":   username,
		"time_range": string(tr),
	}

	var activity model.UserActivity
	err := c.do(ctx, http.MethodPost, path, nil, body, &activity, classifyActivity(username))
	if err != nil {
		return nil, fmt.Errorf("api: fetching activity for %s: %w", username, err)
	}

	// Templates and renderers range over these; never hand them nil.
	if activity.Repositories == nil {
		activity.Repositories = []model.Repository{}
	}
	if activity.Commits == nil {
		activity.Commits = []model.Commit{}
	}
	if activity.ActivityChart == nil {
		activity.ActivityChart = []model.CommitActivity{}
	}
	if activity.TimeRange == "" {
		activity.TimeRange = tr
	}
	return &activity, nil
}

// sessionID reads the stored session. A storage failure is treated as
// "no session": the request still goes out, just unauthenticated.
func (c *Client) sessionID(ctx context.Context) (string, bool) {
	id, ok, err := c.session.Get(ctx)
	if err != nil {
		c.logger.Warn("reading session failed, continuing without it", slog.String("error", err.Error()))
		return "", false
	}
	return id, ok && id != ""
}

// httpClient returns the client to use for this request: the base client,
// or a copy whose transport attaches the session as a bearer token.
func (c *Client) httpClient(ctx context.Context) *http.Client {
	id, ok := c.sessionID(ctx)
	if !ok {
		return c.http
	}

	base := c.http.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	return &http.Client{
		Transport: &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: id, TokenType: "Bearer"}),
			Base:   base,
		},
		Timeout:       c.http.Timeout,
		CheckRedirect: c.http.CheckRedirect,
		Jar:           c.http.Jar,
	}
}

// classifier turns a non-2xx response into a typed error.
type classifier func(status int, detail string, header http.Header) error

// do sends one request and decodes a 2xx JSON body into out (if non-nil).
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any, classify classifier) error {
	u := *c.baseURL
	u.Path = u.Path + path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient(ctx).Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		c.logger.Warn("backend request failed",
			slog.String("method", method),
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		return apperror.API(0, "Unable to reach the GitPeek API. Please try again.")
	}
	defer resp.Body.Close()

	c.logger.Debug("backend request completed",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail := readDetail(resp.Body)
		return classify(resp.StatusCode, detail, resp.Header)
	}

	if out == nil {
		// drain so the connection can be reused
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		c.logger.Warn("decoding backend response failed",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		return apperror.API(resp.StatusCode, "Unexpected response from the GitPeek API")
	}
	return nil
}

// readDetail extracts the backend's error message. FastAPI-style bodies look
// like {"detail": "..."}; a few endpoints use {"message": "..."} instead.
func readDetail(r io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(r, maxErrorBody))
	if err != nil || len(raw) == 0 {
		return ""
	}

	var body struct {
		Detail  json.RawMessage `json:"detail"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return ""
	}

	var detail string
	if len(body.Detail) > 0 && json.Unmarshal(body.Detail, &detail) == nil && detail != "" {
		return detail
	}
	return body.Message
}

// rateLimited reports whether a response means GitHub's quota is exhausted.
// The backend forwards GitHub's 403 + X-RateLimit-Remaining: 0, or answers 429.
func rateLimited(status int, detail string, header http.Header) bool {
	if status == http.StatusTooManyRequests {
		return true
	}
	if status == http.StatusForbidden && header.Get("X-RateLimit-Remaining") == "0" {
		return true
	}
	return strings.Contains(strings.ToLower(detail), "rate limit")
}

func orDefault(detail, fallback string) string {
	if detail != "" {
		return detail
	}
	return fallback
}

func classifyDefault(status int, detail string, header http.Header) error {
	if rateLimited(status, detail, header) {
		return apperror.RateLimited(orDefault(detail, "GitHub API rate limit exceeded. Please try again later."))
	}
	return apperror.API(status, orDefault(detail, fmt.Sprintf("The GitPeek API returned status %d", status)))
}

func classifyExchange(status int, detail string, header http.Header) error {
	switch status {
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden, http.StatusUnprocessableEntity:
		return apperror.Auth(orDefault(detail, "Authentication failed. Please try again."))
	}
	return classifyDefault(status, detail, header)
}

func classifySession(status int, detail string, header http.Header) error {
	if status == http.StatusUnauthorized ||
		(status == http.StatusForbidden && !rateLimited(status, detail, header)) {
		return apperror.Unauthorized(orDefault(detail, "Invalid or expired session"))
	}
	return classifyDefault(status, detail, header)
}

func classifyActivity(username string) classifier {
	return func(status int, detail string, header http.Header) error {
		switch {
		case status == http.StatusNotFound:
			return apperror.NotFound(username)
		case rateLimited(status, detail, header):
			return classifyDefault(status, detail, header)
		case status == http.StatusUnauthorized:
			return apperror.Unauthorized(orDefault(detail, "Invalid or expired session"))
		}
		return classifyDefault(status, detail, header)
	}
}
