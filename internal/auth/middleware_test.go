package auth

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func serveVisitor(t *testing.T, ts *TokenService, cookie *http.Cookie) (*httptest.ResponseRecorder, string) {
	t.Helper()
	var seen string
	h := Visitor(ts, CookieOptions{}, slog.New(slog.NewTextHandler(io.Discard, nil)))(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := VisitorIDFromContext(r.Context())
			if !ok {
				t.Error("visitor id missing from context")
			}
			seen = id
		}),
	)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec, seen
}

func TestVisitor_IssuesCookieWhenMissing(t *testing.T) {
	ts := newTestTokenService(t)

	rec, id := serveVisitor(t, ts, nil)
	if id == "" {
		t.Fatal("expected a visitor id")
	}

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != CookieName {
		t.Fatalf("expected one %s cookie, got %v", CookieName, cookies)
	}
	if !cookies[0].HttpOnly {
		t.Error("visitor cookie must be HttpOnly")
	}

	got, err := ts.Validate(cookies[0].Value)
	if err != nil {
		t.Fatalf("issued cookie does not validate: %v", err)
	}
	if got != id {
		t.Errorf("cookie subject = %q, context id = %q", got, id)
	}
}

func TestVisitor_ReusesValidCookie(t *testing.T) {
	ts := newTestTokenService(t)
	token, _ := ts.Generate("known-visitor")

	rec, id := serveVisitor(t, ts, &http.Cookie{Name: CookieName, Value: token})
	if id != "known-visitor" {
		t.Errorf("visitor id = %q, want known-visitor", id)
	}
	if n := len(rec.Result().Cookies()); n != 0 {
		t.Errorf("expected no Set-Cookie for a valid cookie, got %d", n)
	}
}

func TestVisitor_ReplacesInvalidCookie(t *testing.T) {
	ts := newTestTokenService(t)

	rec, id := serveVisitor(t, ts, &http.Cookie{Name: CookieName, Value: "garbage"})
	if id == "" || id == "garbage" {
		t.Errorf("expected a fresh visitor id, got %q", id)
	}
	if n := len(rec.Result().Cookies()); n != 1 {
		t.Errorf("expected a replacement cookie, got %d cookies", n)
	}
}

func TestVisitorIDFromContext_Empty(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if _, ok := VisitorIDFromContext(req.Context()); ok {
		t.Error("expected no visitor id on a bare context")
	}
}
