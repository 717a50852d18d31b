package auth

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/rs/xid"
)

// CookieName is the visitor cookie set on every browser.
const CookieName = "gitpeek_visitor"

type contextKey string

const visitorIDKey contextKey = "visitorID"

// CookieOptions controls the attributes of the visitor cookie.
type CookieOptions struct {
	Secure bool
}

// Visitor makes sure every request has a visitor id.
//
// A valid cookie is reused. A missing, expired or tampered cookie is replaced
// by a new id, so the browser starts from an empty session.
func Visitor(tokens *TokenService, opts CookieOptions, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			visitorID, err := extractVisitorID(r, tokens)
			if err != nil {
				visitorID = xid.New().String()
				signed, err := tokens.Generate(visitorID)
				if err != nil {
					logger.Error("issuing visitor token", "error", err)
					http.Error(w, "internal server error", http.StatusInternalServerError)
					return
				}
				http.SetCookie(w, &http.Cookie{
					Name:     CookieName,
					Value:    signed,
					Path:     "/",
					MaxAge:   int(VisitorTokenTTL.Seconds()),
					HttpOnly: true,
					Secure:   opts.Secure,
					SameSite: http.SameSiteLaxMode,
				})
			}

			ctx := WithVisitorID(r.Context(), visitorID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WithVisitorID returns a context carrying the visitor id.
func WithVisitorID(ctx context.Context, visitorID string) context.Context {
	return context.WithValue(ctx, visitorIDKey, visitorID)
}

// VisitorIDFromContext retrieves the visitor id set by Visitor.
func VisitorIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(visitorIDKey).(string)
	return id, ok && id != ""
}

func extractVisitorID(r *http.Request, tokens *TokenService) (string, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return "", err
	}

	return tokens.Validate(cookie.Value)
}
