// Package auth identifies browsers ("visitors") to the GitPeek web front end.
//
// VISITOR FLOW:
//  1. A browser without a valid visitor cookie gets a fresh xid.
//  2. The id is signed into a JWT and set as the HttpOnly "gitpeek_visitor" cookie.
//  3. Later requests carry the cookie; the middleware validates it and puts the
//     visitor id in the request context.
//
// The visitor id is not a GitHub identity. It only keys the per-browser client
// storage that holds the backend session id, the way localStorage would in a
// single-page app.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	issuer = "gitpeek"

	// VisitorTokenTTL is how long a visitor cookie stays valid.
	VisitorTokenTTL = 365 * 24 * time.Hour
)

// TokenService signs and verifies visitor tokens with an HMAC secret.
type TokenService struct {
	secret []byte
}

// NewTokenService creates a TokenService with the given secret.
// The secret must be at least 16 characters.
func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: visitor secret must be at least 16 characters")
	}
	return &TokenService{secret: []byte(secret)}, nil
}

// claims carries the visitor id in "sub".
type claims struct {
	jwt.RegisteredClaims
}

// Generate signs a visitor token valid for VisitorTokenTTL.
func (s *TokenService) Generate(visitorID string) (string, error) {
	return s.GenerateWithDuration(visitorID, VisitorTokenTTL)
}

// GenerateWithDuration signs a visitor token with a custom lifetime.
func (s *TokenService) GenerateWithDuration(visitorID string, d time.Duration) (string, error) {
	if visitorID == "" {
		return "", errors.New("auth: empty visitor id")
	}
	now := time.Now()

	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   visitorID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// Validate verifies a visitor token and returns the visitor id.
//
// Only HS256 tokens issued by GitPeek, with an expiry in the future, pass.
func (s *TokenService) Validate(tokenStr string) (string, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", fmt.Errorf("auth: token expired")
		}
		return "", fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("auth: invalid token claims")
	}

	if c.Subject == "" {
		return "", fmt.Errorf("auth: token has no subject")
	}

	return c.Subject, nil
}
