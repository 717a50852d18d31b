// Package model defines the data structures used throughout the application.
//
// These are the shapes the GitPeek backend returns. The json tags match the
// backend's snake_case field names exactly, so the API client can decode
// responses straight into these structs without any mapping layer.
package model

// UserProfile is the logged-in GitHub user, as reported by the backend's
// /api/auth/me endpoint.
//
// It is derived, read-only data: the auth controller refetches it whenever
// the session id changes and drops it when no valid session exists.
type UserProfile struct {
	Login     string `json:"login"`      // GitHub username, e.g. "octocat"
	AvatarURL string `json:"avatar_url"` // Profile picture URL
	Name      string `json:"name"`       // Display name (may be empty)
}

// DisplayName returns the user's name, falling back to the login.
func (u *UserProfile) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Login
}

// LoginResult is the backend's answer to an OAuth code exchange.
// Only SessionID is required; Username and AvatarURL are informational.
type LoginResult struct {
	SessionID string `json:"session_id"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatar_url"`
}
