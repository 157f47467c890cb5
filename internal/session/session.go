// Package session holds the authenticated session: the bearer token
// the server issued and the account it belongs to. The token is opaque
// to the client; JWT claims are read unverified, for display and
// expiry messaging only. The server is the sole verifier.
package session

import (
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"bookdesk/internal/models"
)

// Session is the client-side view of an authenticated login.
type Session struct {
	mu    sync.RWMutex
	token string
	user  models.User
}

// New returns an empty, logged-out session.
func New() *Session {
	return &Session{}
}

// Establish installs a fresh login.
func (s *Session) Establish(token string, user models.User) {
	s.mu.Lock()
	s.token = token
	s.user = user
	s.mu.Unlock()
}

// Clear logs out.
func (s *Session) Clear() {
	s.mu.Lock()
	s.token = ""
	s.user = models.User{}
	s.mu.Unlock()
}

// Token returns the bearer token, empty when logged out.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// User returns the logged-in account.
func (s *Session) User() models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// Active reports whether a token is present.
func (s *Session) Active() bool {
	return s.Token() != ""
}

// IsLibrarian reports whether the logged-in account is a librarian.
func (s *Session) IsLibrarian() bool {
	return s.User().Role == models.RoleLibrarian
}

// ExpiresAt peeks at the token's exp claim without verifying the
// signature. Returns the zero time when the token is not a JWT or
// carries no expiry.
func (s *Session) ExpiresAt() time.Time {
	token := s.Token()
	if token == "" {
		return time.Time{}
	}

	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}
	}
	if claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time
}

// ExpiredAt reports whether the token had expired by the given
// instant. A token with no readable expiry is treated as live; the
// server will reject it if it is not.
func (s *Session) ExpiredAt(now time.Time) bool {
	exp := s.ExpiresAt()
	return !exp.IsZero() && exp.Before(now)
}
