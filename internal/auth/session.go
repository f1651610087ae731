package auth

import (
	"sync"
	"time"

	"github.com/seams-estates/seams/internal/models"
)

// Session is a client-side login. Login creates it; Close or expiry ends it.
// It is passed explicitly to every API call.
type Session struct {
	Token     string
	User      models.User
	TenantID  string
	ExpiresAt time.Time

	mu     sync.RWMutex
	closed bool
}

// NewSession wraps a freshly issued token.
func NewSession(token string, user models.User, tenantID string, expiresAt time.Time) *Session {
	return &Session{Token: token, User: user, TenantID: tenantID, ExpiresAt: expiresAt}
}

// Valid reports whether the session can still authorize requests at now.
func (s *Session) Valid(now time.Time) bool {
	if s == nil {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return !s.closed && s.Token != "" && now.Before(s.ExpiresAt)
}

// Role is a shortcut for the logged-in user's role.
func (s *Session) Role() models.Role {
	return s.User.Role
}

// Close ends the session and forgets the token.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.Token = ""
}

// BearerToken returns the Authorization header value.
func (s *Session) BearerToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return "Bearer " + s.Token
}
