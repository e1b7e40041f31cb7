package session

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a session does not exist or has expired
var ErrNotFound = errors.New("session not found")

// Session is an authenticated local session established after SSO login
type Session struct {
	ID          string    `json:"id"`
	Subject     string    `json:"subject"`
	Issuer      string    `json:"issuer"`
	UserID      string    `json:"user_id"`
	Username    string    `json:"username"`
	Email       string    `json:"email,omitempty"`
	FullName    string    `json:"full_name,omitempty"`
	Groups      []string  `json:"groups,omitempty"`
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type,omitempty"`
	TokenExpiry time.Time `json:"token_expiry,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Expired reports whether the session is past its expiry
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// Store persists sessions by ID. Implementations must be safe for concurrent use.
type Store interface {
	// Get returns the session or ErrNotFound
	Get(ctx context.Context, id string) (*Session, error)

	// Save creates or replaces a session, expiring it after ttl
	Save(ctx context.Context, s *Session, ttl time.Duration) error

	// Delete removes a session; deleting a missing session is not an error
	Delete(ctx context.Context, id string) error

	// Backend names the storage backend for metrics
	Backend() string
}
