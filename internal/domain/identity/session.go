package identity

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Role distinguishes member sessions from back-office sessions
type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

// IsValid returns true for known roles
func (r Role) IsValid() bool {
	return r == RoleCustomer || r == RoleAdmin
}

// Session is a server-side login. It expires at a fixed time and is never extended.
type Session struct {
	ID        string    `json:"id"`
	SubjectID uuid.UUID `json:"subject_id"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// NewSession creates a session valid for ttl from now
func NewSession(subjectID uuid.UUID, role Role, ttl time.Duration) *Session {
	now := time.Now()
	return &Session{
		ID:        uuid.NewString(),
		SubjectID: subjectID,
		Role:      role,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

// IsExpired reports whether the session is past its expiry
func (s *Session) IsExpired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// SessionStore is the key-value store holding live sessions
type SessionStore interface {
	// Create stores the session until its ExpiresAt
	Create(ctx context.Context, session *Session) error
	// Get returns the session or shared.ErrSessionNotFound. Reads never extend the expiry.
	Get(ctx context.Context, id string) (*Session, error)
	// Delete removes a session; deleting a missing session is not an error
	Delete(ctx context.Context, id string) error
	Close() error
}
