package marketing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/identity"
	"github.com/storefront/backend/internal/domain/shared"
)

// NewsletterSubscriber is an email address on the mailing list
type NewsletterSubscriber struct {
	ID             uuid.UUID
	Email          string
	UserID         *uuid.UUID
	SubscribedAt   time.Time
	UnsubscribedAt *time.Time
	// BonusAwarded is set once a member has received the newsletter points bonus
	BonusAwarded bool
}

// NewNewsletterSubscriber validates and creates a subscription
func NewNewsletterSubscriber(email string, userID *uuid.UUID) (*NewsletterSubscriber, error) {
	email = identity.NormalizeEmail(email)
	if err := identity.ValidateEmail(email); err != nil {
		return nil, err
	}
	return &NewsletterSubscriber{
		ID:           uuid.New(),
		Email:        email,
		UserID:       userID,
		SubscribedAt: time.Now(),
	}, nil
}

// IsActive returns true while the address is subscribed
func (s *NewsletterSubscriber) IsActive() bool {
	return s.UnsubscribedAt == nil
}

// Resubscribe reactivates a previously unsubscribed address. Returns false if already active.
func (s *NewsletterSubscriber) Resubscribe(userID *uuid.UUID) bool {
	if s.IsActive() {
		return false
	}
	s.UnsubscribedAt = nil
	s.SubscribedAt = time.Now()
	if s.UserID == nil {
		s.UserID = userID
	}
	return true
}

// Unsubscribe removes the address from the list. Returns false if already inactive.
func (s *NewsletterSubscriber) Unsubscribe(at time.Time) bool {
	if !s.IsActive() {
		return false
	}
	s.UnsubscribedAt = &at
	return true
}

// ShouldAwardBonus returns true for a member who has not yet been credited
func (s *NewsletterSubscriber) ShouldAwardBonus() bool {
	return s.UserID != nil && !s.BonusAwarded && s.IsActive()
}

// NewsletterRepository persists subscribers
type NewsletterRepository interface {
	FindByEmail(ctx context.Context, email string) (*NewsletterSubscriber, error)
	Save(ctx context.Context, subscriber *NewsletterSubscriber) error
}

// ErrSubscriberNotFound is returned when unsubscribing an unknown address
var ErrSubscriberNotFound = shared.NewDomainError(shared.CodeNotFound, "Email is not subscribed")
