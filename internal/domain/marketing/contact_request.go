package marketing

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/identity"
	"github.com/storefront/backend/internal/domain/shared"
)

// ContactStatus tracks handling of a contact form submission
type ContactStatus string

const (
	ContactStatusNew      ContactStatus = "new"
	ContactStatusResolved ContactStatus = "resolved"
)

// ContactRequest is a message sent through the storefront contact form
type ContactRequest struct {
	ID        uuid.UUID
	Name      string
	Email     string
	Subject   string
	Message   string
	UserID    *uuid.UUID
	Status    ContactStatus
	CreatedAt time.Time
}

// NewContactRequest validates and creates a contact request
func NewContactRequest(name, email, subject, message string, userID *uuid.UUID) (*ContactRequest, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError(shared.CodeValidation, "Name is required")
	}
	email = identity.NormalizeEmail(email)
	if err := identity.ValidateEmail(email); err != nil {
		return nil, err
	}
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, shared.NewDomainError(shared.CodeValidation, "Message is required")
	}
	if len(message) > 5000 {
		return nil, shared.NewDomainError(shared.CodeValidation, "Message cannot exceed 5000 characters")
	}
	return &ContactRequest{
		ID:        uuid.New(),
		Name:      name,
		Email:     email,
		Subject:   strings.TrimSpace(subject),
		Message:   message,
		UserID:    userID,
		Status:    ContactStatusNew,
		CreatedAt: time.Now(),
	}, nil
}

// ContactRequestRepository persists contact requests
type ContactRequestRepository interface {
	Create(ctx context.Context, request *ContactRequest) error
	FindAll(ctx context.Context, filter shared.Filter) ([]ContactRequest, int64, error)
}
