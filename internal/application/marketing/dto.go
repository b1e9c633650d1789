package marketing

import (
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/marketing"
)

// SubscribeInput is a newsletter sign-up. UserID is set when the caller is logged in.
type SubscribeInput struct {
	Email  string
	UserID *uuid.UUID
}

// SubscribeResult reports what a sign-up did
type SubscribeResult struct {
	Email             string `json:"email"`
	AlreadySubscribed bool   `json:"already_subscribed"`
	BonusPoints       int64  `json:"bonus_points"`
}

// ContactInput is a contact form submission
type ContactInput struct {
	Name    string
	Email   string
	Subject string
	Message string
	UserID  *uuid.UUID
}

// ContactResponse is a stored contact request
type ContactResponse struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Subject   string     `json:"subject"`
	Message   string     `json:"message"`
	UserID    *uuid.UUID `json:"user_id,omitempty"`
	Status    string     `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
}

func toContactResponse(r *marketing.ContactRequest) ContactResponse {
	return ContactResponse{
		ID:        r.ID,
		Name:      r.Name,
		Email:     r.Email,
		Subject:   r.Subject,
		Message:   r.Message,
		UserID:    r.UserID,
		Status:    string(r.Status),
		CreatedAt: r.CreatedAt,
	}
}
