package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/marketing"
)

// NewsletterSubscriberModel is the persistence model for newsletter_subscribers
type NewsletterSubscriberModel struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Email          string     `gorm:"type:varchar(200);not null;uniqueIndex"`
	UserID         *uuid.UUID `gorm:"type:uuid;index"`
	SubscribedAt   time.Time  `gorm:"not null"`
	UnsubscribedAt *time.Time
	BonusAwarded   bool `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (NewsletterSubscriberModel) TableName() string {
	return "newsletter_subscribers"
}

// ToDomain converts the persistence model to a domain subscriber
func (m *NewsletterSubscriberModel) ToDomain() *marketing.NewsletterSubscriber {
	return &marketing.NewsletterSubscriber{
		ID:             m.ID,
		Email:          m.Email,
		UserID:         m.UserID,
		SubscribedAt:   m.SubscribedAt,
		UnsubscribedAt: m.UnsubscribedAt,
		BonusAwarded:   m.BonusAwarded,
	}
}

// NewsletterSubscriberModelFromDomain creates a persistence model from a domain subscriber
func NewsletterSubscriberModelFromDomain(s *marketing.NewsletterSubscriber) *NewsletterSubscriberModel {
	return &NewsletterSubscriberModel{
		ID:             s.ID,
		Email:          s.Email,
		UserID:         s.UserID,
		SubscribedAt:   s.SubscribedAt,
		UnsubscribedAt: s.UnsubscribedAt,
		BonusAwarded:   s.BonusAwarded,
	}
}

// ContactRequestModel is the persistence model for contact_requests
type ContactRequestModel struct {
	ID        uuid.UUID               `gorm:"type:uuid;primaryKey"`
	Name      string                  `gorm:"type:varchar(100);not null"`
	Email     string                  `gorm:"type:varchar(200);not null"`
	Subject   string                  `gorm:"type:varchar(200)"`
	Message   string                  `gorm:"type:text;not null"`
	UserID    *uuid.UUID              `gorm:"type:uuid"`
	Status    marketing.ContactStatus `gorm:"type:varchar(20);not null;default:'new'"`
	CreatedAt time.Time               `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (ContactRequestModel) TableName() string {
	return "contact_requests"
}

// ToDomain converts the persistence model to a domain contact request
func (m *ContactRequestModel) ToDomain() marketing.ContactRequest {
	return marketing.ContactRequest{
		ID:        m.ID,
		Name:      m.Name,
		Email:     m.Email,
		Subject:   m.Subject,
		Message:   m.Message,
		UserID:    m.UserID,
		Status:    m.Status,
		CreatedAt: m.CreatedAt,
	}
}

// ContactRequestModelFromDomain creates a persistence model from a domain contact request
func ContactRequestModelFromDomain(r *marketing.ContactRequest) *ContactRequestModel {
	return &ContactRequestModel{
		ID:        r.ID,
		Name:      r.Name,
		Email:     r.Email,
		Subject:   r.Subject,
		Message:   r.Message,
		UserID:    r.UserID,
		Status:    r.Status,
		CreatedAt: r.CreatedAt,
	}
}
