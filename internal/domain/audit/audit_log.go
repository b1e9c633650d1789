package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/shared"
)

// ActorType identifies who caused an audited change
type ActorType string

const (
	ActorSystem   ActorType = "system"
	ActorCustomer ActorType = "customer"
	ActorAdmin    ActorType = "admin"
	ActorGateway  ActorType = "gateway"
)

// Entry is one append-only row of the audit log
type Entry struct {
	ID         uuid.UUID
	ActorType  ActorType
	ActorID    *uuid.UUID
	Action     string
	EntityType string
	EntityID   string
	Details    map[string]any
	CreatedAt  time.Time
}

// NewEntry creates an audit entry
func NewEntry(actorType ActorType, actorID *uuid.UUID, action, entityType, entityID string, details map[string]any) *Entry {
	return &Entry{
		ID:         uuid.New(),
		ActorType:  actorType,
		ActorID:    actorID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Details:    details,
		CreatedAt:  time.Now(),
	}
}

// Repository persists audit entries
type Repository interface {
	Append(ctx context.Context, entry *Entry) error
	FindAll(ctx context.Context, filter shared.Filter) ([]Entry, int64, error)
}
