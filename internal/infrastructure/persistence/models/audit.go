package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/audit"
)

// AuditLogModel is the persistence model for audit_log
type AuditLogModel struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey"`
	ActorType  audit.ActorType `gorm:"type:varchar(20);not null"`
	ActorID    *uuid.UUID      `gorm:"type:uuid"`
	Action     string          `gorm:"type:varchar(100);not null;index"`
	EntityType string          `gorm:"type:varchar(50);not null"`
	EntityID   string          `gorm:"type:varchar(100);not null;index"`
	Details    map[string]any  `gorm:"type:jsonb;serializer:json"`
	CreatedAt  time.Time       `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (AuditLogModel) TableName() string {
	return "audit_log"
}

// ToDomain converts the persistence model to a domain audit entry
func (m *AuditLogModel) ToDomain() audit.Entry {
	return audit.Entry{
		ID:         m.ID,
		ActorType:  m.ActorType,
		ActorID:    m.ActorID,
		Action:     m.Action,
		EntityType: m.EntityType,
		EntityID:   m.EntityID,
		Details:    m.Details,
		CreatedAt:  m.CreatedAt,
	}
}

// AuditLogModelFromDomain creates a persistence model from a domain audit entry
func AuditLogModelFromDomain(e *audit.Entry) *AuditLogModel {
	return &AuditLogModel{
		ID:         e.ID,
		ActorType:  e.ActorType,
		ActorID:    e.ActorID,
		Action:     e.Action,
		EntityType: e.EntityType,
		EntityID:   e.EntityID,
		Details:    e.Details,
		CreatedAt:  e.CreatedAt,
	}
}
