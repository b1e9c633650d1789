package persistence

import (
	"context"

	"github.com/storefront/backend/internal/domain/audit"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormAuditLogRepository implements audit.Repository using GORM
type GormAuditLogRepository struct {
	db *gorm.DB
}

// NewGormAuditLogRepository creates a new GormAuditLogRepository
func NewGormAuditLogRepository(db *gorm.DB) *GormAuditLogRepository {
	return &GormAuditLogRepository{db: db}
}

// Append stores an audit entry
func (r *GormAuditLogRepository) Append(ctx context.Context, entry *audit.Entry) error {
	return r.db.WithContext(ctx).Create(models.AuditLogModelFromDomain(entry)).Error
}

// FindAll returns a page of audit entries. Filters["entity_id"] and
// Filters["action"] narrow the result.
func (r *GormAuditLogRepository) FindAll(ctx context.Context, filter shared.Filter) ([]audit.Entry, int64, error) {
	filter = filter.Normalize()
	query := r.db.WithContext(ctx).Model(&models.AuditLogModel{})
	for _, key := range []string{"entity_id", "action"} {
		if v, ok := filter.Filters[key]; ok && v != "" {
			query = query.Where(key+" = ?", v)
		}
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []models.AuditLogModel
	if err := paginate(query, filter, CreatedAtSortFields, "created_at").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	entries := make([]audit.Entry, 0, len(rows))
	for i := range rows {
		entries = append(entries, rows[i].ToDomain())
	}
	return entries, total, nil
}

var _ audit.Repository = (*GormAuditLogRepository)(nil)
