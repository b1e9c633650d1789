package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/loyalty"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormLedgerRepository implements loyalty.LedgerRepository on points_transactions
type GormLedgerRepository struct {
	db *gorm.DB
}

// NewGormLedgerRepository creates a new GormLedgerRepository
func NewGormLedgerRepository(db *gorm.DB) *GormLedgerRepository {
	return &GormLedgerRepository{db: db}
}

// Append inserts entries. A second EARN or SPEND for the same order violates
// the settlement index and is reported as shared.ErrDuplicateSettlement.
func (r *GormLedgerRepository) Append(ctx context.Context, entries ...*loyalty.LedgerEntry) error {
	if len(entries) == 0 {
		return nil
	}
	rows := make([]*models.PointsTransactionModel, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, models.PointsTransactionModelFromDomain(e))
	}
	err := r.db.WithContext(ctx).Create(&rows).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return shared.ErrDuplicateSettlement
	}
	return err
}

// FindByUser returns a page of the user's entries, newest first
func (r *GormLedgerRepository) FindByUser(ctx context.Context, userID uuid.UUID, filter shared.Filter) ([]loyalty.LedgerEntry, int64, error) {
	filter = filter.Normalize()
	query := r.db.WithContext(ctx).Model(&models.PointsTransactionModel{}).Where("user_id = ?", userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.PointsTransactionModel
	if err := paginate(query, filter, CreatedAtSortFields, "created_at").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return toLedgerEntries(rows), total, nil
}

// FindByReference returns all entries carrying the reference id in insertion order
func (r *GormLedgerRepository) FindByReference(ctx context.Context, referenceID string) ([]loyalty.LedgerEntry, error) {
	var rows []models.PointsTransactionModel
	if err := r.db.WithContext(ctx).
		Where("reference_id = ?", referenceID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toLedgerEntries(rows), nil
}

// SumByUser returns the ledger-derived balance
func (r *GormLedgerRepository) SumByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	var sum int64
	err := r.db.WithContext(ctx).Model(&models.PointsTransactionModel{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&sum).Error
	return sum, err
}

func toLedgerEntries(rows []models.PointsTransactionModel) []loyalty.LedgerEntry {
	entries := make([]loyalty.LedgerEntry, 0, len(rows))
	for i := range rows {
		entries = append(entries, rows[i].ToDomain())
	}
	return entries
}

var _ loyalty.LedgerRepository = (*GormLedgerRepository)(nil)
