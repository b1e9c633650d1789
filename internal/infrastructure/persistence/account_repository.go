package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/loyalty"
	"github.com/storefront/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormAccountRepository implements loyalty.AccountRepository on the users table
type GormAccountRepository struct {
	db     *gorm.DB
	ledger *GormLedgerRepository
}

// NewGormAccountRepository creates a new GormAccountRepository
func NewGormAccountRepository(db *gorm.DB) *GormAccountRepository {
	return &GormAccountRepository{db: db, ledger: NewGormLedgerRepository(db)}
}

// FindByUserID loads the account without locking
func (r *GormAccountRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*loyalty.Account, error) {
	return r.find(r.db.WithContext(ctx), userID)
}

// FindByUserIDForUpdate loads the account and locks the user row
func (r *GormAccountRepository) FindByUserIDForUpdate(ctx context.Context, userID uuid.UUID) (*loyalty.Account, error) {
	return r.find(forUpdate(r.db.WithContext(ctx)), userID)
}

func (r *GormAccountRepository) find(db *gorm.DB, userID uuid.UUID) (*loyalty.Account, error) {
	var model models.UserModel
	if err := db.Select("id", "points_balance", "tier").First(&model, "id = ?", userID).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToAccount(), nil
}

// Save appends the account's pending entries and writes the cached balance and
// tier. Callers run it inside a transaction so both land together.
func (r *GormAccountRepository) Save(ctx context.Context, account *loyalty.Account) error {
	if pending := account.PendingEntries(); len(pending) > 0 {
		if err := r.ledger.Append(ctx, pending...); err != nil {
			return err
		}
	}

	result := r.db.WithContext(ctx).Model(&models.UserModel{}).
		Where("id = ?", account.UserID).
		Updates(map[string]any{
			"points_balance": account.Balance(),
			"tier":           account.TierName(),
			"updated_at":     time.Now(),
		})
	if result.Error != nil {
		return fmt.Errorf("update points balance: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return translateError(gorm.ErrRecordNotFound)
	}

	account.ClearPendingEntries()
	return nil
}

var _ loyalty.AccountRepository = (*GormAccountRepository)(nil)
