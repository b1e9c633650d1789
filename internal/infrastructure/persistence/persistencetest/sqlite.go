// Package persistencetest provides SQLite-backed fixtures for service tests.
package persistencetest

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/identity"
	"github.com/storefront/backend/internal/domain/loyalty"
	"github.com/storefront/backend/internal/infrastructure/persistence"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	gormlogger "gorm.io/gorm/logger"
)

// PlainHasher is a PasswordHasher that skips bcrypt
type PlainHasher struct{}

func (PlainHasher) Hash(password string) (string, error) { return "hashed:" + password, nil }
func (PlainHasher) Verify(hash, password string) bool   { return hash == "hashed:"+password }

// NewSQLite opens a migrated in-memory database that lives for the test.
// A single connection keeps every statement on the same memory database.
func NewSQLite(t *testing.T) *persistence.Database {
	t.Helper()

	db, err := persistence.Open(sqlite.Open(":memory:"), zap.NewNop(), gormlogger.Silent, 0)
	require.NoError(t, err)

	sqlDB, err := db.DB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate())
	return db
}

// CreateMember inserts a member in the lowest tier and, when points > 0,
// credits them through the ledger so the cached balance and the ledger agree.
func CreateMember(t *testing.T, db *persistence.Database, email string, points int64, tiers *loyalty.TierTable) *identity.User {
	t.Helper()
	ctx := context.Background()

	user, err := identity.NewUser(email, "password123", "Member", PlainHasher{})
	require.NoError(t, err)
	require.NoError(t, persistence.NewGormUserRepository(db.DB).Create(ctx, user))

	accounts := persistence.NewGormAccountRepository(db.DB)
	account := loyalty.NewAccount(user.ID, tiers)
	if points > 0 {
		_, err = account.Credit(points, loyalty.EntryKindAdjust, loyalty.EntrySourceAdmin, "", "Opening balance")
		require.NoError(t, err)
		account.RefreshTier(tiers)
	}
	require.NoError(t, accounts.Save(ctx, account))
	return user
}

// CreateProduct inserts an active product
func CreateProduct(t *testing.T, db *persistence.Database, sku string, price int64) *catalog.Product {
	t.Helper()
	p, err := catalog.NewProduct(sku, "Product "+sku, price)
	require.NoError(t, err)
	require.NoError(t, persistence.NewGormProductRepository(db.DB).Save(context.Background(), p))
	return p
}

// Balance returns the cached balance and the ledger sum of a member
func Balance(t *testing.T, db *persistence.Database, userID uuid.UUID) (cached, ledger int64) {
	t.Helper()
	ctx := context.Background()

	account, err := persistence.NewGormAccountRepository(db.DB).FindByUserID(ctx, userID)
	require.NoError(t, err)
	sum, err := persistence.NewGormLedgerRepository(db.DB).SumByUser(ctx, userID)
	require.NoError(t, err)
	return account.Balance(), sum
}
