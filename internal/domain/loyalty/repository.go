package loyalty

import (
	"context"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/shared"
)

// LedgerRepository is the append-only store of ledger entries
type LedgerRepository interface {
	// Append persists new entries. Existing entries are never modified.
	Append(ctx context.Context, entries ...*LedgerEntry) error
	// FindByUser returns a page of the user's entries, newest first
	FindByUser(ctx context.Context, userID uuid.UUID, filter shared.Filter) ([]LedgerEntry, int64, error)
	// FindByReference returns all entries carrying the given reference id
	FindByReference(ctx context.Context, referenceID string) ([]LedgerEntry, error)
	// SumByUser returns the ledger-derived balance of the user
	SumByUser(ctx context.Context, userID uuid.UUID) (int64, error)
}

// AccountRepository loads and stores the cached balance and tier
type AccountRepository interface {
	// FindByUserID loads the account without locking
	FindByUserID(ctx context.Context, userID uuid.UUID) (*Account, error)
	// FindByUserIDForUpdate loads the account and locks it for the rest of the transaction
	FindByUserIDForUpdate(ctx context.Context, userID uuid.UUID) (*Account, error)
	// Save persists the account's pending ledger entries, balance and tier together
	Save(ctx context.Context, account *Account) error
}
