package loyalty

import (
	"context"

	"github.com/storefront/backend/internal/domain/audit"
	"github.com/storefront/backend/internal/domain/identity"
	"github.com/storefront/backend/internal/domain/loyalty"
	"github.com/storefront/backend/internal/domain/marketing"
	"github.com/storefront/backend/internal/domain/order"
)

// TransactionScope runs points-moving work atomically. Every operation that
// appends to the ledger goes through it so that the ledger entry, the cached
// balance and the triggering change commit or roll back together.
type TransactionScope interface {
	// Execute runs fn within a database transaction.
	// If fn returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides repositories bound to one transaction.
type TransactionalRepositories interface {
	Accounts() loyalty.AccountRepository
	Ledger() loyalty.LedgerRepository
	Orders() order.Repository
	Users() identity.UserRepository
	Newsletter() marketing.NewsletterRepository
	Audit() audit.Repository
}

// NoOpTransactionScope runs the function against plain repositories without a
// real transaction. Tests use it with in-memory fakes.
type NoOpTransactionScope struct {
	Repos TransactionalRepositories
}

// Execute runs the function without a real transaction.
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s.Repos)
}

var _ TransactionScope = (*NoOpTransactionScope)(nil)
