package loyalty

import (
	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/shared"
)

// Account is a member's cached points position. The balance always equals the
// sum of the member's ledger entries; both are written in the same transaction.
// Balance and tier are unexported: only Post, Credit and RefreshTier move them.
type Account struct {
	UserID  uuid.UUID
	balance int64
	tier    string

	pending []*LedgerEntry
	events  []shared.DomainEvent
}

// NewAccount creates an empty account in the lowest tier
func NewAccount(userID uuid.UUID, tiers *TierTable) *Account {
	return &Account{
		UserID: userID,
		tier:   tiers.Lowest().Name(),
	}
}

// RestoreAccount rebuilds an account from stored columns. Repositories use it;
// everything else changes an account by posting entries.
func RestoreAccount(userID uuid.UUID, balance int64, tier string) *Account {
	return &Account{UserID: userID, balance: balance, tier: tier}
}

// Balance is the cached points balance
func (a *Account) Balance() int64 {
	return a.balance
}

// TierName is the stored tier. It can lag the balance until RefreshTier runs.
func (a *Account) TierName() string {
	return a.tier
}

// Post applies a validated entry to the cached balance and queues it for persistence
func (a *Account) Post(entry *LedgerEntry) error {
	if entry == nil {
		return shared.NewDomainError(shared.CodeValidation, "Ledger entry cannot be nil")
	}
	if entry.UserID != a.UserID {
		return shared.NewDomainError(shared.CodeValidation, "Ledger entry belongs to a different user")
	}
	a.balance += entry.Amount
	entry.BalanceAfter = a.balance
	a.pending = append(a.pending, entry)
	return nil
}

// Credit builds and posts an entry in one step
func (a *Account) Credit(amount int64, kind EntryKind, source EntrySource, referenceID, description string) (*LedgerEntry, error) {
	entry, err := NewLedgerEntry(a.UserID, amount, kind, source)
	if err != nil {
		return nil, err
	}
	entry.WithReference(referenceID).WithDescription(description)
	if err := a.Post(entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// CurrentTier returns the tier the current balance falls into
func (a *Account) CurrentTier(tiers *TierTable) Tier {
	return tiers.TierFor(a.balance)
}

// RefreshTier recomputes the tier from the balance. It returns true and records
// a TierChanged event when the stored tier moves.
func (a *Account) RefreshTier(tiers *TierTable) bool {
	next := tiers.TierFor(a.balance).Name()
	if next == a.tier {
		return false
	}
	previous := a.tier
	a.tier = next
	a.events = append(a.events, NewTierChangedEvent(a.UserID, previous, next, a.balance))
	return true
}

// PendingEntries returns entries posted since the account was loaded
func (a *Account) PendingEntries() []*LedgerEntry {
	return a.pending
}

// ClearPendingEntries is called by the repository once entries are persisted
func (a *Account) ClearPendingEntries() {
	a.pending = nil
}

// GetDomainEvents returns events raised by the account
func (a *Account) GetDomainEvents() []shared.DomainEvent {
	return a.events
}

// ClearDomainEvents clears raised events
func (a *Account) ClearDomainEvents() {
	a.events = nil
}

var _ shared.EventSource = (*Account)(nil)
