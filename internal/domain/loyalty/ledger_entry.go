package loyalty

import (
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/shared"
)

// EntryKind is the kind of movement a ledger entry records
type EntryKind string

const (
	// EntryKindEarn credits points (always positive)
	EntryKindEarn EntryKind = "EARN"
	// EntryKindSpend debits points redeemed against an order (always negative)
	EntryKindSpend EntryKind = "SPEND"
	// EntryKindAdjust is a correction in either direction
	EntryKindAdjust EntryKind = "ADJUST"
	// EntryKindExpire removes lapsed points (always negative)
	EntryKindExpire EntryKind = "EXPIRE"
)

// String returns the string representation of EntryKind
func (k EntryKind) String() string {
	return string(k)
}

// IsValid returns true if the kind is known
func (k EntryKind) IsValid() bool {
	switch k {
	case EntryKindEarn, EntryKindSpend, EntryKindAdjust, EntryKindExpire:
		return true
	}
	return false
}

// AllowsAmount reports whether the sign of amount is consistent with the kind
func (k EntryKind) AllowsAmount(amount int64) bool {
	if amount == 0 {
		return false
	}
	switch k {
	case EntryKindEarn:
		return amount > 0
	case EntryKindSpend, EntryKindExpire:
		return amount < 0
	case EntryKindAdjust:
		return true
	}
	return false
}

// EntrySource identifies what caused a ledger entry
type EntrySource string

const (
	EntrySourceOrder      EntrySource = "ORDER"
	EntrySourceSignup     EntrySource = "SIGNUP"
	EntrySourceNewsletter EntrySource = "NEWSLETTER"
	EntrySourceReview     EntrySource = "REVIEW"
	EntrySourceAdmin      EntrySource = "ADMIN"
	EntrySourceRefund     EntrySource = "REFUND"
)

// String returns the string representation of EntrySource
func (s EntrySource) String() string {
	return string(s)
}

// IsValid returns true if the source is known
func (s EntrySource) IsValid() bool {
	switch s {
	case EntrySourceOrder,
		EntrySourceSignup,
		EntrySourceNewsletter,
		EntrySourceReview,
		EntrySourceAdmin,
		EntrySourceRefund:
		return true
	}
	return false
}

// LedgerEntry is an immutable signed point movement.
// Entries are never updated or deleted; corrections are new ADJUST entries.
type LedgerEntry struct {
	ID           uuid.UUID
	UserID       uuid.UUID
	Amount       int64
	Kind         EntryKind
	Source       EntrySource
	ReferenceID  *string
	Description  string
	BalanceAfter int64
	CreatedAt    time.Time
}

// NewLedgerEntry validates and creates a ledger entry.
// BalanceAfter is filled in when the entry is posted to an Account.
func NewLedgerEntry(userID uuid.UUID, amount int64, kind EntryKind, source EntrySource) (*LedgerEntry, error) {
	if userID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeValidation, "Ledger entry requires a user")
	}
	if !kind.IsValid() {
		return nil, shared.NewDomainError(shared.CodeValidation, "Invalid ledger entry kind")
	}
	if !source.IsValid() {
		return nil, shared.NewDomainError(shared.CodeValidation, "Invalid ledger entry source")
	}
	if amount == 0 {
		return nil, shared.NewDomainError(shared.CodeValidation, "Ledger entry amount cannot be zero")
	}
	if !kind.AllowsAmount(amount) {
		return nil, shared.NewDomainError(shared.CodeValidation, "Ledger entry amount sign does not match its kind")
	}
	return &LedgerEntry{
		ID:        uuid.New(),
		UserID:    userID,
		Amount:    amount,
		Kind:      kind,
		Source:    source,
		CreatedAt: time.Now(),
	}, nil
}

// WithReference sets the reference (e.g. an order id)
func (e *LedgerEntry) WithReference(referenceID string) *LedgerEntry {
	if referenceID != "" {
		e.ReferenceID = &referenceID
	}
	return e
}

// WithDescription sets a human-readable description
func (e *LedgerEntry) WithDescription(description string) *LedgerEntry {
	e.Description = description
	return e
}

// Reference returns the reference id or an empty string
func (e *LedgerEntry) Reference() string {
	if e.ReferenceID == nil {
		return ""
	}
	return *e.ReferenceID
}

// IsCredit returns true for entries that increase the balance
func (e *LedgerEntry) IsCredit() bool {
	return e.Amount > 0
}

// SumEntries returns the total of the entries' amounts
func SumEntries(entries []LedgerEntry) int64 {
	var total int64
	for _, e := range entries {
		total += e.Amount
	}
	return total
}
