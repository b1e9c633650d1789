package audit

import (
	"context"
	"fmt"

	"github.com/storefront/backend/internal/domain/audit"
	"github.com/storefront/backend/internal/domain/loyalty"
	"github.com/storefront/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// ActionTierChanged is the audit action recorded for tier movements
const ActionTierChanged = "loyalty.tier_changed"

// TierChangedHandler writes TierChanged events to the audit log. Settlements,
// adjustments and status changes audit themselves inside their transaction;
// tier movements are a side effect of those and are recorded here after commit.
type TierChangedHandler struct {
	repo   audit.Repository
	logger *zap.Logger
}

// NewTierChangedHandler creates a new TierChangedHandler
func NewTierChangedHandler(repo audit.Repository, logger *zap.Logger) *TierChangedHandler {
	return &TierChangedHandler{repo: repo, logger: logger}
}

// EventTypes implements shared.EventHandler
func (h *TierChangedHandler) EventTypes() []string {
	return []string{loyalty.EventTypeTierChanged}
}

// Handle implements shared.EventHandler
func (h *TierChangedHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	e, ok := event.(*loyalty.TierChangedEvent)
	if !ok {
		return fmt.Errorf("unexpected event type %T", event)
	}

	entry := audit.NewEntry(audit.ActorSystem, nil, ActionTierChanged, "user", e.UserID.String(), map[string]any{
		"from":     e.PreviousTier,
		"to":       e.NewTier,
		"balance":  e.Balance,
		"event_id": e.EventID().String(),
	})
	if err := h.repo.Append(ctx, entry); err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}

	h.logger.Info("Member tier changed",
		zap.String("user_id", e.UserID.String()),
		zap.String("from", e.PreviousTier),
		zap.String("to", e.NewTier))
	return nil
}

var _ shared.EventHandler = (*TierChangedHandler)(nil)
