package order

import (
	"context"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/shared"
)

// Repository persists orders
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)
	// FindByIDForUpdate loads the order and locks its row until the transaction ends
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Order, error)
	FindByCheckoutSession(ctx context.Context, sessionID string) (*Order, error)
	FindByUser(ctx context.Context, userID uuid.UUID, filter shared.Filter) ([]Order, int64, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]Order, int64, error)
	// SumPendingPointsUsed returns points reserved by the user's unpaid orders
	SumPendingPointsUsed(ctx context.Context, userID uuid.UUID) (int64, error)
	Save(ctx context.Context, order *Order) error
}
