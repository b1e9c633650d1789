package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormOrderRepository implements order.Repository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// FindByID finds an order by ID
func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	return r.findOne(r.db.WithContext(ctx), "id = ?", id)
}

// FindByIDForUpdate finds an order by ID and locks the row
func (r *GormOrderRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	return r.findOne(forUpdate(r.db.WithContext(ctx)), "id = ?", id)
}

// FindByCheckoutSession finds the order a gateway session was created for
func (r *GormOrderRepository) FindByCheckoutSession(ctx context.Context, sessionID string) (*order.Order, error) {
	if sessionID == "" {
		return nil, shared.ErrNotFound
	}
	return r.findOne(r.db.WithContext(ctx), "checkout_session = ?", sessionID)
}

func (r *GormOrderRepository) findOne(db *gorm.DB, query string, args ...any) (*order.Order, error) {
	var model models.OrderModel
	if err := db.Where(query, args...).First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindByUser returns a page of a member's orders
func (r *GormOrderRepository) FindByUser(ctx context.Context, userID uuid.UUID, filter shared.Filter) ([]order.Order, int64, error) {
	return r.list(r.db.WithContext(ctx).Model(&models.OrderModel{}).Where("user_id = ?", userID), filter)
}

// FindAll returns a page of all orders. Filters["status"] narrows by status.
func (r *GormOrderRepository) FindAll(ctx context.Context, filter shared.Filter) ([]order.Order, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.OrderModel{})
	if status, ok := filter.Filters["status"]; ok && status != "" {
		query = query.Where("status = ?", status)
	}
	if filter.Search != "" {
		query = query.Where("email LIKE ?", "%"+filter.Search+"%")
	}
	return r.list(query, filter)
}

func (r *GormOrderRepository) list(query *gorm.DB, filter shared.Filter) ([]order.Order, int64, error) {
	filter = filter.Normalize()

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.OrderModel
	if err := paginate(query, filter, OrderSortFields, "created_at").Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	orders := make([]order.Order, 0, len(rows))
	for i := range rows {
		orders = append(orders, *rows[i].ToDomain())
	}
	return orders, total, nil
}

// SumPendingPointsUsed returns the points held by the member's unpaid orders
func (r *GormOrderRepository) SumPendingPointsUsed(ctx context.Context, userID uuid.UUID) (int64, error) {
	var sum int64
	err := r.db.WithContext(ctx).Model(&models.OrderModel{}).
		Where("user_id = ? AND status = ?", userID, order.StatusPending).
		Select("COALESCE(SUM(points_used), 0)").
		Scan(&sum).Error
	return sum, err
}

// Save inserts or updates the order
func (r *GormOrderRepository) Save(ctx context.Context, o *order.Order) error {
	return translateError(r.db.WithContext(ctx).Save(models.OrderModelFromDomain(o)).Error)
}

var _ order.Repository = (*GormOrderRepository)(nil)
