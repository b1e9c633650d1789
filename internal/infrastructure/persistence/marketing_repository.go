package persistence

import (
	"context"

	"github.com/storefront/backend/internal/domain/identity"
	"github.com/storefront/backend/internal/domain/marketing"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormNewsletterRepository implements marketing.NewsletterRepository using GORM
type GormNewsletterRepository struct {
	db *gorm.DB
}

// NewGormNewsletterRepository creates a new GormNewsletterRepository
func NewGormNewsletterRepository(db *gorm.DB) *GormNewsletterRepository {
	return &GormNewsletterRepository{db: db}
}

// FindByEmail finds a subscriber by email, active or not
func (r *GormNewsletterRepository) FindByEmail(ctx context.Context, email string) (*marketing.NewsletterSubscriber, error) {
	var model models.NewsletterSubscriberModel
	if err := r.db.WithContext(ctx).Where("email = ?", identity.NormalizeEmail(email)).First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// Save inserts or updates a subscriber
func (r *GormNewsletterRepository) Save(ctx context.Context, s *marketing.NewsletterSubscriber) error {
	return translateError(r.db.WithContext(ctx).Save(models.NewsletterSubscriberModelFromDomain(s)).Error)
}

// GormContactRequestRepository implements marketing.ContactRequestRepository using GORM
type GormContactRequestRepository struct {
	db *gorm.DB
}

// NewGormContactRequestRepository creates a new GormContactRequestRepository
func NewGormContactRequestRepository(db *gorm.DB) *GormContactRequestRepository {
	return &GormContactRequestRepository{db: db}
}

// Create stores a contact request
func (r *GormContactRequestRepository) Create(ctx context.Context, req *marketing.ContactRequest) error {
	return r.db.WithContext(ctx).Create(models.ContactRequestModelFromDomain(req)).Error
}

// FindAll returns a page of contact requests, newest first
func (r *GormContactRequestRepository) FindAll(ctx context.Context, filter shared.Filter) ([]marketing.ContactRequest, int64, error) {
	filter = filter.Normalize()
	query := r.db.WithContext(ctx).Model(&models.ContactRequestModel{})
	if status, ok := filter.Filters["status"]; ok && status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []models.ContactRequestModel
	if err := paginate(query, filter, CreatedAtSortFields, "created_at").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	requests := make([]marketing.ContactRequest, 0, len(rows))
	for i := range rows {
		requests = append(requests, rows[i].ToDomain())
	}
	return requests, total, nil
}

var (
	_ marketing.NewsletterRepository     = (*GormNewsletterRepository)(nil)
	_ marketing.ContactRequestRepository = (*GormContactRequestRepository)(nil)
)
