package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/shared"
)

// ProductService serves the storefront catalog
type ProductService struct {
	productRepo catalog.ProductRepository
	currency    string
}

// NewProductService creates a new ProductService
func NewProductService(productRepo catalog.ProductRepository, currency string) *ProductService {
	return &ProductService{productRepo: productRepo, currency: currency}
}

// List returns a page of active products
func (s *ProductService) List(ctx context.Context, filter shared.Filter) (*shared.Paginated[ProductResponse], error) {
	filter = filter.Normalize()
	products, total, err := s.productRepo.FindActive(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]ProductResponse, 0, len(products))
	for i := range products {
		items = append(items, ToProductResponse(&products[i], s.currency))
	}
	page := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &page, nil
}

// GetByID returns an active product. Inactive products are reported as not found.
func (s *ProductService) GetByID(ctx context.Context, id uuid.UUID) (*ProductResponse, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !product.IsPurchasable() {
		return nil, shared.ErrNotFound
	}
	resp := ToProductResponse(product, s.currency)
	return &resp, nil
}
