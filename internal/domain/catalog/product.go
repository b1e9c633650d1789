package catalog

import (
	"strings"

	"github.com/storefront/backend/internal/domain/shared"
)

// ProductStatus represents the status of a product
type ProductStatus string

const (
	ProductStatusActive   ProductStatus = "active"
	ProductStatusInactive ProductStatus = "inactive"
)

// Product is a sellable item. Price is in minor units of the store currency.
type Product struct {
	shared.BaseAggregateRoot
	SKU         string
	Name        string
	Description string
	Price       int64
	ImageURL    string
	Category    string
	Status      ProductStatus
}

// NewProduct creates an active product
func NewProduct(sku, name string, price int64) (*Product, error) {
	sku = strings.ToUpper(strings.TrimSpace(sku))
	if sku == "" {
		return nil, shared.NewDomainError(shared.CodeValidation, "Product SKU cannot be empty")
	}
	if len(sku) > 50 {
		return nil, shared.NewDomainError(shared.CodeValidation, "Product SKU cannot exceed 50 characters")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError(shared.CodeValidation, "Product name cannot be empty")
	}
	if price < 0 {
		return nil, shared.NewDomainError(shared.CodeValidation, "Product price cannot be negative")
	}
	return &Product{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		SKU:               sku,
		Name:              name,
		Price:             price,
		Status:            ProductStatusActive,
	}, nil
}

// IsPurchasable returns true if the product can be added to a checkout
func (p *Product) IsPurchasable() bool {
	return p.Status == ProductStatusActive
}

// Deactivate hides the product from the storefront
func (p *Product) Deactivate() {
	p.Status = ProductStatusInactive
}
