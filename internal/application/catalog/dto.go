package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
	"golang.org/x/text/language"
)

// ProductResponse represents a product in API responses
type ProductResponse struct {
	ID             uuid.UUID `json:"id"`
	SKU            string    `json:"sku"`
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	Price          int64     `json:"price"`
	PriceFormatted string    `json:"price_formatted"`
	Currency       string    `json:"currency"`
	ImageURL       string    `json:"image_url,omitempty"`
	Category       string    `json:"category,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// ToProductResponse converts a domain product priced in currency
func ToProductResponse(p *catalog.Product, currency string) ProductResponse {
	return ProductResponse{
		ID:             p.ID,
		SKU:            p.SKU,
		Name:           p.Name,
		Description:    p.Description,
		Price:          p.Price,
		PriceFormatted: valueobject.NewMoney(p.Price, currency).Format(language.AmericanEnglish),
		Currency:       currency,
		ImageURL:       p.ImageURL,
		Category:       p.Category,
		CreatedAt:      p.CreatedAt,
	}
}
