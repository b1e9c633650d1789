package persistence

import (
	"strings"

	"github.com/storefront/backend/internal/domain/shared"
)

// ValidateSortOrder normalizes the sort order to ASC or DESC, defaulting to DESC.
func ValidateSortOrder(orderDir string) string {
	if strings.ToUpper(strings.TrimSpace(orderDir)) == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField returns sortField when whitelisted, otherwise defaultField.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed != "" && allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// OrderSortFields contains allowed sort fields for orders
var OrderSortFields = map[string]bool{
	"created_at": true,
	"updated_at": true,
	"paid_at":    true,
	"total":      true,
	"status":     true,
}

// ProductSortFields contains allowed sort fields for products
var ProductSortFields = map[string]bool{
	"created_at": true,
	"name":       true,
	"price":      true,
	"sku":        true,
}

// CreatedAtSortFields is used by append-only tables
var CreatedAtSortFields = map[string]bool{
	"created_at": true,
}

// orderClause builds a safe ORDER BY clause. A secondary id ordering keeps
// pages stable when timestamps collide.
func orderClause(filter shared.Filter, allowed map[string]bool, defaultField string) string {
	field := ValidateSortField(filter.OrderBy, allowed, defaultField)
	return field + " " + ValidateSortOrder(filter.OrderDir) + ", id " + ValidateSortOrder(filter.OrderDir)
}
