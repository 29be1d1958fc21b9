package catalog

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/ecistack/ecommerce/internal/domain"
)

// ProductFilter holds the optional list predicates. Nil fields are omitted
// from the generated statement entirely, never passed as NULL comparisons.
// All predicates combine with AND; the price bounds are inclusive.
type ProductFilter struct {
	Category  *string
	PriceMin  *decimal.Decimal
	PriceMax  *decimal.Decimal
	Substring *string
}

// Apply composes the filter onto q. The same composed query backs both the
// count statement and the data statement so their WHERE clauses never drift.
// Listing always restricts to active rows; soft-deleted products are not
// reachable through list.
func (f ProductFilter) Apply(q *gorm.DB) *gorm.DB {
	if f.Category != nil {
		q = q.Where("category = ?", *f.Category)
	}
	if f.PriceMin != nil {
		q = q.Where("price >= ?", *f.PriceMin)
	}
	if f.PriceMax != nil {
		q = q.Where("price <= ?", *f.PriceMax)
	}
	if f.Substring != nil {
		q = q.Where("name LIKE ?", "%"+*f.Substring+"%")
	}
	return q.Where("is_active = ?", true)
}

// Sort directions accepted by list.
const (
	SortAsc  = "asc"
	SortDesc = "desc"
)

// orderClause maps the validated sort directive onto a whitelisted ORDER BY.
// Unset sort falls back to insertion order for a stable pagination walk.
func orderClause(sortByPrice string) string {
	switch sortByPrice {
	case SortAsc:
		return "price ASC"
	case SortDesc:
		return "price DESC"
	default:
		return "product_id ASC"
	}
}

// ValidateSort rejects malformed sort directives before any query runs.
func ValidateSort(sortByPrice string) error {
	switch sortByPrice {
	case "", SortAsc, SortDesc:
		return nil
	default:
		return domain.Validationf("invalid sort direction %q, want asc or desc", sortByPrice)
	}
}
