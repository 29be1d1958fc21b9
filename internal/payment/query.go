package payment

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/ecistack/ecommerce/internal/domain"
)

// PaymentFilter holds the optional list predicates. Nil fields are omitted
// from the generated statement entirely. Predicates combine with AND; the
// amount and date bounds are inclusive.
type PaymentFilter struct {
	OrderID   *int64
	Method    *string
	Status    *bool
	AmountMin *decimal.Decimal
	AmountMax *decimal.Decimal
	DateFrom  *time.Time
	DateTo    *time.Time
	Refunded  *bool
}

// Apply composes the filter onto q. Count and data statements both run over
// the composed query so their WHERE clauses stay identical.
func (f PaymentFilter) Apply(q *gorm.DB) *gorm.DB {
	if f.OrderID != nil {
		q = q.Where("order_id = ?", *f.OrderID)
	}
	if f.Method != nil {
		q = q.Where("method = ?", *f.Method)
	}
	if f.Status != nil {
		q = q.Where("status = ?", *f.Status)
	}
	if f.AmountMin != nil {
		q = q.Where("amount >= ?", *f.AmountMin)
	}
	if f.AmountMax != nil {
		q = q.Where("amount <= ?", *f.AmountMax)
	}
	if f.DateFrom != nil {
		q = q.Where("created_at >= ?", *f.DateFrom)
	}
	if f.DateTo != nil {
		q = q.Where("created_at <= ?", *f.DateTo)
	}
	if f.Refunded != nil {
		q = q.Where("refunded = ?", *f.Refunded)
	}
	return q
}

// Sort directions accepted by list.
const (
	SortAsc  = "asc"
	SortDesc = "desc"
)

// orderClause maps the validated sort directive onto a whitelisted ORDER BY.
// Payments default to newest first.
func orderClause(sortByCreated string) string {
	if sortByCreated == SortAsc {
		return "created_at ASC, payment_id ASC"
	}
	return "created_at DESC, payment_id DESC"
}

// ValidateSort rejects malformed sort directives before any query runs.
func ValidateSort(sortByCreated string) error {
	switch sortByCreated {
	case "", SortAsc, SortDesc:
		return nil
	default:
		return domain.Validationf("invalid sort direction %q, want asc or desc", sortByCreated)
	}
}
