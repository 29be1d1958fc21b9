package payment

import (
	"context"

	"gorm.io/gorm"

	"github.com/ecistack/ecommerce/internal/domain"
	"github.com/ecistack/ecommerce/internal/store"
)

// PaymentRepository handles database operations for payment rows.
type PaymentRepository interface {
	// List returns one page of matching payments plus the total match count.
	List(ctx context.Context, filter PaymentFilter, sortByCreated string, page, perPage int) ([]domain.Payment, int64, error)

	// Create inserts a payment row. Payments carry no duplicate check beyond
	// the unique reference constraint.
	Create(ctx context.Context, payment *domain.Payment) error

	// GetByID retrieves a payment by id.
	GetByID(ctx context.Context, id int64) (*domain.Payment, error)

	// MarkRefunded executes the single conditional transition
	// refunded=false,status=true -> refunded=true and reports how many rows
	// it touched. Zero means the precondition did not hold at write time.
	MarkRefunded(ctx context.Context, id int64) (int64, error)

	// Count returns the total number of rows matching the filter.
	Count(ctx context.Context, filter PaymentFilter) (int64, error)

	// CountByMethod aggregates row counts per method in one GROUP BY query.
	CountByMethod(ctx context.Context) (map[string]int64, error)

	// SettledAmounts returns the amounts of all successful payments.
	SettledAmounts(ctx context.Context) ([]float64, error)
}

// GormPaymentRepository is the GORM implementation of PaymentRepository.
type GormPaymentRepository struct {
	db *gorm.DB
}

func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

func (r *GormPaymentRepository) List(ctx context.Context, filter PaymentFilter, sortByCreated string, page, perPage int) ([]domain.Payment, int64, error) {
	base := filter.Apply(r.db.WithContext(ctx).Model(&domain.Payment{}))

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, store.Translate(err)
	}

	var rows []domain.Payment
	err := base.
		Order(orderClause(sortByCreated)).
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&rows).Error
	if err != nil {
		return nil, 0, store.Translate(err)
	}
	return rows, total, nil
}

func (r *GormPaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	return store.Translate(r.db.WithContext(ctx).Create(payment).Error)
}

func (r *GormPaymentRepository) GetByID(ctx context.Context, id int64) (*domain.Payment, error) {
	var payment domain.Payment
	if err := r.db.WithContext(ctx).First(&payment, id).Error; err != nil {
		return nil, store.Translate(err)
	}
	return &payment, nil
}

func (r *GormPaymentRepository) MarkRefunded(ctx context.Context, id int64) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&domain.Payment{}).
		Where("payment_id = ? AND refunded = ? AND status = ?", id, false, true).
		Update("refunded", true)
	if res.Error != nil {
		return 0, store.Translate(res.Error)
	}
	return res.RowsAffected, nil
}

func (r *GormPaymentRepository) Count(ctx context.Context, filter PaymentFilter) (int64, error) {
	var total int64
	err := filter.Apply(r.db.WithContext(ctx).Model(&domain.Payment{})).Count(&total).Error
	if err != nil {
		return 0, store.Translate(err)
	}
	return total, nil
}

func (r *GormPaymentRepository) CountByMethod(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		Method string
		Total  int64
	}
	err := r.db.WithContext(ctx).
		Model(&domain.Payment{}).
		Select("method, count(*) as total").
		Group("method").
		Scan(&rows).Error
	if err != nil {
		return nil, store.Translate(err)
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Method] = row.Total
	}
	return counts, nil
}

func (r *GormPaymentRepository) SettledAmounts(ctx context.Context) ([]float64, error) {
	var amounts []float64
	err := r.db.WithContext(ctx).
		Model(&domain.Payment{}).
		Where("status = ?", true).
		Pluck("amount", &amounts).Error
	if err != nil {
		return nil, store.Translate(err)
	}
	return amounts, nil
}
