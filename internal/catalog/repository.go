package catalog

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/ecistack/ecommerce/internal/domain"
	"github.com/ecistack/ecommerce/internal/store"
)

// ProductChanges is the sparse change-set for a partial update. Only non-nil
// fields are written. Field names map onto a fixed column set here; caller
// strings never reach the statement text.
type ProductChanges struct {
	Name     *string
	Category *string
	Price    *decimal.Decimal
	IsActive *bool
}

// Empty reports whether the change-set carries no fields at all.
func (c ProductChanges) Empty() bool {
	return c.Name == nil && c.Category == nil && c.Price == nil && c.IsActive == nil
}

func (c ProductChanges) columns() map[string]interface{} {
	updates := map[string]interface{}{}
	if c.Name != nil {
		updates["name"] = *c.Name
	}
	if c.Category != nil {
		updates["category"] = *c.Category
	}
	if c.Price != nil {
		updates["price"] = *c.Price
	}
	if c.IsActive != nil {
		updates["is_active"] = *c.IsActive
	}
	updates["updated_at"] = time.Now()
	return updates
}

// ProductRepository handles database operations for catalogue rows.
type ProductRepository interface {
	// List returns one page of matching products plus the total match count.
	List(ctx context.Context, filter ProductFilter, sortByPrice string, page, perPage int) ([]domain.Product, int64, error)

	// Create inserts unconditionally; a duplicate sku surfaces as
	// domain.ErrConflict via the store's unique constraint.
	Create(ctx context.Context, product *domain.Product) error

	// GetByID retrieves a product regardless of its active flag.
	GetByID(ctx context.Context, id int64) (*domain.Product, error)

	// Update applies one UPDATE for the change-set, then re-reads the row.
	Update(ctx context.Context, id int64, changes ProductChanges) (*domain.Product, error)

	// SoftDelete flips is_active to false and returns the pre-image with
	// IsActive forced false.
	SoftDelete(ctx context.Context, id int64) (*domain.Product, error)
}

// GormProductRepository is the GORM implementation of ProductRepository.
type GormProductRepository struct {
	db *gorm.DB
}

func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

func (r *GormProductRepository) List(ctx context.Context, filter ProductFilter, sortByPrice string, page, perPage int) ([]domain.Product, int64, error) {
	base := filter.Apply(r.db.WithContext(ctx).Model(&domain.Product{}))

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, store.Translate(err)
	}

	var rows []domain.Product
	err := base.
		Order(orderClause(sortByPrice)).
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&rows).Error
	if err != nil {
		return nil, 0, store.Translate(err)
	}
	return rows, total, nil
}

func (r *GormProductRepository) Create(ctx context.Context, product *domain.Product) error {
	return store.Translate(r.db.WithContext(ctx).Create(product).Error)
}

func (r *GormProductRepository) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	var product domain.Product
	if err := r.db.WithContext(ctx).First(&product, id).Error; err != nil {
		return nil, store.Translate(err)
	}
	return &product, nil
}

func (r *GormProductRepository) Update(ctx context.Context, id int64, changes ProductChanges) (*domain.Product, error) {
	err := r.db.WithContext(ctx).
		Model(&domain.Product{}).
		Where("product_id = ?", id).
		Updates(changes.columns()).Error
	if err != nil {
		return nil, store.Translate(err)
	}
	// re-read so the caller always sees the normalized post-state;
	// a vanished row means the update hit nothing
	return r.GetByID(ctx, id)
}

func (r *GormProductRepository) SoftDelete(ctx context.Context, id int64) (*domain.Product, error) {
	product, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	err = r.db.WithContext(ctx).
		Model(&domain.Product{}).
		Where("product_id = ?", id).
		Updates(map[string]interface{}{"is_active": false, "updated_at": time.Now()}).Error
	if err != nil {
		return nil, store.Translate(err)
	}

	// the returned projection always reflects the intended post-state
	product.IsActive = false
	return product, nil
}
