package catalog

import (
	"context"
	"strings"

	"github.com/asaskevich/EventBus"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ecistack/ecommerce/internal/domain"
)

// ProductDraft carries the caller-supplied fields for a new product.
// Category is optional; a nil or blank value is stored as NULL.
type ProductDraft struct {
	Sku      string
	Name     string
	Category *string
	Price    decimal.Decimal
	IsActive *bool
}

// ProductService validates caller input, drives the repository and publishes
// change events for the best-effort collaborators. Event delivery never
// affects the primary operation's outcome.
type ProductService struct {
	repo ProductRepository
	bus  EventBus.Bus
}

func NewProductService(repo ProductRepository, bus EventBus.Bus) *ProductService {
	return &ProductService{repo: repo, bus: bus}
}

func (s *ProductService) List(ctx context.Context, filter ProductFilter, sortByPrice string, page, perPage int) ([]domain.Product, int64, error) {
	if err := ValidateSort(sortByPrice); err != nil {
		return nil, 0, err
	}
	if page < 1 || perPage < 1 {
		return nil, 0, domain.Validationf("page and per_page must be positive")
	}
	return s.repo.List(ctx, filter, sortByPrice, page, perPage)
}

func (s *ProductService) Create(ctx context.Context, draft ProductDraft) (*domain.Product, error) {
	sku := strings.TrimSpace(draft.Sku)
	if sku == "" {
		return nil, domain.Validationf("sku is required")
	}
	if len(sku) > 64 {
		return nil, domain.Validationf("sku exceeds 64 characters")
	}
	if strings.TrimSpace(draft.Name) == "" {
		return nil, domain.Validationf("name is required")
	}

	active := true
	if draft.IsActive != nil {
		active = *draft.IsActive
	}
	var category *string
	if draft.Category != nil {
		if v := strings.TrimSpace(*draft.Category); v != "" {
			category = &v
		}
	}
	product := &domain.Product{
		Sku:      sku,
		Name:     strings.TrimSpace(draft.Name),
		Category: category,
		Price:    draft.Price,
		IsActive: active,
	}
	if err := s.repo.Create(ctx, product); err != nil {
		return nil, err
	}

	s.publishChanged(product.ID)
	return product, nil
}

func (s *ProductService) Update(ctx context.Context, id int64, changes ProductChanges) (*domain.Product, error) {
	if changes.Empty() {
		// rejected before any statement is built
		return nil, domain.Validationf("no fields to update")
	}
	product, err := s.repo.Update(ctx, id, changes)
	if err != nil {
		return nil, err
	}

	s.publishChanged(product.ID)
	return product, nil
}

func (s *ProductService) SoftDelete(ctx context.Context, id int64) (*domain.Product, error) {
	return s.repo.SoftDelete(ctx, id)
}

func (s *ProductService) publishChanged(productID int64) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(domain.TopicProductChanged, productID)
	zap.L().Debug("published product change", zap.Int64("product_id", productID))
}
