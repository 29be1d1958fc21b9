package webapi

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/ecistack/ecommerce/internal/catalog"
	"github.com/ecistack/ecommerce/internal/domain"
)

func (s *WebServer) listProducts(c echo.Context) error {
	page, perPage, err := parsePagination(c, MaxProductPerPage)
	if err != nil {
		return failErr(c, err)
	}

	var filter catalog.ProductFilter
	if v := strings.TrimSpace(c.QueryParam("category")); v != "" {
		filter.Category = &v
	}
	if v := strings.TrimSpace(c.QueryParam("substring")); v != "" {
		filter.Substring = &v
	}
	if filter.PriceMin, err = parseDecimalParam(c, "price_gt"); err != nil {
		return failErr(c, err)
	}
	if filter.PriceMax, err = parseDecimalParam(c, "price_lt"); err != nil {
		return failErr(c, err)
	}

	sortByPrice := c.QueryParam("sort_by_price")
	items, total, err := s.products.List(c.Request().Context(), filter, sortByPrice, page, perPage)
	if err != nil {
		return failErr(c, err)
	}
	return paged(c, items, total, page, perPage)
}

type productPayload struct {
	Sku      string           `json:"sku"`
	Name     string           `json:"name"`
	Category *string          `json:"category"`
	Price    *decimal.Decimal `json:"price"`
	IsActive *bool            `json:"is_active"`
}

func (s *WebServer) createProduct(c echo.Context) error {
	var payload productPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse product", nil)
	}

	draft := catalog.ProductDraft{
		Sku:      payload.Sku,
		Name:     payload.Name,
		Category: payload.Category,
		IsActive: payload.IsActive,
	}
	if payload.Price != nil {
		draft.Price = *payload.Price
	}

	product, err := s.products.Create(c.Request().Context(), draft)
	if err != nil {
		return failErr(c, err)
	}
	return c.JSON(http.StatusCreated, product)
}

type productUpdatePayload struct {
	Name     *string          `json:"name"`
	Category *string          `json:"category"`
	Price    *decimal.Decimal `json:"price"`
	IsActive *bool            `json:"is_active"`
}

func (s *WebServer) updateProduct(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return failErr(c, err)
	}

	var payload productUpdatePayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse product", nil)
	}

	// only the enumerated fields can reach the update statement
	changes := catalog.ProductChanges{
		Name:     payload.Name,
		Category: payload.Category,
		Price:    payload.Price,
		IsActive: payload.IsActive,
	}
	product, err := s.products.Update(c.Request().Context(), id, changes)
	if err != nil {
		return failErr(c, err)
	}
	return ok(c, product)
}

func (s *WebServer) deleteProduct(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return failErr(c, err)
	}
	product, err := s.products.SoftDelete(c.Request().Context(), id)
	if err != nil {
		return failErr(c, err)
	}
	return ok(c, product)
}

func parseDecimalParam(c echo.Context, name string) (*decimal.Decimal, error) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return nil, nil
	}
	v, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, domain.Validationf("invalid %s: %q is not a number", name, raw)
	}
	return &v, nil
}
