package webapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/ecistack/ecommerce/config"
	"github.com/ecistack/ecommerce/internal/catalog"
	"github.com/ecistack/ecommerce/internal/domain"
	"github.com/ecistack/ecommerce/internal/payment"
)

// Pagination bounds per entity.
const (
	MaxProductPerPage = 100
	MaxPaymentPerPage = 200
	DefaultPerPage    = 10
)

// WebServer hosts the catalogue and payments HTTP surface.
type WebServer struct {
	cfg        *config.AppConfig
	root       *echo.Echo
	products   *catalog.ProductService
	payments   *payment.Service
	aggregator *payment.Aggregator
}

func NewWebServer(cfg *config.AppConfig, products *catalog.ProductService,
	payments *payment.Service, aggregator *payment.Aggregator) *WebServer {
	s := &WebServer{
		cfg:        cfg,
		root:       echo.New(),
		products:   products,
		payments:   payments,
		aggregator: aggregator,
	}
	s.root.Pre(middleware.RemoveTrailingSlash())
	s.root.Use(middleware.Recover())
	s.root.Use(middleware.CORS())
	if cfg.Web.MaxBody > 0 {
		s.root.Use(middleware.BodyLimit(fmt.Sprintf("%d", cfg.Web.MaxBody)))
	}
	s.root.HideBanner = true
	s.root.HidePort = true
	s.initRoutes()
	return s
}

func (s *WebServer) initRoutes() {
	v1 := s.root.Group("/v1")
	v1.GET("/products", s.listProducts)
	v1.POST("/products", s.createProduct)
	v1.PUT("/products/:id", s.updateProduct)
	v1.DELETE("/products/:id", s.deleteProduct)

	v1.GET("/payments", s.listPayments)
	v1.POST("/payments/charge", s.chargePayment)
	v1.POST("/payments/:id/refund", s.refundPayment)
	v1.GET("/payments/stats", s.paymentStats)

	s.root.GET("/metrics", s.metricsExposition)
}

// Echo exposes the router for handler tests.
func (s *WebServer) Echo() *echo.Echo {
	return s.root
}

func (s *WebServer) Start() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Web.Host, s.cfg.Web.Port)
	zap.L().Info("web server starting", zap.String("listen", addr))
	return s.root.Start(addr)
}

func (s *WebServer) Shutdown(ctx context.Context) error {
	return s.root.Shutdown(ctx)
}

type errorResponse struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func fail(c echo.Context, status int, code, message string, details interface{}) error {
	return c.JSON(status, errorResponse{Code: code, Message: message, Details: details})
}

// failErr maps the domain error taxonomy onto HTTP statuses.
func failErr(c echo.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Record not found", nil)
	case errors.Is(err, domain.ErrConflict):
		return fail(c, http.StatusConflict, "CONFLICT", "Duplicate record", nil)
	case errors.Is(err, domain.ErrRefundRefused):
		return fail(c, http.StatusBadRequest, "REFUND_REFUSED", err.Error(), nil)
	case domain.IsValidation(err):
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
	case errors.Is(err, domain.ErrStoreUnavailable):
		return fail(c, http.StatusInternalServerError, "STORE_UNAVAILABLE", "Store unavailable", nil)
	default:
		zap.L().Error("request failed", zap.String("path", c.Path()), zap.Error(err))
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Operation failed", nil)
	}
}

func ok(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, data)
}

type pagedResponse struct {
	Items   interface{} `json:"items"`
	Page    int         `json:"page"`
	PerPage int         `json:"per_page"`
	Total   int64       `json:"total"`
}

func paged(c echo.Context, items interface{}, total int64, page, perPage int) error {
	return c.JSON(http.StatusOK, pagedResponse{Items: items, Page: page, PerPage: perPage, Total: total})
}

// parsePagination validates page/per_page against the entity bound. Out of
// range values are rejected, not clamped.
func parsePagination(c echo.Context, maxPerPage int) (int, int, error) {
	page := 1
	if raw := c.QueryParam("page"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			return 0, 0, domain.Validationf("page must be an integer >= 1")
		}
		page = v
	}
	perPage := DefaultPerPage
	if raw := c.QueryParam("per_page"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 || v > maxPerPage {
			return 0, 0, domain.Validationf("per_page must be between 1 and %d", maxPerPage)
		}
		perPage = v
	}
	return page, perPage, nil
}

func parseIDParam(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.Validationf("invalid %s", name)
	}
	return id, nil
}
