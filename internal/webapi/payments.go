package webapi

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/araddon/dateparse"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/ecistack/ecommerce/internal/domain"
	"github.com/ecistack/ecommerce/internal/payment"
)

func (s *WebServer) listPayments(c echo.Context) error {
	page, perPage, err := parsePagination(c, MaxPaymentPerPage)
	if err != nil {
		return failErr(c, err)
	}

	var filter payment.PaymentFilter
	if raw := c.QueryParam("order_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return failErr(c, domain.Validationf("invalid order_id"))
		}
		filter.OrderID = &id
	}
	if v := strings.ToUpper(strings.TrimSpace(c.QueryParam("method"))); v != "" {
		filter.Method = &v
	}
	if filter.Status, err = parseBoolishParam(c, "status"); err != nil {
		return failErr(c, err)
	}
	if filter.Refunded, err = parseBoolishParam(c, "refunded"); err != nil {
		return failErr(c, err)
	}
	if filter.AmountMin, err = parseDecimalParam(c, "amount_gt"); err != nil {
		return failErr(c, err)
	}
	if filter.AmountMax, err = parseDecimalParam(c, "amount_lt"); err != nil {
		return failErr(c, err)
	}
	if raw := strings.TrimSpace(c.QueryParam("start_date")); raw != "" {
		t, err := dateparse.ParseAny(raw)
		if err != nil {
			return failErr(c, domain.Validationf("invalid start_date: %q", raw))
		}
		filter.DateFrom = &t
	}
	if raw := strings.TrimSpace(c.QueryParam("end_date")); raw != "" {
		t, err := dateparse.ParseAny(raw)
		if err != nil {
			return failErr(c, domain.Validationf("invalid end_date: %q", raw))
		}
		filter.DateTo = &t
	}

	sortByCreated := c.QueryParam("sort_by_created")
	items, total, err := s.payments.List(c.Request().Context(), filter, sortByCreated, page, perPage)
	if err != nil {
		return failErr(c, err)
	}
	return paged(c, items, total, page, perPage)
}

type chargePayload struct {
	OrderID int64           `json:"order_id"`
	Amount  decimal.Decimal `json:"amount"`
}

type chargeResponse struct {
	Reference string `json:"reference"`
	Status    string `json:"status"`
	Message   string `json:"message"`
}

func (s *WebServer) chargePayment(c echo.Context) error {
	var payload chargePayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse charge request", nil)
	}
	if payload.OrderID <= 0 {
		return failErr(c, domain.Validationf("order_id is required"))
	}

	record, err := s.payments.Charge(c.Request().Context(), payload.OrderID, payload.Amount)
	if err != nil {
		return failErr(c, err)
	}

	resp := chargeResponse{Reference: record.Reference, Status: "FAILED", Message: "Payment failed"}
	if record.Status {
		resp.Status = "SUCCESS"
		resp.Message = "Payment succeeded"
	}
	return c.JSON(http.StatusCreated, resp)
}

type refundResponse struct {
	PaymentID int64           `json:"payment_id"`
	Amount    decimal.Decimal `json:"amount"`
	Method    string          `json:"method"`
	Message   string          `json:"message"`
}

func (s *WebServer) refundPayment(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return failErr(c, err)
	}

	result, err := s.payments.Refund(c.Request().Context(), id)
	if err != nil {
		return failErr(c, err)
	}
	return ok(c, refundResponse{
		PaymentID: result.PaymentID,
		Amount:    result.Amount,
		Method:    result.Method,
		Message:   fmt.Sprintf("Amount %s refunded to %s", result.Amount, result.Method),
	})
}

func (s *WebServer) paymentStats(c echo.Context) error {
	summary, err := s.aggregator.Stats(c.Request().Context())
	if err != nil {
		return failErr(c, err)
	}
	return ok(c, summary)
}

func (s *WebServer) metricsExposition(c echo.Context) error {
	counters, err := s.aggregator.Collect(c.Request().Context())
	if err != nil {
		return failErr(c, err)
	}
	return c.String(http.StatusOK, s.aggregator.RenderPrometheus(counters))
}

// parseBoolishParam normalizes the loose historical status forms
// (SUCCESS/FAILED/1/0/true/false/yes/no) into one boolean at the boundary.
func parseBoolishParam(c echo.Context, name string) (*bool, error) {
	raw := strings.ToLower(strings.TrimSpace(c.QueryParam(name)))
	if raw == "" {
		return nil, nil
	}
	switch raw {
	case "1", "true", "yes", "success":
		v := true
		return &v, nil
	case "0", "false", "no", "failed":
		v := false
		return &v, nil
	default:
		return nil, domain.Validationf("invalid %s value %q", name, raw)
	}
}
