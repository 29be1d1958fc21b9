package webapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ecistack/ecommerce/config"
	"github.com/ecistack/ecommerce/internal/catalog"
	"github.com/ecistack/ecommerce/internal/domain"
	"github.com/ecistack/ecommerce/internal/payment"
)

func newTestServer(t *testing.T, gateway payment.Gateway) *WebServer {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("acquire sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(domain.Tables...); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	paymentRepo := payment.NewGormPaymentRepository(db)
	products := catalog.NewProductService(catalog.NewGormProductRepository(db), nil)
	payments := payment.NewService(paymentRepo, gateway, nil)
	aggregator := payment.NewAggregator(paymentRepo)
	return NewWebServer(config.DefaultAppConfig, products, payments, aggregator)
}

func doJSON(t *testing.T, s *WebServer, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set(echoHeaderContentType, "application/json")
	}
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)
	return rec
}

const echoHeaderContentType = "Content-Type"

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func createProduct(t *testing.T, s *WebServer, body string) map[string]interface{} {
	t.Helper()
	rec := doJSON(t, s, http.MethodPost, "/v1/products", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create product status = %d body = %s", rec.Code, rec.Body.String())
	}
	var created map[string]interface{}
	decodeBody(t, rec, &created)
	return created
}

func TestProductCreateAndDuplicate(t *testing.T) {
	s := newTestServer(t, payment.StaticGateway{Method: domain.MethodCOD, Approved: true})

	created := createProduct(t, s, `{"sku":"ECI-100","name":"Widget","category":"widgets","price":12.50}`)
	if created["sku"] != "ECI-100" || created["is_active"] != true {
		t.Fatalf("unexpected created product: %v", created)
	}
	if created["product_id"] == nil {
		t.Fatal("product_id missing from response")
	}

	rec := doJSON(t, s, http.MethodPost, "/v1/products", `{"sku":"ECI-100","name":"Other","category":"widgets","price":1}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate sku status = %d body = %s", rec.Code, rec.Body.String())
	}
	var resp errorResponse
	decodeBody(t, rec, &resp)
	if resp.Code != "CONFLICT" {
		t.Fatalf("duplicate sku code = %s, want CONFLICT", resp.Code)
	}
}

func TestProductCreateInactive(t *testing.T) {
	s := newTestServer(t, payment.StaticGateway{Method: domain.MethodCOD, Approved: true})

	created := createProduct(t, s, `{"sku":"ECI-150","name":"Draft","category":"widgets","price":5,"is_active":false}`)
	if created["is_active"] != false {
		t.Fatalf("created with is_active=false, response = %v", created["is_active"])
	}

	rec := doJSON(t, s, http.MethodGet, "/v1/products", "")
	var page struct {
		Total int64 `json:"total"`
	}
	decodeBody(t, rec, &page)
	if page.Total != 0 {
		t.Fatalf("inactive product listed, total = %d", page.Total)
	}
}

func TestProductCreateValidation(t *testing.T) {
	s := newTestServer(t, payment.StaticGateway{Method: domain.MethodCOD, Approved: true})

	rec := doJSON(t, s, http.MethodPost, "/v1/products", `{"sku":"","name":"Widget","price":1}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("blank sku status = %d", rec.Code)
	}
	var resp errorResponse
	decodeBody(t, rec, &resp)
	if resp.Code != "INVALID_REQUEST" {
		t.Fatalf("blank sku code = %s, want INVALID_REQUEST", resp.Code)
	}
}

func TestProductUpdateEmptyAndMissing(t *testing.T) {
	s := newTestServer(t, payment.StaticGateway{Method: domain.MethodCOD, Approved: true})
	created := createProduct(t, s, `{"sku":"ECI-200","name":"Widget","category":"widgets","price":5}`)
	id := int64(created["product_id"].(float64))

	rec := doJSON(t, s, http.MethodPut, fmt.Sprintf("/v1/products/%d", id), `{}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("empty update status = %d body = %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, s, http.MethodPut, fmt.Sprintf("/v1/products/%d", id), `{"price":9.99,"name":"Widget v2"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("partial update status = %d body = %s", rec.Code, rec.Body.String())
	}
	var updated map[string]interface{}
	decodeBody(t, rec, &updated)
	if updated["name"] != "Widget v2" || updated["category"] != "widgets" {
		t.Fatalf("partial update result = %v", updated)
	}

	rec = doJSON(t, s, http.MethodPut, "/v1/products/99999", `{"price":1}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing product status = %d", rec.Code)
	}
}

func TestProductListFilterAndPagination(t *testing.T) {
	s := newTestServer(t, payment.StaticGateway{Method: domain.MethodCOD, Approved: true})
	createProduct(t, s, `{"sku":"ECI-A","name":"Alpha Widget","category":"widgets","price":10}`)
	createProduct(t, s, `{"sku":"ECI-B","name":"Beta Widget","category":"widgets","price":50}`)
	createProduct(t, s, `{"sku":"ECI-C","name":"Gamma Gadget","category":"gadgets","price":90}`)

	rec := doJSON(t, s, http.MethodGet, "/v1/products?category=widgets&price_gt=20", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d body = %s", rec.Code, rec.Body.String())
	}
	var page struct {
		Items   []map[string]interface{} `json:"items"`
		Page    int                      `json:"page"`
		PerPage int                      `json:"per_page"`
		Total   int64                    `json:"total"`
	}
	decodeBody(t, rec, &page)
	if page.Total != 1 || len(page.Items) != 1 || page.Items[0]["sku"] != "ECI-B" {
		t.Fatalf("filtered page = %+v", page)
	}
	if page.Page != 1 || page.PerPage != DefaultPerPage {
		t.Fatalf("pagination defaults = %+v", page)
	}

	// soft deleted rows disappear from listings
	id := int64(0)
	rec = doJSON(t, s, http.MethodGet, "/v1/products?category=gadgets", "")
	decodeBody(t, rec, &page)
	id = int64(page.Items[0]["product_id"].(float64))
	rec = doJSON(t, s, http.MethodDelete, fmt.Sprintf("/v1/products/%d", id), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d body = %s", rec.Code, rec.Body.String())
	}
	rec = doJSON(t, s, http.MethodGet, "/v1/products", "")
	decodeBody(t, rec, &page)
	if page.Total != 2 {
		t.Fatalf("total after soft delete = %d, want 2", page.Total)
	}
}

func TestPaginationRejected(t *testing.T) {
	s := newTestServer(t, payment.StaticGateway{Method: domain.MethodCOD, Approved: true})

	for _, target := range []string{
		"/v1/products?per_page=101",
		"/v1/products?page=0",
		"/v1/products?per_page=abc",
		"/v1/payments?per_page=201",
	} {
		rec := doJSON(t, s, http.MethodGet, target, "")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s status = %d, want 400", target, rec.Code)
		}
	}

	// payment bound is higher than the product bound
	rec := doJSON(t, s, http.MethodGet, "/v1/payments?per_page=150", "")
	if rec.Code != http.StatusOK {
		t.Errorf("payments per_page=150 status = %d, want 200", rec.Code)
	}
}

func TestChargeAndRefundFlow(t *testing.T) {
	s := newTestServer(t, payment.StaticGateway{Method: domain.MethodUPI, Approved: true})

	rec := doJSON(t, s, http.MethodPost, "/v1/payments/charge", `{"order_id":42,"amount":100.0}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("charge status = %d body = %s", rec.Code, rec.Body.String())
	}
	var charge chargeResponse
	decodeBody(t, rec, &charge)
	if charge.Status != "SUCCESS" || charge.Message != "Payment succeeded" {
		t.Fatalf("charge response = %+v", charge)
	}
	if !strings.HasPrefix(charge.Reference, "ECI") {
		t.Fatalf("reference = %q", charge.Reference)
	}

	rec = doJSON(t, s, http.MethodGet, "/v1/payments?order_id=42", "")
	var page struct {
		Items []map[string]interface{} `json:"items"`
		Total int64                    `json:"total"`
	}
	decodeBody(t, rec, &page)
	if page.Total != 1 {
		t.Fatalf("payments total = %d", page.Total)
	}
	id := int64(page.Items[0]["payment_id"].(float64))

	for i := 0; i < 2; i++ {
		rec = doJSON(t, s, http.MethodPost, fmt.Sprintf("/v1/payments/%d/refund", id), "")
		if rec.Code != http.StatusOK {
			t.Fatalf("refund %d status = %d body = %s", i, rec.Code, rec.Body.String())
		}
		var refund refundResponse
		decodeBody(t, rec, &refund)
		if refund.PaymentID != id || refund.Method != domain.MethodUPI {
			t.Fatalf("refund response = %+v", refund)
		}
		if !strings.HasPrefix(refund.Message, "Amount ") || !strings.HasSuffix(refund.Message, " refunded to UPI") {
			t.Fatalf("refund message = %q", refund.Message)
		}
	}

	rec = doJSON(t, s, http.MethodPost, "/v1/payments/99999/refund", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("refund missing status = %d", rec.Code)
	}
}

func TestRefundFailedPayment(t *testing.T) {
	s := newTestServer(t, payment.StaticGateway{Method: domain.MethodCard, Approved: false})

	rec := doJSON(t, s, http.MethodPost, "/v1/payments/charge", `{"order_id":7,"amount":10}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("charge status = %d", rec.Code)
	}
	var charge chargeResponse
	decodeBody(t, rec, &charge)
	if charge.Status != "FAILED" || charge.Message != "Payment failed" {
		t.Fatalf("charge response = %+v", charge)
	}

	rec = doJSON(t, s, http.MethodGet, "/v1/payments?order_id=7", "")
	var page struct {
		Items []map[string]interface{} `json:"items"`
	}
	decodeBody(t, rec, &page)
	id := int64(page.Items[0]["payment_id"].(float64))

	rec = doJSON(t, s, http.MethodPost, fmt.Sprintf("/v1/payments/%d/refund", id), "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("refund failed payment status = %d body = %s", rec.Code, rec.Body.String())
	}
	var resp errorResponse
	decodeBody(t, rec, &resp)
	if resp.Code != "REFUND_REFUSED" {
		t.Fatalf("refund failed payment code = %s", resp.Code)
	}
}

func TestPaymentListBoolishStatus(t *testing.T) {
	s := newTestServer(t, payment.StaticGateway{Method: domain.MethodCOD, Approved: true})
	doJSON(t, s, http.MethodPost, "/v1/payments/charge", `{"order_id":1,"amount":10}`)

	var page struct {
		Total int64 `json:"total"`
	}
	for _, target := range []string{
		"/v1/payments?status=success",
		"/v1/payments?status=1",
		"/v1/payments?status=TRUE",
	} {
		rec := doJSON(t, s, http.MethodGet, target, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("%s status = %d", target, rec.Code)
		}
		decodeBody(t, rec, &page)
		if page.Total != 1 {
			t.Errorf("%s total = %d, want 1", target, page.Total)
		}
	}
	for _, target := range []string{
		"/v1/payments?status=failed",
		"/v1/payments?status=0",
	} {
		rec := doJSON(t, s, http.MethodGet, target, "")
		decodeBody(t, rec, &page)
		if page.Total != 0 {
			t.Errorf("%s total = %d, want 0", target, page.Total)
		}
	}

	rec := doJSON(t, s, http.MethodGet, "/v1/payments?status=maybe", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status=maybe status = %d, want 400", rec.Code)
	}
}

func TestMetricsExposition(t *testing.T) {
	s := newTestServer(t, payment.StaticGateway{Method: domain.MethodUPI, Approved: false})
	doJSON(t, s, http.MethodPost, "/v1/payments/charge", `{"order_id":1,"amount":10}`)
	doJSON(t, s, http.MethodPost, "/v1/payments/charge", `{"order_id":2,"amount":10}`)

	rec := doJSON(t, s, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics status = %d", rec.Code)
	}
	body := rec.Body.String()
	for _, line := range []string{
		"payments_failed_total 2",
		"payments_refunded_total 0",
		`payments_by_method_total{method="UPI"} 2`,
		`payments_by_method_total{method="COD"} 0`,
	} {
		if !strings.Contains(body, line) {
			t.Errorf("exposition missing %q:\n%s", line, body)
		}
	}
}

func TestPaymentStatsEndpoint(t *testing.T) {
	s := newTestServer(t, payment.StaticGateway{Method: domain.MethodCOD, Approved: true})
	doJSON(t, s, http.MethodPost, "/v1/payments/charge", `{"order_id":1,"amount":10}`)
	doJSON(t, s, http.MethodPost, "/v1/payments/charge", `{"order_id":2,"amount":30}`)

	rec := doJSON(t, s, http.MethodGet, "/v1/payments/stats", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("stats status = %d body = %s", rec.Code, rec.Body.String())
	}
	var summary struct {
		Count  int     `json:"count"`
		Mean   float64 `json:"mean"`
		Median float64 `json:"median"`
	}
	decodeBody(t, rec, &summary)
	if summary.Count != 2 || summary.Mean != 20 || summary.Median != 20 {
		t.Fatalf("stats summary = %+v", summary)
	}
}
