package payment

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ecistack/ecommerce/internal/domain"
)

func newTestDB(t *testing.T) *gorm.DB {
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
	return db
}

func newTestService(t *testing.T, gateway Gateway) (*Service, PaymentRepository) {
	t.Helper()
	repo := NewGormPaymentRepository(newTestDB(t))
	return NewService(repo, gateway, nil), repo
}

var referencePattern = regexp.MustCompile(`^ECI\d{8}-[0-9A-F]{8}$`)

func TestChargeRecordsGatewayOutcome(t *testing.T) {
	svc, repo := newTestService(t, StaticGateway{Method: domain.MethodUPI, Approved: true})
	ctx := context.Background()

	record, err := svc.Charge(ctx, 42, decimal.NewFromFloat(100.0))
	if err != nil {
		t.Fatalf("charge: %v", err)
	}
	if record.ID == 0 {
		t.Fatal("payment_id not assigned")
	}
	if record.OrderID != 42 || record.Method != domain.MethodUPI || !record.Status {
		t.Fatalf("unexpected record: %+v", record)
	}
	if record.Refunded {
		t.Fatal("new charge must not be refunded")
	}
	if !referencePattern.MatchString(record.Reference) {
		t.Fatalf("reference %q does not match ECI<date>-<hex8>", record.Reference)
	}

	stored, err := repo.GetByID(ctx, record.ID)
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if !stored.Amount.Equal(decimal.NewFromFloat(100.0)) {
		t.Fatalf("stored amount = %s, want 100", stored.Amount)
	}
}

func TestChargeRejectsNonPositiveAmount(t *testing.T) {
	svc, _ := newTestService(t, StaticGateway{Method: domain.MethodCOD, Approved: true})

	if _, err := svc.Charge(context.Background(), 1, decimal.Zero); !domain.IsValidation(err) {
		t.Fatalf("zero amount error = %v, want ValidationError", err)
	}
}

func TestRefundIdempotent(t *testing.T) {
	svc, _ := newTestService(t, StaticGateway{Method: domain.MethodCard, Approved: true})
	ctx := context.Background()

	record, err := svc.Charge(ctx, 42, decimal.NewFromFloat(100.0))
	if err != nil {
		t.Fatalf("charge: %v", err)
	}

	first, err := svc.Refund(ctx, record.ID)
	if err != nil {
		t.Fatalf("first refund: %v", err)
	}
	if !first.Amount.Equal(decimal.NewFromFloat(100.0)) || first.Method != domain.MethodCard {
		t.Fatalf("unexpected refund result: %+v", first)
	}

	for i := 0; i < 3; i++ {
		again, err := svc.Refund(ctx, record.ID)
		if err != nil {
			t.Fatalf("repeat refund %d: %v", i, err)
		}
		if !again.Amount.Equal(first.Amount) || again.Method != first.Method || again.PaymentID != first.PaymentID {
			t.Fatalf("repeat refund %d returned %+v, want %+v", i, again, first)
		}
	}
}

func TestRefundFailedPaymentRefused(t *testing.T) {
	svc, repo := newTestService(t, StaticGateway{Method: domain.MethodCOD, Approved: false})
	ctx := context.Background()

	record, err := svc.Charge(ctx, 7, decimal.NewFromFloat(55.5))
	if err != nil {
		t.Fatalf("charge: %v", err)
	}

	for i := 0; i < 2; i++ {
		_, err = svc.Refund(ctx, record.ID)
		if !errors.Is(err, domain.ErrRefundRefused) {
			t.Fatalf("refund of failed payment = %v, want ErrRefundRefused", err)
		}
	}

	stored, err := repo.GetByID(ctx, record.ID)
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if stored.Refunded {
		t.Fatal("failed payment must never transition to refunded")
	}
}

func TestRefundMissingPayment(t *testing.T) {
	svc, _ := newTestService(t, StaticGateway{Method: domain.MethodCOD, Approved: true})

	_, err := svc.Refund(context.Background(), 424242)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("missing payment error = %v, want ErrNotFound", err)
	}
}

func TestRefundConcurrentSingleTransition(t *testing.T) {
	svc, repo := newTestService(t, StaticGateway{Method: domain.MethodUPI, Approved: true})
	ctx := context.Background()

	record, err := svc.Charge(ctx, 9, decimal.NewFromFloat(10))
	if err != nil {
		t.Fatalf("charge: %v", err)
	}

	var wg sync.WaitGroup
	results := make([]*RefundResult, 4)
	errs := make([]error, 4)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			results[n], errs[n] = svc.Refund(ctx, record.ID)
		}(i)
	}
	wg.Wait()

	for i := 0; i < 4; i++ {
		if errs[i] != nil {
			t.Fatalf("concurrent refund %d: %v", i, errs[i])
		}
		if !results[i].Amount.Equal(decimal.NewFromFloat(10)) || results[i].Method != domain.MethodUPI {
			t.Fatalf("concurrent refund %d result = %+v", i, results[i])
		}
	}

	stored, err := repo.GetByID(ctx, record.ID)
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if !stored.Refunded {
		t.Fatal("payment must be refunded after concurrent refunds")
	}
}

func TestMarkRefundedConditional(t *testing.T) {
	repo := NewGormPaymentRepository(newTestDB(t))
	ctx := context.Background()

	success := &domain.Payment{OrderID: 1, Amount: decimal.NewFromInt(5), Method: domain.MethodCOD,
		Status: true, Reference: "ECI20250910-AAAA0001", CreatedAt: time.Now()}
	failed := &domain.Payment{OrderID: 2, Amount: decimal.NewFromInt(5), Method: domain.MethodCOD,
		Status: false, Reference: "ECI20250910-AAAA0002", CreatedAt: time.Now()}
	for _, p := range []*domain.Payment{success, failed} {
		if err := repo.Create(ctx, p); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	rows, err := repo.MarkRefunded(ctx, success.ID)
	if err != nil || rows != 1 {
		t.Fatalf("first transition rows=%d err=%v, want 1,nil", rows, err)
	}
	rows, err = repo.MarkRefunded(ctx, success.ID)
	if err != nil || rows != 0 {
		t.Fatalf("second transition rows=%d err=%v, want 0,nil", rows, err)
	}
	rows, err = repo.MarkRefunded(ctx, failed.ID)
	if err != nil || rows != 0 {
		t.Fatalf("failed payment rows=%d err=%v, want 0,nil", rows, err)
	}
}

func TestPaymentListFiltersAndSort(t *testing.T) {
	repo := NewGormPaymentRepository(newTestDB(t))
	ctx := context.Background()

	base := time.Date(2025, 9, 10, 12, 0, 0, 0, time.UTC)
	seed := []*domain.Payment{
		{OrderID: 1, Amount: decimal.NewFromInt(10), Method: domain.MethodCOD, Status: true, Reference: "ECI20250910-00000001", CreatedAt: base},
		{OrderID: 1, Amount: decimal.NewFromInt(50), Method: domain.MethodUPI, Status: false, Reference: "ECI20250910-00000002", CreatedAt: base.Add(time.Hour)},
		{OrderID: 2, Amount: decimal.NewFromInt(90), Method: domain.MethodCard, Status: true, Refunded: true, Reference: "ECI20250910-00000003", CreatedAt: base.Add(2 * time.Hour)},
	}
	for _, p := range seed {
		if err := repo.Create(ctx, p); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	orderID := int64(1)
	rows, total, err := repo.List(ctx, PaymentFilter{OrderID: &orderID}, "", 1, 10)
	if err != nil || total != 2 || len(rows) != 2 {
		t.Fatalf("order filter rows=%d total=%d err=%v", len(rows), total, err)
	}

	// default sort is newest first
	rows, _, err = repo.List(ctx, PaymentFilter{}, "", 1, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if rows[0].Reference != "ECI20250910-00000003" {
		t.Fatalf("default sort head = %s, want newest", rows[0].Reference)
	}
	rows, _, _ = repo.List(ctx, PaymentFilter{}, SortAsc, 1, 10)
	if rows[0].Reference != "ECI20250910-00000001" {
		t.Fatalf("asc sort head = %s, want oldest", rows[0].Reference)
	}

	status := false
	_, total, _ = repo.List(ctx, PaymentFilter{Status: &status}, "", 1, 10)
	if total != 1 {
		t.Fatalf("failed filter total = %d, want 1", total)
	}

	refunded := true
	_, total, _ = repo.List(ctx, PaymentFilter{Refunded: &refunded}, "", 1, 10)
	if total != 1 {
		t.Fatalf("refunded filter total = %d, want 1", total)
	}

	min, max := decimal.NewFromInt(10), decimal.NewFromInt(50)
	_, total, _ = repo.List(ctx, PaymentFilter{AmountMin: &min, AmountMax: &max}, "", 1, 10)
	if total != 2 {
		t.Fatalf("inclusive amount bounds total = %d, want 2", total)
	}

	from := base.Add(30 * time.Minute)
	_, total, _ = repo.List(ctx, PaymentFilter{DateFrom: &from}, "", 1, 10)
	if total != 2 {
		t.Fatalf("date_from total = %d, want 2", total)
	}
}
