package payment

import (
	"context"
	"fmt"
	"strings"

	"github.com/montanaflynn/stats"
	"github.com/nakabonne/tstorage"
	"go.uber.org/zap"

	"github.com/ecistack/ecommerce/internal/domain"
	"github.com/ecistack/ecommerce/pkg/metrics"
)

// Counters holds the current observability counters. ByMethod always carries
// the full fixed label set, zero-filled.
type Counters struct {
	Failed   int64
	Refunded int64
	ByMethod map[string]int64
}

// AmountSummary is the settled-amount distribution summary.
type AmountSummary struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	P95    float64 `json:"p95"`
}

// Aggregator derives counters with dedicated aggregate queries (COUNT and
// GROUP BY) rather than paging full result sets per label.
type Aggregator struct {
	repo PaymentRepository
}

func NewAggregator(repo PaymentRepository) *Aggregator {
	return &Aggregator{repo: repo}
}

func (a *Aggregator) Collect(ctx context.Context) (*Counters, error) {
	failedStatus := false
	failed, err := a.repo.Count(ctx, PaymentFilter{Status: &failedStatus})
	if err != nil {
		return nil, err
	}

	refundedFlag := true
	refunded, err := a.repo.Count(ctx, PaymentFilter{Refunded: &refundedFlag})
	if err != nil {
		return nil, err
	}

	byMethod, err := a.repo.CountByMethod(ctx)
	if err != nil {
		return nil, err
	}

	counters := &Counters{Failed: failed, Refunded: refunded, ByMethod: map[string]int64{}}
	for _, method := range domain.PaymentMethods {
		counters.ByMethod[method] = byMethod[method]
	}
	return counters, nil
}

// RenderPrometheus serializes counters in the plaintext exposition format with
// the fixed metric names the scrapers already depend on.
func (a *Aggregator) RenderPrometheus(counters *Counters) string {
	var b strings.Builder
	b.WriteString("# HELP payments_failed_total Total number of failed payments\n")
	b.WriteString("# TYPE payments_failed_total counter\n")
	fmt.Fprintf(&b, "payments_failed_total %d\n", counters.Failed)

	b.WriteString("# HELP payments_refunded_total Total number of refunded payments\n")
	b.WriteString("# TYPE payments_refunded_total counter\n")
	fmt.Fprintf(&b, "payments_refunded_total %d\n", counters.Refunded)

	b.WriteString("# HELP payments_by_method_total Total number of payments per payment method\n")
	b.WriteString("# TYPE payments_by_method_total counter\n")
	for _, method := range domain.PaymentMethods {
		fmt.Fprintf(&b, "payments_by_method_total{method=%q} %d\n", method, counters.ByMethod[method])
	}
	return b.String()
}

// Snapshot records the current counters into the local time-series store.
// Called from the scheduler; failures are logged only.
func (a *Aggregator) Snapshot(ctx context.Context) {
	counters, err := a.Collect(ctx)
	if err != nil {
		zap.L().Warn("metrics snapshot collect failed", zap.Error(err))
		return
	}

	if err := metrics.InsertPoint(metrics.PaymentsFailed, float64(counters.Failed)); err != nil {
		zap.L().Warn("metrics snapshot write failed", zap.Error(err))
	}
	if err := metrics.InsertPoint(metrics.PaymentsRefunded, float64(counters.Refunded)); err != nil {
		zap.L().Warn("metrics snapshot write failed", zap.Error(err))
	}
	for _, method := range domain.PaymentMethods {
		err := metrics.InsertPoint(metrics.PaymentsByMethod, float64(counters.ByMethod[method]),
			tstorage.Label{Name: "method", Value: method})
		if err != nil {
			zap.L().Warn("metrics snapshot write failed", zap.String("method", method), zap.Error(err))
		}
	}
}

// Stats summarizes the settled amount distribution.
func (a *Aggregator) Stats(ctx context.Context) (*AmountSummary, error) {
	amounts, err := a.repo.SettledAmounts(ctx)
	if err != nil {
		return nil, err
	}
	if len(amounts) == 0 {
		return &AmountSummary{}, nil
	}

	mean, _ := stats.Mean(amounts)
	median, _ := stats.Median(amounts)
	p95, _ := stats.Percentile(amounts, 95)
	return &AmountSummary{Count: len(amounts), Mean: mean, Median: median, P95: p95}, nil
}
