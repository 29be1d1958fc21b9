package payment

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ecistack/ecommerce/internal/domain"
)

// Gateway decides how a charge is settled. Method and status always come from
// the gateway, never from the caller; swapping in a real acquirer client must
// not change that contract.
type Gateway interface {
	Authorize(ctx context.Context, orderID int64, amount decimal.Decimal) (method string, approved bool, err error)
}

// randomGateway simulates an external acquirer: uniform method choice and a
// weighted approval draw.
type randomGateway struct {
	mu          sync.Mutex
	rnd         *rand.Rand
	successRate float64
}

// DefaultSuccessRate matches the simulated acquirer's observed approval rate.
const DefaultSuccessRate = 0.6

// NewRandomGateway returns the simulated gateway used in the absence of a
// real acquirer integration.
func NewRandomGateway() Gateway {
	return &randomGateway{
		rnd:         rand.New(rand.NewSource(time.Now().UnixNano())),
		successRate: DefaultSuccessRate,
	}
}

func (g *randomGateway) Authorize(_ context.Context, _ int64, _ decimal.Decimal) (string, bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	method := domain.PaymentMethods[g.rnd.Intn(len(domain.PaymentMethods))]
	approved := g.rnd.Float64() < g.successRate
	return method, approved, nil
}

// StaticGateway always answers with a fixed method and outcome. It is the
// deterministic double for tests and offline imports.
type StaticGateway struct {
	Method   string
	Approved bool
	Err      error
}

func (g StaticGateway) Authorize(_ context.Context, _ int64, _ decimal.Decimal) (string, bool, error) {
	return g.Method, g.Approved, g.Err
}
