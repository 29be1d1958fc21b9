package payment

import (
	"context"
	"errors"
	"time"

	"github.com/asaskevich/EventBus"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ecistack/ecommerce/internal/domain"
	"github.com/ecistack/ecommerce/pkg/common"
)

// RefundResult is the stable projection returned by Refund. Repeated calls on
// the same refunded payment return the identical result.
type RefundResult struct {
	PaymentID int64           `json:"payment_id"`
	Amount    decimal.Decimal `json:"amount"`
	Method    string          `json:"method"`
}

// Service drives the payment state machine:
// CREATED -> SUCCESS | FAILED at charge time, SUCCESS -> REFUNDED one-way.
type Service struct {
	repo    PaymentRepository
	gateway Gateway
	bus     EventBus.Bus
}

func NewService(repo PaymentRepository, gateway Gateway, bus EventBus.Bus) *Service {
	return &Service{repo: repo, gateway: gateway, bus: bus}
}

func (s *Service) List(ctx context.Context, filter PaymentFilter, sortByCreated string, page, perPage int) ([]domain.Payment, int64, error) {
	if err := ValidateSort(sortByCreated); err != nil {
		return nil, 0, err
	}
	if page < 1 || perPage < 1 {
		return nil, 0, domain.Validationf("page and per_page must be positive")
	}
	return s.repo.List(ctx, filter, sortByCreated, page, perPage)
}

// Charge settles (order_id, amount) through the gateway and records the
// outcome. Method and status are decided server-side; the stored row is
// returned whether the charge succeeded or failed.
func (s *Service) Charge(ctx context.Context, orderID int64, amount decimal.Decimal) (*domain.Payment, error) {
	if amount.Sign() <= 0 {
		return nil, domain.Validationf("amount must be positive")
	}

	method, approved, err := s.gateway.Authorize(ctx, orderID, amount)
	if err != nil {
		return nil, err
	}

	payment := &domain.Payment{
		OrderID:   orderID,
		Amount:    amount,
		Method:    method,
		Status:    approved,
		CreatedAt: time.Now(),
		Refunded:  false,
	}

	// the hex suffix keeps references unique in practice; on the rare
	// collision the unique index rejects the row and we redraw
	for attempt := 0; ; attempt++ {
		payment.Reference = common.PaymentReference(payment.CreatedAt)
		err = s.repo.Create(ctx, payment)
		if err == nil {
			break
		}
		if !errors.Is(err, domain.ErrConflict) || attempt >= 2 {
			return nil, err
		}
	}

	s.publishStatus(payment)
	return payment, nil
}

// Refund transitions a successful payment to refunded exactly once and is
// idempotent afterwards. A failed payment is refused, never transitioned.
func (s *Service) Refund(ctx context.Context, paymentID int64) (*RefundResult, error) {
	payment, err := s.repo.GetByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	result := &RefundResult{PaymentID: payment.ID, Amount: payment.Amount, Method: payment.Method}

	if payment.Refunded {
		// already refunded: repeatable without side effect
		return result, nil
	}
	if !payment.Status {
		return nil, domain.ErrRefundRefused
	}

	rows, err := s.repo.MarkRefunded(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		// a concurrent refund won the conditional update; re-read to pick
		// the idempotent branch rather than report a second transition
		current, err := s.repo.GetByID(ctx, paymentID)
		if err != nil {
			return nil, err
		}
		if current.Refunded {
			return result, nil
		}
		return nil, domain.ErrRefundRefused
	}

	payment.Refunded = true
	s.publishStatus(payment)
	return result, nil
}

func (s *Service) publishStatus(payment *domain.Payment) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(domain.TopicPaymentStatusChanged, *payment)
	zap.L().Debug("published payment status",
		zap.Int64("payment_id", payment.ID),
		zap.String("reference", payment.Reference),
		zap.Bool("status", payment.Status),
		zap.Bool("refunded", payment.Refunded))
}
