package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment methods as recorded by the gateway.
const (
	MethodCOD  = "COD"
	MethodCard = "CARD"
	MethodUPI  = "UPI"
)

// PaymentMethods is the fixed label set used by the metrics exposition.
var PaymentMethods = []string{MethodCOD, MethodCard, MethodUPI}

// Payment represents a single gateway charge attempt for an order.
// Status is assigned once at creation (true = success) and never changes;
// Refunded is monotonic: once true it is never unset.
type Payment struct {
	ID        int64           `gorm:"column:payment_id;primaryKey;autoIncrement" json:"payment_id" form:"payment_id"`
	OrderID   int64           `gorm:"index" json:"order_id" form:"order_id"`
	Amount    decimal.Decimal `gorm:"type:decimal(10,2)" json:"amount" form:"amount"`
	Method    string          `gorm:"size:16" json:"method" form:"method"`
	Status    bool            `json:"status" form:"status"`
	Reference string          `gorm:"size:100;uniqueIndex" json:"reference" form:"reference"`
	CreatedAt time.Time       `json:"created_at"`
	Refunded  bool            `gorm:"default:false" json:"refunded" form:"refunded"`
}

// TableName Specify table name
func (Payment) TableName() string {
	return "payments"
}
