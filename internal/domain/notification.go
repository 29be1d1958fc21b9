package domain

import "time"

// Notification event types dispatched to the notification collaborator.
const (
	EventOrderCreated         = "ORDER_CREATED"
	EventPaymentStatusChanged = "PAYMENT_STATUS_CHANGED"
	EventLowInventoryAlert    = "LOW_INVENTORY_ALERT"
)

// In-process event bus topics feeding the outbound collaborators.
const (
	TopicProductChanged       = "product.changed"
	TopicPaymentStatusChanged = "payment.status_changed"
)

// Dispatch delivery states.
const (
	DispatchPending = "PENDING"
	DispatchSent    = "SENT"
	DispatchFailed  = "FAILED"
)

// EventLog records every outbound notification dispatch attempt. Delivery is
// best-effort; the log is the only trace of failures.
type EventLog struct {
	ID        int64     `json:"id,string"`
	Type      string    `gorm:"index" json:"type"`
	Payload   string    `json:"payload"`
	Status    string    `gorm:"index" json:"status"`
	ErrMsg    string    `json:"err_msg"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName Specify table name
func (EventLog) TableName() string {
	return "event_log"
}
