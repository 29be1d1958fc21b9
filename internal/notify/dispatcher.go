package notify

import (
	"encoding/json"
	"time"

	"github.com/asaskevich/EventBus"
	"github.com/google/uuid"
	"github.com/guonaihong/gout"
	"github.com/panjf2000/ants/v2"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
	"gorm.io/gorm"

	"github.com/ecistack/ecommerce/config"
	"github.com/ecistack/ecommerce/internal/domain"
	"github.com/ecistack/ecommerce/pkg/common"
)

// Dispatcher delivers {type, data} events to the notification collaborator,
// either over HTTP or directly by mail when only SMTP is configured. Every
// attempt leaves an event_log row; delivery failures never propagate to the
// operation that raised the event.
type Dispatcher struct {
	cfg  config.NotifyConfig
	db   *gorm.DB
	pool *ants.Pool
}

func NewDispatcher(cfg config.NotifyConfig, db *gorm.DB, pool *ants.Pool) *Dispatcher {
	return &Dispatcher{cfg: cfg, db: db, pool: pool}
}

// Subscribe wires the dispatcher onto the payment status topic.
func (d *Dispatcher) Subscribe(bus EventBus.Bus) error {
	return bus.Subscribe(domain.TopicPaymentStatusChanged, d.onPaymentStatus)
}

func (d *Dispatcher) onPaymentStatus(payment domain.Payment) {
	status := "FAILED"
	if payment.Refunded {
		status = "REFUNDED"
	} else if payment.Status {
		status = "SUCCESS"
	}
	data := map[string]interface{}{
		"event_id":  uuid.NewString(),
		"order_id":  payment.OrderID,
		"reference": payment.Reference,
		"status":    status,
	}
	d.enqueue(domain.EventPaymentStatusChanged, data)
}

func (d *Dispatcher) enqueue(eventType string, data map[string]interface{}) {
	task := func() { d.Dispatch(eventType, data) }
	if d.pool == nil {
		task()
		return
	}
	if err := d.pool.Submit(task); err != nil {
		zap.L().Warn("notification submit failed",
			zap.String("type", eventType), zap.Error(err))
	}
}

// Dispatch sends one event and records the attempt. Safe to call directly for
// events that do not originate on the bus.
func (d *Dispatcher) Dispatch(eventType string, data map[string]interface{}) {
	payload, _ := json.Marshal(data)
	entry := &domain.EventLog{
		ID:        common.UUIDint64(),
		Type:      eventType,
		Payload:   string(payload),
		Status:    domain.DispatchPending,
		CreatedAt: time.Now(),
	}
	if d.db != nil {
		if err := d.db.Create(entry).Error; err != nil {
			zap.L().Warn("event log write failed", zap.Error(err))
		}
	}

	err := d.send(eventType, data)
	status := domain.DispatchSent
	errMsg := ""
	if err != nil {
		status = domain.DispatchFailed
		errMsg = err.Error()
		zap.L().Warn("notification dispatch failed",
			zap.String("type", eventType), zap.Error(err))
	}

	if d.db != nil {
		err := d.db.Model(&domain.EventLog{}).
			Where("id = ?", entry.ID).
			Updates(map[string]interface{}{"status": status, "err_msg": errMsg}).Error
		if err != nil {
			zap.L().Warn("event log update failed", zap.Error(err))
		}
	}
}

func (d *Dispatcher) send(eventType string, data map[string]interface{}) error {
	switch {
	case d.cfg.DispatchURL != "":
		return d.sendHTTP(eventType, data)
	case d.cfg.SmtpHost != "":
		return d.sendMail(eventType, data)
	default:
		// no collaborator configured; the event_log row is the only sink
		return nil
	}
}

func (d *Dispatcher) sendHTTP(eventType string, data map[string]interface{}) error {
	timeout := time.Duration(d.cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	var code int
	err := gout.POST(d.cfg.DispatchURL).
		SetTimeout(timeout).
		SetJSON(gout.H{"type": eventType, "data": data}).
		Code(&code).
		Do()
	if err != nil {
		return err
	}
	if code < 200 || code > 299 {
		return errors.Errorf("notification dispatch returned status %d", code)
	}
	return nil
}

func (d *Dispatcher) sendMail(eventType string, data map[string]interface{}) error {
	recipient := d.cfg.MailTo
	if v, ok := data["customer_email"].(string); ok && v != "" {
		recipient = v
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", d.cfg.MailFrom)
	msg.SetHeader("To", recipient)
	msg.SetHeader("Subject", "Notification: "+eventType)
	msg.SetBody("text/plain", renderTemplate(eventType, data))

	dialer := gomail.NewDialer(d.cfg.SmtpHost, d.cfg.SmtpPort, d.cfg.SmtpUser, d.cfg.SmtpPasswd)
	return dialer.DialAndSend(msg)
}
