package notify

import (
	"fmt"

	"github.com/ecistack/ecommerce/internal/domain"
)

// templateBuilders renders a mail body per event type. Unknown types fall
// back to a generic line rather than failing the dispatch.
var templateBuilders = map[string]func(data map[string]interface{}) string{
	domain.EventOrderCreated: func(d map[string]interface{}) string {
		return fmt.Sprintf("Your order #%v has been created with total ₹%v.",
			field(d, "order_id"), field(d, "order_total"))
	},
	domain.EventPaymentStatusChanged: func(d map[string]interface{}) string {
		return fmt.Sprintf("Payment %v for order #%v is %v.",
			field(d, "reference"), field(d, "order_id"), field(d, "status"))
	},
	domain.EventLowInventoryAlert: func(d map[string]interface{}) string {
		return fmt.Sprintf("Inventory low for SKU %v at warehouse %v (on hand: %v).",
			field(d, "sku"), field(d, "warehouse"), field(d, "on_hand"))
	},
}

func renderTemplate(eventType string, data map[string]interface{}) string {
	if builder, ok := templateBuilders[eventType]; ok {
		return builder(data)
	}
	return "Notification event received."
}

func field(data map[string]interface{}, key string) interface{} {
	if v, ok := data[key]; ok && v != nil {
		return v
	}
	return "N/A"
}
