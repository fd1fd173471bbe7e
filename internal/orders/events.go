package orders

import "time"

const EventOrderCreated = "order.created"

// Event is the payload sent from the API -> SQS -> worker.
type Event struct {
	Type           string    `json:"type"`
	OrderID        string    `json:"order_id"`
	OrderNumber    string    `json:"order_number"`
	ShopID         string    `json:"shop_id"`
	CheckoutMode   string    `json:"checkout_mode"`
	IdempotencyKey string    `json:"idempotency_key,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// Attributes returns the SQS message attributes for the event.
func (e Event) Attributes() map[string]string {
	return map[string]string{
		"event_type":      e.Type,
		"order_id":        e.OrderID,
		"checkout_mode":   e.CheckoutMode,
		"idempotency_key": e.IdempotencyKey,
	}
}
