package contracts

import "time"

// Event is the envelope published to the order events topic by the outbox
// relay. Payload shape depends on Type.
type Event struct {
	EventID   string         `json:"event_id"`
	OrderID   int64          `json:"order_id"`
	CreatedAt time.Time      `json:"created_at"`
	Type      string         `json:"type"`
	Payload   map[string]any `json:"payload"`
}

const (
	EventOrderCreated   = "order.created"
	EventOrderPaid      = "order.paid"
	EventOrderShipped   = "order.shipped"
	EventOrderDelivered = "order.delivered"
	EventOrderCancelled = "order.cancelled"
)
