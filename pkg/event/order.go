package event

import "time"

const (
	// TopicOrderConfirmed delivers confirmed orders and reservations to
	// downstream consumers (kitchen displays, notification senders).
	TopicOrderConfirmed = "orders.confirmed"

	// TypeOrderConfirmed identifies a confirmed order payload.
	TypeOrderConfirmed = "order.confirmed"
)

// OrderConfirmedEvent is published whenever a checkout flow confirms. For
// reservations the totals are zero and the reservation fields are set.
type OrderConfirmedEvent struct {
	EventType     string    `json:"event_type"`
	OrderID       string    `json:"order_id"`
	Kind          string    `json:"kind"`
	SessionToken  string    `json:"session_token,omitempty"`
	TotalItems    int       `json:"total_items,omitempty"`
	TotalPrice    int       `json:"total_price,omitempty"`
	PaymentMethod string    `json:"payment_method,omitempty"`
	CustomerName  string    `json:"customer_name,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`

	// Reservation details
	ReservationDate string `json:"reservation_date,omitempty"`
	ReservationTime string `json:"reservation_time,omitempty"`
	Guests          string `json:"guests,omitempty"`
}
