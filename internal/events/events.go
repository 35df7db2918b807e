package events

import (
	"time"

	"github.com/jchristianvieri-gif/tastevision-ai-restaurant/internal/order"
)

type OrderCreated struct {
	EventType   string       `json:"eventType"`
	OrderID     string       `json:"orderId"`
	TotalAmount int64        `json:"totalAmount"`
	Items       []order.Item `json:"items"`
	Timestamp   time.Time    `json:"timestamp"`
}

type OrderPaid struct {
	EventType   string    `json:"eventType"`
	OrderID     string    `json:"orderId"`
	TotalAmount int64     `json:"totalAmount"`
	Timestamp   time.Time `json:"timestamp"`
}

type OrderPaymentFailed struct {
	EventType string    `json:"eventType"`
	OrderID   string    `json:"orderId"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}
