package order

import "time"

type Item struct {
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Quantity int    `json:"quantity"`
}

type Customer struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type Order struct {
	ID            string        `json:"orderId"`
	Items         []Item        `json:"items"`
	Customer      Customer      `json:"customer"`
	TotalAmount   int64         `json:"totalAmount"`
	Status        Status        `json:"status"`
	PaymentStatus PaymentStatus `json:"paymentStatus"`
	PaymentURL    string        `json:"paymentUrl,omitempty"`
	PaymentToken  string        `json:"-"`
	// GatewayOrderID is the id shared with the payment gateway. It is set
	// once at checkout and never changes; webhook updates key on it.
	GatewayOrderID string    `json:"-"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}
