package payment

// Notification is the asynchronous status payload the gateway POSTs to the
// payment webhook. OrderID matches the gateway order id the checkout flow
// registered; the remaining fields use the gateway's own vocabulary.
type Notification struct {
	OrderID           string `json:"order_id"`
	TransactionStatus string `json:"transaction_status"`
	FraudStatus       string `json:"fraud_status,omitempty"`
	StatusCode        string `json:"status_code,omitempty"`
	GrossAmount       string `json:"gross_amount,omitempty"`
	SignatureKey      string `json:"signature_key,omitempty"`
	PaymentType       string `json:"payment_type,omitempty"`
	TransactionTime   string `json:"transaction_time,omitempty"`
}
