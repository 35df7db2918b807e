package payment

import (
	"errors"
	"fmt"

	"github.com/jchristianvieri-gif/tastevision-ai-restaurant/internal/order"
)

var ErrUnknownStatus = errors.New("unrecognized transaction status")

// Outcome is the internal state a gateway notification resolves to.
type Outcome struct {
	Status        order.Status
	PaymentStatus order.PaymentStatus
}

// statusKey pairs a transaction status with a fraud-review outcome.
// fraudAny matches whatever fraud status is not listed explicitly,
// including an absent one.
type statusKey struct {
	transaction string
	fraud       string
}

const fraudAny = "*"

// The gateway vocabulary is richer than ours (it separates the
// authorization capture from the fraud-review verdict), so the collapse
// lives in one table. A transaction status with no row here is rejected
// rather than mapped to a default.
var outcomes = map[statusKey]Outcome{
	{"capture", "accept"}:    {order.StatusPaid, order.PaymentPaid},
	{"capture", "deny"}:      {order.StatusCancelled, order.PaymentFailed},
	{"capture", fraudAny}:    {order.StatusPending, order.PaymentPending},
	{"settlement", fraudAny}: {order.StatusPaid, order.PaymentPaid},
	{"pending", fraudAny}:    {order.StatusPending, order.PaymentPending},
	{"deny", fraudAny}:       {order.StatusCancelled, order.PaymentFailed},
	{"cancel", fraudAny}:     {order.StatusCancelled, order.PaymentFailed},
	{"expire", fraudAny}:     {order.StatusCancelled, order.PaymentFailed},
}

// MapStatus resolves a (transaction_status, fraud_status) pair to the
// internal outcome. Same input always yields the same outcome; unknown
// transaction statuses return ErrUnknownStatus.
func MapStatus(transactionStatus, fraudStatus string) (Outcome, error) {
	if out, ok := outcomes[statusKey{transactionStatus, fraudStatus}]; ok {
		return out, nil
	}
	if out, ok := outcomes[statusKey{transactionStatus, fraudAny}]; ok {
		return out, nil
	}
	return Outcome{}, fmt.Errorf("%w: %q", ErrUnknownStatus, transactionStatus)
}
