package payment

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jchristianvieri-gif/tastevision-ai-restaurant/internal/order"
)

func TestMapStatus(t *testing.T) {
	cases := []struct {
		name              string
		transactionStatus string
		fraudStatus       string
		want              Outcome
	}{
		{"settlement", "settlement", "", Outcome{order.StatusPaid, order.PaymentPaid}},
		{"capture accepted", "capture", "accept", Outcome{order.StatusPaid, order.PaymentPaid}},
		{"capture challenged stays pending", "capture", "challenge", Outcome{order.StatusPending, order.PaymentPending}},
		{"capture without fraud status stays pending", "capture", "", Outcome{order.StatusPending, order.PaymentPending}},
		{"capture fraud-denied", "capture", "deny", Outcome{order.StatusCancelled, order.PaymentFailed}},
		{"pending", "pending", "", Outcome{order.StatusPending, order.PaymentPending}},
		{"deny", "deny", "", Outcome{order.StatusCancelled, order.PaymentFailed}},
		{"cancel", "cancel", "", Outcome{order.StatusCancelled, order.PaymentFailed}},
		{"expire", "expire", "", Outcome{order.StatusCancelled, order.PaymentFailed}},
		{"fraud status ignored for settlement", "settlement", "challenge", Outcome{order.StatusPaid, order.PaymentPaid}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := MapStatus(tc.transactionStatus, tc.fraudStatus)
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestMapStatus_Deterministic(t *testing.T) {
	first, err := MapStatus("capture", "accept")
	require.NoError(t, err)
	second, err := MapStatus("capture", "accept")
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestMapStatus_UnknownRejected(t *testing.T) {
	for _, status := range []string{"refund", "authorize", "chargeback", "", "SETTLEMENT"} {
		_, err := MapStatus(status, "")
		require.ErrorIs(t, err, ErrUnknownStatus, "status %q must be rejected", status)
	}
}
