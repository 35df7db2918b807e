package payment

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVerifySignature(t *testing.T) {
	const serverKey = "SB-server-key"

	n := Notification{
		OrderID:     "order-1",
		StatusCode:  "200",
		GrossAmount: "45000.00",
	}
	n.SignatureKey = Signature(n.OrderID, n.StatusCode, n.GrossAmount, serverKey)

	require.True(t, n.VerifySignature(serverKey))
}

func TestVerifySignature_CaseInsensitiveHex(t *testing.T) {
	const serverKey = "SB-server-key"

	n := Notification{OrderID: "order-1", StatusCode: "200", GrossAmount: "45000.00"}
	n.SignatureKey = strings.ToUpper(Signature(n.OrderID, n.StatusCode, n.GrossAmount, serverKey))

	require.True(t, n.VerifySignature(serverKey))
}

func TestVerifySignature_Rejects(t *testing.T) {
	const serverKey = "SB-server-key"

	t.Run("missing signature", func(t *testing.T) {
		n := Notification{OrderID: "order-1", StatusCode: "200", GrossAmount: "45000.00"}
		require.False(t, n.VerifySignature(serverKey))
	})

	t.Run("wrong key", func(t *testing.T) {
		n := Notification{OrderID: "order-1", StatusCode: "200", GrossAmount: "45000.00"}
		n.SignatureKey = Signature(n.OrderID, n.StatusCode, n.GrossAmount, "other-key")
		require.False(t, n.VerifySignature(serverKey))
	})

	t.Run("tampered amount", func(t *testing.T) {
		n := Notification{OrderID: "order-1", StatusCode: "200", GrossAmount: "45000.00"}
		n.SignatureKey = Signature(n.OrderID, n.StatusCode, n.GrossAmount, serverKey)
		n.GrossAmount = "1.00"
		require.False(t, n.VerifySignature(serverKey))
	})
}
