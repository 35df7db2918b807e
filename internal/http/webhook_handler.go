package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/jchristianvieri-gif/tastevision-ai-restaurant/internal/order"
	"github.com/jchristianvieri-gif/tastevision-ai-restaurant/internal/payment"
	"github.com/jchristianvieri-gif/tastevision-ai-restaurant/internal/reconcile"
)

const maxWebhookBody = 1 << 20 // 1 MiB

// PaymentWebhook receives the gateway's asynchronous status notification.
// The gateway retries on non-2xx responses, so transient storage failures
// answer 500 while rejected payloads answer 4xx and are never retried into
// a write.
func (h *Handler) PaymentWebhook(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "unreadable body")
		return
	}

	var n payment.Notification
	if err := json.Unmarshal(raw, &n); err != nil {
		writeError(w, http.StatusBadRequest, "malformed notification")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	res, err := h.reconciler.Handle(ctx, n, raw)
	if err != nil {
		switch {
		case errors.Is(err, reconcile.ErrValidation), errors.Is(err, payment.ErrUnknownStatus):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, payment.ErrBadSignature):
			writeError(w, http.StatusForbidden, "signature verification failed")
		case errors.Is(err, order.ErrNotFound):
			writeError(w, http.StatusNotFound, "order not found")
		default:
			h.logger.Printf("webhook for order %s: %v", n.OrderID, err)
			writeError(w, http.StatusInternalServerError, "failed to process notification")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":         "ok",
		"order_id":       res.OrderID,
		"order_status":   string(res.Status),
		"payment_status": string(res.PaymentStatus),
	})
}
