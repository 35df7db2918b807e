package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/jchristianvieri-gif/tastevision-ai-restaurant/internal/checkout"
	"github.com/jchristianvieri-gif/tastevision-ai-restaurant/internal/payment"
)

func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req checkout.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 20*time.Second)
	defer cancel()

	res, err := h.checkout.Checkout(ctx, req)
	if err != nil {
		switch {
		case errors.Is(err, checkout.ErrInvalidRequest):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, payment.ErrGateway):
			// The gateway reason is logged but not leaked to the client.
			h.logger.Printf("checkout: %v", err)
			writeError(w, http.StatusBadGateway, "payment session could not be created")
		default:
			h.logger.Printf("checkout: %v", err)
			writeError(w, http.StatusInternalServerError, "checkout failed")
		}
		return
	}

	writeJSON(w, http.StatusOK, res)
}
