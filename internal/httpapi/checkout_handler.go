package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	d "github.com/Kamohel0/green-public-website/internal/checkout/domain"
	"github.com/Kamohel0/green-public-website/internal/checkout/service"
	"github.com/Kamohel0/green-public-website/internal/payment"
)

type CheckoutHandler struct {
	checkout service.CheckoutService
	timeout  time.Duration
}

func NewCheckoutHandler(checkout service.CheckoutService, timeout time.Duration) *CheckoutHandler {
	return &CheckoutHandler{
		checkout: checkout,
		timeout:  timeout,
	}
}

type InitiateCheckoutRequestDTO struct {
	IdempotencyKey string `json:"idempotency_key"`
	Description    string `json:"description,omitempty"`
}

// POST /api/v1/checkout
func (h *CheckoutHandler) InitiateCheckout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	var req InitiateCheckoutRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if req.IdempotencyKey == "" {
		respondError(w, http.StatusBadRequest, "missing_idempotency_key",
			"idempotency_key is required")
		return
	}

	resp, err := h.checkout.InitiateCheckout(ctx, &d.CheckoutRequest{
		UserID:         userID,
		SessionID:      getCartKeyFromContext(r.Context()),
		IdempotencyKey: req.IdempotencyKey,
		Description:    req.Description,
	})
	if err != nil {
		handleCheckoutError(w, err)
		return
	}

	if resp.Status == d.CheckoutStatusFailed {
		respondJSON(w, http.StatusPaymentRequired, resp)
		return
	}

	respondJSON(w, http.StatusCreated, resp)
}

func handleCheckoutError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrEmptyCart):
		respondError(w, http.StatusBadRequest, "empty_cart", "cart is empty, nothing to checkout")
	case errors.Is(err, payment.ErrGatewayUnavailable):
		respondError(w, http.StatusServiceUnavailable, "payment_unavailable",
			"payment gateway unavailable, try again later")
	default:
		respondError(w, http.StatusInternalServerError, "internal_error", "checkout failed")
	}
}
