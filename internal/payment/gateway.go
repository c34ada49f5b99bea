package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

var (
	ErrInvalidAmount      = errors.New("charge amount must be positive")
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
)

type ChargeStatus string

const (
	StatusSuccessful ChargeStatus = "successful"
	StatusFailed     ChargeStatus = "failed"
)

// Known refusal reasons the gateway reports. Anything else arrives as a
// free-form failure_reason string.
const (
	RefusalInsufficientFunds = "insufficient_funds"
	RefusalCardExpired       = "card_expired"
	RefusalDeclined          = "declined"
	RefusalFraudSuspected    = "fraud_suspected"
)

// ChargeRequest is the payload sent to the external card gateway.
// Amounts are minor units (cents) of the given currency.
type ChargeRequest struct {
	CheckoutID  string `json:"checkout_id"`
	AmountMinor int64  `json:"amount_in_cents"`
	Currency    string `json:"currency"`
	Description string `json:"description"`
}

type ChargeResult struct {
	Status        ChargeStatus `json:"status"`
	PaymentID     string       `json:"id"`
	FailureReason string       `json:"failure_reason,omitempty"`
}

func (r *ChargeResult) Succeeded() bool {
	return r.Status == StatusSuccessful
}

// FailureMessage renders a refusal for display to the shopper.
func FailureMessage(r *ChargeResult) string {
	if r.FailureReason != "" {
		return fmt.Sprintf("Payment failed: %v", r.FailureReason)
	}
	return fmt.Sprintf("Payment failed: %v", r.Status)
}

// Gateway is the external payment collaborator. A declined card comes
// back as a ChargeResult with StatusFailed; an error return means the
// charge could not be attempted at all.
type Gateway interface {
	Charge(ctx context.Context, req *ChargeRequest) (*ChargeResult, error)
}

type HTTPGateway struct {
	baseURL   string
	secretKey string
	client    *http.Client
	breaker   *gobreaker.CircuitBreaker[*ChargeResult]
	log       *zap.Logger
}

func NewHTTPGateway(baseURL, secretKey string, log *zap.Logger) *HTTPGateway {
	breaker := gobreaker.NewCircuitBreaker[*ChargeResult](gobreaker.Settings{
		Name:    "payment-gateway",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	})

	return &HTTPGateway{
		baseURL:   baseURL,
		secretKey: secretKey,
		client:    &http.Client{Timeout: 15 * time.Second},
		breaker:   breaker,
		log:       log,
	}
}

func (g *HTTPGateway) Charge(ctx context.Context, req *ChargeRequest) (*ChargeResult, error) {
	if req.AmountMinor <= 0 {
		return nil, ErrInvalidAmount
	}

	result, err := g.breaker.Execute(func() (*ChargeResult, error) {
		return g.doCharge(ctx, req)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		g.log.Warn("payment gateway circuit open", zap.String("checkout_id", req.CheckoutID))
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (g *HTTPGateway) doCharge(ctx context.Context, req *ChargeRequest) (*ChargeResult, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal charge request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/charges", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build charge request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Auth-Secret-Key", g.secretKey)

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, fmt.Errorf("%w: gateway returned %d", ErrGatewayUnavailable, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("unexpected gateway response %d: %s", resp.StatusCode, payload)
	}

	var result ChargeResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode charge response: %w", err)
	}
	return &result, nil
}
