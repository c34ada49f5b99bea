package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	cartdomain "github.com/Kamohel0/green-public-website/internal/cart/domain"
	d "github.com/Kamohel0/green-public-website/internal/checkout/domain"
	r "github.com/Kamohel0/green-public-website/internal/checkout/repository"
	"github.com/Kamohel0/green-public-website/internal/payment"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// EventTypeCheckoutCompleted is the outbox event emitted for every
// completed order.
const EventTypeCheckoutCompleted = "checkout.completed"

// CartAccess is the slice of the cart service checkout needs: read the
// cart to snapshot it, clear it after a successful charge.
type CartAccess interface {
	Get(ctx context.Context, sessionID string) *cartdomain.Cart
	Clear(ctx context.Context, sessionID string) *cartdomain.Cart
}

type CheckoutService interface {
	InitiateCheckout(ctx context.Context, request *d.CheckoutRequest) (*d.CheckoutResponse, error)
}

type CheckoutServiceImpl struct {
	repo     r.RepoInterface
	carts    CartAccess
	gateway  payment.Gateway
	currency string
	log      *zap.Logger
}

func NewCheckoutService(repo r.RepoInterface, carts CartAccess, gateway payment.Gateway, currency string, log *zap.Logger) *CheckoutServiceImpl {
	return &CheckoutServiceImpl{
		repo:     repo,
		carts:    carts,
		gateway:  gateway,
		currency: currency,
		log:      log,
	}
}

func (s *CheckoutServiceImpl) InitiateCheckout(
	ctx context.Context,
	request *d.CheckoutRequest) (*d.CheckoutResponse, error) {

	// Check for an existing session under this idempotency key first.
	existing, err := s.repo.GetSessionByIdempotencyKey(ctx, request.IdempotencyKey)
	if err != nil && !errors.Is(err, r.ErrIdempotencyKeyNotFound) {
		return nil, fmt.Errorf("failed to check idempotency: %w", err)
	}

	if existing != nil {
		// This checkout already exists!
		// Return the cached result (could be COMPLETED, FAILED, or in flight).
		s.log.Info("duplicate checkout request",
			zap.String("idempotency_key", request.IdempotencyKey),
			zap.String("checkout_id", existing.ID),
			zap.String("status", existing.Status.String()))

		return &d.CheckoutResponse{
			CheckoutID:    existing.ID,
			Status:        existing.Status,
			PaymentID:     existing.PaymentID,
			FailureReason: existing.FailureReason,
		}, nil
	}

	cart := s.carts.Get(ctx, request.SessionID)
	if cart.IsEmpty() {
		return nil, ErrEmptyCart
	}

	snapshot := d.BuildSnapshot(cart, s.currency)
	snapshotJSON, err := json.Marshal(snapshot)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal cart snapshot: %w", err)
	}

	session := &r.CheckoutSession{
		ID:             uuid.New().String(),
		UserID:         request.UserID,
		IdempotencyKey: request.IdempotencyKey,
		Status:         d.CheckoutStatusInitiated,
		CartSnapshot:   snapshotJSON,
	}
	if err := s.repo.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}

	return s.processPayment(ctx, request, session, snapshot)
}

func (s *CheckoutServiceImpl) processPayment(
	ctx context.Context,
	request *d.CheckoutRequest,
	session *r.CheckoutSession,
	snapshot *d.CartSnapshot) (*d.CheckoutResponse, error) {

	if !d.CanTransitionTo(session.Status, d.CheckoutStatusPaymentPending) {
		return nil, IllegalTransitionError
	}
	if err := s.repo.UpdateSessionStatus(ctx, session.ID, d.CheckoutStatusPaymentPending); err != nil {
		return nil, err
	}

	result, err := s.gateway.Charge(ctx, &payment.ChargeRequest{
		CheckoutID:  session.ID,
		AmountMinor: snapshot.TotalMinor,
		Currency:    snapshot.Currency,
		Description: request.Description,
	})
	if err != nil {
		// The charge never happened; the cart stays untouched so the
		// shopper can retry with a fresh idempotency key.
		if markErr := s.repo.MarkFailed(ctx, session.ID, "payment gateway unavailable"); markErr != nil {
			s.log.Error("failed to mark checkout failed", zap.String("checkout_id", session.ID), zap.Error(markErr))
		}
		return nil, err
	}

	if !result.Succeeded() {
		reason := payment.FailureMessage(result)
		if markErr := s.repo.MarkFailed(ctx, session.ID, reason); markErr != nil {
			s.log.Error("failed to mark checkout failed", zap.String("checkout_id", session.ID), zap.Error(markErr))
		}
		return &d.CheckoutResponse{
			CheckoutID:    session.ID,
			Status:        d.CheckoutStatusFailed,
			FailureReason: reason,
		}, nil
	}

	if err := s.repo.SetPayment(ctx, session.ID, d.CheckoutStatusPaymentCompleted, result.PaymentID); err != nil {
		return nil, err
	}

	payload, err := CompletedEventPayload(session.ID, request.UserID, snapshot, time.Now())
	if err != nil {
		return nil, err
	}
	if err := s.repo.CompleteSession(ctx, session.ID, EventTypeCheckoutCompleted, payload); err != nil {
		// The poller recovers PAYMENT_COMPLETED sessions later.
		return nil, err
	}

	// The cart empties only after the charge succeeded and the order is
	// on record.
	s.carts.Clear(ctx, request.SessionID)

	s.log.Info("checkout completed",
		zap.String("checkout_id", session.ID),
		zap.String("payment_id", result.PaymentID),
		zap.Int64("total_minor", snapshot.TotalMinor))

	return &d.CheckoutResponse{
		CheckoutID: session.ID,
		Status:     d.CheckoutStatusCompleted,
		PaymentID:  result.PaymentID,
	}, nil
}

// CompletedEventPayload builds the order event body shared by the happy
// path and the stuck-session recovery in the poller.
func CompletedEventPayload(checkoutID, userID string, snapshot *d.CartSnapshot, completedAt time.Time) ([]byte, error) {
	payload := map[string]interface{}{
		"checkout_id":  checkoutID,
		"user_id":      userID,
		"items":        snapshot.Items,
		"total_minor":  snapshot.TotalMinor,
		"currency":     snapshot.Currency,
		"completed_at": completedAt,
	}

	out, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal checkout payload: %w", err)
	}
	return out, nil
}
