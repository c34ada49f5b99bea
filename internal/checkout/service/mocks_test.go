package service

import (
	"context"
	"time"

	cartdomain "github.com/Kamohel0/green-public-website/internal/cart/domain"
	d "github.com/Kamohel0/green-public-website/internal/checkout/domain"
	r "github.com/Kamohel0/green-public-website/internal/checkout/repository"
	"github.com/Kamohel0/green-public-website/internal/payment"
)

// MockRepository implements r.RepoInterface for testing
type MockRepository struct {
	ExistingSession *r.CheckoutSession
	GetErr          error
	CreateErr       error
	CreatedSession  *r.CheckoutSession
	StatusUpdates   []d.CheckoutStatus
	PaymentID       string
	FailedReason    string
	CompletedID     string
	CompleteErr     error
	OutboxPayload   []byte
}

func (m *MockRepository) GetSessionByIdempotencyKey(_ context.Context, _ string) (*r.CheckoutSession, error) {
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	if m.ExistingSession != nil {
		return m.ExistingSession, nil
	}
	return nil, r.ErrIdempotencyKeyNotFound
}

func (m *MockRepository) CreateSession(_ context.Context, session *r.CheckoutSession) error {
	m.CreatedSession = session
	return m.CreateErr
}

func (m *MockRepository) UpdateSessionStatus(_ context.Context, _ string, status d.CheckoutStatus) error {
	m.StatusUpdates = append(m.StatusUpdates, status)
	return nil
}

func (m *MockRepository) SetPayment(_ context.Context, _ string, status d.CheckoutStatus, paymentID string) error {
	m.StatusUpdates = append(m.StatusUpdates, status)
	m.PaymentID = paymentID
	return nil
}

func (m *MockRepository) MarkFailed(_ context.Context, _ string, reason string) error {
	m.StatusUpdates = append(m.StatusUpdates, d.CheckoutStatusFailed)
	m.FailedReason = reason
	return nil
}

func (m *MockRepository) CompleteSession(_ context.Context, id, _ string, payload []byte) error {
	if m.CompleteErr != nil {
		return m.CompleteErr
	}
	m.StatusUpdates = append(m.StatusUpdates, d.CheckoutStatusCompleted)
	m.CompletedID = id
	m.OutboxPayload = payload
	return nil
}

func (m *MockRepository) GetUnprocessedEvents(context.Context, int) ([]*r.OutboxEvent, error) {
	return nil, nil
}

func (m *MockRepository) MarkEventAsProcessed(context.Context, int64) error {
	return nil
}

func (m *MockRepository) GetStuckSessions(context.Context, time.Duration) ([]*r.CheckoutSession, error) {
	return nil, nil
}

// MockCarts implements CartAccess for testing
type MockCarts struct {
	Cart    *cartdomain.Cart
	Cleared bool
}

func (m *MockCarts) Get(_ context.Context, sessionID string) *cartdomain.Cart {
	if m.Cart == nil {
		return &cartdomain.Cart{SessionID: sessionID}
	}
	return m.Cart
}

func (m *MockCarts) Clear(_ context.Context, sessionID string) *cartdomain.Cart {
	m.Cleared = true
	m.Cart = &cartdomain.Cart{SessionID: sessionID}
	return m.Cart
}

// MockGateway implements payment.Gateway for testing
type MockGateway struct {
	Result  *payment.ChargeResult
	Err     error
	Charged *payment.ChargeRequest
}

func (m *MockGateway) Charge(_ context.Context, req *payment.ChargeRequest) (*payment.ChargeResult, error) {
	m.Charged = req
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Result, nil
}
