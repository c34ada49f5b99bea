package repository_test

import (
	"context"
	"testing"
	"time"

	d "github.com/Kamohel0/green-public-website/internal/checkout/domain"
	"github.com/Kamohel0/green-public-website/internal/checkout/repository"
	"github.com/Kamohel0/green-public-website/internal/database"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRepo(t *testing.T) *repository.Repository {
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.RunMigrations(db))

	return repository.NewRepository(db)
}

func newSession(key string) *repository.CheckoutSession {
	return &repository.CheckoutSession{
		ID:             uuid.New().String(),
		UserID:         "u-1",
		IdempotencyKey: key,
		Status:         d.CheckoutStatusInitiated,
		CartSnapshot:   []byte(`{"total_minor":75000,"currency":"ZAR"}`),
	}
}

func TestCreateAndGetByIdempotencyKey(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	session := newSession("idem-1")
	require.NoError(t, repo.CreateSession(ctx, session))

	got, err := repo.GetSessionByIdempotencyKey(ctx, "idem-1")
	require.NoError(t, err)
	assert.Equal(t, session.ID, got.ID)
	assert.Equal(t, d.CheckoutStatusInitiated, got.Status)
	assert.JSONEq(t, `{"total_minor":75000,"currency":"ZAR"}`, string(got.CartSnapshot))
	assert.Empty(t, got.PaymentID)
}

func TestGetByIdempotencyKey_NotFound(t *testing.T) {
	repo := setupRepo(t)

	_, err := repo.GetSessionByIdempotencyKey(context.Background(), "missing")
	assert.ErrorIs(t, err, repository.ErrIdempotencyKeyNotFound)
}

func TestStatusAndPaymentUpdates(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	session := newSession("idem-1")
	require.NoError(t, repo.CreateSession(ctx, session))

	require.NoError(t, repo.UpdateSessionStatus(ctx, session.ID, d.CheckoutStatusPaymentPending))
	require.NoError(t, repo.SetPayment(ctx, session.ID, d.CheckoutStatusPaymentCompleted, "pay-1"))

	got, err := repo.GetSessionByIdempotencyKey(ctx, "idem-1")
	require.NoError(t, err)
	assert.Equal(t, d.CheckoutStatusPaymentCompleted, got.Status)
	assert.Equal(t, "pay-1", got.PaymentID)
}

func TestMarkFailed(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	session := newSession("idem-1")
	require.NoError(t, repo.CreateSession(ctx, session))
	require.NoError(t, repo.MarkFailed(ctx, session.ID, "Payment failed: insufficient_funds"))

	got, err := repo.GetSessionByIdempotencyKey(ctx, "idem-1")
	require.NoError(t, err)
	assert.Equal(t, d.CheckoutStatusFailed, got.Status)
	assert.Equal(t, "Payment failed: insufficient_funds", got.FailureReason)
}

func TestCompleteSession_WritesOutboxAtomically(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	session := newSession("idem-1")
	require.NoError(t, repo.CreateSession(ctx, session))

	require.NoError(t, repo.CompleteSession(ctx, session.ID, "checkout.completed", []byte(`{"total_minor":75000}`)))

	got, err := repo.GetSessionByIdempotencyKey(ctx, "idem-1")
	require.NoError(t, err)
	assert.Equal(t, d.CheckoutStatusCompleted, got.Status)

	events, err := repo.GetUnprocessedEvents(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, session.ID, events[0].AggregateId)
	assert.Equal(t, "checkout.completed", events[0].EventType)
	assert.Nil(t, events[0].ProcessedAt)
}

func TestMarkEventAsProcessed(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	session := newSession("idem-1")
	require.NoError(t, repo.CreateSession(ctx, session))
	require.NoError(t, repo.CompleteSession(ctx, session.ID, "checkout.completed", []byte(`{}`)))

	events, err := repo.GetUnprocessedEvents(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)

	require.NoError(t, repo.MarkEventAsProcessed(ctx, events[0].ID))

	events, err = repo.GetUnprocessedEvents(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestGetStuckSessions(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	stuck := newSession("idem-stuck")
	require.NoError(t, repo.CreateSession(ctx, stuck))
	require.NoError(t, repo.SetPayment(ctx, stuck.ID, d.CheckoutStatusPaymentCompleted, "pay-1"))

	fresh := newSession("idem-fresh")
	require.NoError(t, repo.CreateSession(ctx, fresh))

	// Nothing is stuck yet: the paid session was just updated.
	sessions, err := repo.GetStuckSessions(ctx, time.Minute)
	require.NoError(t, err)
	assert.Empty(t, sessions)

	// With a zero threshold the paid-but-incomplete session qualifies.
	sessions, err = repo.GetStuckSessions(ctx, 0)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, stuck.ID, sessions[0].ID)
}
