package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	d "github.com/Kamohel0/green-public-website/internal/checkout/domain"
)

var ErrIdempotencyKeyNotFound = errors.New("idempotency key not found")

type CheckoutSession struct {
	ID             string
	UserID         string
	IdempotencyKey string
	Status         d.CheckoutStatus
	CartSnapshot   []byte
	PaymentID      string
	FailureReason  string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type OutboxEvent struct {
	ID          int64
	AggregateId string
	EventType   string
	Payload     []byte
	CreatedAt   time.Time
	ProcessedAt *time.Time
}

type RepoInterface interface {
	GetSessionByIdempotencyKey(ctx context.Context, key string) (*CheckoutSession, error)
	CreateSession(ctx context.Context, session *CheckoutSession) error
	UpdateSessionStatus(ctx context.Context, id string, status d.CheckoutStatus) error
	SetPayment(ctx context.Context, id string, status d.CheckoutStatus, paymentID string) error
	MarkFailed(ctx context.Context, id, reason string) error
	CompleteSession(ctx context.Context, id, eventType string, payload []byte) error
	GetUnprocessedEvents(ctx context.Context, limit int) ([]*OutboxEvent, error)
	MarkEventAsProcessed(ctx context.Context, eventID int64) error
	GetStuckSessions(ctx context.Context, olderThan time.Duration) ([]*CheckoutSession, error)
}

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const sessionColumns = `id, user_id, idempotency_key, status, cart_snapshot, payment_id, failure_reason, created_at, updated_at`

func (r *Repository) GetSessionByIdempotencyKey(ctx context.Context, key string) (*CheckoutSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM checkout_sessions WHERE idempotency_key = ?`

	session, err := scanSession(r.db.QueryRowContext(ctx, query, key))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrIdempotencyKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get checkout session: %w", err)
	}
	return session, nil
}

func (r *Repository) CreateSession(ctx context.Context, session *CheckoutSession) error {
	now := time.Now()
	session.CreatedAt = now
	session.UpdatedAt = now

	query := `
		INSERT INTO checkout_sessions (id, user_id, idempotency_key, status, cart_snapshot, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		session.ID, session.UserID, session.IdempotencyKey, string(session.Status),
		string(session.CartSnapshot), session.CreatedAt, session.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create checkout session: %w", err)
	}
	return nil
}

func (r *Repository) UpdateSessionStatus(ctx context.Context, id string, status d.CheckoutStatus) error {
	query := `UPDATE checkout_sessions SET status = ?, updated_at = ? WHERE id = ?`

	_, err := r.db.ExecContext(ctx, query, string(status), time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update checkout status: %w", err)
	}
	return nil
}

func (r *Repository) SetPayment(ctx context.Context, id string, status d.CheckoutStatus, paymentID string) error {
	query := `UPDATE checkout_sessions SET status = ?, payment_id = ?, updated_at = ? WHERE id = ?`

	_, err := r.db.ExecContext(ctx, query, string(status), paymentID, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to set payment: %w", err)
	}
	return nil
}

func (r *Repository) MarkFailed(ctx context.Context, id, reason string) error {
	query := `UPDATE checkout_sessions SET status = ?, failure_reason = ?, updated_at = ? WHERE id = ?`

	_, err := r.db.ExecContext(ctx, query, string(d.CheckoutStatusFailed), reason, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to mark checkout failed: %w", err)
	}
	return nil
}

// CompleteSession flips the session to COMPLETED and records the outbox
// event in the same transaction, so an order event is written if and
// only if the checkout completed.
func (r *Repository) CompleteSession(ctx context.Context, id, eventType string, payload []byte) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()
	_, err = tx.ExecContext(ctx,
		`UPDATE checkout_sessions SET status = ?, updated_at = ? WHERE id = ?`,
		string(d.CheckoutStatusCompleted), now, id)
	if err != nil {
		return fmt.Errorf("failed to complete checkout session: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO outbox_events (aggregate_id, event_type, payload, created_at) VALUES (?, ?, ?, ?)`,
		id, eventType, string(payload), now)
	if err != nil {
		return fmt.Errorf("failed to insert outbox event: %w", err)
	}

	return tx.Commit()
}

func (r *Repository) GetUnprocessedEvents(ctx context.Context, limit int) ([]*OutboxEvent, error) {
	query := `
		SELECT id, aggregate_id, event_type, payload, created_at, processed_at
		FROM outbox_events
		WHERE processed_at IS NULL
		ORDER BY id
		LIMIT ?
	`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query outbox events: %w", err)
	}
	defer rows.Close()

	var events []*OutboxEvent
	for rows.Next() {
		e := &OutboxEvent{}
		var payload string
		var processedAt sql.NullTime
		if err := rows.Scan(&e.ID, &e.AggregateId, &e.EventType, &payload, &e.CreatedAt, &processedAt); err != nil {
			return nil, fmt.Errorf("failed to scan outbox event: %w", err)
		}
		e.Payload = []byte(payload)
		if processedAt.Valid {
			t := processedAt.Time
			e.ProcessedAt = &t
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (r *Repository) MarkEventAsProcessed(ctx context.Context, eventID int64) error {
	query := `UPDATE outbox_events SET processed_at = ? WHERE id = ?`

	_, err := r.db.ExecContext(ctx, query, time.Now(), eventID)
	if err != nil {
		return fmt.Errorf("failed to mark event as processed: %w", err)
	}
	return nil
}

// GetStuckSessions finds sessions whose payment completed but that never
// reached COMPLETED, so the poller can finish them after a crash.
func (r *Repository) GetStuckSessions(ctx context.Context, olderThan time.Duration) ([]*CheckoutSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM checkout_sessions WHERE status = ? AND updated_at < ?`

	rows, err := r.db.QueryContext(ctx, query,
		string(d.CheckoutStatusPaymentCompleted), time.Now().Add(-olderThan))
	if err != nil {
		return nil, fmt.Errorf("failed to query stuck sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*CheckoutSession
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan stuck session: %w", err)
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*CheckoutSession, error) {
	s := &CheckoutSession{}
	var status, snapshot string
	var paymentID, failureReason sql.NullString

	err := row.Scan(&s.ID, &s.UserID, &s.IdempotencyKey, &status, &snapshot,
		&paymentID, &failureReason, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}

	s.Status = d.CheckoutStatus(status)
	s.CartSnapshot = []byte(snapshot)
	s.PaymentID = paymentID.String
	s.FailureReason = failureReason.String
	return s, nil
}
