package publisher

import (
	"context"
	"encoding/json"
	"time"

	d "github.com/Kamohel0/green-public-website/internal/checkout/domain"
	r "github.com/Kamohel0/green-public-website/internal/checkout/repository"
	"github.com/Kamohel0/green-public-website/internal/checkout/service"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const Topic = "checkout-completed"

// MessageWriter is the slice of kafka.Writer the poller uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type OutboxPoller struct {
	eventTick    time.Duration
	recoveryTick time.Duration
	stuckAfter   time.Duration
	repo         r.RepoInterface
	writer       MessageWriter
	log          *zap.Logger
}

func NewOutboxPoller(repo r.RepoInterface, log *zap.Logger, brokers ...string) *OutboxPoller {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  Topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
	return &OutboxPoller{
		eventTick:    time.Second,
		recoveryTick: 5 * time.Second,
		stuckAfter:   30 * time.Second,
		repo:         repo,
		writer:       w,
		log:          log,
	}
}

func (p *OutboxPoller) Run(ctx context.Context) {
	eventTicker := time.NewTicker(p.eventTick)
	recoveryTicker := time.NewTicker(p.recoveryTick)
	defer eventTicker.Stop()
	defer recoveryTicker.Stop()
	for {
		select {
		case <-eventTicker.C:
			p.processUnpublishedEvents(ctx)
		case <-recoveryTicker.C:
			p.recoverStuckSessions(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (p *OutboxPoller) processUnpublishedEvents(ctx context.Context) {
	events, err := p.repo.GetUnprocessedEvents(ctx, 100)
	if err != nil {
		p.log.Error("failed to fetch outbox events", zap.Error(err))
		return
	}

	for _, event := range events {
		if errPublish := p.publishToKafka(ctx, event); errPublish != nil {
			p.log.Error("failed to publish event", zap.Int64("event_id", event.ID), zap.Error(errPublish))
			continue
		}

		if errMark := p.repo.MarkEventAsProcessed(ctx, event.ID); errMark != nil {
			p.log.Error("failed to mark event as processed", zap.Int64("event_id", event.ID), zap.Error(errMark))
			continue
		}
	}
}

// recoverStuckSessions finishes checkouts whose payment completed but
// that crashed before reaching COMPLETED, so every paid order still
// produces its outbox event.
func (p *OutboxPoller) recoverStuckSessions(ctx context.Context) {
	sessions, err := p.repo.GetStuckSessions(ctx, p.stuckAfter)
	if err != nil {
		p.log.Error("failed to get stuck sessions", zap.Error(err))
		return
	}

	for _, session := range sessions {
		p.log.Info("recovering stuck checkout session", zap.String("checkout_id", session.ID))

		var snapshot d.CartSnapshot
		if err := json.Unmarshal(session.CartSnapshot, &snapshot); err != nil {
			p.log.Error("failed to unmarshal cart snapshot", zap.String("checkout_id", session.ID), zap.Error(err))
			continue
		}

		payload, err := service.CompletedEventPayload(session.ID, session.UserID, &snapshot, session.UpdatedAt)
		if err != nil {
			p.log.Error("failed to build checkout payload", zap.String("checkout_id", session.ID), zap.Error(err))
			continue
		}

		if err := p.repo.CompleteSession(ctx, session.ID, service.EventTypeCheckoutCompleted, payload); err != nil {
			p.log.Error("failed to complete checkout in poller", zap.String("checkout_id", session.ID), zap.Error(err))
			continue
		}

		p.log.Info("session recovered", zap.String("checkout_id", session.ID))
	}
}

func (p *OutboxPoller) publishToKafka(ctx context.Context, event *r.OutboxEvent) error {
	msg := kafka.Message{
		Key:   []byte(event.AggregateId), // checkout_id for ordering
		Value: event.Payload,             // already JSON from the database
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
		},
	}

	return p.writer.WriteMessages(ctx, msg)
}
