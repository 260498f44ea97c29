package outbox

import (
	"context"
	"log/slog"
	"time"

	"commerce-core/internal/model"
	"commerce-core/internal/repository"

	"github.com/segmentio/kafka-go"
)

// MessageWriter is the part of *kafka.Writer the relay needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// Relay publishes committed outbox events to Kafka. Delivery is at least
// once: an event that was written but not marked sent is published again
// on the next tick, so consumers dedupe on the event_id header.
type Relay struct {
	repo      repository.OutboxRepository
	writer    MessageWriter
	log       *slog.Logger
	interval  time.Duration
	batchSize int
}

func NewKafkaWriter(brokers ...string) *kafka.Writer {
	// Topic is left empty, every message carries its own.
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
		RequiredAcks:           kafka.RequireAll,
	}
}

func NewRelay(repo repository.OutboxRepository, writer MessageWriter, log *slog.Logger, interval time.Duration, batchSize int) *Relay {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	if batchSize <= 0 {
		batchSize = 100
	}
	return &Relay{
		repo:      repo,
		writer:    writer,
		log:       log,
		interval:  interval,
		batchSize: batchSize,
	}
}

func (r *Relay) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.log.InfoContext(ctx, "outbox relay started", "interval", r.interval)
	for {
		select {
		case <-ticker.C:
			r.Flush(ctx)
		case <-ctx.Done():
			r.log.Info("outbox relay stopped")
			return
		}
	}
}

// Flush publishes one batch of pending events and returns how many were
// marked sent.
func (r *Relay) Flush(ctx context.Context) int {
	events, err := r.repo.FetchPending(ctx, r.batchSize)
	if err != nil {
		r.log.ErrorContext(ctx, "fetch outbox events", "error", err)
		return 0
	}

	sent := 0
	for _, event := range events {
		if err := r.writer.WriteMessages(ctx, toMessage(event)); err != nil {
			r.log.WarnContext(ctx, "publish outbox event",
				"event_id", event.EventID,
				"topic", event.Topic,
				"error", err,
			)
			// keep ordering per batch, retry the rest next tick
			break
		}

		if err := r.repo.MarkSent(ctx, event.ID); err != nil {
			r.log.ErrorContext(ctx, "mark outbox event sent", "event_id", event.EventID, "error", err)
			break
		}
		sent++
	}

	return sent
}

func toMessage(event *model.OutboxEvent) kafka.Message {
	return kafka.Message{
		Topic: event.Topic,
		Key:   []byte(event.Key),
		Value: event.Payload,
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(event.EventID)},
			{Key: "event_type", Value: []byte(event.Topic)},
		},
		Time: event.CreatedAt,
	}
}
