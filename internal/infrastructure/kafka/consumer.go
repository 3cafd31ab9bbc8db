package kafka

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/honeynil/BooReviewService/internal/infrastructure/observability"
	"github.com/honeynil/BooReviewService/internal/models"
	"github.com/honeynil/BooReviewService/internal/repository"
	"github.com/segmentio/kafka-go"
)

const (
	readRetryDelay    = time.Second
	handleRetryDelay  = 200 * time.Millisecond
	maxHandleAttempts = 3
)

var errMalformedEvent = stderrors.New("malformed revocation event")

// Consumer persists token revocation events into the audit trail.
//
// Audit rows are best effort: an event that cannot be decoded is dropped at
// once, and one that still fails to store after maxHandleAttempts is dropped
// and counted as "dropped". Revocations themselves live in the store and do
// not depend on this trail.
type Consumer struct {
	reader     *kafka.Reader
	auditRepo  repository.RevocationAuditRepository
	retryDelay time.Duration
}

func NewConsumer(brokers []string, topic, groupID string, auditRepo repository.RevocationAuditRepository) *Consumer {
	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:  brokers,
			Topic:    topic,
			GroupID:  groupID,
			MinBytes: 10e3,
			MaxBytes: 10e6,
			MaxWait:  time.Second,
		}),
		auditRepo:  auditRepo,
		retryDelay: handleRetryDelay,
	}
}

// Consume blocks until ctx is cancelled or the reader is closed.
func (c *Consumer) Consume(ctx context.Context) {
	topic := c.reader.Config().Topic
	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || stderrors.Is(err, io.EOF) {
				slog.Info("Kafka consumer stopped", "topic", topic)
				return
			}
			slog.Error("failed to read Kafka message", "topic", topic, "error", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(readRetryDelay):
			}
			continue
		}

		if err := c.process(ctx, msg.Value); err != nil {
			if ctx.Err() != nil {
				return
			}
			observability.AuditEvents.WithLabelValues("dropped").Inc()
			slog.Error("dropping revocation event", "topic", msg.Topic, "offset", msg.Offset, "key", string(msg.Key), "error", err)
		}
	}
}

// process retries storage failures with a doubling delay. Malformed events
// are not retried.
func (c *Consumer) process(ctx context.Context, value []byte) error {
	delay := c.retryDelay
	var err error
	for attempt := 1; attempt <= maxHandleAttempts; attempt++ {
		err = c.handleMessage(ctx, value)
		if err == nil || stderrors.Is(err, errMalformedEvent) || attempt == maxHandleAttempts {
			break
		}
		slog.Warn("retrying revocation event", "attempt", attempt, "error", err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	return err
}

func (c *Consumer) handleMessage(ctx context.Context, value []byte) error {
	var event models.RevocationEvent
	if err := json.Unmarshal(value, &event); err != nil {
		observability.AuditEvents.WithLabelValues("invalid").Inc()
		return fmt.Errorf("%w: %v", errMalformedEvent, err)
	}
	if event.Type != models.EventTokenRevoked {
		observability.AuditEvents.WithLabelValues("skipped").Inc()
		slog.Warn("skipping unknown event type", "type", event.Type)
		return nil
	}

	rev := event.Revocation
	id, err := c.auditRepo.Create(ctx, &rev)
	if err != nil {
		observability.AuditEvents.WithLabelValues("error").Inc()
		return err
	}

	observability.AuditEvents.WithLabelValues("stored").Inc()
	slog.Info("revocation event stored", "id", id, "subject_id", rev.SubjectID, "kind", rev.Kind, "reason", rev.Reason)
	return nil
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
