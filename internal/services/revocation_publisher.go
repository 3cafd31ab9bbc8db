package service

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/honeynil/BooReviewService/internal/infrastructure/kafka"
	"github.com/honeynil/BooReviewService/internal/models"
	"golang.org/x/crypto/blake2b"
)

// Fingerprint identifies a token in audit records without storing it.
func Fingerprint(token string) string {
	sum := blake2b.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// RevocationPublisher forwards revocation decisions to Kafka for the audit
// consumer.
type RevocationPublisher struct {
	producer kafka.KafkaProducer
	topic    string
}

func NewRevocationPublisher(producer kafka.KafkaProducer, topic string) *RevocationPublisher {
	return &RevocationPublisher{producer: producer, topic: topic}
}

func (p *RevocationPublisher) RecordRevocation(ctx context.Context, rev models.Revocation, token string) error {
	rev.Fingerprint = Fingerprint(token)
	payload, err := json.Marshal(models.RevocationEvent{Type: models.EventTokenRevoked, Revocation: rev})
	if err != nil {
		return fmt.Errorf("failed to marshal revocation event: %w", err)
	}
	return p.producer.Send(ctx, p.topic, rev.SubjectID, payload)
}
