package repository

import (
	"context"
	"fmt"

	"SkyIndex/internal/domain/models"
	drepo "SkyIndex/internal/domain/repository"
	pkgkafka "SkyIndex/pkg/kafka"
)

// KafkaSnapshotPublisher pushes completed snapshots to the downstream topic.
// Messages are keyed by minute so a recalculated snapshot compacts against
// its original.
type KafkaSnapshotPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

func NewKafkaSnapshotPublisher(producer *pkgkafka.Producer, topic string) *KafkaSnapshotPublisher {
	return &KafkaSnapshotPublisher{producer: producer, topic: topic}
}

func (p *KafkaSnapshotPublisher) Publish(ctx context.Context, snapshot *models.IndexSnapshot) error {
	key := []byte(snapshot.Timestamp.UTC().Format("2006-01-02T15:04"))
	if err := p.producer.Publish(ctx, p.topic, key, snapshot); err != nil {
		return fmt.Errorf("publish snapshot: %w", err)
	}
	return nil
}

func (p *KafkaSnapshotPublisher) Close() error {
	return p.producer.Close()
}

var _ drepo.SnapshotPublisher = (*KafkaSnapshotPublisher)(nil)
