package repository

import (
	"context"

	"NextClose/internal/domain/models"
	domrepo "NextClose/internal/domain/repository"
	pkgkafka "NextClose/pkg/kafka"
)

// KafkaPublisher emits forecast events keyed by ticker.
type KafkaPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

func NewKafkaPublisher(producer *pkgkafka.Producer, topic string) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

func (p *KafkaPublisher) Publish(ctx context.Context, ev models.ForecastEvent) error {
	return p.producer.Publish(ctx, p.topic, []byte(ev.Ticker), ev)
}

// PublishMessage lets the log collector share the producer.
func (p *KafkaPublisher) PublishMessage(ctx context.Context, topic string, payload interface{}) error {
	return p.producer.Publish(ctx, topic, nil, payload)
}

func (p *KafkaPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

var _ domrepo.Publisher = (*KafkaPublisher)(nil)
