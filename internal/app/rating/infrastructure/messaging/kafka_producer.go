package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ratingwatch/internal/app/rating/entity"
	"ratingwatch/pkg/metrics"

	"github.com/segmentio/kafka-go"
)

// KafkaProducer публикует события об обновлении рейтинга
type KafkaProducer struct {
	writer *kafka.Writer
	topic  string
}

func NewKafkaProducer(brokers []string, topic string) *KafkaProducer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchSize:    1,
		BatchTimeout: 100 * time.Millisecond,
	}

	return &KafkaProducer{writer: writer, topic: topic}
}

// PublishRatingUpdated сериализует событие и пишет его в топик.
// Ключ - URL источника, чтобы события одного источника шли в одну партицию.
func (p *KafkaProducer) PublishRatingUpdated(ctx context.Context, event *entity.RatingUpdatedEvent) error {
	timer := metrics.NewKafkaProduceTimer("rating-service", p.topic)

	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal rating event: %w", err)
	}

	message := kafka.Message{
		Key:   []byte(event.URL),
		Value: value,
		Time:  time.Now(),
	}

	if err := p.writer.WriteMessages(ctx, message); err != nil {
		timer.Error()
		return fmt.Errorf("failed to write message to kafka: %w", err)
	}

	timer.Success()

	return nil
}

func (p *KafkaProducer) Close() error {
	return p.writer.Close()
}
