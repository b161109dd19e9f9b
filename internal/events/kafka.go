package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/dmehra2102/prod-golang-projects/medflow-scheduling/internal/config"
)

// KafkaPublisher writes events keyed by appointment id, so every event for
// one appointment lands on the same partition in order.
type KafkaPublisher struct {
	writer *kafka.Writer
	log    *zap.Logger
}

func NewKafkaPublisher(cfg config.KafkaConfig, log *zap.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        cfg.Topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
			BatchTimeout: 50 * time.Millisecond,
			WriteTimeout: 5 * time.Second,
		},
		log: log,
	}
}

// NewPublisher picks Kafka when brokers are configured and Noop otherwise.
func NewPublisher(cfg config.KafkaConfig, log *zap.Logger) Publisher {
	if len(cfg.Brokers) == 0 {
		log.Info("kafka brokers not configured, lifecycle events disabled")
		return Noop{}
	}
	return NewKafkaPublisher(cfg, log)
}

func (p *KafkaPublisher) Publish(ctx context.Context, evt Event) error {
	msg, err := toMessage(evt)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publishing %s: %w", evt.Type, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

func toMessage(evt Event) (kafka.Message, error) {
	body, err := json.Marshal(evt)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("encoding %s: %w", evt.Type, err)
	}
	return kafka.Message{
		Key:   []byte(evt.AppointmentID.String()),
		Value: body,
		Time:  evt.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(evt.Type)},
			{Key: "event_id", Value: []byte(evt.ID.String())},
		},
	}, nil
}
