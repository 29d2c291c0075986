package notification

import (
	"context"
	"encoding/json"
	"fmt"

	"qrorder-be/internal/logger"

	"github.com/IBM/sarama"
	"go.uber.org/zap"
)

// KafkaPublisher mirrors notifications onto a topic for out-of-process consumers
// (printers, POS bridges). Messages are keyed by channel so per-store order is kept.
type KafkaPublisher struct {
	producer sarama.SyncProducer
	topic    string
}

func NewKafkaPublisher(brokers []string, topic string) (*KafkaPublisher, error) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("connect kafka %v: %w", brokers, err)
	}
	logger.L().Info("kafka producer connected", zap.Strings("brokers", brokers))
	return NewKafkaPublisherWithProducer(producer, topic), nil
}

func NewKafkaPublisherWithProducer(producer sarama.SyncProducer, topic string) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

func (p *KafkaPublisher) Push(ctx context.Context, n *Notification) error {
	value, err := json.Marshal(map[string]any{
		"event_type": n.Type,
		"channel":    n.Channel(),
		"data":       n,
	})
	if err != nil {
		return err
	}

	partition, offset, err := p.producer.SendMessage(&sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(n.Channel()),
		Value: sarama.ByteEncoder(value),
	})
	if err != nil {
		return fmt.Errorf("publish notification %d: %w", n.ID, err)
	}

	logger.FromCtx(ctx).Debug("notification published",
		zap.String("topic", p.topic),
		zap.Int32("partition", partition),
		zap.Int64("offset", offset),
	)
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}
