package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
)

// Publisher 事件发布器接口
type Publisher interface {
	// Publish 发布事件
	Publish(ctx context.Context, event *Event) error

	// Close 关闭发布器
	Close() error
}

// KafkaPublisher Kafka 事件发布器
type KafkaPublisher struct {
	producer sarama.SyncProducer
	config   PublisherConfig
}

// PublisherConfig 发布器配置
type PublisherConfig struct {
	Brokers      []string
	Topic        string
	RetryMax     int
	RequiredAcks sarama.RequiredAcks
	Timeout      time.Duration
}

// DefaultPublisherConfig 默认配置
func DefaultPublisherConfig() PublisherConfig {
	return PublisherConfig{
		Brokers:      []string{"localhost:9092"},
		Topic:        "catalog.events",
		RetryMax:     3,
		RequiredAcks: sarama.WaitForLocal,
		Timeout:      5 * time.Second,
	}
}

// NewKafkaPublisher 创建 Kafka 发布器
func NewKafkaPublisher(config PublisherConfig) (*KafkaPublisher, error) {
	def := DefaultPublisherConfig()
	if config.Topic == "" {
		config.Topic = def.Topic
	}
	if config.Timeout == 0 {
		config.Timeout = def.Timeout
	}

	kafkaConfig := sarama.NewConfig()
	kafkaConfig.Producer.Return.Successes = true
	kafkaConfig.Producer.Return.Errors = true
	kafkaConfig.Producer.RequiredAcks = config.RequiredAcks
	kafkaConfig.Producer.Retry.Max = config.RetryMax
	kafkaConfig.Producer.Timeout = config.Timeout
	kafkaConfig.Version = sarama.V3_6_0_0

	producer, err := sarama.NewSyncProducer(config.Brokers, kafkaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	return NewKafkaPublisherWithProducer(producer, config), nil
}

// NewKafkaPublisherWithProducer wraps an existing producer.
func NewKafkaPublisherWithProducer(producer sarama.SyncProducer, config PublisherConfig) *KafkaPublisher {
	if config.Topic == "" {
		config.Topic = DefaultPublisherConfig().Topic
	}
	return &KafkaPublisher{producer: producer, config: config}
}

// Publish 发布事件
func (p *KafkaPublisher) Publish(ctx context.Context, event *Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: p.config.Topic,
		Key:   sarama.StringEncoder(event.AggregateID),
		Value: sarama.ByteEncoder(value),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event_type"), Value: []byte(event.Type)},
			{Key: []byte("correlation_id"), Value: []byte(event.CorrelationID)},
		},
		Timestamp: event.Timestamp,
	}

	if _, _, err := p.producer.SendMessage(msg); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

// Close 关闭发布器
func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}

// NopPublisher drops every event. Used when no brokers are configured.
type NopPublisher struct{}

// Publish 发布事件
func (NopPublisher) Publish(context.Context, *Event) error { return nil }

// Close 关闭
func (NopPublisher) Close() error { return nil }
