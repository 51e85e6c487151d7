package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/IBM/sarama"
	"go.uber.org/zap"
)

// HandlerFunc handles one decoded event.
type HandlerFunc func(ctx context.Context, event *Event) error

// KafkaConsumer Kafka 事件消费者
type KafkaConsumer struct {
	client sarama.ConsumerGroup
	config ConsumerConfig
	logger *zap.Logger
	wg     sync.WaitGroup
}

// ConsumerConfig 消费者配置
type ConsumerConfig struct {
	Brokers       []string
	GroupID       string
	Topics        []string
	InitialOffset int64 // sarama.OffsetNewest or sarama.OffsetOldest
}

// NewKafkaConsumer 创建 Kafka 消费者
func NewKafkaConsumer(config ConsumerConfig, logger *zap.Logger) (*KafkaConsumer, error) {
	if config.GroupID == "" {
		return nil, errors.New("group id cannot be empty")
	}
	if len(config.Topics) == 0 {
		config.Topics = []string{DefaultPublisherConfig().Topic}
	}
	if config.InitialOffset == 0 {
		config.InitialOffset = sarama.OffsetNewest
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	kafkaConfig := sarama.NewConfig()
	kafkaConfig.Version = sarama.V3_6_0_0
	kafkaConfig.Consumer.Return.Errors = true
	kafkaConfig.Consumer.Offsets.Initial = config.InitialOffset
	kafkaConfig.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategyRoundRobin()}

	client, err := sarama.NewConsumerGroup(config.Brokers, config.GroupID, kafkaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer group: %w", err)
	}

	return &KafkaConsumer{client: client, config: config, logger: logger}, nil
}

// Run consumes until ctx is cancelled, calling handle for every event.
func (c *KafkaConsumer) Run(ctx context.Context, handle HandlerFunc) error {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		for err := range c.client.Errors() {
			c.logger.Warn("consumer error", zap.Error(err))
		}
	}()

	h := &consumerGroupHandler{handle: handle, logger: c.logger}
	for {
		if err := c.client.Consume(ctx, c.config.Topics, h); err != nil {
			if errors.Is(err, sarama.ErrClosedConsumerGroup) {
				return nil
			}
			return fmt.Errorf("consume: %w", err)
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

// Close 关闭消费者
func (c *KafkaConsumer) Close() error {
	if err := c.client.Close(); err != nil {
		return fmt.Errorf("failed to close consumer: %w", err)
	}
	c.wg.Wait()
	return nil
}

// consumerGroupHandler Sarama ConsumerGroupHandler 实现
type consumerGroupHandler struct {
	handle HandlerFunc
	logger *zap.Logger
}

func (h *consumerGroupHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (h *consumerGroupHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

// ConsumeClaim 消费消息
func (h *consumerGroupHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for message := range claim.Messages() {
		if err := h.handleMessage(session.Context(), message); err != nil {
			// 继续处理下一条消息，不要因为一条消息失败而停止
			h.logger.Warn("failed to handle message",
				zap.String("topic", message.Topic),
				zap.Int64("offset", message.Offset),
				zap.Error(err))
		}
		session.MarkMessage(message, "")
	}
	return nil
}

// handleMessage 处理单条消息
func (h *consumerGroupHandler) handleMessage(ctx context.Context, message *sarama.ConsumerMessage) error {
	var event Event
	if err := json.Unmarshal(message.Value, &event); err != nil {
		return fmt.Errorf("failed to unmarshal event: %w", err)
	}
	return h.handle(ctx, &event)
}
