package data

import (
	"context"

	"moviecatalog/cmd/catalog-service/internal/conf"
	"moviecatalog/pkg/events"
	"moviecatalog/pkg/resilience"

	"go.uber.org/zap"
)

// guardedPublisher stops calling a failing broker until the breaker
// half-opens, so a broker outage costs one fast error per event.
type guardedPublisher struct {
	next    events.Publisher
	breaker *resilience.Breaker
}

// NewEventPublisher 创建事件发布器，未配置 Kafka 时返回空实现
func NewEventPublisher(cfg *conf.Config, logger *zap.Logger) (events.Publisher, func(), error) {
	if len(cfg.Kafka.Brokers) == 0 {
		logger.Info("kafka not configured, catalog events disabled")
		return events.NopPublisher{}, func() {}, nil
	}

	pubCfg := events.DefaultPublisherConfig()
	pubCfg.Brokers = cfg.Kafka.Brokers
	if cfg.Kafka.Topic != "" {
		pubCfg.Topic = cfg.Kafka.Topic
	}

	kp, err := events.NewKafkaPublisher(pubCfg)
	if err != nil {
		return nil, nil, err
	}

	pub := newGuardedPublisher(kp, logger)
	cleanup := func() {
		if err := pub.Close(); err != nil {
			logger.Error("failed to close event publisher", zap.Error(err))
		}
	}
	return pub, cleanup, nil
}

func newGuardedPublisher(next events.Publisher, logger *zap.Logger) *guardedPublisher {
	return &guardedPublisher{
		next:    next,
		breaker: resilience.NewBreaker(resilience.DefaultBreakerConfig("event-publisher"), logger),
	}
}

func (p *guardedPublisher) Publish(ctx context.Context, event *events.Event) error {
	return p.breaker.Execute(ctx, func(ctx context.Context) error {
		return p.next.Publish(ctx, event)
	})
}

func (p *guardedPublisher) Close() error {
	return p.next.Close()
}
