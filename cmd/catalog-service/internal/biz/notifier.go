package biz

import (
	"context"

	"moviecatalog/pkg/events"

	"go.uber.org/zap"
)

// 事件类型
const (
	EventMovieCreated   = "movie.created"
	EventMoviesImported = "movies.imported"
)

// ImportedPayload movies.imported 事件内容
type ImportedPayload struct {
	Count      int    `json:"count"`
	ArchiveKey string `json:"archive_key,omitempty"`
}

// Notifier publishes catalog events. Failures are logged and never
// surface to the request.
type Notifier struct {
	publisher events.Publisher
	logger    *zap.Logger
}

// NewNotifier 创建事件通知器
func NewNotifier(publisher events.Publisher, logger *zap.Logger) *Notifier {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Notifier{publisher: publisher, logger: logger}
}

// Emit 发布事件（尽力而为）
func (n *Notifier) Emit(ctx context.Context, eventType, aggregateID, actor string, payload interface{}) {
	event, err := events.NewEvent(ctx, eventType, aggregateID, actor, payload)
	if err == nil {
		err = n.publisher.Publish(ctx, event)
	}
	if err != nil {
		n.logger.Warn("failed to publish event",
			zap.String("type", eventType),
			zap.String("aggregate_id", aggregateID),
			zap.Error(err))
	}
}
