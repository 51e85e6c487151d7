package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

// Event is the JSON envelope published for every catalog event.
type Event struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Version       string          `json:"version"`
	AggregateID   string          `json:"aggregate_id,omitempty"`
	Actor         string          `json:"actor,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Timestamp     time.Time       `json:"timestamp"`
	Payload       json.RawMessage `json:"payload,omitempty"`
}

// NewEvent builds an event with a marshalled payload. The correlation id is
// the active trace id when the context carries a sampled span.
func NewEvent(ctx context.Context, eventType, aggregateID, actor string, payload interface{}) (*Event, error) {
	var raw json.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal payload: %w", err)
		}
		raw = b
	}

	return &Event{
		ID:            uuid.New().String(),
		Type:          eventType,
		Version:       "v1",
		AggregateID:   aggregateID,
		Actor:         actor,
		CorrelationID: getCorrelationID(ctx),
		Timestamp:     time.Now().UTC(),
		Payload:       raw,
	}, nil
}

// getCorrelationID 从上下文获取关联ID
func getCorrelationID(ctx context.Context) string {
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		return sc.TraceID().String()
	}
	return ""
}
