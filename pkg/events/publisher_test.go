package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

func TestKafkaPublisher_Publish(t *testing.T) {
	cfg := mocks.NewTestConfig()
	cfg.Producer.Return.Successes = true
	producer := mocks.NewSyncProducer(t, cfg)
	defer producer.Close()

	pub := NewKafkaPublisherWithProducer(producer, PublisherConfig{Topic: "catalog.events"})

	event, err := NewEvent(context.Background(), "movies.imported", "imports/2026/10/19/x.xlsx", "admin-1", map[string]int{"count": 3})
	require.NoError(t, err)

	producer.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		if msg.Topic != "catalog.events" {
			return errors.New("unexpected topic " + msg.Topic)
		}
		value, err := msg.Value.Encode()
		if err != nil {
			return err
		}
		var got Event
		if err := json.Unmarshal(value, &got); err != nil {
			return err
		}
		if got.Type != "movies.imported" || got.Actor != "admin-1" || string(got.Payload) != `{"count":3}` {
			return errors.New("unexpected event body")
		}
		return nil
	})

	assert.NoError(t, pub.Publish(context.Background(), event))
}

func TestKafkaPublisher_PublishFailure(t *testing.T) {
	cfg := mocks.NewTestConfig()
	cfg.Producer.Return.Successes = true
	producer := mocks.NewSyncProducer(t, cfg)
	defer producer.Close()

	pub := NewKafkaPublisherWithProducer(producer, PublisherConfig{})
	producer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	event, err := NewEvent(context.Background(), "movie.created", "id-1", "admin-1", nil)
	require.NoError(t, err)

	err = pub.Publish(context.Background(), event)
	assert.ErrorIs(t, err, sarama.ErrOutOfBrokers)
}

func TestNewEvent_CorrelatesWithTrace(t *testing.T) {
	traceID, err := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	require.NoError(t, err)
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: trace.SpanID{1}})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	event, err := NewEvent(ctx, "movie.created", "id-1", "", nil)
	require.NoError(t, err)
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", event.CorrelationID)
	assert.NotEmpty(t, event.ID)
	assert.Nil(t, event.Payload)

	event, err = NewEvent(context.Background(), "movie.created", "id-1", "", nil)
	require.NoError(t, err)
	assert.Empty(t, event.CorrelationID)
}

func TestConsumerHandler_HandleMessage(t *testing.T) {
	var seen []string
	h := &consumerGroupHandler{handle: func(_ context.Context, e *Event) error {
		seen = append(seen, e.Type)
		return nil
	}}

	body, err := json.Marshal(Event{ID: "1", Type: "movie.created"})
	require.NoError(t, err)

	require.NoError(t, h.handleMessage(context.Background(), &sarama.ConsumerMessage{Value: body}))
	assert.Error(t, h.handleMessage(context.Background(), &sarama.ConsumerMessage{Value: []byte("{")}))
	assert.Equal(t, []string{"movie.created"}, seen)
}
