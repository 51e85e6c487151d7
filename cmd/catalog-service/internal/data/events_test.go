package data

import (
	"context"
	"errors"
	"testing"

	"moviecatalog/cmd/catalog-service/internal/conf"
	"moviecatalog/pkg/events"
	"moviecatalog/pkg/resilience"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type flakyPublisher struct {
	calls int
	err   error
}

func (p *flakyPublisher) Publish(context.Context, *events.Event) error {
	p.calls++
	return p.err
}

func (p *flakyPublisher) Close() error { return nil }

func TestGuardedPublisher_OpensAfterFailures(t *testing.T) {
	next := &flakyPublisher{err: errors.New("broker unreachable")}
	pub := newGuardedPublisher(next, zap.NewNop())
	ctx := context.Background()

	ev, err := events.NewEvent(ctx, "movie.created", "m-1", "admin-1", map[string]string{"name": "Heat"})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		assert.Error(t, pub.Publish(ctx, ev))
	}
	assert.ErrorIs(t, pub.Publish(ctx, ev), resilience.ErrCircuitOpen)
	assert.Equal(t, 3, next.calls)
}

func TestGuardedPublisher_PassesThrough(t *testing.T) {
	next := &flakyPublisher{}
	pub := newGuardedPublisher(next, zap.NewNop())

	ev, err := events.NewEvent(context.Background(), "movies.imported", "batch-1", "admin-1", nil)
	require.NoError(t, err)
	assert.NoError(t, pub.Publish(context.Background(), ev))
	assert.Equal(t, 1, next.calls)
}

func TestNewEventPublisher_DisabledWithoutBrokers(t *testing.T) {
	pub, cleanup, err := NewEventPublisher(&conf.Config{}, zap.NewNop())
	require.NoError(t, err)
	defer cleanup()

	assert.IsType(t, events.NopPublisher{}, pub)
}
