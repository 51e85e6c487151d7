package main

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"moviecatalog/pkg/events"

	"github.com/IBM/sarama"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

func newEventsCmd() *cobra.Command {
	var (
		brokers   []string
		topic     string
		group     string
		fromStart bool
	)

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Tail catalog events",
		Long:  `Consumes the catalog event topic and prints every event as a YAML document until interrupted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			offset := sarama.OffsetNewest
			if fromStart {
				offset = sarama.OffsetOldest
			}

			consumer, err := events.NewKafkaConsumer(events.ConsumerConfig{
				Brokers:       brokers,
				GroupID:       group,
				Topics:        []string{topic},
				InitialOffset: offset,
			}, zap.NewNop())
			if err != nil {
				return err
			}
			defer consumer.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			p := newEventPrinter(cmd.OutOrStdout())
			return consumer.Run(ctx, func(_ context.Context, ev *events.Event) error {
				return p.print(ev)
			})
		},
	}

	cmd.Flags().StringSliceVar(&brokers, "brokers", splitList(os.Getenv("KAFKA_BROKERS")), "kafka brokers")
	cmd.Flags().StringVar(&topic, "topic", events.DefaultPublisherConfig().Topic, "event topic")
	cmd.Flags().StringVar(&group, "group", "catalog-service-tail", "consumer group id")
	cmd.Flags().BoolVar(&fromStart, "from-start", false, "start from the oldest retained event")

	return cmd
}

// eventView is the printed form of an event, payload decoded.
type eventView struct {
	ID            string      `yaml:"id"`
	Type          string      `yaml:"type"`
	AggregateID   string      `yaml:"aggregate_id,omitempty"`
	Actor         string      `yaml:"actor,omitempty"`
	CorrelationID string      `yaml:"correlation_id,omitempty"`
	Timestamp     time.Time   `yaml:"timestamp"`
	Payload       interface{} `yaml:"payload,omitempty"`
}

// eventPrinter serializes writes; claims may be consumed concurrently.
type eventPrinter struct {
	mu  sync.Mutex
	enc *yaml.Encoder
}

func newEventPrinter(w io.Writer) *eventPrinter {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	return &eventPrinter{enc: enc}
}

func (p *eventPrinter) print(ev *events.Event) error {
	view := eventView{
		ID:            ev.ID,
		Type:          ev.Type,
		AggregateID:   ev.AggregateID,
		Actor:         ev.Actor,
		CorrelationID: ev.CorrelationID,
		Timestamp:     ev.Timestamp,
	}
	if len(ev.Payload) > 0 {
		if err := json.Unmarshal(ev.Payload, &view.Payload); err != nil {
			view.Payload = string(ev.Payload)
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.enc.Encode(view)
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}
