// Package kafka publishes run completion events to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/mosslantern/usagecsv/internal/config"
	"github.com/mosslantern/usagecsv/internal/handler"
)

// Notifier produces completion events to a Kafka topic.
// It implements handler.Notifier.
type Notifier struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewNotifier creates a Kafka producer for the configured completion topic.
func NewNotifier(cfg *config.Config, logger *slog.Logger) *Notifier {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Notifier{writer: w, logger: logger}
}

// Name identifies this sink in logs and metrics.
func (n *Notifier) Name() string { return "kafka" }

// NotifyCompletion serializes and publishes one completion event.
func (n *Notifier) NotifyCompletion(ctx context.Context, event handler.CompletionEvent) error {
	msg, err := serializeToMessage(event)
	if err != nil {
		return err
	}
	if err := n.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publishing completion to %s: %w", n.writer.Topic, err)
	}
	n.logger.Debug("completion published", "topic", n.writer.Topic, "run_id", event.RunID)
	return nil
}

func (n *Notifier) Close() error {
	return n.writer.Close()
}

// serializeToMessage marshals a completion event into a Kafka message keyed
// by run ID.
func serializeToMessage(event handler.CompletionEvent) (kafkago.Message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize completion event: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(event.RunID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "source_key", Value: []byte(event.SourceKey)},
			{Key: "completed_at", Value: []byte(event.CompletedAt.Format(time.RFC3339))},
		},
	}, nil
}
