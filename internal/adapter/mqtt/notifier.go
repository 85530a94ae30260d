// Package mqtt publishes run completion events to an MQTT broker.
package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/mosslantern/usagecsv/internal/config"
	"github.com/mosslantern/usagecsv/internal/handler"
)

const (
	connectTimeout = 10 * time.Second
	publishTimeout = 5 * time.Second
)

// Notifier publishes completion events as retained JSON messages, so
// home-automation consumers joining late still see the last conversion.
// It implements handler.Notifier.
type Notifier struct {
	client pahomqtt.Client
	topic  string
	logger *slog.Logger
}

// NewNotifier connects to the configured broker and returns a notifier
// publishing to cfg.MQTTTopic.
func NewNotifier(cfg *config.Config, logger *slog.Logger) (*Notifier, error) {
	opts := pahomqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", cfg.MQTTBroker, cfg.MQTTPort))
	opts.SetClientID(cfg.MQTTClientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectTimeout(connectTimeout)

	if cfg.MQTTUsername != "" {
		opts.SetUsername(cfg.MQTTUsername)
	}
	if cfg.MQTTPassword != "" {
		opts.SetPassword(cfg.MQTTPassword)
	}

	client := pahomqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("connecting to MQTT broker: %w", token.Error())
	}

	return &Notifier{client: client, topic: cfg.MQTTTopic, logger: logger}, nil
}

// Name identifies this sink in logs and metrics.
func (n *Notifier) Name() string { return "mqtt" }

// NotifyCompletion publishes one completion event, retained at QoS 1.
func (n *Notifier) NotifyCompletion(_ context.Context, event handler.CompletionEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encoding completion event: %w", err)
	}

	token := n.client.Publish(n.topic, 1, true, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publishing to %s: timeout after %v", n.topic, publishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publishing to %s: %w", n.topic, err)
	}

	n.logger.Debug("completion published", "topic", n.topic, "run_id", event.RunID)
	return nil
}

// Close disconnects from the broker.
func (n *Notifier) Close() {
	if n.client.IsConnected() {
		n.client.Disconnect(250)
	}
}
