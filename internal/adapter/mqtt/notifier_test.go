package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mosslantern/usagecsv/internal/handler"
)

type fakeToken struct {
	err error
}

func (t *fakeToken) Wait() bool                     { return true }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t *fakeToken) Error() error                   { return t.err }

func (t *fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

// fakeClient records the last publish. Unstubbed interface methods panic,
// which is fine: the notifier only publishes and disconnects.
type fakeClient struct {
	pahomqtt.Client

	topic        string
	qos          byte
	retained     bool
	payload      []byte
	publishErr   error
	disconnected bool
}

func (c *fakeClient) IsConnected() bool { return true }

func (c *fakeClient) Disconnect(uint) { c.disconnected = true }

func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) pahomqtt.Token {
	c.topic = topic
	c.qos = qos
	c.retained = retained
	c.payload = payload.([]byte)
	return &fakeToken{err: c.publishErr}
}

func newTestNotifier(client pahomqtt.Client) *Notifier {
	return &Notifier{
		client: client,
		topic:  "usagecsv/completions",
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestNotifyCompletion_PublishesRetainedJSON(t *testing.T) {
	client := &fakeClient{}
	n := newTestNotifier(client)

	event := handler.CompletionEvent{
		RunID:        "3f1c0c8e-9df5-4f0e-a7a1-6d57cc2b8f3a",
		SourceBucket: "uploads",
		SourceKey:    "pse_export.zip",
		OutputBucket: "converted",
		Keys:         []string{"electricity_20241201_20241231.csv"},
		CompletedAt:  time.Date(2024, 12, 26, 8, 40, 0, 0, time.UTC),
	}

	require.NoError(t, n.NotifyCompletion(context.Background(), event))

	assert.Equal(t, "usagecsv/completions", client.topic)
	assert.Equal(t, byte(1), client.qos)
	assert.True(t, client.retained, "completions are retained for late subscribers")

	var got handler.CompletionEvent
	require.NoError(t, json.Unmarshal(client.payload, &got))
	assert.Equal(t, event.RunID, got.RunID)
	assert.Equal(t, event.Keys, got.Keys)
	assert.True(t, got.CompletedAt.Equal(event.CompletedAt))
}

func TestNotifyCompletion_PublishError(t *testing.T) {
	client := &fakeClient{publishErr: errors.New("broker unavailable")}
	n := newTestNotifier(client)

	err := n.NotifyCompletion(context.Background(), handler.CompletionEvent{RunID: "run-1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "usagecsv/completions")
}

func TestNotifier_Name(t *testing.T) {
	assert.Equal(t, "mqtt", newTestNotifier(&fakeClient{}).Name())
}

func TestNotifier_Close(t *testing.T) {
	client := &fakeClient{}
	newTestNotifier(client).Close()
	assert.True(t, client.disconnected)
}
