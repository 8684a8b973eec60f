package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/pkg/logger"
)

type fakeWriter struct {
	mu       sync.Mutex
	messages []kafka.Message
	err      error
	closed   bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

type failureCounter struct {
	mu     sync.Mutex
	events []string
}

func (c *failureCounter) IncNotificationFailed(event string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
}

func TestKafkaNotifier_PublishesEnvelope(t *testing.T) {
	writer := &fakeWriter{}
	n := NewKafkaNotifier(writer, KafkaConfig{TopicPrefix: "scheduling."}, nil, logger.NewNop())

	n.Publish(context.Background(), domain.EventBookingCreated, "1:10", map[string]int64{"id": 5})
	require.NoError(t, n.Close())

	require.Len(t, writer.messages, 1)
	msg := writer.messages[0]
	assert.Equal(t, "scheduling.booking.created", msg.Topic)
	assert.Equal(t, []byte("1:10"), msg.Key)
	assert.True(t, writer.closed)

	var envelope struct {
		EventID   string           `json:"eventId"`
		EventType string           `json:"eventType"`
		Payload   map[string]int64 `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(msg.Value, &envelope))
	assert.NotEmpty(t, envelope.EventID)
	assert.Equal(t, "booking.created", envelope.EventType)
	assert.Equal(t, int64(5), envelope.Payload["id"])
	assert.Equal(t, envelope.EventID, string(msg.Headers[0].Value))
}

func TestKafkaNotifier_DeliveryFailureIsRecorded(t *testing.T) {
	writer := &fakeWriter{err: errors.New("broker down")}
	failures := &failureCounter{}
	n := NewKafkaNotifier(writer, KafkaConfig{}, failures, logger.NewNop())

	n.Publish(context.Background(), domain.EventBookingCancelled, "1:10", nil)
	require.NoError(t, n.Close())

	assert.Equal(t, []string{"booking.cancelled"}, failures.events)
}

func TestKafkaNotifier_CloseIsIdempotent(t *testing.T) {
	n := NewKafkaNotifier(&fakeWriter{}, KafkaConfig{}, nil, logger.NewNop())
	require.NoError(t, n.Close())
	require.NoError(t, n.Close())
}
