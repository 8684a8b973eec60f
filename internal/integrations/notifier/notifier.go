package notifier

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
)

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// FailureRecorder учитывает недоставленные события
type FailureRecorder interface {
	IncNotificationFailed(event string)
}

// Envelope конверт события, отправляемый подписчикам
type Envelope struct {
	EventID    string           `json:"eventId"`
	EventType  domain.EventType `json:"eventType"`
	OccurredAt time.Time        `json:"occurredAt"`
	Payload    interface{}      `json:"payload"`
}

// NewEnvelope создает конверт события с новым идентификатором
func NewEnvelope(event domain.EventType, payload interface{}, at time.Time) Envelope {
	return Envelope{
		EventID:    uuid.NewString(),
		EventType:  event,
		OccurredAt: at.UTC(),
		Payload:    payload,
	}
}

// Marshal сериализует конверт в JSON
func (e Envelope) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

// LogNotifier пишет события в лог
// Используется, когда брокер сообщений не настроен
type LogNotifier struct {
	log Logger
}

// NewLogNotifier создает notifier, пишущий события в лог
func NewLogNotifier(log Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

// Publish записывает событие в лог
func (n *LogNotifier) Publish(_ context.Context, event domain.EventType, key string, payload interface{}) {
	body, err := NewEnvelope(event, payload, time.Now()).Marshal()
	if err != nil {
		n.log.Error("Notifier: failed to marshal event=%s key=%s: %v", event, key, err)
		return
	}
	n.log.Info("Notifier: event=%s key=%s payload=%s", event, key, body)
}

// Close ничего не делает
func (n *LogNotifier) Close() error {
	return nil
}
