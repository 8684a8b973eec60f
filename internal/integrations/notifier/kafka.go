package notifier

import (
	"context"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
)

const (
	defaultBufferSize   = 256
	defaultWriteTimeout = 5 * time.Second
)

// MessageWriter отправитель сообщений в Kafka (*kafka.Writer)
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaConfig параметры отправки событий в Kafka
type KafkaConfig struct {
	Brokers      []string
	TopicPrefix  string
	BufferSize   int
	WriteTimeout time.Duration
}

// KafkaNotifier отправляет события в Kafka в фоне
// Publish не блокирует вызывающего: при переполнении буфера событие отбрасывается с записью в лог
type KafkaNotifier struct {
	writer       MessageWriter
	topicPrefix  string
	writeTimeout time.Duration
	failures     FailureRecorder
	log          Logger

	mu     sync.RWMutex
	closed bool
	queue  chan kafka.Message
	wg     sync.WaitGroup
}

// NewKafkaWriter создает writer с хеш-балансировкой по ключу
func NewKafkaWriter(brokers []string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}
}

// NewKafkaNotifier создает notifier и запускает фоновую отправку
func NewKafkaNotifier(writer MessageWriter, cfg KafkaConfig, failures FailureRecorder, log Logger) *KafkaNotifier {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = defaultBufferSize
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = defaultWriteTimeout
	}

	n := &KafkaNotifier{
		writer:       writer,
		topicPrefix:  cfg.TopicPrefix,
		writeTimeout: cfg.WriteTimeout,
		failures:     failures,
		log:          log,
		queue:        make(chan kafka.Message, cfg.BufferSize),
	}

	n.wg.Add(1)
	go n.run()

	return n
}

// Publish ставит событие в очередь отправки
// Топик = префикс + имя события, ключ определяет партицию
func (n *KafkaNotifier) Publish(_ context.Context, event domain.EventType, key string, payload interface{}) {
	envelope := NewEnvelope(event, payload, time.Now())
	body, err := envelope.Marshal()
	if err != nil {
		n.log.Error("KafkaNotifier: failed to marshal event=%s key=%s: %v", event, key, err)
		n.recordFailure(event)
		return
	}

	msg := kafka.Message{
		Topic: n.topicPrefix + string(event),
		Key:   []byte(key),
		Value: body,
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(envelope.EventID)},
			{Key: "event_type", Value: []byte(event)},
		},
	}

	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.closed {
		n.log.Warn("KafkaNotifier: notifier is closed, dropping event=%s key=%s", event, key)
		return
	}

	select {
	case n.queue <- msg:
	default:
		n.log.Warn("KafkaNotifier: queue is full, dropping event=%s key=%s", event, key)
		n.recordFailure(event)
	}
}

// Close дожидается отправки событий из очереди и закрывает writer
func (n *KafkaNotifier) Close() error {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return nil
	}
	n.closed = true
	close(n.queue)
	n.mu.Unlock()

	n.wg.Wait()
	return n.writer.Close()
}

func (n *KafkaNotifier) run() {
	defer n.wg.Done()

	for msg := range n.queue {
		ctx, cancel := context.WithTimeout(context.Background(), n.writeTimeout)
		err := n.writer.WriteMessages(ctx, msg)
		cancel()

		if err != nil {
			event := eventOf(msg)
			n.log.Error("KafkaNotifier: failed to deliver event=%s topic=%s: %v", event, msg.Topic, err)
			n.recordFailure(domain.EventType(event))
		}
	}
}

func (n *KafkaNotifier) recordFailure(event domain.EventType) {
	if n.failures != nil {
		n.failures.IncNotificationFailed(string(event))
	}
}

func eventOf(msg kafka.Message) string {
	for _, h := range msg.Headers {
		if h.Key == "event_type" {
			return string(h.Value)
		}
	}
	return msg.Topic
}
