package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics набор метрик сервиса
type Metrics struct {
	// HTTP
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// База данных
	DBQueriesTotal      *prometheus.CounterVec
	DBQueryDuration     *prometheus.HistogramVec
	DBOpenConnections   *prometheus.GaugeVec
	DBInUseConnections  *prometheus.GaugeVec
	DBIdleConnections   *prometheus.GaugeVec
	DBWaitCount         *prometheus.GaugeVec
	DBWaitDurationTotal *prometheus.GaugeVec

	// Бизнес-метрики
	BookingOperationsTotal   *prometheus.CounterVec
	ReferenceRetriesTotal    *prometheus.CounterVec
	SlotsGeneratedTotal      *prometheus.CounterVec
	NotificationsFailedTotal *prometheus.CounterVec
}

// New создает метрики и регистрирует их в глобальном реестре prometheus
func New(serviceName string) *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer, serviceName)
}

// NewWithRegistry создает метрики в указанном реестре (для тестов)
func NewWithRegistry(reg prometheus.Registerer, serviceName string) *Metrics {
	factory := promauto.With(reg)
	constLabels := prometheus.Labels{"service": serviceName}

	return &Metrics{
		HTTPRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name:        "http_requests_total",
			Help:        "Total number of HTTP requests",
			ConstLabels: constLabels,
		}, []string{"method", "route", "status"}),

		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "http_request_duration_seconds",
			Help:        "HTTP request duration in seconds",
			ConstLabels: constLabels,
			Buckets:     prometheus.DefBuckets,
		}, []string{"method", "route"}),

		DBQueriesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name:        "db_queries_total",
			Help:        "Total number of database queries",
			ConstLabels: constLabels,
		}, []string{"operation", "status"}),

		DBQueryDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "db_query_duration_seconds",
			Help:        "Database query duration in seconds",
			ConstLabels: constLabels,
			Buckets:     []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"operation"}),

		DBOpenConnections: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "db_open_connections",
			Help:        "Number of established connections",
			ConstLabels: constLabels,
		}, []string{"db"}),

		DBInUseConnections: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "db_in_use_connections",
			Help:        "Number of connections currently in use",
			ConstLabels: constLabels,
		}, []string{"db"}),

		DBIdleConnections: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "db_idle_connections",
			Help:        "Number of idle connections",
			ConstLabels: constLabels,
		}, []string{"db"}),

		DBWaitCount: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "db_wait_count",
			Help:        "Total number of connections waited for",
			ConstLabels: constLabels,
		}, []string{"db"}),

		DBWaitDurationTotal: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "db_wait_duration_seconds_total",
			Help:        "Total time blocked waiting for a new connection",
			ConstLabels: constLabels,
		}, []string{"db"}),

		BookingOperationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name:        "booking_operations_total",
			Help:        "Booking lifecycle operations by result",
			ConstLabels: constLabels,
		}, []string{"operation", "result"}),

		ReferenceRetriesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name:        "reference_allocation_retries_total",
			Help:        "Booking reference collisions that required a retry",
			ConstLabels: constLabels,
		}, []string{"outcome"}),

		SlotsGeneratedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name:        "slots_generated_total",
			Help:        "Generated time slots by availability",
			ConstLabels: constLabels,
		}, []string{"available"}),

		NotificationsFailedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name:        "notifications_failed_total",
			Help:        "Domain events that could not be handed to the broker",
			ConstLabels: constLabels,
		}, []string{"event"}),
	}
}

// IncBookingOperation увеличивает счетчик операций с бронированиями
// Безопасно вызывать на nil (метрики выключены)
func (m *Metrics) IncBookingOperation(operation, result string) {
	if m == nil {
		return
	}
	m.BookingOperationsTotal.WithLabelValues(operation, result).Inc()
}

// IncReferenceRetry увеличивает счетчик повторов при выделении номера бронирования
func (m *Metrics) IncReferenceRetry(outcome string) {
	if m == nil {
		return
	}
	m.ReferenceRetriesTotal.WithLabelValues(outcome).Inc()
}

// AddSlots учитывает сгенерированные слоты
func (m *Metrics) AddSlots(available, unavailable int) {
	if m == nil {
		return
	}
	m.SlotsGeneratedTotal.WithLabelValues("true").Add(float64(available))
	m.SlotsGeneratedTotal.WithLabelValues("false").Add(float64(unavailable))
}

// IncNotificationFailed учитывает событие, которое не удалось отправить
func (m *Metrics) IncNotificationFailed(event string) {
	if m == nil {
		return
	}
	m.NotificationsFailedTotal.WithLabelValues(event).Inc()
}
