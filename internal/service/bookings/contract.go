package bookings

import (
	"context"
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
)

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	GetByID(ctx context.Context, tenantID, id int64) (*domain.Booking, error)
	List(ctx context.Context, filter domain.BookingsFilter) ([]*domain.Booking, error)
	UpdateStatus(ctx context.Context, booking *domain.Booking, from domain.BookingStatus) error
	SoftDelete(ctx context.Context, tenantID, id, deletedBy int64, at time.Time) error
}

// UsageCounter интерфейс счётчиков бронирований окон
type UsageCounter interface {
	DecrementUsage(ctx context.Context, windowID int64) error
}

// Notifier интерфейс отправки событий (fire-and-forget)
type Notifier interface {
	Publish(ctx context.Context, event domain.EventType, key string, payload interface{})
}

// OperationRecorder учитывает результаты операций с бронированиями
type OperationRecorder interface {
	IncBookingOperation(operation, result string)
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
}

// TimeProvider интерфейс для получения текущего времени (для тестирования)
type TimeProvider interface {
	Now() time.Time
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// RealTimeProvider реальный провайдер времени для production
type RealTimeProvider struct{}

// Now возвращает текущее время
func (p *RealTimeProvider) Now() time.Time {
	return time.Now()
}
