package check_availability

import (
	"context"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
)

// AvailabilityStore интерфейс хранилища доступности
type AvailabilityStore interface {
	OccurrencesBetween(ctx context.Context, tenantID, resourceID int64, assigneeID *int64, rng domain.Interval) ([]domain.Coverage, error)
}

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	ListActiveOverlapping(ctx context.Context, tenantID, resourceID int64, iv domain.Interval, excludeID *int64) ([]*domain.Booking, error)
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	DoReadOnly(ctx context.Context, fn func(ctx context.Context) error) error
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
