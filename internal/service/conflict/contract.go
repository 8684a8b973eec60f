package conflict

import (
	"context"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/internal/service/availability"
)

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	ListActiveOverlapping(ctx context.Context, tenantID, resourceID int64, iv domain.Interval, excludeID *int64) ([]*domain.Booking, error)
}

// AvailabilityStore интерфейс хранилища доступности
type AvailabilityStore interface {
	FindCovering(ctx context.Context, tenantID, resourceID int64, assigneeID *int64, iv domain.Interval) ([]domain.Coverage, error)
	IsWithinConstraints(ctx context.Context, cov domain.Coverage, q availability.ConstraintQuery) error
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
