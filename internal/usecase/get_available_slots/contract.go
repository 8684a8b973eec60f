package get_available_slots

import (
	"context"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/internal/service/conflict"
)

// AvailabilityStore интерфейс хранилища доступности
type AvailabilityStore interface {
	OccurrencesBetween(ctx context.Context, tenantID, resourceID int64, assigneeID *int64, rng domain.Interval) ([]domain.Coverage, error)
	DefaultSlotInterval() int
}

// ConflictDetector интерфейс детектора конфликтов
type ConflictDetector interface {
	CheckConflict(ctx context.Context, req conflict.Request) (*conflict.Result, error)
}

// SlotRecorder учитывает количество сгенерированных слотов
type SlotRecorder interface {
	AddSlots(available, unavailable int)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
