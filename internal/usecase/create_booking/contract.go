package create_booking

import (
	"context"
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/internal/integrations/directory"
	"github.com/m04kA/SMC-SchedulingService/internal/service/conflict"
	"github.com/m04kA/SMC-SchedulingService/internal/service/reference"
)

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	Create(ctx context.Context, booking *domain.Booking) (*domain.Booking, error)
}

// ConflictDetector интерфейс детектора конфликтов
type ConflictDetector interface {
	CheckConflict(ctx context.Context, req conflict.Request) (*conflict.Result, error)
}

// ReferenceAllocator интерфейс аллокатора номеров бронирований
type ReferenceAllocator interface {
	Allocate(ctx context.Context, tenantID int64, date time.Time, insert reference.InsertFunc) (string, error)
}

// UsageCounter интерфейс счётчиков бронирований окон
type UsageCounter interface {
	IncrementUsage(ctx context.Context, windowID int64) error
}

// DirectoryClient интерфейс клиента справочника ресурсов и пользователей
type DirectoryClient interface {
	GetResource(ctx context.Context, tenantID, id int64) (*directory.Resource, error)
	GetUser(ctx context.Context, tenantID, id int64) (*directory.User, error)
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

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
