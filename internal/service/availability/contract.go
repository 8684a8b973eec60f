package availability

import (
	"context"
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/internal/integrations/directory"
)

// WindowRepository интерфейс репозитория окон доступности
type WindowRepository interface {
	Create(ctx context.Context, w *domain.AvailabilityWindow) (*domain.AvailabilityWindow, error)
	GetByID(ctx context.Context, tenantID, id int64) (*domain.AvailabilityWindow, error)
	List(ctx context.Context, filter domain.WindowsFilter) ([]*domain.AvailabilityWindow, error)
	Update(ctx context.Context, w *domain.AvailabilityWindow) error
	SoftDelete(ctx context.Context, tenantID, id, deletedBy int64, at time.Time) error
	IncrementUsage(ctx context.Context, windowID int64) (int, error)
	DecrementUsage(ctx context.Context, windowID int64) (int, error)
}

// BookingRepository интерфейс репозитория бронирований (только чтение)
type BookingRepository interface {
	ListActiveOverlapping(ctx context.Context, tenantID, resourceID int64, iv domain.Interval, excludeID *int64) ([]*domain.Booking, error)
	CountActiveByWindow(ctx context.Context, windowID int64, iv *domain.Interval, excludeID *int64) (int, error)
}

// DirectoryClient интерфейс справочника ресурсов и пользователей
type DirectoryClient interface {
	GetResource(ctx context.Context, tenantID, resourceID int64) (*directory.Resource, error)
	GetUser(ctx context.Context, tenantID, userID int64) (*directory.User, error)
}

// Notifier интерфейс отправки событий (fire-and-forget)
type Notifier interface {
	Publish(ctx context.Context, event domain.EventType, key string, payload interface{})
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
