package reference

import "context"

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	MaxReference(ctx context.Context, tenantID int64, prefix string) (string, error)
}

// RetryRecorder учитывает повторы выделения номеров
type RetryRecorder interface {
	IncReferenceRetry(outcome string)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
