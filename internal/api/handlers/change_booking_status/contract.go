package change_booking_status

import (
	"context"

	"github.com/m04kA/SMC-SchedulingService/internal/service/bookings/models"
)

// Transition смена статуса бронирования, одна из операций сервиса
type Transition func(ctx context.Context, req *models.StatusChangeRequest) (*models.BookingResponse, error)

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
