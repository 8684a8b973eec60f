package check_availability

import (
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
)

// Request модель запроса доступности ресурса за период
type Request struct {
	TenantID   int64     // ID арендатора
	ResourceID int64     // ID ресурса
	AssigneeID *int64    // ID исполнителя (опционально)
	Start      time.Time // Начало периода
	End        time.Time // Конец периода (не включается)
}

// Response доступность ресурса за период
type Response struct {
	ResourceID  int64
	Start       time.Time
	End         time.Time
	Occurrences []Occurrence
}

// Occurrence вхождение окна доступности с занятыми и свободными интервалами
type Occurrence struct {
	WindowID   int64
	Title      string
	Interval   domain.Interval
	Bookings   []*domain.Booking
	FreeRanges []domain.Interval
}
