package create_booking

import (
	"time"

	createBooking "github.com/m04kA/SMC-SchedulingService/internal/usecase/create_booking"
)

// CreateBookingRequest HTTP request model
type CreateBookingRequest struct {
	ResourceID int64     `json:"resourceId"`
	AssigneeID *int64    `json:"assigneeId,omitempty"`
	StartTime  time.Time `json:"startTime"` // RFC3339
	EndTime    time.Time `json:"endTime"`   // RFC3339, не включается
	TimeZone   string    `json:"timeZone,omitempty"`
	Notes      *string   `json:"notes,omitempty"`
}

// ToUseCaseRequest конвертирует HTTP запрос в модель use case
// Бронирует пользователь из заголовка X-User-ID
func (r *CreateBookingRequest) ToUseCaseRequest(tenantID, userID int64) *createBooking.Request {
	return &createBooking.Request{
		TenantID:    tenantID,
		RequesterID: userID,
		ResourceID:  r.ResourceID,
		AssigneeID:  r.AssigneeID,
		StartTime:   r.StartTime,
		EndTime:     r.EndTime,
		TimeZone:    r.TimeZone,
		Notes:       r.Notes,
	}
}
