package reschedule_booking

import (
	"time"

	rescheduleBooking "github.com/m04kA/SMC-SchedulingService/internal/usecase/reschedule_booking"
)

// RescheduleBookingRequest HTTP request model
type RescheduleBookingRequest struct {
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
}

// ToUseCaseRequest конвертирует HTTP запрос в модель use case
func (r *RescheduleBookingRequest) ToUseCaseRequest(tenantID, userID, bookingID int64) *rescheduleBooking.Request {
	return &rescheduleBooking.Request{
		TenantID:  tenantID,
		UserID:    userID,
		BookingID: bookingID,
		StartTime: r.StartTime,
		EndTime:   r.EndTime,
	}
}
