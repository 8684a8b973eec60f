package cancel_booking

import (
	"github.com/m04kA/SMC-SchedulingService/internal/service/bookings/models"
)

// CancelBookingRequest HTTP request model
type CancelBookingRequest struct {
	CancellationReason *string `json:"cancellationReason,omitempty"`
}

// ToServiceRequest конвертирует HTTP request в модель сервиса
func (r *CancelBookingRequest) ToServiceRequest(tenantID, userID, bookingID int64) *models.CancelBookingRequest {
	return &models.CancelBookingRequest{
		TenantID:           tenantID,
		UserID:             userID,
		BookingID:          bookingID,
		CancellationReason: r.CancellationReason,
	}
}
