package change_booking_status

import (
	"net/http"

	"github.com/m04kA/SMC-SchedulingService/internal/api/handlers"
	"github.com/m04kA/SMC-SchedulingService/internal/api/middleware"
	"github.com/m04kA/SMC-SchedulingService/internal/service/bookings/models"
)

const (
	msgInvalidBookingID = "некорректный ID бронирования"
	msgMissingIdentity  = "отсутствует ID пользователя или арендатора"
)

// Handler обслуживает переходы без тела запроса: confirm, check-in, check-out, no-show
type Handler struct {
	action     string
	transition Transition
	logger     Logger
}

// NewHandler создает handler для одного действия, action попадает в путь и логи
func NewHandler(action string, transition Transition, logger Logger) *Handler {
	return &Handler{
		action:     action,
		transition: transition,
		logger:     logger,
	}
}

// Handle PATCH /api/v1/bookings/{bookingId}/{action}
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	op := "PATCH /bookings/{id}/" + h.action

	bookingID, err := handlers.PathID(r, "bookingId")
	if err != nil {
		h.logger.Warn("%s - Invalid booking ID: %v", op, err)
		handlers.RespondBadRequest(w, msgInvalidBookingID)
		return
	}

	tenantID, okTenant := middleware.GetTenantID(r.Context())
	userID, okUser := middleware.GetUserID(r.Context())
	if !okTenant || !okUser {
		h.logger.Warn("%s - Missing identity", op)
		handlers.RespondUnauthorized(w, msgMissingIdentity)
		return
	}

	booking, err := h.transition(r.Context(), &models.StatusChangeRequest{
		TenantID:  tenantID,
		UserID:    userID,
		BookingID: bookingID,
	})
	if err != nil {
		handlers.RespondDomainError(w, h.logger, op, err)
		return
	}

	h.logger.Info("%s - Booking updated successfully: booking_id=%d, status=%s, user_id=%d",
		op, bookingID, booking.Status, userID)
	handlers.RespondJSON(w, http.StatusOK, booking)
}
