package list_bookings

import (
	"net/http"

	"github.com/m04kA/SMC-SchedulingService/internal/api/handlers"
	"github.com/m04kA/SMC-SchedulingService/internal/api/middleware"
)

const (
	msgMissingTenantID = "отсутствует ID арендатора"
	msgInvalidParams   = "некорректные параметры запроса"
)

type Handler struct {
	service BookingService
	logger  Logger
}

func NewHandler(service BookingService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle GET /api/v1/bookings
// По умолчанию возвращаются только активные бронирования
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := middleware.GetTenantID(r.Context())
	if !ok {
		h.logger.Warn("GET /bookings - Missing tenant ID")
		handlers.RespondUnauthorized(w, msgMissingTenantID)
		return
	}

	serviceReq, err := ToServiceRequest(r, tenantID)
	if err != nil {
		h.logger.Warn("GET /bookings - Invalid parameters: %v", err)
		handlers.RespondBadRequest(w, msgInvalidParams)
		return
	}

	result, err := h.service.List(r.Context(), serviceReq)
	if err != nil {
		handlers.RespondDomainError(w, h.logger, "GET /bookings", err)
		return
	}

	h.logger.Info("GET /bookings - Bookings retrieved successfully: tenant_id=%d, count=%d", tenantID, len(result))
	handlers.RespondJSON(w, http.StatusOK, result)
}
