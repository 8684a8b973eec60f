package get_window

import (
	"net/http"

	"github.com/m04kA/SMC-SchedulingService/internal/api/handlers"
	"github.com/m04kA/SMC-SchedulingService/internal/api/middleware"
)

const (
	msgInvalidWindowID = "некорректный ID окна доступности"
	msgMissingTenantID = "отсутствует ID арендатора"
)

type Handler struct {
	service WindowService
	logger  Logger
}

func NewHandler(service WindowService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle GET /api/v1/availability-windows/{windowId}
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	windowID, err := handlers.PathID(r, "windowId")
	if err != nil {
		h.logger.Warn("GET /availability-windows/{id} - Invalid window ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidWindowID)
		return
	}

	tenantID, ok := middleware.GetTenantID(r.Context())
	if !ok {
		h.logger.Warn("GET /availability-windows/{id} - Missing tenant ID")
		handlers.RespondUnauthorized(w, msgMissingTenantID)
		return
	}

	window, err := h.service.GetByID(r.Context(), tenantID, windowID)
	if err != nil {
		handlers.RespondDomainError(w, h.logger, "GET /availability-windows/{id}", err)
		return
	}

	h.logger.Info("GET /availability-windows/{id} - Window retrieved successfully: window_id=%d, tenant_id=%d",
		windowID, tenantID)
	handlers.RespondJSON(w, http.StatusOK, window)
}
