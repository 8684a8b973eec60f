package delete_window

import (
	"net/http"

	"github.com/m04kA/SMC-SchedulingService/internal/api/handlers"
	"github.com/m04kA/SMC-SchedulingService/internal/api/middleware"
)

const (
	msgInvalidWindowID = "некорректный ID окна доступности"
	msgMissingIdentity = "отсутствует ID пользователя или арендатора"
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

// Handle DELETE /api/v1/availability-windows/{windowId}
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	windowID, err := handlers.PathID(r, "windowId")
	if err != nil {
		h.logger.Warn("DELETE /availability-windows/{id} - Invalid window ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidWindowID)
		return
	}

	tenantID, okTenant := middleware.GetTenantID(r.Context())
	userID, okUser := middleware.GetUserID(r.Context())
	if !okTenant || !okUser {
		h.logger.Warn("DELETE /availability-windows/{id} - Missing identity")
		handlers.RespondUnauthorized(w, msgMissingIdentity)
		return
	}

	if err := h.service.Delete(r.Context(), tenantID, windowID, userID); err != nil {
		handlers.RespondDomainError(w, h.logger, "DELETE /availability-windows/{id}", err)
		return
	}

	h.logger.Info("DELETE /availability-windows/{id} - Window deleted successfully: window_id=%d, user_id=%d",
		windowID, userID)
	w.WriteHeader(http.StatusNoContent)
}
