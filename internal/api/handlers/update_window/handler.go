package update_window

import (
	"net/http"

	"github.com/m04kA/SMC-SchedulingService/internal/api/handlers"
	"github.com/m04kA/SMC-SchedulingService/internal/api/middleware"
	"github.com/m04kA/SMC-SchedulingService/internal/service/availability/models"
)

const (
	msgInvalidWindowID    = "некорректный ID окна доступности"
	msgInvalidRequestBody = "некорректное тело запроса"
	msgMissingIdentity    = "отсутствует ID пользователя или арендатора"
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

// Handle PUT /api/v1/availability-windows/{windowId}
// Незаданные поля сохраняют текущие значения
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	windowID, err := handlers.PathID(r, "windowId")
	if err != nil {
		h.logger.Warn("PUT /availability-windows/{id} - Invalid window ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidWindowID)
		return
	}

	tenantID, okTenant := middleware.GetTenantID(r.Context())
	userID, okUser := middleware.GetUserID(r.Context())
	if !okTenant || !okUser {
		h.logger.Warn("PUT /availability-windows/{id} - Missing identity")
		handlers.RespondUnauthorized(w, msgMissingIdentity)
		return
	}

	var req models.UpdateWindowRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("PUT /availability-windows/{id} - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}
	req.TenantID = tenantID
	req.UserID = userID
	req.WindowID = windowID

	window, err := h.service.Update(r.Context(), &req)
	if err != nil {
		handlers.RespondDomainError(w, h.logger, "PUT /availability-windows/{id}", err)
		return
	}

	h.logger.Info("PUT /availability-windows/{id} - Window updated successfully: window_id=%d, user_id=%d",
		windowID, userID)
	handlers.RespondJSON(w, http.StatusOK, window)
}
