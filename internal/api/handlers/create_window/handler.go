package create_window

import (
	"net/http"

	"github.com/m04kA/SMC-SchedulingService/internal/api/handlers"
	"github.com/m04kA/SMC-SchedulingService/internal/api/middleware"
	"github.com/m04kA/SMC-SchedulingService/internal/service/availability/models"
)

const (
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

// Handle POST /api/v1/availability-windows
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	tenantID, okTenant := middleware.GetTenantID(r.Context())
	userID, okUser := middleware.GetUserID(r.Context())
	if !okTenant || !okUser {
		h.logger.Warn("POST /availability-windows - Missing identity")
		handlers.RespondUnauthorized(w, msgMissingIdentity)
		return
	}

	var req models.CreateWindowRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /availability-windows - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}
	req.TenantID = tenantID
	req.UserID = userID

	window, err := h.service.Create(r.Context(), &req)
	if err != nil {
		handlers.RespondDomainError(w, h.logger, "POST /availability-windows", err)
		return
	}

	h.logger.Info("POST /availability-windows - Window created successfully: window_id=%d, tenant_id=%d, user_id=%d",
		window.ID, tenantID, userID)
	handlers.RespondJSON(w, http.StatusCreated, window)
}
