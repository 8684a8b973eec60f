package check_availability

import (
	"net/http"

	"github.com/m04kA/SMC-SchedulingService/internal/api/handlers"
	"github.com/m04kA/SMC-SchedulingService/internal/api/middleware"
	checkAvailability "github.com/m04kA/SMC-SchedulingService/internal/usecase/check_availability"
)

const (
	msgInvalidResourceID = "некорректный ID ресурса"
	msgMissingTenantID   = "отсутствует ID арендатора"
	msgInvalidRange      = "некорректный период, ожидаются start и end в формате RFC3339"
)

type Handler struct {
	useCase CheckAvailabilityUseCase
	logger  Logger
}

func NewHandler(useCase CheckAvailabilityUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle GET /api/v1/resources/{resourceId}/availability
// Query params: start, end (required, RFC3339), assigneeId
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	resourceID, err := handlers.PathID(r, "resourceId")
	if err != nil {
		h.logger.Warn("GET /resources/{id}/availability - Invalid resource ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidResourceID)
		return
	}

	tenantID, ok := middleware.GetTenantID(r.Context())
	if !ok {
		h.logger.Warn("GET /resources/{id}/availability - Missing tenant ID")
		handlers.RespondUnauthorized(w, msgMissingTenantID)
		return
	}

	start, errStart := handlers.QueryTime(r, "start")
	end, errEnd := handlers.QueryTime(r, "end")
	assigneeID, errAssignee := handlers.QueryInt64(r, "assigneeId")
	if errStart != nil || errEnd != nil || errAssignee != nil || start == nil || end == nil {
		h.logger.Warn("GET /resources/{id}/availability - Invalid parameters: start=%v, end=%v, assignee=%v",
			errStart, errEnd, errAssignee)
		handlers.RespondBadRequest(w, msgInvalidRange)
		return
	}

	result, err := h.useCase.Execute(r.Context(), &checkAvailability.Request{
		TenantID:   tenantID,
		ResourceID: resourceID,
		AssigneeID: assigneeID,
		Start:      *start,
		End:        *end,
	})
	if err != nil {
		handlers.RespondDomainError(w, h.logger, "GET /resources/{id}/availability", err)
		return
	}

	h.logger.Info("GET /resources/{id}/availability - Availability retrieved successfully: resource_id=%d, occurrences=%d",
		resourceID, len(result.Occurrences))
	handlers.RespondJSON(w, http.StatusOK, FromUseCaseResponse(result))
}
