package get_available_slots

import (
	"net/http"

	"github.com/m04kA/SMC-SchedulingService/internal/api/handlers"
	"github.com/m04kA/SMC-SchedulingService/internal/api/middleware"
)

const (
	msgInvalidResourceID = "некорректный ID ресурса"
	msgInvalidAssigneeID = "некорректный ID исполнителя"
	msgMissingDate       = "дата обязательна"
	msgMissingDuration   = "длительность обязательна"
	msgInvalidParams     = "некорректный формат даты или длительности, ожидается date=YYYY-MM-DD и duration в минутах"
	msgMissingTenantID   = "отсутствует ID арендатора"
)

type Handler struct {
	useCase GetAvailableSlotsUseCase
	logger  Logger
}

func NewHandler(useCase GetAvailableSlotsUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle GET /api/v1/resources/{resourceId}/slots
// Query params: date (required, YYYY-MM-DD), duration (required, минуты), tz, assigneeId
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	resourceID, err := handlers.PathID(r, "resourceId")
	if err != nil {
		h.logger.Warn("GET /resources/{id}/slots - Invalid resource ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidResourceID)
		return
	}

	tenantID, ok := middleware.GetTenantID(r.Context())
	if !ok {
		h.logger.Warn("GET /resources/{id}/slots - Missing tenant ID")
		handlers.RespondUnauthorized(w, msgMissingTenantID)
		return
	}

	query := r.URL.Query()
	dateStr := query.Get("date")
	if dateStr == "" {
		h.logger.Warn("GET /resources/{id}/slots - Missing date")
		handlers.RespondBadRequest(w, msgMissingDate)
		return
	}

	durationStr := query.Get("duration")
	if durationStr == "" {
		h.logger.Warn("GET /resources/{id}/slots - Missing duration")
		handlers.RespondBadRequest(w, msgMissingDuration)
		return
	}

	assigneeID, err := handlers.QueryInt64(r, "assigneeId")
	if err != nil {
		h.logger.Warn("GET /resources/{id}/slots - Invalid assignee ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidAssigneeID)
		return
	}

	useCaseReq, err := ToUseCaseRequest(tenantID, resourceID, assigneeID, dateStr, durationStr, query.Get("tz"))
	if err != nil {
		h.logger.Warn("GET /resources/{id}/slots - Invalid parameters: %v", err)
		handlers.RespondBadRequest(w, msgInvalidParams)
		return
	}

	result, err := h.useCase.Execute(r.Context(), useCaseReq)
	if err != nil {
		handlers.RespondDomainError(w, h.logger, "GET /resources/{id}/slots", err)
		return
	}

	response := FromUseCaseResponse(result)

	h.logger.Info("GET /resources/{id}/slots - Slots retrieved successfully: resource_id=%d, date=%s, slots_count=%d, available=%d",
		resourceID, response.Date, len(response.Slots), response.AvailableCount)
	handlers.RespondJSON(w, http.StatusOK, response)
}
