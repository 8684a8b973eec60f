package list_bookings

import (
	"net/http"
	"strconv"

	"github.com/m04kA/SMC-SchedulingService/internal/api/handlers"
	"github.com/m04kA/SMC-SchedulingService/internal/service/bookings/models"
	"github.com/m04kA/SMC-SchedulingService/pkg/ptr"
)

// ToServiceRequest формирует запрос к сервису из query параметров
// Query params: resourceId, requesterId, assigneeId, status, from, to (RFC3339), includeInactive, limit
func ToServiceRequest(r *http.Request, tenantID int64) (*models.ListBookingsRequest, error) {
	req := &models.ListBookingsRequest{TenantID: tenantID}
	var err error

	if req.ResourceID, err = handlers.QueryInt64(r, "resourceId"); err != nil {
		return nil, err
	}
	if req.RequesterID, err = handlers.QueryInt64(r, "requesterId"); err != nil {
		return nil, err
	}
	if req.AssigneeID, err = handlers.QueryInt64(r, "assigneeId"); err != nil {
		return nil, err
	}
	if req.From, err = handlers.QueryTime(r, "from"); err != nil {
		return nil, err
	}
	if req.To, err = handlers.QueryTime(r, "to"); err != nil {
		return nil, err
	}
	if req.IncludeInactive, err = handlers.QueryBool(r, "includeInactive"); err != nil {
		return nil, err
	}

	if status := r.URL.Query().Get("status"); status != "" {
		req.Status = ptr.Ptr(status)
	}

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		limit, err := strconv.ParseUint(limitStr, 10, 64)
		if err != nil {
			return nil, err
		}
		req.Limit = limit
	}

	return req, nil
}
