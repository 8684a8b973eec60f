package list_windows

import (
	"net/http"
	"strconv"

	"github.com/m04kA/SMC-SchedulingService/internal/api/handlers"
	"github.com/m04kA/SMC-SchedulingService/internal/service/availability/models"
)

// ToServiceRequest формирует запрос к сервису из query параметров
// Query params: resourceId, staffId, onlyBookable, includeDeleted, limit
func ToServiceRequest(r *http.Request, tenantID int64) (*models.ListWindowsRequest, error) {
	req := &models.ListWindowsRequest{TenantID: tenantID}
	var err error

	if req.ResourceID, err = handlers.QueryInt64(r, "resourceId"); err != nil {
		return nil, err
	}
	if req.StaffID, err = handlers.QueryInt64(r, "staffId"); err != nil {
		return nil, err
	}
	if req.OnlyBookable, err = handlers.QueryBool(r, "onlyBookable"); err != nil {
		return nil, err
	}
	if req.IncludeDeleted, err = handlers.QueryBool(r, "includeDeleted"); err != nil {
		return nil, err
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
