package check_availability

import (
	"fmt"
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
)

// validateRequest валидирует входные данные запроса
func validateRequest(req *Request) error {
	if req.TenantID <= 0 {
		return fmt.Errorf("%w: tenantID must be positive", domain.ErrValidation)
	}

	if req.ResourceID <= 0 {
		return fmt.Errorf("%w: resourceID must be positive", domain.ErrValidation)
	}

	if req.Start.IsZero() || req.End.IsZero() {
		return fmt.Errorf("%w: start and end are required", domain.ErrValidation)
	}

	if !req.End.After(req.Start) {
		return fmt.Errorf("%w: end must be after start", domain.ErrValidation)
	}

	if req.End.Sub(req.Start) > domain.MaxAvailabilityRangeDays*24*time.Hour {
		return fmt.Errorf("%w: range must not exceed %d days", domain.ErrValidation, domain.MaxAvailabilityRangeDays)
	}

	return nil
}
