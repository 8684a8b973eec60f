package get_available_slots

import (
	"fmt"

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

	// Проверяем, что дата не является нулевой
	if req.Date.IsZero() {
		return fmt.Errorf("%w: date is required", domain.ErrValidation)
	}

	if req.DurationMinutes <= 0 || req.DurationMinutes > domain.MaxBookingDurationMinutes {
		return fmt.Errorf("%w: duration must be within [1, %d] minutes", domain.ErrValidation, domain.MaxBookingDurationMinutes)
	}

	return nil
}
