package create_booking

import (
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
)

// validateRequest валидирует входные данные запроса
func validateRequest(req *Request) error {
	if req.TenantID <= 0 {
		return fmt.Errorf("%w: tenantID must be positive", domain.ErrValidation)
	}

	if req.RequesterID <= 0 {
		return fmt.Errorf("%w: requesterID must be positive", domain.ErrValidation)
	}

	if req.ResourceID <= 0 {
		return fmt.Errorf("%w: resourceID must be positive", domain.ErrValidation)
	}

	if req.AssigneeID != nil && *req.AssigneeID <= 0 {
		return fmt.Errorf("%w: assigneeID must be positive", domain.ErrValidation)
	}

	if req.StartTime.IsZero() || req.EndTime.IsZero() {
		return fmt.Errorf("%w: startTime and endTime are required", domain.ErrValidation)
	}

	if !req.EndTime.After(req.StartTime) {
		return fmt.Errorf("%w: endTime must be after startTime", domain.ErrValidation)
	}

	// Длительность считается в целых минутах
	duration := req.EndTime.Sub(req.StartTime)
	if duration%time.Minute != 0 {
		return fmt.Errorf("%w: duration must be a whole number of minutes", domain.ErrValidation)
	}
	if duration > domain.MaxBookingDurationMinutes*time.Minute {
		return fmt.Errorf("%w: duration must not exceed %d minutes", domain.ErrValidation, domain.MaxBookingDurationMinutes)
	}

	if req.Notes != nil && utf8.RuneCountInString(*req.Notes) > domain.MaxNotesLength {
		return fmt.Errorf("%w: notes are longer than %d characters", domain.ErrValidation, domain.MaxNotesLength)
	}

	return nil
}
