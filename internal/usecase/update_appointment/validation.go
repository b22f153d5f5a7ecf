package update_appointment

import (
	"fmt"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/internal/usecase/booking"
)

// validateRequest валидирует входные данные запроса
func validateRequest(req *Request) error {
	if req.ID <= 0 {
		return fmt.Errorf("%w: appointment id must be positive", domain.ErrInvalidInput)
	}

	if req.isEmpty() {
		return fmt.Errorf("%w: nothing to update", domain.ErrInvalidInput)
	}

	if req.Date != nil && req.Date.IsZero() {
		return fmt.Errorf("%w: date must not be empty", domain.ErrInvalidInput)
	}

	if req.StartTime != nil {
		if err := req.StartTime.Validate(); err != nil {
			return fmt.Errorf("%w: invalid startTime format: %v", domain.ErrInvalidInput, err)
		}
	}

	if req.ProviderID != nil && *req.ProviderID <= 0 {
		return fmt.Errorf("%w: providerId must be positive", domain.ErrInvalidInput)
	}

	if req.Notes != nil && len([]rune(*req.Notes)) > domain.MaxNotesLength {
		return fmt.Errorf("%w: notes longer than %d characters", domain.ErrInvalidInput, domain.MaxNotesLength)
	}

	if req.ServiceIDs != nil {
		return booking.ValidateServiceIDs(*req.ServiceIDs)
	}
	return nil
}
