package get_free_slots

import (
	"fmt"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/internal/usecase/booking"
)

// validateRequest валидирует входные данные запроса
func validateRequest(req *Request, maxRangeDays int) error {
	if req.ProviderID != nil && *req.ProviderID <= 0 {
		return fmt.Errorf("%w: providerId must be positive", domain.ErrInvalidInput)
	}

	if req.From.IsZero() || req.To.IsZero() {
		return fmt.Errorf("%w: from and to are required", domain.ErrInvalidInput)
	}

	from, to := domain.DateOnly(req.From), domain.DateOnly(req.To)
	if from.After(to) {
		return fmt.Errorf("%w: from must not be after to", domain.ErrInvalidInput)
	}
	if days := int(to.Sub(from).Hours()/24) + 1; days > maxRangeDays {
		return fmt.Errorf("%w: range of %d days exceeds %d", domain.ErrInvalidInput, days, maxRangeDays)
	}

	if req.Granularity != nil {
		g := *req.Granularity
		if g < domain.MinSlotGranularityMinutes || g > domain.MaxSlotGranularityMinutes {
			return fmt.Errorf("%w: granularity must be in [%d, %d]",
				domain.ErrInvalidInput, domain.MinSlotGranularityMinutes, domain.MaxSlotGranularityMinutes)
		}
	}

	if len(req.ServiceIDs) > 0 {
		return booking.ValidateServiceIDs(req.ServiceIDs)
	}
	return nil
}
