package update_availability_block

import (
	"fmt"

	"github.com/m04kA/SMC-SchedulingService/internal/api/handlers"
	"github.com/m04kA/SMC-SchedulingService/internal/service/availability/models"
)

// UpdateBlockRequest HTTP request model, отсутствующие поля не меняются
type UpdateBlockRequest struct {
	ValidFrom   *string                `json:"validFrom,omitempty"`
	ValidTo     *string                `json:"validTo,omitempty"`
	Active      *bool                  `json:"active,omitempty"`
	DayRules    *[]models.DayRuleInput `json:"dayRules,omitempty"`
	ProviderIDs *[]int64               `json:"providerIds,omitempty"`
}

// ToServiceRequest конвертирует HTTP запрос в модель сервиса
func (r *UpdateBlockRequest) ToServiceRequest() (*models.UpdateBlockRequest, error) {
	req := &models.UpdateBlockRequest{
		Active:      r.Active,
		DayRules:    r.DayRules,
		ProviderIDs: r.ProviderIDs,
	}

	if r.ValidFrom != nil {
		d, err := handlers.ParseDate(*r.ValidFrom)
		if err != nil {
			return nil, fmt.Errorf("validFrom: %w", err)
		}
		req.ValidFrom = &d
	}
	if r.ValidTo != nil {
		d, err := handlers.ParseDate(*r.ValidTo)
		if err != nil {
			return nil, fmt.Errorf("validTo: %w", err)
		}
		req.ValidTo = &d
	}

	return req, nil
}
