package create_availability_block

import (
	"fmt"

	"github.com/m04kA/SMC-SchedulingService/internal/api/handlers"
	"github.com/m04kA/SMC-SchedulingService/internal/service/availability/models"
)

// CreateBlockRequest HTTP request model
type CreateBlockRequest struct {
	ValidFrom   string                `json:"validFrom"` // "2025-03-10"
	ValidTo     string                `json:"validTo"`
	Active      *bool                 `json:"active,omitempty"`
	DayRules    []models.DayRuleInput `json:"dayRules"`
	ProviderIDs []int64               `json:"providerIds"`
}

// ToServiceRequest конвертирует HTTP запрос в модель сервиса
func (r *CreateBlockRequest) ToServiceRequest() (*models.CreateBlockRequest, error) {
	validFrom, err := handlers.ParseDate(r.ValidFrom)
	if err != nil {
		return nil, fmt.Errorf("validFrom: %w", err)
	}
	validTo, err := handlers.ParseDate(r.ValidTo)
	if err != nil {
		return nil, fmt.Errorf("validTo: %w", err)
	}

	return &models.CreateBlockRequest{
		ValidFrom:   validFrom,
		ValidTo:     validTo,
		Active:      r.Active,
		DayRules:    r.DayRules,
		ProviderIDs: r.ProviderIDs,
	}, nil
}
