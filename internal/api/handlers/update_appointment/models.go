package update_appointment

import (
	"fmt"

	"github.com/m04kA/SMC-SchedulingService/internal/api/handlers"
	updateAppointment "github.com/m04kA/SMC-SchedulingService/internal/usecase/update_appointment"
	"github.com/m04kA/SMC-SchedulingService/pkg/types"
)

// UpdateAppointmentRequest HTTP request model, отсутствующие поля не меняются
type UpdateAppointmentRequest struct {
	Date       *string  `json:"date,omitempty"`
	StartTime  *string  `json:"startTime,omitempty"`
	ProviderID *int64   `json:"providerId,omitempty"`
	ServiceIDs *[]int64 `json:"serviceIds,omitempty"`
	Notes      *string  `json:"notes,omitempty"`
}

// ToUseCaseRequest конвертирует HTTP запрос в модель use case
func (r *UpdateAppointmentRequest) ToUseCaseRequest(id int64) (*updateAppointment.Request, error) {
	req := &updateAppointment.Request{
		ID:         id,
		ProviderID: r.ProviderID,
		ServiceIDs: r.ServiceIDs,
		Notes:      r.Notes,
	}

	if r.Date != nil {
		date, err := handlers.ParseDate(*r.Date)
		if err != nil {
			return nil, fmt.Errorf("date: %w", err)
		}
		req.Date = &date
	}

	if r.StartTime != nil {
		startTime, err := types.NewTimeStringFromString(*r.StartTime)
		if err != nil {
			return nil, fmt.Errorf("startTime: %w", err)
		}
		req.StartTime = &startTime
	}

	return req, nil
}
