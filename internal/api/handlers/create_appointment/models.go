package create_appointment

import (
	"fmt"

	"github.com/m04kA/SMC-SchedulingService/internal/api/handlers"
	createAppointment "github.com/m04kA/SMC-SchedulingService/internal/usecase/create_appointment"
	"github.com/m04kA/SMC-SchedulingService/pkg/types"
)

// CreateAppointmentRequest HTTP request model
type CreateAppointmentRequest struct {
	ClientID   int64   `json:"clientId"`             // 0 = текущий пользователь
	ProviderID *int64  `json:"providerId,omitempty"` // nil = подобрать мастера
	Date       string  `json:"date"`                 // "2025-03-10"
	StartTime  string  `json:"startTime"`            // "09:30"
	ServiceIDs []int64 `json:"serviceIds"`
	Status     string  `json:"status,omitempty"` // "pending" (по умолчанию) или "confirmed"
	Notes      *string `json:"notes,omitempty"`
}

// ToUseCaseRequest конвертирует HTTP запрос в модель use case
func (r *CreateAppointmentRequest) ToUseCaseRequest(userID int64) (*createAppointment.Request, error) {
	date, err := handlers.ParseDate(r.Date)
	if err != nil {
		return nil, fmt.Errorf("date: %w", err)
	}

	startTime, err := types.NewTimeStringFromString(r.StartTime)
	if err != nil {
		return nil, fmt.Errorf("startTime: %w", err)
	}

	clientID := r.ClientID
	if clientID == 0 {
		clientID = userID
	}

	return &createAppointment.Request{
		ClientID:   clientID,
		ProviderID: r.ProviderID,
		Date:       date,
		StartTime:  startTime,
		ServiceIDs: r.ServiceIDs,
		Status:     r.Status,
		Notes:      r.Notes,
	}, nil
}
