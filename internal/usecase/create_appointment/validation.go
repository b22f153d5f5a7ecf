package create_appointment

import (
	"fmt"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/internal/usecase/booking"
)

// validateRequest валидирует входные данные запроса
func validateRequest(req *Request) error {
	if req.ClientID <= 0 {
		return fmt.Errorf("%w: clientId must be positive", domain.ErrInvalidInput)
	}

	if req.ProviderID != nil && *req.ProviderID <= 0 {
		return fmt.Errorf("%w: providerId must be positive", domain.ErrInvalidInput)
	}

	if req.Date.IsZero() {
		return fmt.Errorf("%w: date is required", domain.ErrInvalidInput)
	}

	if req.StartTime.IsZero() {
		return fmt.Errorf("%w: startTime is required", domain.ErrInvalidInput)
	}
	if err := req.StartTime.Validate(); err != nil {
		return fmt.Errorf("%w: invalid startTime format: %v", domain.ErrInvalidInput, err)
	}

	if req.Notes != nil && len([]rune(*req.Notes)) > domain.MaxNotesLength {
		return fmt.Errorf("%w: notes longer than %d characters", domain.ErrInvalidInput, domain.MaxNotesLength)
	}

	return booking.ValidateServiceIDs(req.ServiceIDs)
}

// initialStatus возвращает начальный статус записи, по умолчанию pending
func initialStatus(requested string) (domain.AppointmentStatus, error) {
	if requested == "" {
		return domain.StatusPending, nil
	}

	status, err := domain.ParseAppointmentStatus(requested)
	if err != nil {
		return "", err
	}
	if !status.IsInitial() {
		return "", fmt.Errorf("%w: appointment cannot be created as %s", domain.ErrInvalidInput, status)
	}
	return status, nil
}
