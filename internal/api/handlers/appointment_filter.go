package handlers

import (
	"net/http"

	"github.com/m04kA/SMC-SchedulingService/internal/service/appointments/models"
)

// ParseAppointmentFilter читает фильтры выборки записей из query параметров
// Query params: providerId, clientId, from, to, status, includeCancelled (all optional)
func ParseAppointmentFilter(r *http.Request) (*models.ListRequest, error) {
	providerID, err := QueryInt64(r, "providerId")
	if err != nil {
		return nil, err
	}
	clientID, err := QueryInt64(r, "clientId")
	if err != nil {
		return nil, err
	}
	from, err := QueryDate(r, "from")
	if err != nil {
		return nil, err
	}
	to, err := QueryDate(r, "to")
	if err != nil {
		return nil, err
	}
	includeCancelled, err := QueryBool(r, "includeCancelled", false)
	if err != nil {
		return nil, err
	}

	req := &models.ListRequest{
		ProviderID:       providerID,
		ClientID:         clientID,
		From:             from,
		To:               to,
		IncludeCancelled: includeCancelled,
	}
	if status := r.URL.Query().Get("status"); status != "" {
		req.Status = &status
	}
	return req, nil
}
