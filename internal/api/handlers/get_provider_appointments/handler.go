package get_provider_appointments

import (
	"net/http"

	"github.com/m04kA/SMC-SchedulingService/internal/api/handlers"
	"github.com/m04kA/SMC-SchedulingService/internal/service/appointments/models"
)

const (
	msgInvalidProviderID = "некорректный ID мастера"
	msgInvalidQuery      = "некорректные параметры фильтра"
)

type Handler struct {
	service AppointmentService
	logger  Logger
}

func NewHandler(service AppointmentService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle GET /api/v1/providers/{providerId}/appointments
// Query params: from, to, status, includeCancelled (all optional)
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	providerID, err := handlers.PathID(r, "providerId")
	if err != nil {
		h.logger.Warn("GET /providers/{id}/appointments - Invalid provider ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidProviderID)
		return
	}

	req, err := handlers.ParseAppointmentFilter(r)
	if err != nil {
		h.logger.Warn("GET /providers/{id}/appointments - Invalid query: %v", err)
		handlers.RespondBadRequest(w, msgInvalidQuery)
		return
	}

	appointments, err := h.service.ListForProvider(r.Context(), providerID, req)
	if err != nil {
		if status := handlers.RespondDomainError(w, err); status >= http.StatusInternalServerError {
			h.logger.Error("GET /providers/{id}/appointments - Failed: provider_id=%d, error=%v", providerID, err)
		} else {
			h.logger.Warn("GET /providers/{id}/appointments - Rejected: provider_id=%d, error=%v", providerID, err)
		}
		return
	}

	h.logger.Info("GET /providers/{id}/appointments - Retrieved: provider_id=%d, count=%d", providerID, len(appointments))
	handlers.RespondJSON(w, http.StatusOK, models.FromDomainAppointmentList(appointments))
}
