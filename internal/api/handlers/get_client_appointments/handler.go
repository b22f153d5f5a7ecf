package get_client_appointments

import (
	"net/http"

	"github.com/m04kA/SMC-SchedulingService/internal/api/handlers"
	"github.com/m04kA/SMC-SchedulingService/internal/service/appointments/models"
)

const (
	msgInvalidClientID = "некорректный ID клиента"
	msgInvalidQuery    = "некорректные параметры фильтра"
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

// Handle GET /api/v1/clients/{clientId}/appointments
// Query params: from, to, status, includeCancelled (all optional)
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	clientID, err := handlers.PathID(r, "clientId")
	if err != nil {
		h.logger.Warn("GET /clients/{id}/appointments - Invalid client ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidClientID)
		return
	}

	req, err := handlers.ParseAppointmentFilter(r)
	if err != nil {
		h.logger.Warn("GET /clients/{id}/appointments - Invalid query: %v", err)
		handlers.RespondBadRequest(w, msgInvalidQuery)
		return
	}

	appointments, err := h.service.ListForClient(r.Context(), clientID, req)
	if err != nil {
		if status := handlers.RespondDomainError(w, err); status >= http.StatusInternalServerError {
			h.logger.Error("GET /clients/{id}/appointments - Failed: client_id=%d, error=%v", clientID, err)
		} else {
			h.logger.Warn("GET /clients/{id}/appointments - Rejected: client_id=%d, error=%v", clientID, err)
		}
		return
	}

	h.logger.Info("GET /clients/{id}/appointments - Retrieved: client_id=%d, count=%d", clientID, len(appointments))
	handlers.RespondJSON(w, http.StatusOK, models.FromDomainAppointmentList(appointments))
}
