package list_appointments

import (
	"net/http"

	"github.com/m04kA/SMC-SchedulingService/internal/api/handlers"
	"github.com/m04kA/SMC-SchedulingService/internal/service/appointments/models"
)

const msgInvalidQuery = "некорректные параметры фильтра"

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

// Handle GET /api/v1/appointments
// Query params: см. handlers.ParseAppointmentFilter
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	req, err := handlers.ParseAppointmentFilter(r)
	if err != nil {
		h.logger.Warn("GET /appointments - Invalid query: %v", err)
		handlers.RespondBadRequest(w, msgInvalidQuery)
		return
	}

	appointments, err := h.service.List(r.Context(), req)
	if err != nil {
		if status := handlers.RespondDomainError(w, err); status >= http.StatusInternalServerError {
			h.logger.Error("GET /appointments - Failed to list appointments: %v", err)
		} else {
			h.logger.Warn("GET /appointments - Rejected: %v", err)
		}
		return
	}

	h.logger.Info("GET /appointments - Appointments retrieved successfully: count=%d", len(appointments))
	handlers.RespondJSON(w, http.StatusOK, models.FromDomainAppointmentList(appointments))
}
