package change_appointment_status

import (
	"net/http"

	"github.com/m04kA/SMC-SchedulingService/internal/api/handlers"
	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/internal/service/appointments/models"
)

const (
	msgInvalidAppointmentID = "некорректный ID записи"
	msgInvalidRequestBody   = "некорректное тело запроса"
	msgInvalidStatus        = "неизвестный статус записи"
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

// Handle PATCH /api/v1/appointments/{appointmentId}/status
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	appointmentID, err := handlers.PathID(r, "appointmentId")
	if err != nil {
		h.logger.Warn("PATCH /appointments/{id}/status - Invalid appointment ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidAppointmentID)
		return
	}

	var req ChangeStatusRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("PATCH /appointments/{id}/status - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	status, err := domain.ParseAppointmentStatus(req.Status)
	if err != nil {
		h.logger.Warn("PATCH /appointments/{id}/status - Invalid status %q", req.Status)
		handlers.RespondBadRequest(w, msgInvalidStatus)
		return
	}

	appointment, err := h.service.ChangeStatus(r.Context(), appointmentID, status)
	if err != nil {
		if code := handlers.RespondDomainError(w, err); code >= http.StatusInternalServerError {
			h.logger.Error("PATCH /appointments/{id}/status - Failed: appointment_id=%d, error=%v", appointmentID, err)
		} else {
			h.logger.Warn("PATCH /appointments/{id}/status - Rejected: appointment_id=%d, status=%s, error=%v",
				appointmentID, status, err)
		}
		return
	}

	h.logger.Info("PATCH /appointments/{id}/status - Status changed: appointment_id=%d, status=%s", appointmentID, status)
	handlers.RespondJSON(w, http.StatusOK, models.FromDomainAppointment(appointment))
}
