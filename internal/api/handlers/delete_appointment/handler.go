package delete_appointment

import (
	"net/http"

	"github.com/m04kA/SMC-SchedulingService/internal/api/handlers"
	"github.com/m04kA/SMC-SchedulingService/internal/api/middleware"
)

const msgInvalidAppointmentID = "некорректный ID записи"

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

// Handle DELETE /api/v1/admin/appointments/{appointmentId}
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	appointmentID, err := handlers.PathID(r, "appointmentId")
	if err != nil {
		h.logger.Warn("DELETE /admin/appointments/{id} - Invalid appointment ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidAppointmentID)
		return
	}

	adminID, _ := middleware.GetUserID(r.Context())

	if err := h.service.HardDelete(r.Context(), appointmentID); err != nil {
		if status := handlers.RespondDomainError(w, err); status >= http.StatusInternalServerError {
			h.logger.Error("DELETE /admin/appointments/{id} - Failed to delete: appointment_id=%d, error=%v", appointmentID, err)
		} else {
			h.logger.Warn("DELETE /admin/appointments/{id} - Rejected: appointment_id=%d, error=%v", appointmentID, err)
		}
		return
	}

	h.logger.Info("DELETE /admin/appointments/{id} - Appointment deleted: appointment_id=%d, admin_id=%d", appointmentID, adminID)
	handlers.RespondNoContent(w)
}
