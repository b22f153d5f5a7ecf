package change_appointment_status

import (
	"context"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
)

type AppointmentService interface {
	ChangeStatus(ctx context.Context, id int64, newStatus domain.AppointmentStatus) (*domain.Appointment, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
