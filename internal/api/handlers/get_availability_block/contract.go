package get_availability_block

import (
	"context"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
)

type AvailabilityService interface {
	GetByID(ctx context.Context, id int64) (*domain.AvailabilityBlock, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
