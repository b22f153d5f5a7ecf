package list_provider_availability

import (
	"context"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
)

type AvailabilityService interface {
	ListForProvider(ctx context.Context, providerID int64, activeOnly bool) ([]*domain.AvailabilityBlock, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
