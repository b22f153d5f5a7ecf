package assignment

import (
	"context"
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
)

// BlockRepository интерфейс репозитория блоков доступности
type BlockRepository interface {
	List(ctx context.Context, filter domain.BlockFilter) ([]*domain.AvailabilityBlock, error)
}

// AppointmentRepository интерфейс репозитория записей
type AppointmentRepository interface {
	ListActiveByProviderAndDate(ctx context.Context, providerID int64, date time.Time) ([]*domain.Appointment, error)
}

// ProviderDirectory интерфейс справочника мастеров
type ProviderDirectory interface {
	IsActiveProvider(ctx context.Context, providerID int64) (bool, error)
}

// Policy задаёт порядок перебора кандидатов
type Policy interface {
	Order(candidates []int64) []int64
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
