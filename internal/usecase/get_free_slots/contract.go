package get_free_slots

import (
	"context"
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/internal/integrations/catalogservice"
)

// BlockRepository интерфейс репозитория блоков доступности
type BlockRepository interface {
	List(ctx context.Context, filter domain.BlockFilter) ([]*domain.AvailabilityBlock, error)
}

// AppointmentRepository интерфейс репозитория записей
type AppointmentRepository interface {
	// ListActiveInRange получает неотменённые записи мастеров за период
	ListActiveInRange(ctx context.Context, providerIDs []int64, from, to time.Time) ([]*domain.Appointment, error)
}

// CatalogClient интерфейс клиента каталога услуг
type CatalogClient interface {
	GetService(ctx context.Context, serviceID int64) (*catalogservice.Service, error)
}

// TimeProvider интерфейс для получения текущего времени (для тестирования)
type TimeProvider interface {
	Now() time.Time
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// RealTimeProvider реальный провайдер времени для production
type RealTimeProvider struct{}

// Now возвращает текущее время
func (p *RealTimeProvider) Now() time.Time {
	return time.Now()
}
