package booking

import (
	"context"
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/internal/integrations/catalogservice"
)

// CatalogClient интерфейс клиента каталога услуг
type CatalogClient interface {
	GetService(ctx context.Context, serviceID int64) (*catalogservice.Service, error)
}

// BlockRepository интерфейс репозитория блоков доступности
type BlockRepository interface {
	List(ctx context.Context, filter domain.BlockFilter) ([]*domain.AvailabilityBlock, error)
}

// DayLocker интерфейс репозитория записей, умеющего блокировать день мастера в транзакции
type DayLocker interface {
	LockProviderDay(ctx context.Context, providerID int64, date time.Time) error
	ListActiveByProviderAndDate(ctx context.Context, providerID int64, date time.Time) ([]*domain.Appointment, error)
}

// OutcomeRecorder интерфейс учёта результатов бронирования
type OutcomeRecorder interface {
	RecordBookingOutcome(outcome string)
}
