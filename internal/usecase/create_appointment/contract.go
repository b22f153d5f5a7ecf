package create_appointment

import (
	"context"
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/internal/integrations/catalogservice"
	"github.com/m04kA/SMC-SchedulingService/pkg/types"
)

// AppointmentRepository интерфейс репозитория записей
type AppointmentRepository interface {
	Create(ctx context.Context, a *domain.Appointment) (*domain.Appointment, error)
	LockProviderDay(ctx context.Context, providerID int64, date time.Time) error
	ListActiveByProviderAndDate(ctx context.Context, providerID int64, date time.Time) ([]*domain.Appointment, error)
}

// BlockRepository интерфейс репозитория блоков доступности
type BlockRepository interface {
	List(ctx context.Context, filter domain.BlockFilter) ([]*domain.AvailabilityBlock, error)
}

// CatalogClient интерфейс клиента каталога услуг
type CatalogClient interface {
	GetService(ctx context.Context, serviceID int64) (*catalogservice.Service, error)
}

// StaffClient интерфейс клиента справочника мастеров
type StaffClient interface {
	IsActiveProvider(ctx context.Context, providerID int64) (bool, error)
	ListProvidersWithRole(ctx context.Context) ([]int64, error)
}

// ClientRegistry интерфейс реестра клиентов
type ClientRegistry interface {
	Exists(ctx context.Context, clientID int64) (bool, error)
}

// ProviderResolver подбирает мастера, когда он не указан
type ProviderResolver interface {
	AssignProvider(ctx context.Context, date time.Time, startTime types.TimeString, durationMinutes int, candidates []int64) (int64, error)
}

// Locker блокировка дня мастера между экземплярами сервиса
type Locker interface {
	WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
}

// OutcomeRecorder учёт результатов бронирования
type OutcomeRecorder interface {
	RecordBookingOutcome(outcome string)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
