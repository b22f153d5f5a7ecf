package availability

import (
	"context"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
)

// BlockRepository интерфейс репозитория блоков доступности
type BlockRepository interface {
	Create(ctx context.Context, block *domain.AvailabilityBlock) (*domain.AvailabilityBlock, error)
	GetByID(ctx context.Context, id int64) (*domain.AvailabilityBlock, error)
	List(ctx context.Context, filter domain.BlockFilter) ([]*domain.AvailabilityBlock, error)
	UpdateBlock(ctx context.Context, block *domain.AvailabilityBlock) error
	SetActive(ctx context.Context, id int64, active bool) error
	ReplaceDayRules(ctx context.Context, blockID int64, rules []domain.DayRule) error
	SyncProviders(ctx context.Context, blockID int64, providerIDs []int64) ([]domain.BlockProvider, error)
}

// ProviderDirectory интерфейс справочника мастеров
type ProviderDirectory interface {
	IsActiveProvider(ctx context.Context, providerID int64) (bool, error)
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
