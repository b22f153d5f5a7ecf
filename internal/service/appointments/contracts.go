package appointments

import (
	"context"
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
)

// AppointmentRepository интерфейс репозитория записей
type AppointmentRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Appointment, error)
	List(ctx context.Context, filter domain.AppointmentFilter) ([]*domain.Appointment, error)
	UpdateStatus(ctx context.Context, id int64, status domain.AppointmentStatus, cancelledAt *time.Time) error
	Delete(ctx context.Context, id int64) error
}

// ReferenceChecker проверяет, ссылаются ли на запись внешние данные (оплаты, аудит)
type ReferenceChecker interface {
	HasReferences(ctx context.Context, appointmentID int64) (bool, error)
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
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

// NoReferences ReferenceChecker по умолчанию: внешних ссылок нет
type NoReferences struct{}

// HasReferences всегда возвращает false
func (NoReferences) HasReferences(context.Context, int64) (bool, error) {
	return false, nil
}
