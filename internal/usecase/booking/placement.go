package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/internal/infra/lock"
	appointmentRepo "github.com/m04kA/SMC-SchedulingService/internal/infra/storage/appointment"
	"github.com/m04kA/SMC-SchedulingService/internal/scheduling"
	"github.com/m04kA/SMC-SchedulingService/pkg/txmanager"
	"github.com/m04kA/SMC-SchedulingService/pkg/types"
)

// Исходы бронирования для метрики booking_outcomes_total
const (
	OutcomeCreated             = "created"
	OutcomeRescheduled         = "rescheduled"
	OutcomeConflict            = "conflict"
	OutcomeOutsideAvailability = "outside_availability"
	OutcomeNoProvider          = "no_provider"
	OutcomeRejected            = "rejected"
	OutcomeError               = "error"
)

// Place проверяет интервал внутри транзакции и возвращает покрывающий его блок
//
// Берёт транзакционную блокировку дня мастера, ищет активный блок, окно которого
// содержит интервал, и перечитывает записи мастера на дату с блокировкой строк.
// Запись excludeID (при переносе) в пересечениях не учитывается.
func Place(
	ctx context.Context,
	blocks BlockRepository,
	appointments DayLocker,
	providerID int64,
	date time.Time,
	start, end types.TimeString,
	excludeID int64,
) (*domain.AvailabilityBlock, error) {
	if err := appointments.LockProviderDay(ctx, providerID, date); err != nil {
		return nil, fmt.Errorf("Place - lock provider day: %w", err)
	}

	candidates, err := blocks.List(ctx, domain.BlockFilter{
		ProviderID: &providerID,
		ActiveOnly: true,
		From:       &date,
		To:         &date,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: Place - list blocks: %v", domain.ErrInternal, err)
	}

	block := scheduling.FindCoveringBlock(candidates, providerID, date, start, end)
	if block == nil {
		return nil, fmt.Errorf("%w: provider=%d %s %s-%s",
			domain.ErrOutsideAvailability, providerID, date.Format(domain.DateFormat), start, end)
	}

	existing, err := appointments.ListActiveByProviderAndDate(ctx, providerID, date)
	if err != nil {
		return nil, fmt.Errorf("Place - list appointments: %w", err)
	}

	if conflict := scheduling.FindConflict(existing, providerID, date, start, end, excludeID); conflict != nil {
		return nil, fmt.Errorf("%w: overlaps appointment id=%d %s-%s",
			domain.ErrSlotConflict, conflict.ID, conflict.StartTime, conflict.EndTime)
	}

	return block, nil
}

// ClassifyWriteError приводит ошибки блокировок, сериализации и ограничения исключения к domain.ErrSlotConflict
// Доменные ошибки возвращаются как есть, прочие оборачиваются в domain.ErrInternal
func ClassifyWriteError(op string, err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, lock.ErrLockNotAcquired),
		errors.Is(err, txmanager.ErrSerialization),
		errors.Is(err, appointmentRepo.ErrOverlap),
		errors.Is(err, appointmentRepo.ErrSerialization):
		return fmt.Errorf("%w: %s: %v", domain.ErrSlotConflict, op, err)
	case isDomainError(err):
		return err
	default:
		return fmt.Errorf("%w: %s: %v", domain.ErrInternal, op, err)
	}
}

// Outcome возвращает метку исхода для ошибки бронирования
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeCreated
	case errors.Is(err, domain.ErrSlotConflict):
		return OutcomeConflict
	case errors.Is(err, domain.ErrOutsideAvailability):
		return OutcomeOutsideAvailability
	case errors.Is(err, domain.ErrNoAvailableProvider):
		return OutcomeNoProvider
	case errors.Is(err, domain.ErrInternal):
		return OutcomeError
	default:
		return OutcomeRejected
	}
}

// Record пишет исход в recorder, nil допустим
func Record(recorder OutcomeRecorder, outcome string) {
	if recorder != nil {
		recorder.RecordBookingOutcome(outcome)
	}
}

var domainErrors = []error{
	domain.ErrInvalidInput,
	domain.ErrServiceNotFound,
	domain.ErrServiceInactive,
	domain.ErrOutsideAvailability,
	domain.ErrNoAvailableProvider,
	domain.ErrSlotConflict,
	domain.ErrIllegalTransition,
	domain.ErrImmutableAppointment,
	domain.ErrAppointmentNotFound,
	domain.ErrClientNotFound,
	domain.ErrProviderNotFound,
	domain.ErrInternal,
}

func isDomainError(err error) bool {
	for _, target := range domainErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
