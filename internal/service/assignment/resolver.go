package assignment

import (
	"context"
	"fmt"
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/internal/scheduling"
	"github.com/m04kA/SMC-SchedulingService/pkg/types"
)

// Resolver подбирает свободного мастера на интервал
type Resolver struct {
	blockRepo       BlockRepository
	appointmentRepo AppointmentRepository
	directory       ProviderDirectory
	policy          Policy
	granularity     int
	logger          Logger
}

// NewResolver создает резолвер. При policy == nil используется AscendingIDPolicy
func NewResolver(
	blockRepo BlockRepository,
	appointmentRepo AppointmentRepository,
	directory ProviderDirectory,
	policy Policy,
	granularity int,
	logger Logger,
) *Resolver {
	if policy == nil {
		policy = AscendingIDPolicy{}
	}
	return &Resolver{
		blockRepo:       blockRepo,
		appointmentRepo: appointmentRepo,
		directory:       directory,
		policy:          policy,
		granularity:     granularity,
		logger:          logger,
	}
}

// AssignProvider возвращает первого по политике мастера, у которого свободен [startTime, startTime+duration) на дату
//
// Для каждого кандидата строятся свободные слоты по его активным блокам и записям на эту дату.
// Кандидат подходит, если интервал лежит в объединении смежных слотов и целиком внутри одного окна
// расписания. Неактивные в справочнике кандидаты пропускаются.
func (r *Resolver) AssignProvider(
	ctx context.Context,
	date time.Time,
	startTime types.TimeString,
	durationMinutes int,
	candidates []int64,
) (int64, error) {
	date = domain.DateOnly(date)

	endTime, err := startTime.AddMinutes(durationMinutes)
	if err != nil || durationMinutes <= 0 {
		return 0, fmt.Errorf("%w: AssignProvider - interval %s+%dm does not fit the day", domain.ErrInvalidInput, startTime, durationMinutes)
	}

	for _, providerID := range r.policy.Order(candidates) {
		ok, err := r.isFree(ctx, providerID, date, startTime, endTime)
		if err != nil {
			return 0, err
		}
		if ok {
			r.logger.Info("AssignProvider: provider=%d assigned for %s %s-%s",
				providerID, date.Format(domain.DateFormat), startTime, endTime)
			return providerID, nil
		}
	}

	r.logger.Warn("AssignProvider: no provider among %d candidates for %s %s-%s",
		len(candidates), date.Format(domain.DateFormat), startTime, endTime)
	return 0, domain.ErrNoAvailableProvider
}

func (r *Resolver) isFree(ctx context.Context, providerID int64, date time.Time, start, end types.TimeString) (bool, error) {
	active, err := r.directory.IsActiveProvider(ctx, providerID)
	if err != nil {
		r.logger.Error("AssignProvider: directory error for provider=%d: %v", providerID, err)
		return false, fmt.Errorf("%w: AssignProvider - directory: %v", domain.ErrInternal, err)
	}
	if !active {
		return false, nil
	}

	blocks, err := r.blockRepo.List(ctx, domain.BlockFilter{
		ProviderID: &providerID,
		ActiveOnly: true,
		From:       &date,
		To:         &date,
	})
	if err != nil {
		r.logger.Error("AssignProvider: failed to list blocks for provider=%d: %v", providerID, err)
		return false, fmt.Errorf("%w: AssignProvider - list blocks: %v", domain.ErrInternal, err)
	}
	if len(blocks) == 0 {
		return false, nil
	}

	existing, err := r.appointmentRepo.ListActiveByProviderAndDate(ctx, providerID, date)
	if err != nil {
		r.logger.Error("AssignProvider: failed to list appointments for provider=%d: %v", providerID, err)
		return false, fmt.Errorf("%w: AssignProvider - list appointments: %v", domain.ErrInternal, err)
	}

	sets := make([][]domain.Slot, 0, len(blocks))
	for _, block := range blocks {
		slots := scheduling.GenerateSlots(block, date, date, r.granularity, existing)
		sets = append(sets, scheduling.RestrictToProvider(slots, providerID))
	}
	free := scheduling.MergeSlots(sets...)

	if !scheduling.ContainsInterval(free, providerID, date, start, end) {
		return false, nil
	}
	return scheduling.FindCoveringBlock(blocks, providerID, date, start, end) != nil, nil
}
