package get_free_slots

import (
	"context"
	"fmt"
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/internal/scheduling"
	"github.com/m04kA/SMC-SchedulingService/internal/usecase/booking"
)

// UseCase use case для получения свободных слотов
type UseCase struct {
	blockRepo       BlockRepository
	appointmentRepo AppointmentRepository
	catalog         CatalogClient
	settings        Settings
	timeProvider    TimeProvider
	logger          Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	blockRepo BlockRepository,
	appointmentRepo AppointmentRepository,
	catalog CatalogClient,
	settings Settings,
	logger Logger,
) *UseCase {
	if settings.GranularityMinutes <= 0 {
		settings.GranularityMinutes = domain.DefaultSlotGranularityMinutes
	}
	if settings.MaxRangeDays <= 0 {
		settings.MaxRangeDays = domain.DefaultMaxRangeDays
	}
	if settings.Location == nil {
		settings.Location = time.Local
	}

	return &UseCase{
		blockRepo:       blockRepo,
		appointmentRepo: appointmentRepo,
		catalog:         catalog,
		settings:        settings,
		timeProvider:    &RealTimeProvider{},
		logger:          logger,
	}
}

// Execute выполняет use case получения свободных слотов
//
// Чтение идёт без блокировок: результат подсказка, при записи интервал проверяется заново.
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("GetFreeSlots: provider=%v, from=%s, to=%s, services=%v",
		req.ProviderID, req.From.Format(domain.DateFormat), req.To.Format(domain.DateFormat), req.ServiceIDs)

	// 1. Валидация входных данных
	if err := validateRequest(req, uc.settings.MaxRangeDays); err != nil {
		uc.logger.Warn("GetFreeSlots: validation failed: %v", err)
		return nil, err
	}

	from, to := domain.DateOnly(req.From), domain.DateOnly(req.To)
	granularity := uc.settings.GranularityMinutes
	if req.Granularity != nil {
		granularity = *req.Granularity
	}

	response := &Response{
		From:        from,
		To:          to,
		Granularity: granularity,
		Slots:       []domain.Slot{},
	}

	// 2. Суммарная длительность услуг
	if len(req.ServiceIDs) > 0 {
		snapshot, err := booking.SnapshotServices(ctx, uc.catalog, req.ServiceIDs)
		if err != nil {
			uc.logger.Warn("GetFreeSlots: services rejected: %v", err)
			return nil, err
		}
		response.DurationMinutes = snapshot.DurationMinutes
	}

	// 3. Активные блоки за период
	blocks, err := uc.blockRepo.List(ctx, domain.BlockFilter{
		ProviderID: req.ProviderID,
		ActiveOnly: true,
		From:       &from,
		To:         &to,
	})
	if err != nil {
		uc.logger.Error("GetFreeSlots: failed to list blocks: %v", err)
		return nil, fmt.Errorf("%w: failed to list blocks: %v", domain.ErrInternal, err)
	}
	if len(blocks) == 0 {
		uc.logger.Info("GetFreeSlots: no active availability in range")
		return response, nil
	}

	// 4. Записи мастеров за период
	existing, err := uc.appointmentRepo.ListActiveInRange(ctx, providerIDs(blocks, req.ProviderID), from, to)
	if err != nil {
		uc.logger.Error("GetFreeSlots: failed to list appointments: %v", err)
		return nil, fmt.Errorf("%w: failed to list appointments: %v", domain.ErrInternal, err)
	}

	// 5. Генерация слотов по каждому блоку и объединение
	perBlock := make([][]domain.Slot, 0, len(blocks))
	for _, block := range blocks {
		slots := scheduling.GenerateSlots(block, from, to, granularity, existing)
		if req.ProviderID != nil {
			slots = scheduling.RestrictToProvider(slots, *req.ProviderID)
		}
		perBlock = append(perBlock, slots)
	}
	slots := scheduling.MergeSlots(perBlock...)

	// 6. Старты, с которых помещаются все услуги подряд
	if response.DurationMinutes > 0 {
		slots = scheduling.FitDuration(slots, response.DurationMinutes)
	}

	response.Slots = dropPast(slots, uc.timeProvider.Now().In(uc.settings.Location))

	uc.logger.Info("GetFreeSlots: %d slots found", len(response.Slots))
	return response, nil
}
