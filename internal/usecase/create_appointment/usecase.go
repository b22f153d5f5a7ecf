package create_appointment

import (
	"context"
	"fmt"
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/internal/infra/lock"
	"github.com/m04kA/SMC-SchedulingService/internal/usecase/booking"
)

// UseCase use case для создания записи
type UseCase struct {
	appointmentRepo AppointmentRepository
	blockRepo       BlockRepository
	catalog         CatalogClient
	staff           StaffClient
	clients         ClientRegistry
	resolver        ProviderResolver
	locker          Locker
	txManager       TransactionManager
	recorder        OutcomeRecorder
	logger          Logger
}

// NewUseCase создает новый экземпляр use case. recorder может быть nil
func NewUseCase(
	appointmentRepo AppointmentRepository,
	blockRepo BlockRepository,
	catalog CatalogClient,
	staff StaffClient,
	clients ClientRegistry,
	resolver ProviderResolver,
	locker Locker,
	txManager TransactionManager,
	recorder OutcomeRecorder,
	logger Logger,
) *UseCase {
	return &UseCase{
		appointmentRepo: appointmentRepo,
		blockRepo:       blockRepo,
		catalog:         catalog,
		staff:           staff,
		clients:         clients,
		resolver:        resolver,
		locker:          locker,
		txManager:       txManager,
		recorder:        recorder,
		logger:          logger,
	}
}

// Execute выполняет use case создания записи
//
// Проверки внешних справочников выполняются до блокировок. Сама вставка идёт под
// блокировкой дня мастера и в сериализуемой транзакции, где интервал заново сверяется
// с расписанием и живыми записями. Любая гонка завершается domain.ErrSlotConflict.
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*domain.Appointment, error) {
	result, err := uc.execute(ctx, req)
	booking.Record(uc.recorder, booking.Outcome(err))
	return result, err
}

func (uc *UseCase) execute(ctx context.Context, req *Request) (*domain.Appointment, error) {
	uc.logger.Info("CreateAppointment: client=%d, provider=%v, date=%s, time=%s, services=%v",
		req.ClientID, req.ProviderID, req.Date.Format(domain.DateFormat), req.StartTime, req.ServiceIDs)

	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("CreateAppointment: validation failed: %v", err)
		return nil, err
	}
	status, err := initialStatus(req.Status)
	if err != nil {
		uc.logger.Warn("CreateAppointment: invalid status: %v", err)
		return nil, err
	}
	date := domain.DateOnly(req.Date)

	// 2. Клиент должен существовать
	exists, err := uc.clients.Exists(ctx, req.ClientID)
	if err != nil {
		uc.logger.Error("CreateAppointment: client registry error for client=%d: %v", req.ClientID, err)
		return nil, fmt.Errorf("%w: failed to check client: %v", domain.ErrInternal, err)
	}
	if !exists {
		uc.logger.Warn("CreateAppointment: client id=%d not found", req.ClientID)
		return nil, domain.ErrClientNotFound
	}

	// 3. Фиксируем цену и длительность услуг
	snapshot, err := booking.SnapshotServices(ctx, uc.catalog, req.ServiceIDs)
	if err != nil {
		uc.logger.Warn("CreateAppointment: services rejected: %v", err)
		return nil, err
	}

	endTime, err := req.StartTime.AddMinutes(snapshot.DurationMinutes)
	if err != nil {
		uc.logger.Warn("CreateAppointment: %s + %d minutes does not fit the day", req.StartTime, snapshot.DurationMinutes)
		return nil, fmt.Errorf("%w: appointment must end within the day", domain.ErrOutsideAvailability)
	}

	// 4. Мастер: указанный должен быть активен, иначе подбираем
	providerID, err := uc.pickProvider(ctx, req, date, snapshot.DurationMinutes)
	if err != nil {
		return nil, err
	}

	appointment := &domain.Appointment{
		ClientID:        req.ClientID,
		ProviderID:      providerID,
		Date:            date,
		StartTime:       req.StartTime,
		EndTime:         endTime,
		DurationMinutes: snapshot.DurationMinutes,
		Services:        snapshot.Services,
		Status:          status,
		TotalPrice:      snapshot.TotalPrice,
		Notes:           req.Notes,
	}

	// 5. Блокировка дня мастера и сериализуемая транзакция
	var created *domain.Appointment
	err = uc.locker.WithLock(ctx, lock.ProviderDayKey(providerID, date), func(lockCtx context.Context) error {
		return uc.txManager.DoSerializable(lockCtx, func(txCtx context.Context) error {
			block, err := booking.Place(txCtx, uc.blockRepo, uc.appointmentRepo,
				providerID, date, appointment.StartTime, appointment.EndTime, 0)
			if err != nil {
				return err
			}
			appointment.AvailabilityBlockID = block.ID

			created, err = uc.appointmentRepo.Create(txCtx, appointment)
			return err
		})
	})
	if err != nil {
		err = booking.ClassifyWriteError("CreateAppointment", err)
		uc.logger.Warn("CreateAppointment: provider=%d %s %s-%s rejected: %v",
			providerID, date.Format(domain.DateFormat), appointment.StartTime, appointment.EndTime, err)
		return nil, err
	}

	uc.logger.Info("CreateAppointment: appointment id=%d created for provider=%d %s %s-%s",
		created.ID, providerID, date.Format(domain.DateFormat), created.StartTime, created.EndTime)
	return created, nil
}

func (uc *UseCase) pickProvider(ctx context.Context, req *Request, date time.Time, duration int) (int64, error) {
	if req.ProviderID != nil {
		active, err := uc.staff.IsActiveProvider(ctx, *req.ProviderID)
		if err != nil {
			uc.logger.Error("CreateAppointment: staff error for provider=%d: %v", *req.ProviderID, err)
			return 0, fmt.Errorf("%w: failed to check provider: %v", domain.ErrInternal, err)
		}
		if !active {
			uc.logger.Warn("CreateAppointment: provider id=%d not found or inactive", *req.ProviderID)
			return 0, domain.ErrProviderNotFound
		}
		return *req.ProviderID, nil
	}

	candidates, err := uc.staff.ListProvidersWithRole(ctx)
	if err != nil {
		uc.logger.Error("CreateAppointment: failed to list providers: %v", err)
		return 0, fmt.Errorf("%w: failed to list providers: %v", domain.ErrInternal, err)
	}

	providerID, err := uc.resolver.AssignProvider(ctx, date, req.StartTime, duration, candidates)
	if err != nil {
		uc.logger.Warn("CreateAppointment: auto-assignment failed: %v", err)
		return 0, err
	}
	return providerID, nil
}
