package update_appointment

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/internal/infra/lock"
	appointmentRepo "github.com/m04kA/SMC-SchedulingService/internal/infra/storage/appointment"
	"github.com/m04kA/SMC-SchedulingService/internal/usecase/booking"
)

// maxLockAttempts сколько раз блокировка дня берётся заново, если запись переносят параллельно
const maxLockAttempts = 3

var errSlotKeyMoved = errors.New("appointment moved to another provider day")

// UseCase use case для изменения (переноса) записи
type UseCase struct {
	appointmentRepo AppointmentRepository
	blockRepo       BlockRepository
	catalog         CatalogClient
	staff           StaffClient
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
		locker:          locker,
		txManager:       txManager,
		recorder:        recorder,
		logger:          logger,
	}
}

// Execute выполняет use case изменения записи
//
// Статус при переносе сохраняется. Новый интервал проверяется так же, как при создании,
// без учёта самой записи. Изменение одного комментария интервал не перепроверяет.
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*domain.Appointment, error) {
	result, err := uc.execute(ctx, req)
	if req != nil && req.movesSlot() {
		outcome := booking.OutcomeRescheduled
		if err != nil {
			outcome = booking.Outcome(err)
		}
		booking.Record(uc.recorder, outcome)
	}
	return result, err
}

func (uc *UseCase) execute(ctx context.Context, req *Request) (*domain.Appointment, error) {
	uc.logger.Info("UpdateAppointment: id=%d", req.ID)

	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("UpdateAppointment: validation failed: %v", err)
		return nil, err
	}

	// 2. Текущее состояние записи, по нему выбирается день для блокировки
	current, err := uc.appointmentRepo.GetByID(ctx, req.ID)
	if err != nil {
		return nil, uc.repoError("get appointment", req.ID, err)
	}
	if current.Status.IsTerminal() {
		uc.logger.Warn("UpdateAppointment: appointment id=%d is %s", req.ID, current.Status)
		return nil, fmt.Errorf("%w: appointment id=%d is %s", domain.ErrImmutableAppointment, req.ID, current.Status)
	}

	// 3. Данные справочников для изменений запроса
	services, err := uc.resolveReferences(ctx, current, req)
	if err != nil {
		return nil, err
	}

	// 4. Изменения применяются к записи, прочитанной под блокировкой дня мастера.
	// Если запись успела переехать на другой день или к другому мастеру, блокировка берётся заново
	providerID, date := req.slotKey(current)
	for attempt := 1; ; attempt++ {
		err = uc.locker.WithLock(ctx, lock.ProviderDayKey(providerID, date), func(lockCtx context.Context) error {
			return uc.txManager.DoSerializable(lockCtx, func(txCtx context.Context) error {
				locked, err := uc.appointmentRepo.GetByID(txCtx, req.ID)
				if err != nil {
					return uc.repoError("lock appointment", req.ID, err)
				}
				if locked.Status.IsTerminal() {
					return fmt.Errorf("%w: appointment id=%d is %s", domain.ErrImmutableAppointment, req.ID, locked.Status)
				}

				target, err := uc.applyPatch(locked, req, services)
				if err != nil {
					return err
				}
				if target.ProviderID != providerID || !domain.SameDate(target.Date, date) {
					providerID, date = target.ProviderID, target.Date
					return errSlotKeyMoved
				}

				if req.movesSlot() {
					block, err := booking.Place(txCtx, uc.blockRepo, uc.appointmentRepo,
						target.ProviderID, target.Date, target.StartTime, target.EndTime, target.ID)
					if err != nil {
						return err
					}
					target.AvailabilityBlockID = block.ID
				}

				return uc.appointmentRepo.Update(txCtx, target, req.ServiceIDs != nil)
			})
		})
		if !errors.Is(err, errSlotKeyMoved) {
			break
		}
		if attempt == maxLockAttempts {
			err = fmt.Errorf("%w: appointment id=%d is being moved concurrently", domain.ErrSlotConflict, req.ID)
			break
		}
		uc.logger.Warn("UpdateAppointment: appointment id=%d moved concurrently, relocking provider=%d %s",
			req.ID, providerID, date.Format(domain.DateFormat))
	}
	if err != nil {
		err = booking.ClassifyWriteError("UpdateAppointment", err)
		uc.logger.Warn("UpdateAppointment: id=%d to provider=%d %s rejected: %v",
			req.ID, providerID, date.Format(domain.DateFormat), err)
		return nil, err
	}

	updated, err := uc.appointmentRepo.GetByID(ctx, req.ID)
	if err != nil {
		return nil, uc.repoError("reload appointment", req.ID, err)
	}

	uc.logger.Info("UpdateAppointment: appointment id=%d now provider=%d %s %s-%s",
		updated.ID, updated.ProviderID, updated.Date.Format(domain.DateFormat), updated.StartTime, updated.EndTime)
	return updated, nil
}

// resolveReferences проверяет нового мастера и снимает цены и длительности новых услуг.
// Возвращает nil, если услуги не меняются
func (uc *UseCase) resolveReferences(ctx context.Context, current *domain.Appointment, req *Request) (*booking.Snapshot, error) {
	if req.ProviderID != nil && *req.ProviderID != current.ProviderID {
		active, err := uc.staff.IsActiveProvider(ctx, *req.ProviderID)
		if err != nil {
			uc.logger.Error("UpdateAppointment: staff error for provider=%d: %v", *req.ProviderID, err)
			return nil, fmt.Errorf("%w: failed to check provider: %v", domain.ErrInternal, err)
		}
		if !active {
			uc.logger.Warn("UpdateAppointment: provider id=%d not found or inactive", *req.ProviderID)
			return nil, domain.ErrProviderNotFound
		}
	}

	if req.ServiceIDs == nil {
		return nil, nil
	}
	snapshot, err := booking.SnapshotServices(ctx, uc.catalog, *req.ServiceIDs)
	if err != nil {
		uc.logger.Warn("UpdateAppointment: services rejected: %v", err)
		return nil, err
	}
	return snapshot, nil
}

// applyPatch строит новое состояние записи из прочитанного под блокировкой и изменений запроса
func (uc *UseCase) applyPatch(locked *domain.Appointment, req *Request, services *booking.Snapshot) (*domain.Appointment, error) {
	target := *locked
	target.Services = append([]domain.AppointmentService(nil), locked.Services...)

	if req.Date != nil {
		target.Date = domain.DateOnly(*req.Date)
	}
	if req.StartTime != nil {
		target.StartTime = *req.StartTime
	}
	if req.ProviderID != nil {
		target.ProviderID = *req.ProviderID
	}
	if req.Notes != nil {
		target.Notes = req.Notes
	}
	if services != nil {
		target.Services = append([]domain.AppointmentService(nil), services.Services...)
		target.DurationMinutes = services.DurationMinutes
		target.TotalPrice = services.TotalPrice
	}

	endTime, err := target.StartTime.AddMinutes(target.DurationMinutes)
	if err != nil {
		uc.logger.Warn("UpdateAppointment: %s + %d minutes does not fit the day", target.StartTime, target.DurationMinutes)
		return nil, fmt.Errorf("%w: appointment must end within the day", domain.ErrOutsideAvailability)
	}
	target.EndTime = endTime

	return &target, nil
}

func (uc *UseCase) repoError(step string, id int64, err error) error {
	if errors.Is(err, appointmentRepo.ErrAppointmentNotFound) {
		uc.logger.Warn("UpdateAppointment: appointment id=%d not found", id)
		return domain.ErrAppointmentNotFound
	}
	uc.logger.Error("UpdateAppointment: failed to %s id=%d: %v", step, id, err)
	return fmt.Errorf("%w: UpdateAppointment - %s: %v", domain.ErrInternal, step, err)
}
