package appointments

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	appointmentRepo "github.com/m04kA/SMC-SchedulingService/internal/infra/storage/appointment"
	"github.com/m04kA/SMC-SchedulingService/internal/service/appointments/models"
)

// Service сервис жизненного цикла записей: статусы, выборки, административное удаление
type Service struct {
	appointmentRepo AppointmentRepository
	references      ReferenceChecker
	txManager       TransactionManager
	timeProvider    TimeProvider
	logger          Logger
}

// NewService создает новый экземпляр сервиса записей. При references == nil внешних ссылок не бывает
func NewService(
	appointmentRepo AppointmentRepository,
	references ReferenceChecker,
	txManager TransactionManager,
	logger Logger,
) *Service {
	if references == nil {
		references = NoReferences{}
	}
	return &Service{
		appointmentRepo: appointmentRepo,
		references:      references,
		txManager:       txManager,
		timeProvider:    &RealTimeProvider{},
		logger:          logger,
	}
}

// GetByID получает запись по ID
func (s *Service) GetByID(ctx context.Context, id int64) (*domain.Appointment, error) {
	appointment, err := s.appointmentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, s.repoError("GetByID", id, err)
	}
	return appointment, nil
}

// List получает записи с фильтрацией
// Без status и includeCancelled отменённые записи не возвращаются
func (s *Service) List(ctx context.Context, req *models.ListRequest) ([]*domain.Appointment, error) {
	filter, err := req.ToDomainFilter()
	if err != nil {
		s.logger.Warn("List: invalid filter: %v", err)
		return nil, err
	}
	if filter.StartDate != nil && filter.EndDate != nil && filter.StartDate.After(*filter.EndDate) {
		return nil, fmt.Errorf("%w: from must not be after to", domain.ErrInvalidInput)
	}

	appointments, err := s.appointmentRepo.List(ctx, filter)
	if err != nil {
		s.logger.Error("List: repository error: %v", err)
		return nil, fmt.Errorf("%w: List - repository error: %v", domain.ErrInternal, err)
	}

	s.logger.Info("List: fetched %d appointments", len(appointments))
	return appointments, nil
}

// ListForProvider записи мастера за период
func (s *Service) ListForProvider(ctx context.Context, providerID int64, req *models.ListRequest) ([]*domain.Appointment, error) {
	if providerID <= 0 {
		return nil, fmt.Errorf("%w: providerId must be positive", domain.ErrInvalidInput)
	}
	scoped := *req
	scoped.ProviderID = &providerID
	return s.List(ctx, &scoped)
}

// ListForClient записи клиента за период
func (s *Service) ListForClient(ctx context.Context, clientID int64, req *models.ListRequest) ([]*domain.Appointment, error) {
	if clientID <= 0 {
		return nil, fmt.Errorf("%w: clientId must be positive", domain.ErrInvalidInput)
	}
	scoped := *req
	scoped.ClientID = &clientID
	return s.List(ctx, &scoped)
}

// ChangeStatus переводит запись в новый статус по таблице переходов
//
// Строка читается с блокировкой внутри транзакции. Повторная отмена уже отменённой
// записи возвращает её без изменений. Недопустимый переход возвращает *domain.IllegalTransitionError.
func (s *Service) ChangeStatus(ctx context.Context, id int64, newStatus domain.AppointmentStatus) (*domain.Appointment, error) {
	s.logger.Info("ChangeStatus: appointment id=%d -> %s", id, newStatus)

	if !newStatus.IsValid() {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidInput, newStatus)
	}

	var result *domain.Appointment
	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		appointment, err := s.appointmentRepo.GetByID(txCtx, id)
		if err != nil {
			return s.repoError("ChangeStatus", id, err)
		}

		if appointment.Status == domain.StatusCancelled && newStatus == domain.StatusCancelled {
			result = appointment
			return nil
		}

		if !appointment.Status.CanTransitionTo(newStatus) {
			s.logger.Warn("ChangeStatus: illegal transition %s -> %s for appointment id=%d",
				appointment.Status, newStatus, id)
			return &domain.IllegalTransitionError{From: appointment.Status, To: newStatus}
		}

		cancelledAt := appointment.CancelledAt
		if newStatus == domain.StatusCancelled {
			now := s.timeProvider.Now().UTC()
			cancelledAt = &now
		}

		if err := s.appointmentRepo.UpdateStatus(txCtx, id, newStatus, cancelledAt); err != nil {
			return s.repoError("ChangeStatus", id, err)
		}

		result, err = s.appointmentRepo.GetByID(txCtx, id)
		if err != nil {
			return s.repoError("ChangeStatus", id, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("ChangeStatus: appointment id=%d is %s", id, result.Status)
	return result, nil
}

// Cancel отменяет запись, интервал освобождается
func (s *Service) Cancel(ctx context.Context, id int64) (*domain.Appointment, error) {
	return s.ChangeStatus(ctx, id, domain.StatusCancelled)
}

// HardDelete физически удаляет запись (административная операция)
// Запись, на которую есть внешние ссылки, не удаляется
func (s *Service) HardDelete(ctx context.Context, id int64) error {
	s.logger.Info("HardDelete: appointment id=%d", id)

	referenced, err := s.references.HasReferences(ctx, id)
	if err != nil {
		s.logger.Error("HardDelete: reference check failed for appointment id=%d: %v", id, err)
		return fmt.Errorf("%w: HardDelete - reference check: %v", domain.ErrInternal, err)
	}
	if referenced {
		s.logger.Warn("HardDelete: appointment id=%d is referenced", id)
		return domain.ErrAppointmentReferenced
	}

	err = s.txManager.Do(ctx, func(txCtx context.Context) error {
		if _, err := s.appointmentRepo.GetByID(txCtx, id); err != nil {
			return s.repoError("HardDelete", id, err)
		}
		if err := s.appointmentRepo.Delete(txCtx, id); err != nil {
			return s.repoError("HardDelete", id, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("HardDelete: appointment id=%d deleted", id)
	return nil
}

func (s *Service) repoError(op string, id int64, err error) error {
	if errors.Is(err, appointmentRepo.ErrAppointmentNotFound) {
		s.logger.Warn("%s: appointment id=%d not found", op, id)
		return domain.ErrAppointmentNotFound
	}
	s.logger.Error("%s: repository error for appointment id=%d: %v", op, id, err)
	return fmt.Errorf("%w: %s - repository error: %v", domain.ErrInternal, op, err)
}
