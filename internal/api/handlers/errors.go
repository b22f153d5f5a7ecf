package handlers

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
)

const (
	msgInvalidInput          = "некорректные входные данные"
	msgInvalidAvailability   = "некорректный блок доступности"
	msgServiceNotFound       = "услуга не найдена"
	msgServiceInactive       = "услуга недоступна для записи"
	msgOutsideAvailability   = "интервал вне расписания мастера"
	msgNoAvailableProvider   = "нет свободных мастеров на выбранное время"
	msgSlotConflict          = "выбранное время уже занято"
	msgIllegalTransition     = "недопустимая смена статуса"
	msgImmutableAppointment  = "запись в финальном статусе не может быть изменена"
	msgAppointmentNotFound   = "запись не найдена"
	msgBlockNotFound         = "блок доступности не найден"
	msgClientNotFound        = "клиент не найден"
	msgProviderNotFound      = "мастер не найден или неактивен"
	msgAppointmentReferenced = "на запись есть ссылки, удаление невозможно"
)

// ErrorMapping HTTP представление доменной ошибки
type ErrorMapping struct {
	Status  int
	Code    string
	Message string
}

// MapDomainError сопоставляет доменную ошибку статусу и коду ответа
func MapDomainError(err error) ErrorMapping {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return ErrorMapping{http.StatusBadRequest, CodeInvalidInput, msgInvalidInput}
	case errors.Is(err, domain.ErrInvalidAvailability):
		return ErrorMapping{http.StatusUnprocessableEntity, CodeInvalidAvailability, invalidAvailabilityMessage(err)}
	case errors.Is(err, domain.ErrServiceNotFound):
		return ErrorMapping{http.StatusNotFound, CodeServiceNotFound, msgServiceNotFound}
	case errors.Is(err, domain.ErrServiceInactive):
		return ErrorMapping{http.StatusUnprocessableEntity, CodeServiceInactive, msgServiceInactive}
	case errors.Is(err, domain.ErrOutsideAvailability):
		return ErrorMapping{http.StatusUnprocessableEntity, CodeOutsideAvailability, msgOutsideAvailability}
	case errors.Is(err, domain.ErrNoAvailableProvider):
		return ErrorMapping{http.StatusConflict, CodeNoAvailableProvider, msgNoAvailableProvider}
	case errors.Is(err, domain.ErrSlotConflict):
		return ErrorMapping{http.StatusConflict, CodeSlotConflict, msgSlotConflict}
	case errors.Is(err, domain.ErrIllegalTransition):
		return ErrorMapping{http.StatusConflict, CodeIllegalTransition, illegalTransitionMessage(err)}
	case errors.Is(err, domain.ErrImmutableAppointment):
		return ErrorMapping{http.StatusConflict, CodeImmutableAppointment, msgImmutableAppointment}
	case errors.Is(err, domain.ErrAppointmentReferenced):
		return ErrorMapping{http.StatusConflict, CodeAppointmentReferenced, msgAppointmentReferenced}
	case errors.Is(err, domain.ErrAppointmentNotFound):
		return ErrorMapping{http.StatusNotFound, CodeNotFound, msgAppointmentNotFound}
	case errors.Is(err, domain.ErrBlockNotFound):
		return ErrorMapping{http.StatusNotFound, CodeNotFound, msgBlockNotFound}
	case errors.Is(err, domain.ErrClientNotFound):
		return ErrorMapping{http.StatusNotFound, CodeNotFound, msgClientNotFound}
	case errors.Is(err, domain.ErrProviderNotFound):
		return ErrorMapping{http.StatusNotFound, CodeNotFound, msgProviderNotFound}
	default:
		return ErrorMapping{http.StatusInternalServerError, CodeInternal, msgInternalError}
	}
}

// RespondDomainError пишет ответ для доменной ошибки и возвращает выбранный статус
func RespondDomainError(w http.ResponseWriter, err error) int {
	m := MapDomainError(err)
	RespondError(w, m.Status, m.Code, m.Message)
	return m.Status
}

func invalidAvailabilityMessage(err error) string {
	var target *domain.InvalidAvailabilityError
	if errors.As(err, &target) && target.Reason != "" {
		return msgInvalidAvailability + ": " + target.Reason
	}
	return msgInvalidAvailability
}

func illegalTransitionMessage(err error) string {
	var target *domain.IllegalTransitionError
	if errors.As(err, &target) {
		return msgIllegalTransition + ": " + string(target.From) + " -> " + string(target.To)
	}
	return msgIllegalTransition
}
