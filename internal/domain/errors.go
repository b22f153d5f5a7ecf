package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput          = errors.New("invalid input data")
	ErrInvalidAvailability   = errors.New("invalid availability")
	ErrServiceNotFound       = errors.New("service not found")
	ErrServiceInactive       = errors.New("service is inactive")
	ErrOutsideAvailability   = errors.New("requested interval is outside provider availability")
	ErrNoAvailableProvider   = errors.New("no available provider")
	ErrSlotConflict          = errors.New("slot conflict")
	ErrIllegalTransition     = errors.New("illegal status transition")
	ErrImmutableAppointment  = errors.New("appointment is in a terminal status")
	ErrAppointmentNotFound   = errors.New("appointment not found")
	ErrBlockNotFound         = errors.New("availability block not found")
	ErrClientNotFound        = errors.New("client not found")
	ErrProviderNotFound      = errors.New("provider not found or inactive")
	ErrAppointmentReferenced = errors.New("appointment is referenced by other records")
	ErrInternal              = errors.New("internal error")
)

// InvalidAvailabilityError описывает нарушение правил блока доступности
type InvalidAvailabilityError struct {
	Rule   *DayRule
	Reason string
}

func (e *InvalidAvailabilityError) Error() string {
	if e.Rule != nil {
		return fmt.Sprintf("%s: %s (weekday=%d %s-%s)",
			ErrInvalidAvailability, e.Reason, e.Rule.Weekday, e.Rule.StartTime, e.Rule.EndTime)
	}
	return fmt.Sprintf("%s: %s", ErrInvalidAvailability, e.Reason)
}

func (e *InvalidAvailabilityError) Unwrap() error {
	return ErrInvalidAvailability
}

// NewInvalidAvailability создает ошибку без привязки к правилу
func NewInvalidAvailability(reason string) *InvalidAvailabilityError {
	return &InvalidAvailabilityError{Reason: reason}
}

// IllegalTransitionError попытка перехода, отсутствующего в таблице статусов
type IllegalTransitionError struct {
	From AppointmentStatus
	To   AppointmentStatus
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("%s: %s -> %s", ErrIllegalTransition, e.From, e.To)
}

func (e *IllegalTransitionError) Unwrap() error {
	return ErrIllegalTransition
}
