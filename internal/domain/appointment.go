package domain

import (
	"time"

	"github.com/m04kA/SMC-SchedulingService/pkg/types"
)

// AppointmentService услуга в составе записи
// Цена и длительность фиксируются на момент записи
type AppointmentService struct {
	ID              int64
	AppointmentID   int64
	ServiceID       int64
	Position        int
	PriceAtBooking  float64
	DurationMinutes int
}

// Appointment запись клиента к мастеру
type Appointment struct {
	ID                  int64
	ClientID            int64
	ProviderID          int64
	AvailabilityBlockID int64
	Date                time.Time
	StartTime           types.TimeString
	EndTime             types.TimeString
	DurationMinutes     int
	Services            []AppointmentService
	Status              AppointmentStatus
	TotalPrice          float64
	Notes               *string
	CancelledAt         *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// HoldsSlot returns true if the appointment occupies its interval
func (a *Appointment) HoldsSlot() bool {
	return a.Status.HoldsSlot()
}

// IsModifiable returns true if the appointment can still be rescheduled or edited
func (a *Appointment) IsModifiable() bool {
	return !a.Status.IsTerminal()
}

// OverlapsInterval checks half-open overlap with [start, end) on the same date
func (a *Appointment) OverlapsInterval(date time.Time, start, end types.TimeString) bool {
	if !SameDate(a.Date, date) {
		return false
	}
	return a.StartTime.IsBefore(end) && start.IsBefore(a.EndTime)
}

// ServiceIDs returns the ids of the booked services in booking order
func (a *Appointment) ServiceIDs() []int64 {
	ids := make([]int64, 0, len(a.Services))
	for _, s := range a.Services {
		ids = append(ids, s.ServiceID)
	}
	return ids
}

// AppointmentFilter фильтр для выборки записей
type AppointmentFilter struct {
	ProviderID       *int64
	ClientID         *int64
	StartDate        *time.Time
	EndDate          *time.Time
	Status           *AppointmentStatus
	IncludeCancelled bool
}

// Slot свободный интервал мастера
type Slot struct {
	ProviderID int64
	Date       time.Time
	StartTime  types.TimeString
	EndTime    types.TimeString
}
