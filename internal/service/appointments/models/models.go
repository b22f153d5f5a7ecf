package models

import (
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
)

// Request модели

// ListRequest фильтры выборки записей
type ListRequest struct {
	ProviderID       *int64
	ClientID         *int64
	From             *time.Time
	To               *time.Time
	Status           *string
	IncludeCancelled bool
}

// ToDomainFilter конвертирует request в domain фильтр
func (r *ListRequest) ToDomainFilter() (domain.AppointmentFilter, error) {
	filter := domain.AppointmentFilter{
		ProviderID:       r.ProviderID,
		ClientID:         r.ClientID,
		StartDate:        r.From,
		EndDate:          r.To,
		IncludeCancelled: r.IncludeCancelled,
	}

	if r.Status != nil {
		status, err := domain.ParseAppointmentStatus(*r.Status)
		if err != nil {
			return filter, err
		}
		filter.Status = &status
	}

	return filter, nil
}

// Response модели

// AppointmentServiceResponse услуга в составе записи
type AppointmentServiceResponse struct {
	ID              int64   `json:"id"`
	ServiceID       int64   `json:"serviceId"`
	Position        int     `json:"position"`
	PriceAtBooking  float64 `json:"priceAtBooking"`
	DurationMinutes int     `json:"durationMinutes"`
}

// AppointmentResponse ответ с данными записи
type AppointmentResponse struct {
	ID                  int64                        `json:"id"`
	ClientID            int64                        `json:"clientId"`
	ProviderID          int64                        `json:"providerId"`
	AvailabilityBlockID int64                        `json:"availabilityBlockId"`
	Date                string                       `json:"date"`      // "2025-03-10"
	StartTime           string                       `json:"startTime"` // "09:30"
	EndTime             string                       `json:"endTime"`
	DurationMinutes     int                          `json:"durationMinutes"`
	Status              string                       `json:"status"`
	TotalPrice          float64                      `json:"totalPrice"`
	Services            []AppointmentServiceResponse `json:"services"`
	Notes               *string                      `json:"notes,omitempty"`
	CancelledAt         *string                      `json:"cancelledAt,omitempty"` // ISO 8601
	CreatedAt           time.Time                    `json:"createdAt"`
	UpdatedAt           time.Time                    `json:"updatedAt"`
}

// AppointmentListResponse ответ со списком записей
type AppointmentListResponse struct {
	Appointments []AppointmentResponse `json:"appointments"`
}

// FromDomainAppointment конвертирует domain модель в DTO
func FromDomainAppointment(a *domain.Appointment) *AppointmentResponse {
	if a == nil {
		return nil
	}

	resp := &AppointmentResponse{
		ID:                  a.ID,
		ClientID:            a.ClientID,
		ProviderID:          a.ProviderID,
		AvailabilityBlockID: a.AvailabilityBlockID,
		Date:                a.Date.Format(domain.DateFormat),
		StartTime:           a.StartTime.String(),
		EndTime:             a.EndTime.String(),
		DurationMinutes:     a.DurationMinutes,
		Status:              string(a.Status),
		TotalPrice:          a.TotalPrice,
		Services:            make([]AppointmentServiceResponse, 0, len(a.Services)),
		Notes:               a.Notes,
		CreatedAt:           a.CreatedAt,
		UpdatedAt:           a.UpdatedAt,
	}

	for _, s := range a.Services {
		resp.Services = append(resp.Services, AppointmentServiceResponse{
			ID:              s.ID,
			ServiceID:       s.ServiceID,
			Position:        s.Position,
			PriceAtBooking:  s.PriceAtBooking,
			DurationMinutes: s.DurationMinutes,
		})
	}

	if a.CancelledAt != nil {
		cancelledStr := a.CancelledAt.Format(time.RFC3339)
		resp.CancelledAt = &cancelledStr
	}

	return resp
}

// FromDomainAppointmentList конвертирует список domain моделей в DTO
func FromDomainAppointmentList(appointments []*domain.Appointment) *AppointmentListResponse {
	resp := &AppointmentListResponse{
		Appointments: make([]AppointmentResponse, 0, len(appointments)),
	}
	for _, a := range appointments {
		if r := FromDomainAppointment(a); r != nil {
			resp.Appointments = append(resp.Appointments, *r)
		}
	}
	return resp
}
