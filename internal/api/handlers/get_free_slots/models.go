package get_free_slots

import (
	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	getFreeSlots "github.com/m04kA/SMC-SchedulingService/internal/usecase/get_free_slots"
)

// SlotResponse свободный интервал мастера
type SlotResponse struct {
	ProviderID int64  `json:"providerId"`
	Date       string `json:"date"`      // "2025-03-10"
	StartTime  string `json:"startTime"` // "09:30"
	EndTime    string `json:"endTime"`
}

// FreeSlotsResponse HTTP response model
type FreeSlotsResponse struct {
	From            string         `json:"from"`
	To              string         `json:"to"`
	Granularity     int            `json:"granularity"`
	DurationMinutes int            `json:"durationMinutes,omitempty"`
	Slots           []SlotResponse `json:"slots"`
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *getFreeSlots.Response) *FreeSlotsResponse {
	result := &FreeSlotsResponse{
		From:            resp.From.Format(domain.DateFormat),
		To:              resp.To.Format(domain.DateFormat),
		Granularity:     resp.Granularity,
		DurationMinutes: resp.DurationMinutes,
		Slots:           make([]SlotResponse, 0, len(resp.Slots)),
	}

	for _, s := range resp.Slots {
		result.Slots = append(result.Slots, SlotResponse{
			ProviderID: s.ProviderID,
			Date:       s.Date.Format(domain.DateFormat),
			StartTime:  s.StartTime.String(),
			EndTime:    s.EndTime.String(),
		})
	}
	return result
}
