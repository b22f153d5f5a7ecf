package get_free_slots

import (
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/pkg/types"
)

// dropPast убирает слоты, начало которых уже прошло. Дата и время берутся в зоне now
func dropPast(slots []domain.Slot, now time.Time) []domain.Slot {
	today := domain.DateOnly(now)
	current := types.NewTimeString(now)

	result := make([]domain.Slot, 0, len(slots))
	for _, s := range slots {
		if s.Date.Before(today) {
			continue
		}
		if domain.SameDate(s.Date, today) && s.StartTime.IsBefore(current) {
			continue
		}
		result = append(result, s)
	}
	return result
}

// providerIDs собирает мастеров блоков, при заданном only только его
func providerIDs(blocks []*domain.AvailabilityBlock, only *int64) []int64 {
	if only != nil {
		return []int64{*only}
	}

	seen := make(map[int64]struct{})
	result := make([]int64, 0)
	for _, b := range blocks {
		for _, id := range b.ProviderIDs() {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			result = append(result, id)
		}
	}
	return result
}
