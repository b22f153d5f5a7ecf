package scheduling

import (
	"sort"
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/pkg/types"
)

// Overlaps проверяет пересечение полуоткрытых интервалов [aStart, aEnd) и [bStart, bEnd)
func Overlaps(aStart, aEnd, bStart, bEnd types.TimeString) bool {
	return overlaps(
		interval{start: aStart.Minutes(), end: aEnd.Minutes()},
		interval{start: bStart.Minutes(), end: bEnd.Minutes()},
	)
}

// FindConflict возвращает первую запись мастера на дату, пересекающуюся с [start, end)
// Отменённые записи и запись excludeID (при переносе) не учитываются
func FindConflict(
	existing []*domain.Appointment,
	providerID int64,
	date time.Time,
	start, end types.TimeString,
	excludeID int64,
) *domain.Appointment {
	for _, a := range existing {
		if a == nil || a.ID == excludeID || a.ProviderID != providerID || !a.HoldsSlot() {
			continue
		}
		if a.OverlapsInterval(date, start, end) {
			return a
		}
	}
	return nil
}

// FindCoveringBlock ищет активный блок мастера, в окно которого целиком попадает [start, end) на дату
// При нескольких подходящих блоках выбирается блок с наименьшим ID
func FindCoveringBlock(
	blocks []*domain.AvailabilityBlock,
	providerID int64,
	date time.Time,
	start, end types.TimeString,
) *domain.AvailabilityBlock {
	sorted := make([]*domain.AvailabilityBlock, 0, len(blocks))
	for _, b := range blocks {
		if b != nil {
			sorted = append(sorted, b)
		}
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	from, to := start.Minutes(), end.Minutes()
	if from < 0 || to <= from {
		return nil
	}

	for _, b := range sorted {
		if !b.Active || !b.HasProvider(providerID) || !b.CoversDate(date) {
			continue
		}
		for _, rule := range b.RulesFor(date.Weekday()) {
			if rule.StartTime.Minutes() <= from && to <= rule.EndTime.Minutes() {
				return b
			}
		}
	}
	return nil
}
