package scheduling

import (
	"sort"
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/pkg/types"
)

// GenerateSlots строит свободные слоты блока на диапазон дат [from, to]
//
// Для каждой даты пересечения [from, to] и [ValidFrom, ValidTo] берутся все правила
// соответствующего дня недели. Слоты нарезаются с шагом granularity от начала окна,
// хвост короче шага отбрасывается. Затем для каждого мастера блока убираются слоты,
// пересекающиеся с его записями (отменённые записи слот не занимают).
//
// Результат упорядочен по (мастер, дата, начало) и не содержит дубликатов.
func GenerateSlots(
	block *domain.AvailabilityBlock,
	from, to time.Time,
	granularity int,
	existing []*domain.Appointment,
) []domain.Slot {
	if block == nil || !block.IsBookable() || granularity <= 0 {
		return []domain.Slot{}
	}

	start := maxDate(domain.DateOnly(from), domain.DateOnly(block.ValidFrom))
	end := minDate(domain.DateOnly(to), domain.DateOnly(block.ValidTo))
	if start.After(end) {
		return []domain.Slot{}
	}

	busy := busyByProvider(existing)
	result := make([]domain.Slot, 0)

	for _, providerID := range uniqueSorted(block.ProviderIDs()) {
		for date := start; !date.After(end); date = date.AddDate(0, 0, 1) {
			for _, rule := range block.RulesFor(date.Weekday()) {
				for _, iv := range splitWindow(rule.StartTime.Minutes(), rule.EndTime.Minutes(), granularity) {
					if isBusy(busy[providerID], date, iv) {
						continue
					}
					result = append(result, toSlot(providerID, date, iv))
				}
			}
		}
	}

	return MergeSlots(result)
}

// RestrictToProvider оставляет только слоты указанного мастера
func RestrictToProvider(slots []domain.Slot, providerID int64) []domain.Slot {
	result := make([]domain.Slot, 0, len(slots))
	for _, s := range slots {
		if s.ProviderID == providerID {
			result = append(result, s)
		}
	}
	return result
}

// MergeSlots объединяет наборы слотов (например, из нескольких блоков), сортирует и убирает дубликаты
func MergeSlots(sets ...[]domain.Slot) []domain.Slot {
	total := 0
	for _, set := range sets {
		total += len(set)
	}

	all := make([]domain.Slot, 0, total)
	for _, set := range sets {
		all = append(all, set...)
	}

	sort.SliceStable(all, func(i, j int) bool {
		return slotLess(all[i], all[j])
	})

	result := make([]domain.Slot, 0, len(all))
	for i, s := range all {
		if i > 0 && sameSlot(all[i-1], s) {
			continue
		}
		result = append(result, s)
	}
	return result
}

// FitDuration оставляет старты, с которых помещается интервал длительностью duration
//
// Соседние слоты (конец одного равен началу другого) склеиваются, поэтому
// длинная услуга может занимать несколько слотов подряд. EndTime результата
// равен началу плюс duration.
func FitDuration(slots []domain.Slot, duration int) []domain.Slot {
	if duration <= 0 {
		return []domain.Slot{}
	}

	sorted := MergeSlots(slots)
	unions := unionByProviderDate(sorted)
	result := make([]domain.Slot, 0, len(sorted))

	for _, s := range sorted {
		from := s.StartTime.Minutes()
		iv := interval{start: from, end: from + duration}
		if iv.end > minutesInDay {
			continue
		}
		if containedIn(unions[dayKey(s.ProviderID, s.Date)], iv) {
			result = append(result, toSlot(s.ProviderID, s.Date, iv))
		}
	}
	return result
}

// ContainsInterval проверяет, что [start, end) целиком лежит в объединении свободных слотов мастера на дату
func ContainsInterval(slots []domain.Slot, providerID int64, date time.Time, start, end types.TimeString) bool {
	iv := interval{start: start.Minutes(), end: end.Minutes()}
	if iv.start < 0 || iv.end <= iv.start {
		return false
	}
	unions := unionByProviderDate(MergeSlots(slots))
	return containedIn(unions[dayKey(providerID, date)], iv)
}

const minutesInDay = 24 * 60

type interval struct {
	start int
	end   int
}

type providerDay struct {
	providerID int64
	date       string
}

func dayKey(providerID int64, date time.Time) providerDay {
	return providerDay{providerID: providerID, date: date.Format(domain.DateFormat)}
}

// splitWindow нарезает окно [from, to) на слоты длиной step, неполный хвост отбрасывается
func splitWindow(from, to, step int) []interval {
	if from < 0 || to <= from {
		return nil
	}
	result := make([]interval, 0, (to-from)/step)
	for t := from; t+step <= to; t += step {
		result = append(result, interval{start: t, end: t + step})
	}
	return result
}

func busyByProvider(existing []*domain.Appointment) map[int64][]*domain.Appointment {
	busy := make(map[int64][]*domain.Appointment)
	for _, a := range existing {
		if a == nil || !a.HoldsSlot() {
			continue
		}
		busy[a.ProviderID] = append(busy[a.ProviderID], a)
	}
	return busy
}

func isBusy(appointments []*domain.Appointment, date time.Time, iv interval) bool {
	for _, a := range appointments {
		if !domain.SameDate(a.Date, date) {
			continue
		}
		if overlaps(iv, interval{start: a.StartTime.Minutes(), end: a.EndTime.Minutes()}) {
			return true
		}
	}
	return false
}

// overlaps полуоткрытые интервалы: касание концами пересечением не считается
func overlaps(a, b interval) bool {
	return a.start < b.end && b.start < a.end
}

func unionByProviderDate(sorted []domain.Slot) map[providerDay][]interval {
	unions := make(map[providerDay][]interval)
	for _, s := range sorted {
		key := dayKey(s.ProviderID, s.Date)
		iv := interval{start: s.StartTime.Minutes(), end: s.EndTime.Minutes()}

		list := unions[key]
		if n := len(list); n > 0 && iv.start <= list[n-1].end {
			if iv.end > list[n-1].end {
				list[n-1].end = iv.end
			}
			continue
		}
		unions[key] = append(list, iv)
	}
	return unions
}

func containedIn(unions []interval, iv interval) bool {
	for _, u := range unions {
		if u.start <= iv.start && iv.end <= u.end {
			return true
		}
	}
	return false
}

func toSlot(providerID int64, date time.Time, iv interval) domain.Slot {
	start, _ := types.NewTimeStringFromMinutes(iv.start)
	end, _ := types.NewTimeStringFromMinutes(iv.end)
	return domain.Slot{
		ProviderID: providerID,
		Date:       domain.DateOnly(date),
		StartTime:  start,
		EndTime:    end,
	}
}

func slotLess(a, b domain.Slot) bool {
	if a.ProviderID != b.ProviderID {
		return a.ProviderID < b.ProviderID
	}
	if !domain.SameDate(a.Date, b.Date) {
		return domain.DateOnly(a.Date).Before(domain.DateOnly(b.Date))
	}
	if a.StartTime.Minutes() != b.StartTime.Minutes() {
		return a.StartTime.IsBefore(b.StartTime)
	}
	return a.EndTime.IsBefore(b.EndTime)
}

func sameSlot(a, b domain.Slot) bool {
	return a.ProviderID == b.ProviderID &&
		domain.SameDate(a.Date, b.Date) &&
		a.StartTime.Equal(b.StartTime) &&
		a.EndTime.Equal(b.EndTime)
}

func uniqueSorted(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	result := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		result = append(result, id)
	}
	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	return result
}

func maxDate(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func minDate(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
