package domain

import (
	"sort"
	"time"

	"github.com/m04kA/SMC-SchedulingService/pkg/types"
)

// DayRule окно работы в конкретный день недели
type DayRule struct {
	ID        int64
	BlockID   int64
	Weekday   time.Weekday // 0 = Sunday
	StartTime types.TimeString
	EndTime   types.TimeString
}

// BlockProvider связь блока доступности с мастером
type BlockProvider struct {
	ID         int64
	BlockID    int64
	ProviderID int64
	CreatedAt  time.Time
}

// AvailabilityBlock повторяющееся расписание, общее для группы мастеров
type AvailabilityBlock struct {
	ID        int64
	ValidFrom time.Time
	ValidTo   time.Time // включительно
	Active    bool
	DayRules  []DayRule
	Providers []BlockProvider
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ProviderIDs returns provider ids attached to the block
func (b *AvailabilityBlock) ProviderIDs() []int64 {
	ids := make([]int64, 0, len(b.Providers))
	for _, p := range b.Providers {
		ids = append(ids, p.ProviderID)
	}
	return ids
}

// HasProvider returns true if the provider is attached to the block
func (b *AvailabilityBlock) HasProvider(providerID int64) bool {
	for _, p := range b.Providers {
		if p.ProviderID == providerID {
			return true
		}
	}
	return false
}

// CoversDate returns true if date lies within [ValidFrom, ValidTo]
func (b *AvailabilityBlock) CoversDate(date time.Time) bool {
	d := DateOnly(date)
	return !d.Before(DateOnly(b.ValidFrom)) && !d.After(DateOnly(b.ValidTo))
}

// RulesFor returns the rules for a weekday ordered by start time
func (b *AvailabilityBlock) RulesFor(weekday time.Weekday) []DayRule {
	rules := make([]DayRule, 0, 1)
	for _, r := range b.DayRules {
		if r.Weekday == weekday {
			rules = append(rules, r)
		}
	}
	sort.Slice(rules, func(i, j int) bool {
		return rules[i].StartTime.IsBefore(rules[j].StartTime)
	})
	return rules
}

// IsBookable returns true if the block can produce slots
func (b *AvailabilityBlock) IsBookable() bool {
	return b.Active && len(b.Providers) > 0
}

// BlockFilter фильтр для выборки блоков доступности
type BlockFilter struct {
	ProviderID *int64
	ActiveOnly bool
	From       *time.Time // блок должен действовать хотя бы в один день [From, To]
	To         *time.Time
}
