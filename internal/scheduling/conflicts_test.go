package scheduling

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
)

func TestOverlaps_HalfOpen(t *testing.T) {
	assert.True(t, Overlaps("09:00", "10:00", "09:30", "10:30"))
	assert.True(t, Overlaps("09:00", "10:00", "09:00", "10:00"))
	assert.False(t, Overlaps("09:00", "10:00", "10:00", "10:30"), "back-to-back intervals do not overlap")
	assert.False(t, Overlaps("10:30", "11:00", "10:00", "10:30"))
}

func TestFindConflict(t *testing.T) {
	existing := []*domain.Appointment{
		appointment(1, 1, monday, "09:00", "10:00", domain.StatusConfirmed),
		appointment(2, 1, monday, "10:00", "11:00", domain.StatusCancelled),
		appointment(3, 2, monday, "12:00", "13:00", domain.StatusPending),
	}

	c := FindConflict(existing, 1, monday, "09:30", "10:30", 0)
	require.NotNil(t, c)
	assert.Equal(t, int64(1), c.ID)

	assert.Nil(t, FindConflict(existing, 1, monday, "10:00", "11:00", 0), "cancelled appointment frees the slot")
	assert.Nil(t, FindConflict(existing, 1, monday, "09:30", "10:30", 1), "excluded appointment is ignored")
	assert.Nil(t, FindConflict(existing, 1, monday.AddDate(0, 0, 1), "09:00", "10:00", 0))
	assert.Nil(t, FindConflict(existing, 1, monday, "12:00", "13:00", 0))
}

func TestFindCoveringBlock(t *testing.T) {
	morning := weekdayBlock(5, "09:00", "12:00", 1)
	evening := weekdayBlock(3, "15:00", "18:00", 1)
	inactive := weekdayBlock(1, "08:00", "20:00", 1)
	inactive.Active = false
	other := weekdayBlock(2, "08:00", "20:00", 2)
	blocks := []*domain.AvailabilityBlock{morning, evening, inactive, other}

	b := FindCoveringBlock(blocks, 1, monday, "09:30", "10:30")
	require.NotNil(t, b)
	assert.Equal(t, int64(5), b.ID)

	b = FindCoveringBlock(blocks, 1, monday, "17:00", "18:00")
	require.NotNil(t, b)
	assert.Equal(t, int64(3), b.ID)

	assert.Nil(t, FindCoveringBlock(blocks, 1, monday, "08:30", "09:00"), "before the window")
	assert.Nil(t, FindCoveringBlock(blocks, 1, monday, "11:30", "12:30"), "crosses the window end")
	assert.Nil(t, FindCoveringBlock(blocks, 1, monday, "12:00", "15:00"), "spans the gap between blocks")
	assert.Nil(t, FindCoveringBlock(blocks, 1, monday.AddDate(0, 0, 5), "09:00", "09:30"), "saturday")
	assert.Nil(t, FindCoveringBlock(blocks, 1, monday.AddDate(0, 2, 0), "09:00", "09:30"), "outside validity")
}

func TestFindCoveringBlock_LowestIDWins(t *testing.T) {
	a := weekdayBlock(9, "09:00", "12:00", 1)
	b := weekdayBlock(4, "08:00", "13:00", 1)

	got := FindCoveringBlock([]*domain.AvailabilityBlock{a, b}, 1, monday, "10:00", "10:30")

	require.NotNil(t, got)
	assert.Equal(t, int64(4), got.ID)
}

func TestValidateBlock(t *testing.T) {
	valid := weekdayBlock(1, "09:00", "12:00", 1)
	valid.DayRules = append(valid.DayRules, domain.DayRule{Weekday: time.Monday, StartTime: "12:00", EndTime: "24:00"})
	require.NoError(t, ValidateBlock(valid))

	tests := []struct {
		name   string
		mutate func(b *domain.AvailabilityBlock)
	}{
		{name: "reversed validity", mutate: func(b *domain.AvailabilityBlock) { b.ValidFrom, b.ValidTo = b.ValidTo, b.ValidFrom }},
		{name: "missing validity", mutate: func(b *domain.AvailabilityBlock) { b.ValidTo = time.Time{} }},
		{name: "start after end", mutate: func(b *domain.AvailabilityBlock) { b.DayRules[0].StartTime = "13:00" }},
		{name: "empty window", mutate: func(b *domain.AvailabilityBlock) { b.DayRules[0].EndTime = "09:00" }},
		{name: "malformed time", mutate: func(b *domain.AvailabilityBlock) { b.DayRules[0].EndTime = "9am" }},
		{name: "bad weekday", mutate: func(b *domain.AvailabilityBlock) { b.DayRules[0].Weekday = 7 }},
		{name: "overlapping rules", mutate: func(b *domain.AvailabilityBlock) {
			b.DayRules = append(b.DayRules, domain.DayRule{Weekday: time.Monday, StartTime: "11:00", EndTime: "13:00"})
		}},
		{name: "bad provider", mutate: func(b *domain.AvailabilityBlock) {
			b.Providers = append(b.Providers, domain.BlockProvider{ProviderID: 0})
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			block := weekdayBlock(1, "09:00", "12:00", 1)
			tt.mutate(block)

			err := ValidateBlock(block)

			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrInvalidAvailability)
			var iae *domain.InvalidAvailabilityError
			assert.True(t, errors.As(err, &iae))
		})
	}
}

func TestValidateDayRules_ReportsOffendingRule(t *testing.T) {
	rules := []domain.DayRule{
		{ID: 1, Weekday: time.Tuesday, StartTime: "09:00", EndTime: "12:00"},
		{ID: 2, Weekday: time.Tuesday, StartTime: "11:30", EndTime: "14:00"},
	}

	err := ValidateDayRules(rules)

	var iae *domain.InvalidAvailabilityError
	require.True(t, errors.As(err, &iae))
	require.NotNil(t, iae.Rule)
	assert.Equal(t, int64(2), iae.Rule.ID)
}

func TestValidateDayRules_ReportsEarliestWeekday(t *testing.T) {
	rules := []domain.DayRule{
		{ID: 1, Weekday: time.Friday, StartTime: "09:00", EndTime: "12:00"},
		{ID: 2, Weekday: time.Friday, StartTime: "10:00", EndTime: "13:00"},
		{ID: 3, Weekday: time.Monday, StartTime: "09:00", EndTime: "12:00"},
		{ID: 4, Weekday: time.Monday, StartTime: "11:00", EndTime: "15:00"},
		{ID: 5, Weekday: time.Wednesday, StartTime: "14:00", EndTime: "18:00"},
		{ID: 6, Weekday: time.Wednesday, StartTime: "14:00", EndTime: "16:00"},
	}

	for i := 0; i < 50; i++ {
		var iae *domain.InvalidAvailabilityError
		require.True(t, errors.As(ValidateDayRules(rules), &iae))
		require.NotNil(t, iae.Rule)
		assert.Equal(t, int64(4), iae.Rule.ID)
	}
}
