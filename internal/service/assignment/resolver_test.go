package assignment

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/internal/testutil/memstore"
	"github.com/m04kA/SMC-SchedulingService/pkg/types"
)

var monday = time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

func weekdayBlock(providers ...int64) *domain.AvailabilityBlock {
	rules := make([]domain.DayRule, 0, 5)
	for wd := time.Monday; wd <= time.Friday; wd++ {
		rules = append(rules, domain.DayRule{Weekday: wd, StartTime: "09:00", EndTime: "12:00"})
	}
	bp := make([]domain.BlockProvider, 0, len(providers))
	for _, id := range providers {
		bp = append(bp, domain.BlockProvider{ProviderID: id})
	}
	return &domain.AvailabilityBlock{
		ValidFrom: monday.AddDate(0, 0, -7),
		ValidTo:   monday.AddDate(0, 1, 0),
		Active:    true,
		DayRules:  rules,
		Providers: bp,
	}
}

func setup(t *testing.T) (*memstore.Store, *memstore.Directory, *Resolver) {
	t.Helper()
	store := memstore.New()
	dir := memstore.NewDirectory().AddProvider(1, true).AddProvider(2, true)
	_, err := store.Blocks().Create(context.Background(), weekdayBlock(1, 2))
	require.NoError(t, err)

	resolver := NewResolver(store.Blocks(), store.Appointments(), dir, nil, 30, memstore.NopLogger{})
	return store, dir, resolver
}

func book(t *testing.T, store *memstore.Store, providerID int64, start, end types.TimeString) {
	t.Helper()
	_, err := store.Appointments().Create(context.Background(), &domain.Appointment{
		ClientID:   99,
		ProviderID: providerID,
		Date:       monday,
		StartTime:  start,
		EndTime:    end,
		Status:     domain.StatusConfirmed,
	})
	require.NoError(t, err)
}

func TestAssignProvider_SkipsBusyProvider(t *testing.T) {
	store, _, resolver := setup(t)
	book(t, store, 1, "09:00", "10:00")

	providerID, err := resolver.AssignProvider(context.Background(), monday, "09:00", 30, []int64{1, 2})
	require.NoError(t, err)
	assert.Equal(t, int64(2), providerID)
}

func TestAssignProvider_LowestIDWhenAllFree(t *testing.T) {
	_, _, resolver := setup(t)

	providerID, err := resolver.AssignProvider(context.Background(), monday, "10:00", 60, []int64{2, 1})
	require.NoError(t, err)
	assert.Equal(t, int64(1), providerID)
}

func TestAssignProvider_ContiguousSlotsCoverLongService(t *testing.T) {
	store, _, resolver := setup(t)
	book(t, store, 1, "09:00", "09:30")

	// 09:30-11:00 занимает три смежных слота мастера 1
	providerID, err := resolver.AssignProvider(context.Background(), monday, "09:30", 90, []int64{1, 2})
	require.NoError(t, err)
	assert.Equal(t, int64(1), providerID)
}

func TestAssignProvider_NoProvider(t *testing.T) {
	store, _, resolver := setup(t)
	book(t, store, 1, "09:00", "10:00")
	book(t, store, 2, "09:30", "10:30")

	_, err := resolver.AssignProvider(context.Background(), monday, "09:00", 30, []int64{1, 2})
	assert.ErrorIs(t, err, domain.ErrNoAvailableProvider)
}

func TestAssignProvider_OutsideWindow(t *testing.T) {
	_, _, resolver := setup(t)

	_, err := resolver.AssignProvider(context.Background(), monday, "11:30", 60, []int64{1, 2})
	assert.ErrorIs(t, err, domain.ErrNoAvailableProvider)

	saturday := monday.AddDate(0, 0, 5)
	_, err = resolver.AssignProvider(context.Background(), saturday, "09:00", 30, []int64{1, 2})
	assert.ErrorIs(t, err, domain.ErrNoAvailableProvider)
}

func TestAssignProvider_SkipsInactiveProvider(t *testing.T) {
	_, dir, resolver := setup(t)
	dir.AddProvider(1, false)

	providerID, err := resolver.AssignProvider(context.Background(), monday, "09:00", 30, []int64{1, 2})
	require.NoError(t, err)
	assert.Equal(t, int64(2), providerID)
}

func TestAssignProvider_CancelledDoesNotBlock(t *testing.T) {
	store, _, resolver := setup(t)
	book(t, store, 1, "09:00", "10:00")
	list, err := store.Appointments().ListActiveByProviderAndDate(context.Background(), 1, monday)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.NoError(t, store.Appointments().UpdateStatus(context.Background(), list[0].ID, domain.StatusCancelled, nil))

	providerID, err := resolver.AssignProvider(context.Background(), monday, "09:00", 30, []int64{1, 2})
	require.NoError(t, err)
	assert.Equal(t, int64(1), providerID)
}

func TestAssignProvider_InvalidDuration(t *testing.T) {
	_, _, resolver := setup(t)

	_, err := resolver.AssignProvider(context.Background(), monday, "23:30", 60, []int64{1})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = resolver.AssignProvider(context.Background(), monday, "09:00", 0, []int64{1})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

type reversePolicy struct{}

func (reversePolicy) Order(candidates []int64) []int64 {
	ordered := AscendingIDPolicy{}.Order(candidates)
	for i, j := 0, len(ordered)-1; i < j; i, j = i+1, j-1 {
		ordered[i], ordered[j] = ordered[j], ordered[i]
	}
	return ordered
}

func TestAssignProvider_CustomPolicy(t *testing.T) {
	store, dir, _ := setup(t)
	resolver := NewResolver(store.Blocks(), store.Appointments(), dir, reversePolicy{}, 30, memstore.NopLogger{})

	providerID, err := resolver.AssignProvider(context.Background(), monday, "09:00", 30, []int64{1, 2})
	require.NoError(t, err)
	assert.Equal(t, int64(2), providerID)
}

func TestAscendingIDPolicy(t *testing.T) {
	assert.Equal(t, []int64{1, 3, 7}, AscendingIDPolicy{}.Order([]int64{7, 3, 0, 1, 3, -2}))
}
