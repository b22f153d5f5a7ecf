package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus_Transitions(t *testing.T) {
	allowed := map[AppointmentStatus][]AppointmentStatus{
		StatusPending:   {StatusConfirmed, StatusCancelled},
		StatusConfirmed: {StatusCompleted, StatusCancelled, StatusNoShow},
	}

	for _, from := range AllStatuses {
		for _, to := range AllStatuses {
			want := false
			for _, a := range allowed[from] {
				if a == to {
					want = true
				}
			}
			assert.Equal(t, want, from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}
}

func TestStatus_Terminal(t *testing.T) {
	assert.False(t, StatusPending.IsTerminal())
	assert.False(t, StatusConfirmed.IsTerminal())
	assert.True(t, StatusCompleted.IsTerminal())
	assert.True(t, StatusCancelled.IsTerminal())
	assert.True(t, StatusNoShow.IsTerminal())

	assert.True(t, StatusNoShow.HoldsSlot())
	assert.False(t, StatusCancelled.HoldsSlot())
}

func TestParseAppointmentStatus(t *testing.T) {
	s, err := ParseAppointmentStatus("no_show")
	require.NoError(t, err)
	assert.Equal(t, StatusNoShow, s)

	_, err = ParseAppointmentStatus("archived")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestTypedErrors_Unwrap(t *testing.T) {
	var err error = &IllegalTransitionError{From: StatusCompleted, To: StatusPending}
	assert.ErrorIs(t, err, ErrIllegalTransition)

	var ite *IllegalTransitionError
	require.True(t, errors.As(err, &ite))
	assert.Equal(t, StatusCompleted, ite.From)

	rule := DayRule{Weekday: 1, StartTime: "12:00", EndTime: "10:00"}
	err = &InvalidAvailabilityError{Rule: &rule, Reason: "start must be before end"}
	assert.ErrorIs(t, err, ErrInvalidAvailability)
	assert.Contains(t, err.Error(), "12:00-10:00")
}
