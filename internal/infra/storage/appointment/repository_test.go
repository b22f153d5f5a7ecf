package appointment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestProviderDayLockKey(t *testing.T) {
	monday := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, ProviderDayLockKey(1, monday), ProviderDayLockKey(1, monday.Add(13*time.Hour)))
	assert.NotEqual(t, ProviderDayLockKey(1, monday), ProviderDayLockKey(2, monday))
	assert.NotEqual(t, ProviderDayLockKey(1, monday), ProviderDayLockKey(1, monday.AddDate(0, 0, 1)))
}
