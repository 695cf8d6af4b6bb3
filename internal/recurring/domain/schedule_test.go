package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNextGenerationDate(t *testing.T) {
	tests := []struct {
		name string
		day  int
		now  time.Time
		want time.Time
	}{
		{"later this month", 15, date(2026, 1, 10), date(2026, 1, 15)},
		{"already passed", 15, date(2026, 1, 20), date(2026, 2, 15)},
		{"same day rolls over", 15, time.Date(2026, 1, 15, 6, 0, 0, 0, time.UTC), date(2026, 2, 15)},
		{"year boundary", 28, date(2026, 12, 29), date(2027, 1, 28)},
		{"first of month", 1, date(2026, 2, 28), date(2026, 3, 1)},
		{"february safe", 28, date(2026, 2, 1), date(2026, 2, 28)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NextGenerationDate(tt.day, tt.now)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNextGenerationDateRejectsDaysOutsideRange(t *testing.T) {
	for _, day := range []int{0, -3, 29, 31} {
		_, err := NextGenerationDate(day, date(2026, 1, 10))
		assert.ErrorIs(t, err, ErrInvalidDayOfMonth, "day %d", day)
	}
}

func TestAdvance(t *testing.T) {
	next, err := Advance(date(2026, 2, 15), 15, time.Date(2026, 2, 15, 0, 5, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, date(2026, 3, 15), next)

	// Missed months are skipped rather than replayed.
	next, err = Advance(date(2026, 1, 15), 15, date(2026, 4, 20))
	require.NoError(t, err)
	assert.Equal(t, date(2026, 5, 15), next)

	// A clock behind the stored date cannot move the schedule backwards.
	next, err = Advance(date(2026, 3, 15), 15, date(2026, 2, 1))
	require.NoError(t, err)
	assert.Equal(t, date(2026, 4, 15), next)
}
