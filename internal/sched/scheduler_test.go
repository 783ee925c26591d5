package sched

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNextCreationTime(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{
			name: "before today's slot fires today",
			now:  time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC),
			want: time.Date(2024, 3, 15, 18, 15, 0, 0, time.UTC),
		},
		{
			name: "after today's slot fires tomorrow",
			now:  time.Date(2024, 3, 15, 20, 0, 0, 0, time.UTC),
			want: time.Date(2024, 3, 16, 18, 15, 0, 0, time.UTC),
		},
		{
			name: "exactly at the slot fires tomorrow",
			now:  time.Date(2024, 3, 15, 18, 15, 0, 0, time.UTC),
			want: time.Date(2024, 3, 16, 18, 15, 0, 0, time.UTC),
		},
		{
			name: "month rollover",
			now:  time.Date(2024, 3, 31, 23, 0, 0, 0, time.UTC),
			want: time.Date(2024, 4, 1, 18, 15, 0, 0, time.UTC),
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := nextCreationTime(tc.now, 18, 15)
			assert.True(t, got.Equal(tc.want), "got %v, want %v", got, tc.want)
		})
	}
}

func TestSameHour(t *testing.T) {
	base := time.Date(2024, 3, 15, 12, 5, 0, 0, time.UTC)

	assert.True(t, sameHour(base, base.Add(40*time.Minute)))
	assert.False(t, sameHour(base, base.Add(time.Hour)))
	assert.False(t, sameHour(time.Time{}, base), "zero lastRun never matches")
}
