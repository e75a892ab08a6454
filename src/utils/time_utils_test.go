package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestResetTime(t *testing.T) {
	ts := time.Date(2025, 3, 4, 15, 42, 17, 99, time.UTC)

	tests := []struct {
		granularity string
		want        time.Time
	}{
		{"minute", time.Date(2025, 3, 4, 15, 42, 0, 0, time.UTC)},
		{"hour", time.Date(2025, 3, 4, 15, 0, 0, 0, time.UTC)},
		{"day", time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC)},
		{"week", ts},
	}

	for _, tt := range tests {
		t.Run(tt.granularity, func(t *testing.T) {
			require.True(t, tt.want.Equal(ResetTime(ts, tt.granularity)))
		})
	}
}

func TestDaysBetween(t *testing.T) {
	start := time.Date(2025, 1, 1, 23, 0, 0, 0, time.UTC)
	end := time.Date(2025, 1, 31, 1, 0, 0, 0, time.UTC)

	require.Equal(t, 30, DaysBetween(start, end))
	require.Equal(t, -30, DaysBetween(end, start))
	require.Equal(t, 0, DaysBetween(start, start.Add(30*time.Minute)))
}
