package scheduler

import (
	"testing"
	"time"

	"github.com/okovalenko/carebot/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextTime(t *testing.T) {
	t.Parallel()

	base := time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

	cases := []struct {
		kind model.Repeat
		want time.Time
		ok   bool
	}{
		{model.RepeatOnce, time.Time{}, false},
		{model.RepeatHourly, base.Add(time.Hour), true},
		{model.RepeatDaily, base.Add(24 * time.Hour), true},
		{model.RepeatWeekly, base.Add(7 * 24 * time.Hour), true},
		{model.RepeatMonthly, base.Add(30 * 24 * time.Hour), true},
		{model.Repeat("fortnightly"), time.Time{}, false},
	}

	for _, tc := range cases {
		got, ok := NextTime(base, tc.kind)
		assert.Equal(t, tc.ok, ok, "kind %q", tc.kind)
		if tc.ok {
			assert.True(t, got.Equal(tc.want), "kind %q: got %v want %v", tc.kind, got, tc.want)
		}
	}
}

func TestParseClockTime(t *testing.T) {
	t.Parallel()

	hour, minute, err := ParseClockTime("09:05")
	require.NoError(t, err)
	assert.Equal(t, 9, hour)
	assert.Equal(t, 5, minute)

	hour, minute, err = ParseClockTime(" 21:30 ")
	require.NoError(t, err)
	assert.Equal(t, 21, hour)
	assert.Equal(t, 30, minute)

	for _, bad := range []string{"", "9", "24:00", "12:60", "ab:cd", "12:3:4"} {
		_, _, err := ParseClockTime(bad)
		assert.Error(t, err, "input %q", bad)
	}
}
