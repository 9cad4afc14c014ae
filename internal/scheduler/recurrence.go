package scheduler

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/okovalenko/carebot/internal/model"
)

// NextTime computes the fire time that follows current for the given repeat
// kind. The second return value is false for one-shot reminders and unknown
// kinds, meaning there is no next occurrence and the reminder retires.
//
// "Monthly" advances by a flat 30 days, not a calendar month. Persisted fire
// times already assume the 30-day rule, so it must not be changed without a
// data migration.
func NextTime(current time.Time, kind model.Repeat) (time.Time, bool) {
	switch kind {
	case model.RepeatHourly:
		return current.Add(time.Hour), true
	case model.RepeatDaily:
		return current.Add(24 * time.Hour), true
	case model.RepeatWeekly:
		return current.Add(7 * 24 * time.Hour), true
	case model.RepeatMonthly:
		return current.Add(30 * 24 * time.Hour), true
	default:
		return time.Time{}, false
	}
}

// ParseClockTime parses an "HH:MM" wall-clock time as used by medication
// schedules.
func ParseClockTime(s string) (hour, minute int, err error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid time %q, expected HH:MM", s)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", s)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q", s)
	}
	return hour, minute, nil
}
