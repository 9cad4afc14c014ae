package model

import (
	"fmt"
	"strings"
	"time"
)

// Repeat controls how a reminder's fire time advances after each firing.
type Repeat string

const (
	RepeatOnce    Repeat = "once"
	RepeatHourly  Repeat = "hourly"
	RepeatDaily   Repeat = "daily"
	RepeatWeekly  Repeat = "weekly"
	RepeatMonthly Repeat = "monthly"
)

// ParseRepeat validates a repeat kind supplied by a user or an LLM response.
// The empty string maps to "once".
func ParseRepeat(s string) (Repeat, error) {
	switch Repeat(strings.ToLower(strings.TrimSpace(s))) {
	case RepeatOnce, "":
		return RepeatOnce, nil
	case RepeatHourly:
		return RepeatHourly, nil
	case RepeatDaily:
		return RepeatDaily, nil
	case RepeatWeekly:
		return RepeatWeekly, nil
	case RepeatMonthly:
		return RepeatMonthly, nil
	default:
		return "", fmt.Errorf("unknown repeat kind %q", s)
	}
}

// Label returns a human-readable description of the repeat cadence.
func (r Repeat) Label() string {
	switch r {
	case RepeatHourly:
		return "every hour"
	case RepeatDaily:
		return "every day"
	case RepeatWeekly:
		return "every week"
	case RepeatMonthly:
		return "every month"
	default:
		return string(r)
	}
}

// Reminder represents a saved one-shot or recurring reminder for a user.
// RemindAt always holds the next pending fire time; past firings are not kept.
type Reminder struct {
	ID        uint      `gorm:"primaryKey"`
	UserID    int64     `gorm:"index;not null"`
	ChannelID int64     `gorm:"not null"`
	Title     string    `gorm:"type:text;not null"`
	RemindAt  time.Time `gorm:"index;not null"`
	Repeat    Repeat    `gorm:"type:text;not null;default:once"`
	Active    bool      `gorm:"not null;default:true"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}
