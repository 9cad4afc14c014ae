package model

import "time"

// MoodEntry is a single mood journal record. Score runs 1 (worst) to 5 (best).
type MoodEntry struct {
	ID        uint      `gorm:"primaryKey"`
	UserID    int64     `gorm:"index;not null"`
	Score     int       `gorm:"not null"`
	Emoji     string    `gorm:"type:text"`
	Note      string    `gorm:"type:text"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}
