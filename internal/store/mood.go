package store

import (
	"math"
	"time"

	"github.com/okovalenko/carebot/internal/model"
	"gorm.io/gorm"
)

// MoodStore provides append-only mood journal persistence.
type MoodStore struct {
	db *gorm.DB
}

// NewMoodStore creates a mood store backed by the given connection.
func NewMoodStore(db *gorm.DB) *MoodStore {
	return &MoodStore{db: db}
}

// Add records a mood entry for the user.
func (s *MoodStore) Add(userID int64, score int, emoji, note string) error {
	return s.db.Create(&model.MoodEntry{
		UserID: userID,
		Score:  score,
		Emoji:  emoji,
		Note:   note,
	}).Error
}

// History returns the user's mood entries within the trailing number of
// days, newest first.
func (s *MoodStore) History(userID int64, days int) ([]model.MoodEntry, error) {
	since := time.Now().AddDate(0, 0, -days)
	var entries []model.MoodEntry
	err := s.db.Where("user_id = ? AND created_at >= ?", userID, since).
		Order("created_at DESC").
		Find(&entries).Error
	return entries, err
}

// MoodStats summarizes mood entries over a trailing window.
type MoodStats struct {
	Count   int64
	Average float64
	Min     int
	Max     int
}

// Stats aggregates the user's mood scores over the trailing number of days.
// The average carries one decimal. All fields are zero when no entries exist.
func (s *MoodStore) Stats(userID int64, days int) (MoodStats, error) {
	since := time.Now().AddDate(0, 0, -days)

	var stats MoodStats
	row := struct {
		Count int64
		Avg   float64
		Min   int
		Max   int
	}{}
	err := s.db.Model(&model.MoodEntry{}).
		Select("COUNT(*) AS count, AVG(score) AS avg, MIN(score) AS min, MAX(score) AS max").
		Where("user_id = ? AND created_at >= ?", userID, since).
		Scan(&row).Error
	if err != nil {
		return stats, err
	}
	if row.Count == 0 {
		return stats, nil
	}

	stats.Count = row.Count
	stats.Average = math.Round(row.Avg*10) / 10
	stats.Min = row.Min
	stats.Max = row.Max
	return stats, nil
}

// CountToday returns the number of entries the user recorded since local
// midnight. Used by the free-tier limit check.
func (s *MoodStore) CountToday(userID int64) (int64, error) {
	now := time.Now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	var count int64
	err := s.db.Model(&model.MoodEntry{}).
		Where("user_id = ? AND created_at >= ?", userID, midnight).
		Count(&count).Error
	return count, err
}
