package store

import (
	"errors"
	"math"
	"time"

	"github.com/okovalenko/carebot/internal/model"
	"gorm.io/gorm"
)

// MedicationStore provides durable CRUD for medications and their intake logs.
type MedicationStore struct {
	db *gorm.DB
}

// NewMedicationStore creates a medication store backed by the given connection.
func NewMedicationStore(db *gorm.DB) *MedicationStore {
	return &MedicationStore{db: db}
}

// Create persists a new daily medication reminder.
func (s *MedicationStore) Create(userID, channelID int64, name, dosage, scheduleTime string) (*model.Medication, error) {
	m := &model.Medication{
		UserID:       userID,
		ChannelID:    channelID,
		Name:         name,
		Dosage:       dosage,
		ScheduleTime: scheduleTime,
		Repeat:       model.RepeatDaily,
		Active:       true,
	}
	if err := s.db.Create(m).Error; err != nil {
		return nil, err
	}
	return m, nil
}

// ListActive returns a user's active medications ordered by schedule time.
func (s *MedicationStore) ListActive(userID int64) ([]model.Medication, error) {
	var meds []model.Medication
	err := s.db.Where("user_id = ? AND active = ?", userID, true).
		Order("schedule_time ASC").
		Find(&meds).Error
	return meds, err
}

// ListAllActive returns active medications across all users.
func (s *MedicationStore) ListAllActive() ([]model.Medication, error) {
	var meds []model.Medication
	err := s.db.Where("active = ?", true).Find(&meds).Error
	return meds, err
}

// GetByID returns an active medication, or nil when unknown or soft-deleted.
func (s *MedicationStore) GetByID(id uint) (*model.Medication, error) {
	var m model.Medication
	err := s.db.Where("id = ? AND active = ?", id, true).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// SoftDelete marks a medication inactive, gated on the owning user id.
// Intake logs are kept.
func (s *MedicationStore) SoftDelete(id uint, userID int64) (bool, error) {
	res := s.db.Model(&model.Medication{}).
		Where("id = ? AND user_id = ? AND active = ?", id, userID, true).
		Update("active", false)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// CountActive returns the number of active medications a user has.
func (s *MedicationStore) CountActive(userID int64) (int64, error) {
	var count int64
	err := s.db.Model(&model.Medication{}).
		Where("user_id = ? AND active = ?", userID, true).
		Count(&count).Error
	return count, err
}

// RecordLog appends a taken/skipped/missed event for a medication.
func (s *MedicationStore) RecordLog(medID uint, userID int64, status model.MedStatus) error {
	return s.db.Create(&model.MedicationLog{
		MedicationID: medID,
		UserID:       userID,
		Status:       status,
	}).Error
}

// AdherenceStats aggregates intake logs over a trailing window.
type AdherenceStats struct {
	Taken   int64
	Skipped int64
	Missed  int64
	Rate    float64
}

// Adherence counts logged events per status within the trailing number of
// days and derives an adherence rate (taken / total, as a percentage with
// one decimal). The rate is 0 when nothing was logged.
func (s *MedicationStore) Adherence(userID int64, days int) (AdherenceStats, error) {
	since := time.Now().AddDate(0, 0, -days)

	var stats AdherenceStats
	rows := []struct {
		Status model.MedStatus
		Count  int64
	}{}
	err := s.db.Model(&model.MedicationLog{}).
		Select("status, COUNT(*) AS count").
		Where("user_id = ? AND created_at >= ?", userID, since).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return stats, err
	}

	for _, row := range rows {
		switch row.Status {
		case model.MedTaken:
			stats.Taken = row.Count
		case model.MedSkipped:
			stats.Skipped = row.Count
		case model.MedMissed:
			stats.Missed = row.Count
		}
	}

	total := stats.Taken + stats.Skipped + stats.Missed
	if total > 0 {
		stats.Rate = math.Round(float64(stats.Taken)/float64(total)*1000) / 10
	}
	return stats, nil
}
