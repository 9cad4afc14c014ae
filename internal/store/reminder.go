package store

import (
	"errors"
	"time"

	"github.com/okovalenko/carebot/internal/model"
	"gorm.io/gorm"
)

// ReminderStore provides durable CRUD for reminder definitions.
type ReminderStore struct {
	db *gorm.DB
}

// NewReminderStore creates a reminder store backed by the given connection.
func NewReminderStore(db *gorm.DB) *ReminderStore {
	return &ReminderStore{db: db}
}

// Create persists a new reminder and returns it with its assigned id.
func (s *ReminderStore) Create(userID, channelID int64, title string, remindAt time.Time, repeat model.Repeat) (*model.Reminder, error) {
	r := &model.Reminder{
		UserID:    userID,
		ChannelID: channelID,
		Title:     title,
		RemindAt:  remindAt,
		Repeat:    repeat,
		Active:    true,
	}
	if err := s.db.Create(r).Error; err != nil {
		return nil, err
	}
	return r, nil
}

// ListActive returns a user's active reminders ordered by fire time.
func (s *ReminderStore) ListActive(userID int64) ([]model.Reminder, error) {
	var reminders []model.Reminder
	err := s.db.Where("user_id = ? AND active = ?", userID, true).
		Order("remind_at ASC").
		Find(&reminders).Error
	return reminders, err
}

// ListAllActive returns active reminders across all users. Used by the
// scheduler when rebuilding its job table on startup.
func (s *ReminderStore) ListAllActive() ([]model.Reminder, error) {
	var reminders []model.Reminder
	err := s.db.Where("active = ?", true).Find(&reminders).Error
	return reminders, err
}

// GetByID returns an active reminder, or nil when the id is unknown or the
// reminder has been soft-deleted.
func (s *ReminderStore) GetByID(id uint) (*model.Reminder, error) {
	var r model.Reminder
	err := s.db.Where("id = ? AND active = ?", id, true).First(&r).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// SoftDelete marks a reminder inactive. The user id must match the owner;
// a false return means no matching active row existed.
func (s *ReminderStore) SoftDelete(id uint, userID int64) (bool, error) {
	res := s.db.Model(&model.Reminder{}).
		Where("id = ? AND user_id = ? AND active = ?", id, userID, true).
		Update("active", false)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// UpdateRemindAt rewrites the pending fire time. Used only when advancing a
// recurring reminder after a firing.
func (s *ReminderStore) UpdateRemindAt(id uint, remindAt time.Time) error {
	return s.db.Model(&model.Reminder{}).
		Where("id = ?", id).
		Update("remind_at", remindAt).Error
}

// CountActive returns the number of active reminders a user has.
func (s *ReminderStore) CountActive(userID int64) (int64, error) {
	var count int64
	err := s.db.Model(&model.Reminder{}).
		Where("user_id = ? AND active = ?", userID, true).
		Count(&count).Error
	return count, err
}
