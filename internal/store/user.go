package store

import (
	"errors"
	"time"

	"github.com/okovalenko/carebot/internal/model"
	"gorm.io/gorm"
)

// UserStore maps WhatsApp addresses to user rows and tracks subscriptions.
type UserStore struct {
	db *gorm.DB
}

// NewUserStore creates a user store backed by the given connection.
func NewUserStore(db *gorm.DB) *UserStore {
	return &UserStore{db: db}
}

// GetOrCreateByAddress returns the user registered under the given WhatsApp
// address, creating a fresh free-plan row on first contact.
func (s *UserStore) GetOrCreateByAddress(address string) (*model.UserSettings, error) {
	var u model.UserSettings
	err := s.db.Where("address = ?", address).First(&u).Error
	if err == nil {
		return &u, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	u = model.UserSettings{Address: address, Plan: model.PlanFree, Timezone: "Local"}
	if err := s.db.Create(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByID returns the user with the given id, or nil when unknown.
func (s *UserStore) GetByID(id int64) (*model.UserSettings, error) {
	var u model.UserSettings
	err := s.db.Where("id = ?", id).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// SetPlan updates a user's subscription plan. A nil expiry means the plan
// never expires.
func (s *UserStore) SetPlan(userID int64, plan string, expiresAt *time.Time) error {
	return s.db.Model(&model.UserSettings{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{"plan": plan, "expires_at": expiresAt}).Error
}

// IsPremium reports whether the user has an active premium subscription.
// Unknown users are treated as free.
func (s *UserStore) IsPremium(userID int64) (bool, error) {
	u, err := s.GetByID(userID)
	if err != nil {
		return false, err
	}
	if u == nil {
		return false, nil
	}
	return u.PremiumActive(time.Now()), nil
}
