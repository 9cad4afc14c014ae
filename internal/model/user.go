package model

import "time"

// Subscription plans.
const (
	PlanFree    = "free"
	PlanPremium = "premium"
)

// UserSettings holds per-user state: the WhatsApp address the user writes
// from and their subscription plan. The row id doubles as the delivery
// channel id stored on reminders and medications.
type UserSettings struct {
	ID        int64  `gorm:"primaryKey"`
	Address   string `gorm:"uniqueIndex;not null"`
	Timezone  string `gorm:"type:text;default:Local"`
	Plan      string `gorm:"type:text;not null;default:free"`
	ExpiresAt *time.Time
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// PremiumActive reports whether the user currently has premium access.
// A nil expiry on a premium plan means the subscription never expires.
func (u *UserSettings) PremiumActive(now time.Time) bool {
	if u.Plan != PlanPremium {
		return false
	}
	return u.ExpiresAt == nil || u.ExpiresAt.After(now)
}
