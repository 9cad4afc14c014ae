// Package subscription implements free/premium feature gating.
package subscription

import (
	"fmt"

	"github.com/okovalenko/carebot/internal/model"
	"github.com/okovalenko/carebot/internal/store"
)

// LimitType names a gated resource.
type LimitType string

const (
	LimitReminders   LimitType = "reminders"
	LimitMedications LimitType = "medications"
	LimitMoodPerDay  LimitType = "mood_per_day"
)

// Limits holds per-plan caps. A negative value means unlimited.
type Limits struct {
	Reminders   int
	Medications int
	MoodPerDay  int
}

var planLimits = map[string]Limits{
	model.PlanFree:    {Reminders: 5, Medications: 3, MoodPerDay: 3},
	model.PlanPremium: {Reminders: -1, Medications: -1, MoodPerDay: -1},
}

// Service checks usage against the user's plan limits.
type Service struct {
	users     *store.UserStore
	reminders *store.ReminderStore
	meds      *store.MedicationStore
	moods     *store.MoodStore
}

// NewService creates a limit-checking service over the given stores.
func NewService(users *store.UserStore, reminders *store.ReminderStore, meds *store.MedicationStore, moods *store.MoodStore) *Service {
	return &Service{users: users, reminders: reminders, meds: meds, moods: moods}
}

// Check reports whether the user may consume one more unit of the given
// resource. When denied, the returned message explains the limit and how to
// upgrade.
func (s *Service) Check(userID int64, limitType LimitType) (bool, string, error) {
	premium, err := s.users.IsPremium(userID)
	if err != nil {
		return false, "", err
	}
	plan := model.PlanFree
	if premium {
		plan = model.PlanPremium
	}

	limit := limitFor(plan, limitType)
	if limit < 0 {
		return true, "", nil
	}

	count, err := s.currentCount(userID, limitType)
	if err != nil {
		return false, "", err
	}
	if count < int64(limit) {
		return true, "", nil
	}

	msg := fmt.Sprintf(
		"⚠️ Limit reached!\n\nThe free plan allows %d %s. You have used %d.\n\n⭐ Upgrade to Premium for unlimited access - send \"subscription\" for details.",
		limit, describe(limitType), count)
	return false, msg, nil
}

// PlanLimits returns the caps for a plan name, defaulting to free.
func PlanLimits(plan string) Limits {
	if l, ok := planLimits[plan]; ok {
		return l
	}
	return planLimits[model.PlanFree]
}

func (s *Service) currentCount(userID int64, limitType LimitType) (int64, error) {
	switch limitType {
	case LimitReminders:
		return s.reminders.CountActive(userID)
	case LimitMedications:
		return s.meds.CountActive(userID)
	case LimitMoodPerDay:
		return s.moods.CountToday(userID)
	default:
		return 0, fmt.Errorf("unknown limit type %q", limitType)
	}
}

func limitFor(plan string, limitType LimitType) int {
	limits := PlanLimits(plan)
	switch limitType {
	case LimitReminders:
		return limits.Reminders
	case LimitMedications:
		return limits.Medications
	case LimitMoodPerDay:
		return limits.MoodPerDay
	default:
		return 0
	}
}

func describe(limitType LimitType) string {
	switch limitType {
	case LimitReminders:
		return "reminders"
	case LimitMedications:
		return "medications"
	case LimitMoodPerDay:
		return "mood entries per day"
	default:
		return string(limitType)
	}
}
