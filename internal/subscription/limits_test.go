package subscription

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/okovalenko/carebot/internal/model"
	"github.com/okovalenko/carebot/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (*Service, *store.UserStore, *store.ReminderStore) {
	t.Helper()

	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared&_fk=1", name, time.Now().UnixNano())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&model.Reminder{},
		&model.Medication{},
		&model.MedicationLog{},
		&model.MoodEntry{},
		&model.UserSettings{},
	))

	users := store.NewUserStore(db)
	reminders := store.NewReminderStore(db)
	meds := store.NewMedicationStore(db)
	moods := store.NewMoodStore(db)
	return NewService(users, reminders, meds, moods), users, reminders
}

func TestFreePlanReminderLimit(t *testing.T) {
	t.Parallel()
	svc, users, reminders := newTestService(t)

	u, err := users.GetOrCreateByAddress("+15550000001")
	require.NoError(t, err)

	free := PlanLimits(model.PlanFree)
	for i := 0; i < free.Reminders; i++ {
		allowed, _, err := svc.Check(u.ID, LimitReminders)
		require.NoError(t, err)
		assert.True(t, allowed, "reminder %d should be allowed", i+1)

		_, err = reminders.Create(u.ID, u.ID, fmt.Sprintf("r%d", i), time.Now().Add(time.Hour), model.RepeatOnce)
		require.NoError(t, err)
	}

	allowed, msg, err := svc.Check(u.ID, LimitReminders)
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Contains(t, msg, "Limit reached")
}

func TestPremiumIsUnlimited(t *testing.T) {
	t.Parallel()
	svc, users, reminders := newTestService(t)

	u, err := users.GetOrCreateByAddress("+15550000002")
	require.NoError(t, err)
	require.NoError(t, users.SetPlan(u.ID, model.PlanPremium, nil))

	free := PlanLimits(model.PlanFree)
	for i := 0; i < free.Reminders+2; i++ {
		_, err = reminders.Create(u.ID, u.ID, fmt.Sprintf("r%d", i), time.Now().Add(time.Hour), model.RepeatOnce)
		require.NoError(t, err)
	}

	allowed, msg, err := svc.Check(u.ID, LimitReminders)
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Empty(t, msg)
}

func TestUnknownLimitType(t *testing.T) {
	t.Parallel()
	svc, users, _ := newTestService(t)

	u, err := users.GetOrCreateByAddress("+15550000003")
	require.NoError(t, err)

	_, _, err = svc.Check(u.ID, LimitType("teleportation"))
	assert.Error(t, err)
}
