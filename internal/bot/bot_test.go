package bot

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/okovalenko/carebot/internal/config"
	"github.com/okovalenko/carebot/internal/model"
	myopenai "github.com/okovalenko/carebot/internal/openai"
	"github.com/okovalenko/carebot/internal/scheduler"
	"github.com/okovalenko/carebot/internal/store"
	"github.com/okovalenko/carebot/internal/subscription"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type nullMessenger struct {
	mu   sync.Mutex
	sent int
}

func (n *nullMessenger) Send(channelID int64, text string, controls []scheduler.Control) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent++
	return nil
}

type testEnv struct {
	bot   *Bot
	db    *gorm.DB
	users *store.UserStore
}

func newTestBot(t *testing.T) *testEnv {
	t.Helper()

	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared&_fk=1", name, time.Now().UnixNano())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite memory: %v", err)
	}
	if err := db.AutoMigrate(
		&model.Reminder{},
		&model.Medication{},
		&model.MedicationLog{},
		&model.MoodEntry{},
		&model.UserSettings{},
	); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}

	users := store.NewUserStore(db)
	reminders := store.NewReminderStore(db)
	meds := store.NewMedicationStore(db)
	moods := store.NewMoodStore(db)
	limits := subscription.NewService(users, reminders, meds, moods)

	logger := log.New(io.Discard, "", 0)
	sched := scheduler.New(reminders, meds, &nullMessenger{}, time.UTC, logger)
	t.Cleanup(sched.Stop)

	cfg := &config.Config{LocalTimezone: time.UTC, AdminIDs: []int64{1}}
	b := New(cfg, users, reminders, meds, moods, limits, sched, myopenai.New(""), logger)
	return &testEnv{bot: b, db: db, users: users}
}

func (e *testEnv) user(t *testing.T, address string) *model.UserSettings {
	t.Helper()
	u, err := e.users.GetOrCreateByAddress(address)
	if err != nil {
		t.Fatalf("get or create user: %v", err)
	}
	return u
}

func (e *testEnv) say(t *testing.T, u *model.UserSettings, body string) string {
	t.Helper()
	return e.bot.respond(context.Background(), u, body)
}

func TestParseReminderFallback(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC)

	cases := []struct {
		input  string
		title  string
		at     time.Time
		repeat model.Repeat
	}{
		{"remind me to call mom in 2 hours", "call mom", now.Add(2 * time.Hour), model.RepeatOnce},
		{"stretch in 15 minutes", "stretch", now.Add(15 * time.Minute), model.RepeatOnce},
		{"remind me to renew passport in 3 days", "renew passport", now.Add(72 * time.Hour), model.RepeatOnce},
		{"pay rent at 09:30", "pay rent", time.Date(2025, 6, 2, 9, 30, 0, 0, time.UTC), model.RepeatOnce},
		{"take out trash at 07:00", "take out trash", time.Date(2025, 6, 3, 7, 0, 0, 0, time.UTC), model.RepeatOnce},
		{"remind me to journal tomorrow at 21:00", "journal", time.Date(2025, 6, 3, 21, 0, 0, 0, time.UTC), model.RepeatOnce},
		{"drink water every hour at 10:00", "drink water", time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC), model.RepeatHourly},
		{"remind me to meditate every day at 22:00", "meditate", time.Date(2025, 6, 2, 22, 0, 0, 0, time.UTC), model.RepeatDaily},
	}

	for _, tc := range cases {
		title, at, repeat, err := parseReminderFallback(tc.input, now)
		if err != nil {
			t.Fatalf("parse %q: %v", tc.input, err)
		}
		if title != tc.title {
			t.Fatalf("parse %q: title %q, want %q", tc.input, title, tc.title)
		}
		if !at.Equal(tc.at) {
			t.Fatalf("parse %q: time %v, want %v", tc.input, at, tc.at)
		}
		if repeat != tc.repeat {
			t.Fatalf("parse %q: repeat %q, want %q", tc.input, repeat, tc.repeat)
		}
	}

	for _, bad := range []string{"hello there", "remind me", "lunch at 25:00"} {
		if _, _, _, err := parseReminderFallback(bad, now); err == nil {
			t.Fatalf("parse %q: expected error", bad)
		}
	}
}

func TestCreateAndListReminder(t *testing.T) {
	t.Parallel()
	e := newTestBot(t)
	u := e.user(t, "+15550000001")

	reply := e.say(t, u, "remind me to buy milk in 2 hours")
	if !strings.Contains(reply, "Reminder set") || !strings.Contains(reply, "buy milk") {
		t.Fatalf("unexpected create reply: %q", reply)
	}

	list := e.say(t, u, "list")
	if !strings.Contains(list, "buy milk") || !strings.Contains(list, "1.") {
		t.Fatalf("unexpected list reply: %q", list)
	}
}

func TestDeleteReminderByIndex(t *testing.T) {
	t.Parallel()
	e := newTestBot(t)
	u := e.user(t, "+15550000002")

	e.say(t, u, "remind me to alpha in 1 hours")
	e.say(t, u, "remind me to beta in 2 hours")

	reply := e.say(t, u, "delete 1")
	if !strings.Contains(reply, "Deleted") || !strings.Contains(reply, "alpha") {
		t.Fatalf("unexpected delete reply: %q", reply)
	}

	list := e.say(t, u, "list")
	if strings.Contains(list, "alpha") || !strings.Contains(list, "beta") {
		t.Fatalf("alpha should be gone, beta kept: %q", list)
	}

	reply = e.say(t, u, "delete 5")
	if !strings.Contains(reply, "only have") {
		t.Fatalf("unexpected out-of-range reply: %q", reply)
	}
}

func TestMedicationDialogue(t *testing.T) {
	t.Parallel()
	e := newTestBot(t)
	u := e.user(t, "+15550000003")

	reply := e.say(t, u, "add med")
	if !strings.Contains(reply, "What is it called") {
		t.Fatalf("unexpected dialogue start: %q", reply)
	}

	e.say(t, u, "Aspirin")
	e.say(t, u, "1 tablet")

	reply = e.say(t, u, "9am")
	if !strings.Contains(reply, "HH:MM") {
		t.Fatalf("invalid time must be rejected: %q", reply)
	}

	reply = e.say(t, u, "09:00")
	if !strings.Contains(reply, "Medication reminder created") || !strings.Contains(reply, "Aspirin") {
		t.Fatalf("unexpected completion reply: %q", reply)
	}

	var meds []model.Medication
	if err := e.db.Where("user_id = ?", u.ID).Find(&meds).Error; err != nil {
		t.Fatalf("fetch medications: %v", err)
	}
	if len(meds) != 1 || meds[0].Name != "Aspirin" || meds[0].Dosage != "1 tablet" || meds[0].ScheduleTime != "09:00" {
		t.Fatalf("unexpected medications: %+v", meds)
	}
}

func TestMedicationDialogueCancel(t *testing.T) {
	t.Parallel()
	e := newTestBot(t)
	u := e.user(t, "+15550000004")

	e.say(t, u, "add med")
	reply := e.say(t, u, "cancel")
	if !strings.Contains(reply, "Cancelled") {
		t.Fatalf("unexpected cancel reply: %q", reply)
	}

	// Dialogue state must be gone; a plain message routes normally again.
	reply = e.say(t, u, "help")
	if !strings.Contains(reply, "Remind me") {
		t.Fatalf("expected help text after cancel, got: %q", reply)
	}
}

func TestMedicationTakenReply(t *testing.T) {
	t.Parallel()
	e := newTestBot(t)
	u := e.user(t, "+15550000005")
	other := e.user(t, "+15550000006")

	med, err := store.NewMedicationStore(e.db).Create(u.ID, u.ID, "Iron", "5mg", "08:00")
	if err != nil {
		t.Fatalf("create medication: %v", err)
	}

	reply := e.say(t, u, fmt.Sprintf("taken %d", med.ID))
	if !strings.Contains(reply, "Iron") {
		t.Fatalf("unexpected taken reply: %q", reply)
	}

	reply = e.say(t, other, fmt.Sprintf("skip %d", med.ID))
	if !strings.Contains(reply, "couldn't find") {
		t.Fatalf("other users must not log against this medication: %q", reply)
	}

	var logs []model.MedicationLog
	if err := e.db.Find(&logs).Error; err != nil {
		t.Fatalf("fetch logs: %v", err)
	}
	if len(logs) != 1 || logs[0].Status != model.MedTaken || logs[0].UserID != u.ID {
		t.Fatalf("unexpected logs: %+v", logs)
	}
}

func TestMoodFlow(t *testing.T) {
	t.Parallel()
	e := newTestBot(t)
	u := e.user(t, "+15550000007")

	reply := e.say(t, u, "mood")
	if !strings.Contains(reply, "How are you feeling") {
		t.Fatalf("unexpected mood prompt: %q", reply)
	}

	reply = e.say(t, u, "mood 4 walked outside")
	if !strings.Contains(reply, "Logged") {
		t.Fatalf("unexpected mood reply: %q", reply)
	}

	var entries []model.MoodEntry
	if err := e.db.Where("user_id = ?", u.ID).Find(&entries).Error; err != nil {
		t.Fatalf("fetch entries: %v", err)
	}
	if len(entries) != 1 || entries[0].Score != 4 || entries[0].Note != "walked outside" {
		t.Fatalf("unexpected entries: %+v", entries)
	}

	stats := e.say(t, u, "mood stats")
	if !strings.Contains(stats, "Mood statistics") {
		t.Fatalf("unexpected stats reply: %q", stats)
	}
}

func TestAdminGrantRevoke(t *testing.T) {
	t.Parallel()
	e := newTestBot(t)
	admin := e.user(t, "+15550000008") // first user gets id 1, listed in AdminIDs
	target := e.user(t, "+15550000009")

	reply := e.say(t, admin, fmt.Sprintf("grant %d", target.ID))
	if !strings.Contains(reply, "Premium") {
		t.Fatalf("unexpected grant reply: %q", reply)
	}
	premium, err := e.users.IsPremium(target.ID)
	if err != nil || !premium {
		t.Fatalf("target should be premium: premium=%v err=%v", premium, err)
	}

	reply = e.say(t, target, fmt.Sprintf("grant %d", admin.ID))
	if !strings.Contains(reply, "don't have access") {
		t.Fatalf("non-admin must be rejected: %q", reply)
	}

	reply = e.say(t, admin, fmt.Sprintf("revoke %d", target.ID))
	if !strings.Contains(reply, "free plan") {
		t.Fatalf("unexpected revoke reply: %q", reply)
	}
	premium, err = e.users.IsPremium(target.ID)
	if err != nil || premium {
		t.Fatalf("target should be free again: premium=%v err=%v", premium, err)
	}
}

func TestWebhookRespondsWithTwiML(t *testing.T) {
	t.Parallel()
	e := newTestBot(t)

	form := url.Values{}
	form.Set("From", "whatsapp:+15550000010")
	form.Set("Body", "help")

	req := httptest.NewRequest(http.MethodPost, "/twilio/webhook", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()

	e.bot.Handler().ServeHTTP(rec, req)

	if got := rec.Header().Get("Content-Type"); got != "application/xml" {
		t.Fatalf("unexpected content type %q", got)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "<Response>") || !strings.Contains(body, "<Message>") {
		t.Fatalf("expected TwiML envelope, got %q", body)
	}
}

func TestRenderControls(t *testing.T) {
	t.Parallel()

	plain := renderControls("hello", nil)
	if plain != "hello" {
		t.Fatalf("no controls must leave text untouched: %q", plain)
	}

	rendered := renderControls("time for meds", []scheduler.Control{
		{Label: "✅ Taken", Data: "taken 3"},
		{Label: "⏭ Skip", Data: "skip 3"},
	})
	if !strings.Contains(rendered, `reply "taken 3"`) || !strings.Contains(rendered, `reply "skip 3"`) {
		t.Fatalf("controls must render as reply hints: %q", rendered)
	}
}
