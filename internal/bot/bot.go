package bot

import (
	"context"
	"encoding/xml"
	"errors"
	"log"
	"net/http"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/okovalenko/carebot/internal/config"
	"github.com/okovalenko/carebot/internal/model"
	myopenai "github.com/okovalenko/carebot/internal/openai"
	"github.com/okovalenko/carebot/internal/scheduler"
	"github.com/okovalenko/carebot/internal/store"
	"github.com/okovalenko/carebot/internal/subscription"
)

// Bot is the conversational front end: it turns inbound WhatsApp messages
// into store mutations and scheduling calls, and renders replies as TwiML.
type Bot struct {
	cfg       *config.Config
	users     *store.UserStore
	reminders *store.ReminderStore
	meds      *store.MedicationStore
	moods     *store.MoodStore
	limits    *subscription.Service
	sched     *scheduler.Scheduler
	openAI    *myopenai.Client
	state     *conversationStore
	logger    *log.Logger
	now       func() time.Time
}

// New creates a fully configured Bot instance.
func New(cfg *config.Config, users *store.UserStore, reminders *store.ReminderStore, meds *store.MedicationStore, moods *store.MoodStore, limits *subscription.Service, sched *scheduler.Scheduler, openAI *myopenai.Client, logger *log.Logger) *Bot {
	return &Bot{
		cfg:       cfg,
		users:     users,
		reminders: reminders,
		meds:      meds,
		moods:     moods,
		limits:    limits,
		sched:     sched,
		openAI:    openAI,
		state:     newConversationStore(),
		logger:    logger,
		now:       time.Now,
	}
}

// Handler returns the HTTP handler for incoming Twilio messages.
func (b *Bot) Handler() http.HandlerFunc {
	return b.handleIncomingMessage
}

var (
	medResponseRegex = regexp.MustCompile(`^(taken|skip)\s+(\d+)$`)
	deleteRegex      = regexp.MustCompile(`^delete\s+(\d+)$`)
	moodScoreRegex   = regexp.MustCompile(`^mood\s+([1-5])(?:\s+(.*))?$`)
	grantRegex       = regexp.MustCompile(`^(grant|revoke)\s+(\d+)$`)
)

// handleIncomingMessage processes Twilio webhook POST requests.
func (b *Bot) handleIncomingMessage(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		b.logger.Printf("webhook: parse error: %v", err)
		b.writeTwilioResponse(w, "Sorry, I couldn't understand that request.")
		return
	}

	from := r.FormValue("From")
	body := strings.TrimSpace(r.FormValue("Body"))
	if from == "" || body == "" {
		b.writeTwilioResponse(w, "I need a message to work with. Please try again.")
		return
	}

	user, err := b.users.GetOrCreateByAddress(sanitizeWhatsAppNumber(from))
	if err != nil {
		b.logger.Printf("webhook: user lookup: %v", err)
		b.writeTwilioResponse(w, "Something went wrong on my side. Please try again.")
		return
	}

	b.writeTwilioResponse(w, b.respond(r.Context(), user, body))
}

// respond routes a message to the matching flow and returns the reply text.
func (b *Bot) respond(ctx context.Context, user *model.UserSettings, body string) string {
	lower := strings.ToLower(body)

	if b.state.Step(user.ID) != stepNone {
		return b.continueMedicationDialogue(user, body)
	}

	if m := medResponseRegex.FindStringSubmatch(lower); m != nil {
		return b.handleMedicationResponse(user, m[1], m[2])
	}
	if m := deleteRegex.FindStringSubmatch(lower); m != nil {
		return b.deleteReminderByIndex(user, m[1])
	}
	if m := moodScoreRegex.FindStringSubmatch(lower); m != nil {
		return b.recordMood(user, m[1], strings.TrimSpace(m[2]))
	}
	if m := grantRegex.FindStringSubmatch(lower); m != nil {
		return b.handleAdminPlanChange(user, m[1], m[2])
	}

	switch lower {
	case "list", "reminders", "my reminders", "list reminders":
		return b.listReminders(user.ID)
	case "meds", "medications", "my meds":
		return b.listMedications(user.ID)
	case "add med", "add medication", "new med":
		return b.startMedicationDialogue(user)
	case "med stats", "adherence":
		return b.medicationStats(user.ID)
	case "mood":
		return moodPrompt()
	case "mood stats", "moodstats":
		return b.moodStats(user.ID)
	case "subscription", "premium":
		return b.subscriptionStatus(user)
	case "help", "menu", "start":
		return helpResponse()
	}

	return b.handleFreeText(ctx, user, body)
}

// handleFreeText classifies an unrecognized message and falls back to
// treating it as a new reminder, mirroring how people actually text the bot.
func (b *Bot) handleFreeText(ctx context.Context, user *model.UserSettings, body string) string {
	intent, err := b.openAI.ClassifyIntent(ctx, body)
	if err != nil {
		if !errors.Is(err, myopenai.ErrClientNotInitialised) {
			b.logger.Printf("intent classification error: %v", err)
		}
		intent = myopenai.IntentAddReminder
	}

	switch intent {
	case myopenai.IntentListReminders:
		return b.listReminders(user.ID)
	case myopenai.IntentDeleteReminder:
		return "Tell me which reminder to delete by number, e.g. \"delete 2\". Send \"list\" to see the numbers."
	case myopenai.IntentMedications:
		return b.listMedications(user.ID)
	case myopenai.IntentMood:
		return moodPrompt()
	case myopenai.IntentHelp:
		return helpResponse()
	default:
		return b.createReminderFromText(ctx, user, body)
	}
}

func (b *Bot) writeTwilioResponse(w http.ResponseWriter, message string) {
	twiml := struct {
		XMLName xml.Name `xml:"Response"`
		Message string   `xml:"Message"`
	}{
		Message: message,
	}

	w.Header().Set("Content-Type", "application/xml")
	if err := xml.NewEncoder(w).Encode(twiml); err != nil {
		b.logger.Printf("twilio response encode: %v", err)
	}
}

func sanitizeWhatsAppNumber(from string) string {
	// Twilio prepends whatsapp: to the number.
	return strings.TrimPrefix(from, "whatsapp:")
}

func helpResponse() string {
	return "Here's what I can do:\n" +
		"- \"Remind me to pay rent tomorrow at 9:00\" to set a reminder\n" +
		"- \"list\" to see your reminders, \"delete 2\" to remove one\n" +
		"- \"add med\" to set up a daily medication reminder\n" +
		"- \"meds\" / \"med stats\" for your medications and adherence\n" +
		"- \"mood\" to log how you feel, \"mood stats\" for trends\n" +
		"- \"subscription\" to see your plan"
}

// conversationStore tracks per-user multi-step dialogue state.
type conversationStore struct {
	mu    sync.RWMutex
	state map[int64]conversationState
}

type step int

const (
	stepNone step = iota
	stepMedName
	stepMedDosage
	stepMedTime
)

type conversationState struct {
	Step      step
	MedName   string
	MedDosage string
}

func newConversationStore() *conversationStore {
	return &conversationStore{
		state: make(map[int64]conversationState),
	}
}

func (c *conversationStore) Step(userID int64) step {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state[userID].Step
}

func (c *conversationStore) Get(userID int64) conversationState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state[userID]
}

func (c *conversationStore) Set(userID int64, state conversationState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state[userID] = state
}

func (c *conversationStore) Clear(userID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.state, userID)
}
