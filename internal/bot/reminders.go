package bot

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/okovalenko/carebot/internal/model"
	myopenai "github.com/okovalenko/carebot/internal/openai"
	"github.com/okovalenko/carebot/internal/subscription"
)

// createReminderFromText parses a free-form request, persists the reminder,
// and installs its timer.
func (b *Bot) createReminderFromText(ctx context.Context, user *model.UserSettings, body string) string {
	allowed, limitMsg, err := b.limits.Check(user.ID, subscription.LimitReminders)
	if err != nil {
		b.logger.Printf("reminder limit check: %v", err)
		return "I couldn't check your plan limits. Please try again."
	}
	if !allowed {
		return limitMsg
	}

	title, remindAt, repeat, err := b.parseReminderRequest(ctx, body)
	if err != nil {
		b.logger.Printf("parse reminder %q: %v", body, err)
		return "I couldn't work out a time from that. Try something like \"Remind me to pay rent tomorrow at 9:00\" or \"call mom in 2 hours\"."
	}
	if !remindAt.After(b.now()) {
		return "That time is already in the past. Give me a future time."
	}

	r, err := b.reminders.Create(user.ID, user.ID, title, remindAt, repeat)
	if err != nil {
		b.logger.Printf("save reminder: %v", err)
		return "I couldn't save the reminder. Please try again."
	}
	b.sched.ScheduleReminder(r.ID, r.RemindAt)

	reply := fmt.Sprintf("✅ Reminder set!\n\n📌 %s\n⏰ %s", r.Title, r.RemindAt.Format("Mon, 02 Jan 15:04"))
	if r.Repeat != model.RepeatOnce {
		reply += "\n🔄 Repeats " + r.Repeat.Label()
	}
	return reply
}

// parseReminderRequest asks the LLM for a structured reminder and falls back
// to a small rule-based parser when no API key is configured or the model
// output is unusable.
func (b *Bot) parseReminderRequest(ctx context.Context, body string) (string, time.Time, model.Repeat, error) {
	now := b.now()

	parsed, err := b.openAI.ParseReminder(ctx, body, now)
	if err == nil {
		repeat, rerr := model.ParseRepeat(parsed.Repeat)
		if rerr != nil {
			repeat = model.RepeatOnce
		}
		at, terr := time.ParseInLocation("2006-01-02 15:04", parsed.Time, b.cfg.LocalTimezone)
		if terr == nil {
			return parsed.Title, at, repeat, nil
		}
		err = terr
	}
	if !errors.Is(err, myopenai.ErrClientNotInitialised) {
		b.logger.Printf("openai reminder parse: %v", err)
	}

	return parseReminderFallback(body, now)
}

var (
	relativeRegex = regexp.MustCompile(`(?i)^(?:remind me(?: to)?\s+)?(.+?)\s+in\s+(\d+)\s+(minute|minutes|min|hour|hours|day|days)$`)
	clockRegex    = regexp.MustCompile(`(?i)^(?:remind me(?: to)?\s+)?(.+?)\s+(tomorrow\s+)?at\s+(\d{1,2}):(\d{2})$`)
	repeatRegex   = regexp.MustCompile(`(?i)\b(every hour|hourly|every day|daily|every week|weekly|every month|monthly)\b`)
)

// parseReminderFallback handles the common "in N units" and "at HH:MM"
// phrasings without an LLM.
func parseReminderFallback(body string, now time.Time) (string, time.Time, model.Repeat, error) {
	repeat := model.RepeatOnce
	if m := repeatRegex.FindString(body); m != "" {
		switch strings.ToLower(m) {
		case "every hour", "hourly":
			repeat = model.RepeatHourly
		case "every day", "daily":
			repeat = model.RepeatDaily
		case "every week", "weekly":
			repeat = model.RepeatWeekly
		case "every month", "monthly":
			repeat = model.RepeatMonthly
		}
		body = strings.TrimSpace(repeatRegex.ReplaceAllString(body, ""))
	}

	if m := relativeRegex.FindStringSubmatch(body); m != nil {
		n, _ := strconv.Atoi(m[2])
		var d time.Duration
		switch strings.ToLower(m[3]) {
		case "minute", "minutes", "min":
			d = time.Duration(n) * time.Minute
		case "hour", "hours":
			d = time.Duration(n) * time.Hour
		default:
			d = time.Duration(n) * 24 * time.Hour
		}
		return strings.TrimSpace(m[1]), now.Add(d), repeat, nil
	}

	if m := clockRegex.FindStringSubmatch(body); m != nil {
		hour, _ := strconv.Atoi(m[3])
		minute, _ := strconv.Atoi(m[4])
		if hour > 23 || minute > 59 {
			return "", time.Time{}, repeat, fmt.Errorf("invalid clock time in %q", body)
		}
		at := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
		if m[2] != "" {
			at = at.Add(24 * time.Hour)
		} else if !at.After(now) {
			// A bare clock time that already passed today means tomorrow.
			at = at.Add(24 * time.Hour)
		}
		return strings.TrimSpace(m[1]), at, repeat, nil
	}

	return "", time.Time{}, repeat, fmt.Errorf("no time expression found")
}

// listReminders returns a numbered list of the user's pending reminders.
func (b *Bot) listReminders(userID int64) string {
	reminders, err := b.reminders.ListActive(userID)
	if err != nil {
		b.logger.Printf("list reminders error: %v", err)
		return "I couldn't load your reminders. Please try again."
	}
	if len(reminders) == 0 {
		return "You have no reminders yet. Send me one to get started!"
	}

	var sb strings.Builder
	sb.WriteString("📝 Your reminders:\n")
	for i, r := range reminders {
		sb.WriteString(fmt.Sprintf("%d. %s - %s", i+1, r.Title, r.RemindAt.Format("Mon, 02 Jan 15:04")))
		if r.Repeat != model.RepeatOnce {
			sb.WriteString(" (repeats " + r.Repeat.Label() + ")")
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\nSend \"delete N\" to remove one.")
	return sb.String()
}

// deleteReminderByIndex removes the Nth reminder from the user's list and
// cancels its pending timer.
func (b *Bot) deleteReminderByIndex(user *model.UserSettings, indexText string) string {
	index, err := strconv.Atoi(indexText)
	if err != nil || index < 1 {
		return "Give me the reminder number from \"list\", e.g. \"delete 2\"."
	}

	reminders, err := b.reminders.ListActive(user.ID)
	if err != nil {
		b.logger.Printf("delete reminder list: %v", err)
		return "I couldn't load your reminders. Please try again."
	}
	if index > len(reminders) {
		return fmt.Sprintf("You only have %d reminder(s). Send \"list\" to see them.", len(reminders))
	}

	target := reminders[index-1]
	ok, err := b.reminders.SoftDelete(target.ID, user.ID)
	if err != nil {
		b.logger.Printf("delete reminder %d: %v", target.ID, err)
		return "I couldn't delete that reminder. Please try again."
	}
	if !ok {
		return "That reminder is already gone."
	}
	b.sched.CancelReminder(target.ID)

	return fmt.Sprintf("🗑 Deleted: %s", target.Title)
}
