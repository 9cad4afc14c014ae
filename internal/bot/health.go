package bot

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/okovalenko/carebot/internal/model"
	"github.com/okovalenko/carebot/internal/scheduler"
	"github.com/okovalenko/carebot/internal/subscription"
)

// ============ MEDICATIONS ============

// startMedicationDialogue begins the guided add-medication flow.
func (b *Bot) startMedicationDialogue(user *model.UserSettings) string {
	allowed, limitMsg, err := b.limits.Check(user.ID, subscription.LimitMedications)
	if err != nil {
		b.logger.Printf("medication limit check: %v", err)
		return "I couldn't check your plan limits. Please try again."
	}
	if !allowed {
		return limitMsg
	}

	b.state.Set(user.ID, conversationState{Step: stepMedName})
	return "💊 Adding a medication.\n\nWhat is it called? (Send \"cancel\" to stop.)"
}

// continueMedicationDialogue advances the name → dosage → time steps.
func (b *Bot) continueMedicationDialogue(user *model.UserSettings, body string) string {
	if strings.EqualFold(strings.TrimSpace(body), "cancel") {
		b.state.Clear(user.ID)
		return "❌ Cancelled."
	}

	state := b.state.Get(user.ID)
	switch state.Step {
	case stepMedName:
		state.MedName = strings.TrimSpace(body)
		state.Step = stepMedDosage
		b.state.Set(user.ID, state)
		return "Enter the dosage (e.g. \"1 tablet\", \"5mg\"), or reply \"skip\"."

	case stepMedDosage:
		dosage := strings.TrimSpace(body)
		if strings.EqualFold(dosage, "skip") {
			dosage = ""
		}
		state.MedDosage = dosage
		state.Step = stepMedTime
		b.state.Set(user.ID, state)
		return "⏰ What time each day? Use HH:MM, e.g. \"09:00\" or \"21:30\"."

	case stepMedTime:
		timeText := strings.TrimSpace(body)
		if _, _, err := scheduler.ParseClockTime(timeText); err != nil {
			return "❌ That doesn't look like HH:MM. Try again, e.g. \"09:00\"."
		}

		med, err := b.meds.Create(user.ID, user.ID, state.MedName, state.MedDosage, timeText)
		if err != nil {
			b.logger.Printf("save medication: %v", err)
			b.state.Clear(user.ID)
			return "I couldn't save that medication. Please try again."
		}
		if err := b.sched.ScheduleMedication(med.ID, med.ScheduleTime); err != nil {
			b.logger.Printf("schedule medication %d: %v", med.ID, err)
		}
		b.state.Clear(user.ID)

		reply := fmt.Sprintf("✅ Medication reminder created!\n\n💊 %s", med.Name)
		if med.Dosage != "" {
			reply += fmt.Sprintf("\n📦 %s", med.Dosage)
		}
		reply += fmt.Sprintf("\n⏰ Every day at %s\n\nI'll remind you when it's time!", med.ScheduleTime)
		return reply

	default:
		b.state.Clear(user.ID)
		return helpResponse()
	}
}

// listMedications shows the user's active medications.
func (b *Bot) listMedications(userID int64) string {
	meds, err := b.meds.ListActive(userID)
	if err != nil {
		b.logger.Printf("list medications: %v", err)
		return "I couldn't load your medications. Please try again."
	}
	if len(meds) == 0 {
		return "📭 You have no medication reminders. Send \"add med\" to create one."
	}

	var sb strings.Builder
	sb.WriteString("💊 Your medications:\n")
	for _, m := range meds {
		sb.WriteString("• " + m.Name)
		if m.Dosage != "" {
			sb.WriteString(" (" + m.Dosage + ")")
		}
		sb.WriteString("\n  ⏰ " + m.ScheduleTime + "\n")
	}
	sb.WriteString("\nSend \"med stats\" for your adherence.")
	return sb.String()
}

// handleMedicationResponse logs a taken/skip reply to a medication reminder.
func (b *Bot) handleMedicationResponse(user *model.UserSettings, action, idText string) string {
	id, err := strconv.ParseUint(idText, 10, 64)
	if err != nil {
		return "I couldn't work out which medication you meant."
	}

	med, err := b.meds.GetByID(uint(id))
	if err != nil {
		b.logger.Printf("medication response lookup: %v", err)
		return "Something went wrong. Please try again."
	}
	if med == nil || med.UserID != user.ID {
		return "I couldn't find that medication reminder."
	}

	status := model.MedTaken
	if action == "skip" {
		status = model.MedSkipped
	}
	if err := b.meds.RecordLog(med.ID, user.ID, status); err != nil {
		b.logger.Printf("record medication log: %v", err)
		return "I couldn't record that. Please try again."
	}

	if status == model.MedTaken {
		return fmt.Sprintf("✅ Great! You took %s.\n\nKeep up the streak! 💪", med.Name)
	}
	return fmt.Sprintf("⏭ Skipped: %s.\n\nTalk to your doctor if you skip often.", med.Name)
}

// medicationStats renders the trailing-week adherence aggregate.
func (b *Bot) medicationStats(userID int64) string {
	stats, err := b.meds.Adherence(userID, 7)
	if err != nil {
		b.logger.Printf("medication stats: %v", err)
		return "I couldn't load your stats. Please try again."
	}

	return fmt.Sprintf(
		"📊 Last 7 days:\n\n✅ Taken: %d\n⏭ Skipped: %d\n❌ Missed: %d\n\n📈 Adherence: %.1f%%",
		stats.Taken, stats.Skipped, stats.Missed, stats.Rate)
}

// ============ MOOD ============

var moodOptions = map[int]struct {
	Emoji string
	Label string
}{
	1: {"😢", "Awful"},
	2: {"😔", "Bad"},
	3: {"😐", "Okay"},
	4: {"🙂", "Good"},
	5: {"😊", "Great"},
}

func moodPrompt() string {
	var sb strings.Builder
	sb.WriteString("🎭 How are you feeling right now?\n\n")
	for score := 1; score <= 5; score++ {
		opt := moodOptions[score]
		sb.WriteString(fmt.Sprintf("%s %d - %s\n", opt.Emoji, score, opt.Label))
	}
	sb.WriteString("\nReply e.g. \"mood 4\" (add a note after the number if you like).")
	return sb.String()
}

// recordMood stores a mood entry and replies with short-term stats.
func (b *Bot) recordMood(user *model.UserSettings, scoreText, note string) string {
	allowed, limitMsg, err := b.limits.Check(user.ID, subscription.LimitMoodPerDay)
	if err != nil {
		b.logger.Printf("mood limit check: %v", err)
		return "I couldn't check your plan limits. Please try again."
	}
	if !allowed {
		return limitMsg
	}

	score, err := strconv.Atoi(scoreText)
	if err != nil || score < 1 || score > 5 {
		return moodPrompt()
	}
	opt := moodOptions[score]

	if err := b.moods.Add(user.ID, score, opt.Emoji, note); err != nil {
		b.logger.Printf("record mood: %v", err)
		return "I couldn't save that. Please try again."
	}

	reply := fmt.Sprintf("✅ Logged: %s %s\n", opt.Emoji, opt.Label)

	stats, err := b.moods.Stats(user.ID, 7)
	if err == nil && stats.Count > 1 {
		reply += fmt.Sprintf("\n📊 Last 7 days: average %.1f/5 over %d entries\n", stats.Average, stats.Count)
	}

	if score <= 2 {
		reply += "\n💙 Rough days happen to everyone. Be kind to yourself."
	} else if score >= 4 {
		reply += "\n🌟 Wonderful! Keep it up!"
	}
	return reply
}

// moodStats renders the 30-day mood summary with a short trend line.
func (b *Bot) moodStats(userID int64) string {
	entries, err := b.moods.History(userID, 7)
	if err != nil {
		b.logger.Printf("mood history: %v", err)
		return "I couldn't load your mood history. Please try again."
	}
	if len(entries) == 0 {
		return "📊 You have no mood entries yet. Send \"mood\" to start tracking!"
	}

	stats, err := b.moods.Stats(userID, 30)
	if err != nil {
		b.logger.Printf("mood stats: %v", err)
		return "I couldn't load your stats. Please try again."
	}

	var sb strings.Builder
	sb.WriteString("📊 Mood statistics\n\n")
	sb.WriteString("Last 30 days:\n")
	sb.WriteString(fmt.Sprintf("• Average: %.1f/5\n", stats.Average))
	sb.WriteString(fmt.Sprintf("• Lowest: %d/5, highest: %d/5\n", stats.Min, stats.Max))
	sb.WriteString(fmt.Sprintf("• Entries: %d\n\n", stats.Count))

	sb.WriteString("Recent:\n")
	for i, e := range entries {
		if i == 7 {
			break
		}
		sb.WriteString(fmt.Sprintf("%s %s", e.Emoji, e.CreatedAt.Format("02.01 15:04")))
		if e.Note != "" {
			sb.WriteString(" - " + e.Note)
		}
		sb.WriteString("\n")
	}

	if len(entries) >= 3 {
		sum := 0
		n := 0
		for i, e := range entries {
			if i == 5 {
				break
			}
			sum += e.Score
			n++
		}
		avg := float64(sum) / float64(n)
		sb.WriteString("\nTrend: ")
		switch {
		case avg >= 4:
			sb.WriteString("📈 Positive!")
		case avg >= 3:
			sb.WriteString("➡️ Steady")
		default:
			sb.WriteString("📉 Needs attention")
		}
	}
	return sb.String()
}
