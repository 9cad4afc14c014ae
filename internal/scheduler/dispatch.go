package scheduler

import (
	"fmt"
	"strings"

	"github.com/okovalenko/carebot/internal/model"
)

// fireReminder runs when a reminder's timer expires. It re-reads the
// definition from the store rather than trusting any captured copy: the
// reminder may have been edited or deleted since it was scheduled.
func (s *Scheduler) fireReminder(id uint, j *reminderJob) {
	defer s.removeJob(reminderKey(id), j)

	r, err := s.reminders.GetByID(id)
	if err != nil {
		s.logger.Printf("scheduler: load reminder %d: %v", id, err)
		return
	}
	if r == nil {
		// Deleted since scheduling; nothing to do.
		return
	}

	if err := s.sender.Send(r.ChannelID, reminderMessage(r), nil); err != nil {
		s.policy.OnSendFailure(reminderKey(id), err)
		return
	}

	if r.Repeat == model.RepeatOnce {
		if _, err := s.reminders.SoftDelete(r.ID, r.UserID); err != nil {
			s.logger.Printf("scheduler: retire reminder %d: %v", id, err)
		}
		return
	}

	next, ok := NextTime(r.RemindAt, r.Repeat)
	if !ok {
		return
	}
	if err := s.reminders.UpdateRemindAt(r.ID, next); err != nil {
		s.logger.Printf("scheduler: advance reminder %d: %v", id, err)
		return
	}
	s.ScheduleReminder(r.ID, next)
}

// fireMedication runs on the medication's daily cron cadence. Unlike
// reminders, a failed or skipped firing changes nothing: the cron entry
// fires again the next day regardless.
func (s *Scheduler) fireMedication(id uint) {
	m, err := s.meds.GetByID(id)
	if err != nil {
		s.logger.Printf("scheduler: load medication %d: %v", id, err)
		return
	}
	if m == nil {
		return
	}

	controls := []Control{
		{Label: "✅ Taken", Data: fmt.Sprintf("taken %d", m.ID)},
		{Label: "⏭ Skip", Data: fmt.Sprintf("skip %d", m.ID)},
	}
	if err := s.sender.Send(m.ChannelID, medicationMessage(m), controls); err != nil {
		s.policy.OnSendFailure(medicationKey(id), err)
	}
}

func reminderMessage(r *model.Reminder) string {
	var sb strings.Builder
	sb.WriteString("🔔 Reminder!\n\n")
	sb.WriteString("📌 " + r.Title)
	if r.Repeat != model.RepeatOnce {
		sb.WriteString("\n\n🔄 Repeats: " + r.Repeat.Label())
	}
	return sb.String()
}

func medicationMessage(m *model.Medication) string {
	var sb strings.Builder
	sb.WriteString("💊 Time to take your medication!\n\n")
	sb.WriteString(m.Name)
	if m.Dosage != "" {
		sb.WriteString(" - " + m.Dosage)
	}
	sb.WriteString("\n⏰ " + m.ScheduleTime)
	return sb.String()
}
