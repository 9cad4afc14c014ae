package bot

import (
	"fmt"
	"strconv"

	"github.com/okovalenko/carebot/internal/model"
	"github.com/okovalenko/carebot/internal/subscription"
)

// subscriptionStatus renders the user's plan and, for free users, their
// current usage against each limit.
func (b *Bot) subscriptionStatus(user *model.UserSettings) string {
	premium, err := b.users.IsPremium(user.ID)
	if err != nil {
		b.logger.Printf("subscription status: %v", err)
		return "I couldn't load your subscription. Please try again."
	}

	if premium {
		expires := "forever ♾️"
		if user.ExpiresAt != nil {
			expires = "until " + user.ExpiresAt.Format("02.01.2006")
		}
		return fmt.Sprintf(
			"⭐ Your plan: Premium\n\n✅ Active %s\n\nUnlimited reminders, medications, and mood entries. Thank you for the support! 💚",
			expires)
	}

	limits := subscription.PlanLimits(model.PlanFree)
	remindersCount, _ := b.reminders.CountActive(user.ID)
	medsCount, _ := b.meds.CountActive(user.ID)

	return fmt.Sprintf(
		"📊 Your plan: Free\n\nUsage:\n• Reminders: %d/%d\n• Medications: %d/%d\n• Mood entries: %d/day\n\n⭐ Premium removes every limit. Contact the bot admin to upgrade.",
		remindersCount, limits.Reminders, medsCount, limits.Medications, limits.MoodPerDay)
}

// handleAdminPlanChange grants or revokes premium for another user. Only ids
// listed in ADMIN_IDS may use it.
func (b *Bot) handleAdminPlanChange(user *model.UserSettings, action, targetText string) string {
	if !b.cfg.IsAdmin(user.ID) {
		return "❌ You don't have access to that command."
	}

	targetID, err := strconv.ParseInt(targetText, 10, 64)
	if err != nil {
		return "❌ Invalid user id."
	}
	target, err := b.users.GetByID(targetID)
	if err != nil {
		b.logger.Printf("admin plan change lookup: %v", err)
		return "Something went wrong. Please try again."
	}
	if target == nil {
		return fmt.Sprintf("❌ No user with id %d.", targetID)
	}

	plan := model.PlanPremium
	if action == "revoke" {
		plan = model.PlanFree
	}
	if err := b.users.SetPlan(targetID, plan, nil); err != nil {
		b.logger.Printf("admin set plan: %v", err)
		return "Something went wrong. Please try again."
	}

	if plan == model.PlanPremium {
		return fmt.Sprintf("✅ User %d now has unlimited Premium.", targetID)
	}
	return fmt.Sprintf("✅ User %d is back on the free plan.", targetID)
}
