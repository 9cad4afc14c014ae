package bot

import (
	"fmt"
	"strings"

	"github.com/okovalenko/carebot/internal/scheduler"
	"github.com/okovalenko/carebot/internal/store"
	"github.com/okovalenko/carebot/internal/twilio"
)

// Messenger adapts the Twilio client to the scheduler's outbound interface:
// it resolves a channel id to the user's WhatsApp address and renders
// interactive controls as reply hints, since plain WhatsApp messages carry
// no inline buttons.
type Messenger struct {
	users  *store.UserStore
	client *twilio.Client
}

// NewMessenger creates the transport adapter used by the scheduler.
func NewMessenger(users *store.UserStore, client *twilio.Client) *Messenger {
	return &Messenger{users: users, client: client}
}

// Send implements scheduler.Messenger.
func (m *Messenger) Send(channelID int64, text string, controls []scheduler.Control) error {
	user, err := m.users.GetByID(channelID)
	if err != nil {
		return fmt.Errorf("resolve channel %d: %w", channelID, err)
	}
	if user == nil {
		return fmt.Errorf("channel %d has no registered recipient", channelID)
	}
	return m.client.SendWhatsAppMessage(user.Address, renderControls(text, controls))
}

func renderControls(text string, controls []scheduler.Control) string {
	if len(controls) == 0 {
		return text
	}
	var sb strings.Builder
	sb.WriteString(text)
	sb.WriteString("\n")
	for _, c := range controls {
		sb.WriteString(fmt.Sprintf("\n%s - reply \"%s\"", c.Label, c.Data))
	}
	return sb.String()
}
