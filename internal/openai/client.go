package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// Client wraps the OpenAI SDK and provides utility helpers.
type Client struct {
	apiKey string
	client *openai.Client
	model  openai.ChatModel
}

// ErrClientNotInitialised is returned when attempting to call the API without a configured client.
var ErrClientNotInitialised = errors.New("openai client not initialised")

// Intent represents the high-level action inferred from a user message.
type Intent string

const (
	// IntentUnknown indicates the message intent could not be resolved.
	IntentUnknown Intent = "unknown"
	// IntentAddReminder instructs the bot to capture a new reminder.
	IntentAddReminder Intent = "add_reminder"
	// IntentListReminders asks the bot to list current reminders.
	IntentListReminders Intent = "list_reminders"
	// IntentDeleteReminder requests deletion of a specific reminder.
	IntentDeleteReminder Intent = "delete_reminder"
	// IntentMedications asks about medication reminders.
	IntentMedications Intent = "medications"
	// IntentMood asks to record or review mood.
	IntentMood Intent = "mood"
	// IntentHelp asks for usage guidance.
	IntentHelp Intent = "help"
)

// New returns an OpenAI client when apiKey is provided, otherwise nil is returned.
func New(apiKey string) *Client {
	if apiKey == "" {
		return &Client{}
	}
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &Client{
		apiKey: apiKey,
		client: &client,
		model:  openai.ChatModelGPT4oMini,
	}
}

// ParsedReminder is the structured result of natural-language reminder parsing.
type ParsedReminder struct {
	Title  string `json:"title"`
	Time   string `json:"time"`
	Repeat string `json:"repeat"`
}

// ParseReminder extracts a reminder title, fire time, and repeat kind from a
// natural-language request. Time is returned as "2006-01-02 15:04" in the
// caller's local timezone; now anchors relative phrases like "in an hour".
func (c *Client) ParseReminder(ctx context.Context, content string, now time.Time) (*ParsedReminder, error) {
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("content cannot be empty")
	}
	if c.client == nil {
		return nil, ErrClientNotInitialised
	}

	system := fmt.Sprintf(
		"You extract reminders from chat messages. The current local time is %s. "+
			"Reply with only a JSON object: {\"title\": string, \"time\": \"YYYY-MM-DD HH:MM\", \"repeat\": one of \"once\", \"hourly\", \"daily\", \"weekly\", \"monthly\"}. "+
			"Use \"once\" unless the message clearly asks for repetition.",
		now.Format("2006-01-02 15:04"))

	req := openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			{
				OfSystem: &openai.ChatCompletionSystemMessageParam{
					Content: openai.ChatCompletionSystemMessageParamContentUnion{
						OfString: openai.String(system),
					},
				},
			},
			{
				OfUser: &openai.ChatCompletionUserMessageParam{
					Content: openai.ChatCompletionUserMessageParamContentUnion{
						OfString: openai.String(content),
					},
				},
			},
		},
		Temperature:         openai.Float(0.0),
		MaxCompletionTokens: openai.Int(120),
	}

	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	resp, err := c.client.Chat.Completions.New(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no completion received")
	}

	raw := strings.TrimSpace(resp.Choices[0].Message.Content)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.Trim(raw, "` \n")

	var parsed ParsedReminder
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, fmt.Errorf("unparseable reminder response %q: %w", raw, err)
	}
	if strings.TrimSpace(parsed.Title) == "" || strings.TrimSpace(parsed.Time) == "" {
		return nil, fmt.Errorf("incomplete reminder response %q", raw)
	}
	return &parsed, nil
}

// ClassifyIntent uses the language model to infer the user's intent.
func (c *Client) ClassifyIntent(ctx context.Context, content string) (Intent, error) {
	if strings.TrimSpace(content) == "" {
		return IntentUnknown, fmt.Errorf("content cannot be empty")
	}
	if c.client == nil {
		return IntentUnknown, ErrClientNotInitialised
	}

	req := openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			{
				OfSystem: &openai.ChatCompletionSystemMessageParam{
					Content: openai.ChatCompletionSystemMessageParamContentUnion{
						OfString: openai.String("Classify the user's request for a personal assistant bot. Reply with exactly one label: add_reminder, list_reminders, delete_reminder, medications, mood, help, or unknown."),
					},
				},
			},
			{
				OfUser: &openai.ChatCompletionUserMessageParam{
					Content: openai.ChatCompletionUserMessageParamContentUnion{
						OfString: openai.String(content),
					},
				},
			},
		},
		Temperature:         openai.Float(0.0),
		MaxCompletionTokens: openai.Int(8),
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	resp, err := c.client.Chat.Completions.New(ctx, req)
	if err != nil {
		return IntentUnknown, err
	}
	if len(resp.Choices) == 0 {
		return IntentUnknown, fmt.Errorf("no completion received")
	}

	label := strings.TrimSpace(resp.Choices[0].Message.Content)
	switch Intent(strings.ToLower(label)) {
	case IntentAddReminder:
		return IntentAddReminder, nil
	case IntentListReminders:
		return IntentListReminders, nil
	case IntentDeleteReminder:
		return IntentDeleteReminder, nil
	case IntentMedications:
		return IntentMedications, nil
	case IntentMood:
		return IntentMood, nil
	case IntentHelp:
		return IntentHelp, nil
	default:
		return IntentUnknown, nil
	}
}
