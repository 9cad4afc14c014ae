package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config stores runtime configuration loaded from environment variables.
type Config struct {
	Port                 string
	TwilioAccountSID     string
	TwilioAuthToken      string
	TwilioWhatsAppNumber string
	OpenAIAPIKey         string
	DatabaseURL          string
	LocalTimezone        *time.Location
	AdminIDs             []int64
}

// Load reads configuration values and prepares defaults where applicable.
func Load() *Config {
	_ = godotenv.Load()

	port := getenvDefault("PORT", "8080")
	accountSID := os.Getenv("TWILIO_ACCOUNT_SID")
	authToken := os.Getenv("TWILIO_AUTH_TOKEN")
	whatsAppNumber := os.Getenv("TWILIO_WHATSAPP_NUMBER")
	openAIKey := os.Getenv("OPENAI_API_KEY")
	databaseURL := os.Getenv("DATABASE_URL")
	timezoneName := getenvDefault("LOCAL_TIMEZONE", "Local")

	location, err := time.LoadLocation(timezoneName)
	if err != nil {
		log.Printf("config: invalid LOCAL_TIMEZONE %q, defaulting to system local: %v", timezoneName, err)
		location = time.Local
	}

	return &Config{
		Port:                 port,
		TwilioAccountSID:     accountSID,
		TwilioAuthToken:      authToken,
		TwilioWhatsAppNumber: whatsAppNumber,
		OpenAIAPIKey:         openAIKey,
		DatabaseURL:          databaseURL,
		LocalTimezone:        location,
		AdminIDs:             ParseAdminIDs(os.Getenv("ADMIN_IDS")),
	}
}

// IsAdmin reports whether the given user id is listed in ADMIN_IDS.
func (c *Config) IsAdmin(userID int64) bool {
	for _, id := range c.AdminIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// ParseAdminIDs parses a comma-separated list of numeric user ids.
// Malformed entries are logged and skipped.
func ParseAdminIDs(raw string) []int64 {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			log.Printf("config: unable to parse admin id %q: %v", part, err)
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

func getenvDefault(key, def string) string {
	value := os.Getenv(key)
	if value == "" {
		return def
	}
	return value
}
