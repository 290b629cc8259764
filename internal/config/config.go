package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Port  string
	Debug bool

	// Monitored scope
	Target  string
	Country string
	City    string
	Lang    string

	// Feed configuration
	FeedURLs     []string
	PerFeedLimit int
	FeedTimeout  int // seconds, per source

	// Schedule configuration (cron expressions with seconds field)
	IngestSchedule    string
	AggregateSchedule string

	// Aggregation configuration
	AggregateWindowHours int
	AlertThreshold       int // notify when reputation index drops below this

	// Store configuration
	SQLitePath string

	// Classifier rules file (optional, YAML)
	RulesFile string

	// Notification configuration
	TeamsWebhookURL   string
	NotificationEmail string
	SMTPHost          string
	SMTPPort          int
	SMTPUsername      string
	SMTPPassword      string

	// Azure Blob archive configuration (optional)
	StorageAccount   string
	StorageContainer string
}

// MaxPerFeedLimit bounds how many entries a single feed may contribute per run.
const MaxPerFeedLimit = 50

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:  getEnv("PORT", "8080"),
		Debug: getBoolEnv("DEBUG", false),

		Target:  getEnv("TARGET", "ayuntamiento"),
		Country: getEnv("COUNTRY", "MX"),
		City:    getEnv("CITY", ""),
		Lang:    getEnv("LANG_CODE", "es"),

		FeedURLs:     getSliceEnv("FEED_URLS", nil),
		PerFeedLimit: getIntEnv("PER_FEED_LIMIT", 20),
		FeedTimeout:  getIntEnv("FEED_TIMEOUT_SECONDS", 15),

		IngestSchedule:    getEnv("INGEST_SCHEDULE", "0 */10 * * * *"),
		AggregateSchedule: getEnv("AGGREGATE_SCHEDULE", "0 5 * * * *"),

		AggregateWindowHours: getIntEnv("AGGREGATE_WINDOW_HOURS", 72),
		AlertThreshold:       getIntEnv("ALERT_THRESHOLD", 35),

		SQLitePath: getEnv("SQLITE_PATH", "data/reputrack.db"),
		RulesFile:  getEnv("RULES_FILE", ""),

		TeamsWebhookURL:   getEnv("TEAMS_WEBHOOK_URL", ""),
		NotificationEmail: getEnv("NOTIFICATION_EMAIL", ""),
		SMTPHost:          getEnv("SMTP_HOST", ""),
		SMTPPort:          getIntEnv("SMTP_PORT", 587),
		SMTPUsername:      getEnv("SMTP_USERNAME", ""),
		SMTPPassword:      getEnv("SMTP_PASSWORD", ""),

		StorageAccount:   getEnv("AZURE_STORAGE_ACCOUNT", ""),
		StorageContainer: getEnv("AZURE_STORAGE_CONTAINER", "mentions"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.Target) == "" {
		return fmt.Errorf("TARGET must not be empty")
	}

	if c.PerFeedLimit < 1 {
		return fmt.Errorf("PER_FEED_LIMIT must be at least 1")
	}
	if c.PerFeedLimit > MaxPerFeedLimit {
		c.PerFeedLimit = MaxPerFeedLimit
	}

	if c.FeedTimeout < 1 {
		return fmt.Errorf("FEED_TIMEOUT_SECONDS must be at least 1")
	}

	if c.AggregateWindowHours < 1 {
		return fmt.Errorf("AGGREGATE_WINDOW_HOURS must be at least 1")
	}

	if c.AlertThreshold < 0 || c.AlertThreshold > 100 {
		return fmt.Errorf("ALERT_THRESHOLD must be between 0 and 100")
	}

	if c.NotificationEmail != "" {
		if c.SMTPHost == "" || c.SMTPUsername == "" || c.SMTPPassword == "" {
			return fmt.Errorf("SMTP configuration is required when NOTIFICATION_EMAIL is set")
		}
	}

	return nil
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getSliceEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	}
	return defaultValue
}
