package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"streamwatch/internal/domain"
)

// Config holds all application configuration loaded from environment variables
type Config struct {
	// Database configuration
	DatabasePath string

	// Platform API credentials
	TwitchClientID string
	TwitchSecret   string

	// Notifier configuration
	DiscordBotToken string

	// Monitoring defaults, applied to entries that do not override them
	CheckIntervals domain.CheckIntervals
	ProbeTimeout   time.Duration

	// Logging
	LogLevel string
}

// Load reads configuration from environment variables and returns a Config instance
func Load() (*Config, error) {
	cfg := &Config{
		DatabasePath: getEnvOrDefault("DATABASE_PATH", "./data/streamwatch.db"),

		// Twitch credentials (required; the probe cannot authenticate without them)
		TwitchClientID: os.Getenv("TWITCH_CLIENT_ID"),
		TwitchSecret:   os.Getenv("TWITCH_CLIENT_SECRET"),

		// Notifier credentials (required)
		DiscordBotToken: os.Getenv("DISCORD_BOT_TOKEN"),

		LogLevel: getEnvOrDefault("LOG_LEVEL", "INFO"),
	}

	intervals := domain.DefaultCheckIntervals()
	var err error
	if intervals.Live, err = getEnvSeconds("CHECK_INTERVAL_LIVE", intervals.Live); err != nil {
		return nil, err
	}
	if intervals.Offline, err = getEnvSeconds("CHECK_INTERVAL_OFFLINE", intervals.Offline); err != nil {
		return nil, err
	}
	if intervals.Night, err = getEnvSeconds("CHECK_INTERVAL_NIGHT", intervals.Night); err != nil {
		return nil, err
	}
	cfg.CheckIntervals = intervals

	if cfg.ProbeTimeout, err = getEnvSeconds("PROBE_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that all required configuration values are present and valid
func (c *Config) Validate() error {
	if c.DatabasePath == "" {
		return fmt.Errorf("DATABASE_PATH cannot be empty")
	}
	if c.TwitchClientID == "" {
		return fmt.Errorf("TWITCH_CLIENT_ID environment variable is required")
	}
	if c.TwitchSecret == "" {
		return fmt.Errorf("TWITCH_CLIENT_SECRET environment variable is required")
	}
	if c.DiscordBotToken == "" {
		return fmt.Errorf("DISCORD_BOT_TOKEN environment variable is required")
	}
	if c.ProbeTimeout <= 0 {
		return fmt.Errorf("PROBE_TIMEOUT must be positive, got %s", c.ProbeTimeout)
	}
	for name, d := range map[string]time.Duration{
		"CHECK_INTERVAL_LIVE":    c.CheckIntervals.Live,
		"CHECK_INTERVAL_OFFLINE": c.CheckIntervals.Offline,
		"CHECK_INTERVAL_NIGHT":   c.CheckIntervals.Night,
	} {
		if d <= 0 {
			return fmt.Errorf("%s must be positive, got %s", name, d)
		}
	}
	return nil
}

// LogConfiguration logs all loaded configuration values, excluding secrets
func (c *Config) LogConfiguration() {
	log.Println("=== Application Configuration ===")
	log.Printf("Database Path: %s", c.DatabasePath)
	log.Printf("Twitch Client ID: %s", maskSecret(c.TwitchClientID))
	log.Printf("Discord Bot Token: %s", maskSecret(c.DiscordBotToken))
	log.Printf("Check Intervals: live=%s offline=%s night=%s",
		c.CheckIntervals.Live, c.CheckIntervals.Offline, c.CheckIntervals.Night)
	log.Printf("Probe Timeout: %s", c.ProbeTimeout)
	log.Printf("Log Level: %s", c.LogLevel)
	log.Println("=================================")
}

// getEnvOrDefault returns the environment variable value or a default if not set
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvSeconds parses an environment variable holding a duration in whole
// seconds, falling back to the default when unset
func getEnvSeconds(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	seconds, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s format: %w", key, err)
	}
	return time.Duration(seconds) * time.Second, nil
}

// maskSecret masks a secret string for logging, showing only first 4 characters
func maskSecret(secret string) string {
	if secret == "" {
		return "[not set]"
	}
	if len(secret) <= 4 {
		return "****"
	}
	return secret[:4] + "****"
}
