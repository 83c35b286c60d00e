package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config keeps runtime settings for the bot.
type Config struct {
	TelegramToken        string
	DatabaseURL          string
	Location             *time.Location
	DigestTime           string
	ReminderPollInterval time.Duration
	SendRatePerSec       float64
	LogLevel             string
	LogFormat            string
}

// Load reads configuration from environment variables (and an optional .env file) with sane defaults.
func Load() (Config, error) {
	_ = godotenv.Load(".env")

	cfg := Config{
		TelegramToken: strings.TrimSpace(os.Getenv("TELEGRAM_TOKEN")),
		DatabaseURL:   getEnv("DATABASE_URL", "petcare.db"),
		DigestTime:    getEnv("DIGEST_TIME", "08:00"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogFormat:     getEnv("LOG_FORMAT", "console"),
	}

	loc, err := parseLocation(getEnv("TIMEZONE", "Local"))
	if err != nil {
		return cfg, err
	}
	cfg.Location = loc

	poll, err := time.ParseDuration(getEnv("REMINDER_POLL_INTERVAL", "30s"))
	if err != nil || poll <= 0 {
		return cfg, fmt.Errorf("REMINDER_POLL_INTERVAL must be a positive duration")
	}
	cfg.ReminderPollInterval = poll

	rate, err := strconv.ParseFloat(getEnv("SEND_RATE_PER_SEC", "5"), 64)
	if err != nil || rate <= 0 {
		return cfg, fmt.Errorf("SEND_RATE_PER_SEC must be a positive number")
	}
	cfg.SendRatePerSec = rate

	switch cfg.LogFormat {
	case "console", "json":
	default:
		return cfg, fmt.Errorf("LOG_FORMAT must be console or json, got %q", cfg.LogFormat)
	}

	if cfg.TelegramToken == "" {
		return cfg, fmt.Errorf("TELEGRAM_TOKEN is required")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return strings.TrimSpace(value)
	}
	return fallback
}

func parseLocation(name string) (*time.Location, error) {
	if name == "" || name == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("TIMEZONE %q: %w", name, err)
	}
	return loc, nil
}
