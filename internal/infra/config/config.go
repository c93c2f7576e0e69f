package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings" // For LogLevel normalization
	"time"

	"homework_status_bot/internal/domain/homework"

	"github.com/joho/godotenv"
)

const (
	DefaultEndpoint       = "https://practicum.yandex.ru/api/user_api/homework_statuses/"
	DefaultRequestTimeout = 30 * time.Second
	DefaultPollSchedule   = "@every 600s" // RETRY_PERIOD of the bot
)

// ErrMissingTokens is returned by CheckTokens when a required secret is empty.
var ErrMissingTokens = errors.New("Отсутствует одна из обязательных переменных окружения")

// AppConfig holds all configuration for the application
type AppConfig struct {
	PracticumToken string
	TelegramToken  string
	TelegramChatID string // Numeric chat id or @channel
	TelegramAPIURL string // Empty for the public Bot API
	Endpoint       string
	RequestTimeout time.Duration
	FromDate       int64 // Initial cursor, 0 means "now"
	PollSchedule   string
	DatabaseURL    string // Optional, enables the notification journal
	LogLevel       string
	Environment    string
}

// Load reads configuration from environment variables and .env files.
// Without explicit files, a .env in the working directory is used if it exists.
// Missing secrets are not an error here; see CheckTokens.
func Load(envFiles ...string) (*AppConfig, error) {
	if len(envFiles) > 0 {
		if err := godotenv.Load(envFiles...); err != nil {
			return nil, fmt.Errorf("failed to load env files %v: %w", envFiles, err)
		}
	} else {
		// godotenv.Load will not override existing env variables.
		_ = godotenv.Load()
	}

	cfg := &AppConfig{
		PracticumToken: strings.TrimSpace(os.Getenv("PRACTICUM_TOKEN")),
		TelegramToken:  strings.TrimSpace(os.Getenv("TELEGRAM_TOKEN")),
		TelegramChatID: strings.TrimSpace(os.Getenv("TELEGRAM_CHAT_ID")),
		TelegramAPIURL: os.Getenv("TELEGRAM_API_URL"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
	}

	cfg.Endpoint = os.Getenv("PRACTICUM_ENDPOINT")
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}

	cfg.RequestTimeout = DefaultRequestTimeout
	if raw := os.Getenv("PRACTICUM_REQUEST_TIMEOUT"); raw != "" {
		timeout, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid PRACTICUM_REQUEST_TIMEOUT: %w", err)
		}
		if timeout <= 0 {
			return nil, fmt.Errorf("invalid PRACTICUM_REQUEST_TIMEOUT: must be positive, got %s", raw)
		}
		cfg.RequestTimeout = timeout
	}

	if raw := os.Getenv("PRACTICUM_FROM_DATE"); raw != "" {
		fromDate, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid PRACTICUM_FROM_DATE: %w", err)
		}
		cfg.FromDate = fromDate
	}

	cfg.PollSchedule = os.Getenv("POLL_SCHEDULE")
	if cfg.PollSchedule == "" {
		cfg.PollSchedule = DefaultPollSchedule
	}

	cfg.LogLevel = strings.ToLower(os.Getenv("LOG_LEVEL"))
	if cfg.LogLevel == "" {
		cfg.LogLevel = "debug" // The bot reports every step by default
	}

	cfg.Environment = strings.ToLower(os.Getenv("ENVIRONMENT"))
	if cfg.Environment == "" {
		cfg.Environment = "development" // Default environment
	}

	return cfg, nil
}

// CheckTokens verifies that all secrets needed to run the loop are set.
func (c *AppConfig) CheckTokens() error {
	var missing []string
	if c.PracticumToken == "" {
		missing = append(missing, "PRACTICUM_TOKEN")
	}
	if c.TelegramToken == "" {
		missing = append(missing, "TELEGRAM_TOKEN")
	}
	if c.TelegramChatID == "" {
		missing = append(missing, "TELEGRAM_CHAT_ID")
	}
	if len(missing) > 0 {
		return &homework.Error{
			Kind: homework.KindConfig,
			Msg:  fmt.Sprintf("%s: %s", ErrMissingTokens, strings.Join(missing, ", ")),
			Err:  ErrMissingTokens,
		}
	}
	return nil
}

// JournalEnabled reports whether notifications should be journaled to Postgres.
func (c *AppConfig) JournalEnabled() bool {
	return c.DatabaseURL != ""
}
