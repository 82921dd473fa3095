package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config represents the full application configuration surface.
type Config struct {
	Server   ServerConfig
	MongoDB  MongoDBConfig
	Billing  BillingConfig
	Watch    WatchConfig
	Notifier NotifierConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port string
}

// MongoDBConfig holds settings for MongoDB.
type MongoDBConfig struct {
	URI    string
	DBName string
}

// BillingConfig holds the billing-session and verification policies.
type BillingConfig struct {
	// SessionWindow is how long a draft invoice stays editable.
	SessionWindow time.Duration
	// RestoreStockOnCancel returns a rejected invoice's items to stock.
	RestoreStockOnCancel bool
}

// WatchConfig holds scheduler settings for the low-stock watch.
type WatchConfig struct {
	CronSchedule string
}

// NotifierConfig points at the optional verification webhook.
type NotifierConfig struct {
	WebhookURL string
}

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// Ignore the returned error here; missing .env files are acceptable when
		// configuration comes from the environment directly.
		_ = godotenv.Load()
	}

	windowMinutes, err := getenvInt("SESSION_WINDOW_MINUTES", 20)
	if err != nil {
		return nil, err
	}
	restore, err := getenvBool("RESTORE_STOCK_ON_CANCEL", false)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: getenvWithDefault("APP_PORT", "8080"),
		},
		MongoDB: MongoDBConfig{
			URI:    getenvWithDefault("MONGODB_URI", "mongodb://localhost:27017"),
			DBName: getenvWithDefault("MONGODB_DB_NAME", "smart_trolley"),
		},
		Billing: BillingConfig{
			SessionWindow:        time.Duration(windowMinutes) * time.Minute,
			RestoreStockOnCancel: restore,
		},
		Watch: WatchConfig{
			CronSchedule: getenvWithDefault("LOW_STOCK_CRON_SCHEDULE", "0 * * * *"),
		},
		Notifier: NotifierConfig{
			WebhookURL: os.Getenv("NOTIFIER_WEBHOOK_URL"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("APP_PORT must be provided")
	}

	if c.MongoDB.URI == "" {
		return errors.New("MONGODB_URI must be provided")
	}
	if c.MongoDB.DBName == "" {
		return errors.New("MONGODB_DB_NAME must be provided")
	}

	if c.Billing.SessionWindow <= 0 {
		return errors.New("SESSION_WINDOW_MINUTES must be positive")
	}

	if c.Watch.CronSchedule == "" {
		return errors.New("LOW_STOCK_CRON_SCHEDULE must be provided")
	}

	return nil
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getenvInt(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}

func getenvBool(key string, fallback bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean: %w", key, err)
	}
	return b, nil
}
