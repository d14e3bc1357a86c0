package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
// It is the single source of truth for runtime parameters.
type Config struct {
	Port string
	Env  string

	DB         DatabaseConfig
	Redis      RedisConfig
	GGCheckout GGCheckoutConfig
	Mail       MailConfig
	Webhook    WebhookConfig
	Worker     WorkerConfig
}

// DatabaseConfig contains PostgreSQL connection parameters. URL, when set,
// takes precedence over the discrete fields; hosted deployments usually hand
// out a single connection string with the service credential embedded.
type DatabaseConfig struct {
	URL      string
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// RedisConfig contains Redis connection parameters.
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// GGCheckoutConfig contains the shared secret for GGCheckout webhooks.
// An empty secret disables signature verification.
type GGCheckoutConfig struct {
	WebhookSecret string
}

// MailConfig contains credentials for the Resend email transport. An empty
// API key disables credential emails, it is not an error.
type MailConfig struct {
	ResendAPIKey string
	FromAddress  string
}

// WebhookConfig contains processing limits for inbound webhooks.
type WebhookConfig struct {
	ProcessTimeout time.Duration
}

// WorkerConfig contains interval configuration for background workers.
type WorkerConfig struct {
	DeliveryRetryInterval time.Duration
	DeliveryRetryBatch    int
}

// Load reads configuration from environment variables. If a .env file exists
// in the working directory, it will be loaded first. It returns a populated
// Config or an error with a human-friendly message.
func Load() (*Config, error) {
	// Load .env if present; ignore error if file is missing so that production
	// environments relying solely on real environment variables keep working.
	_ = godotenv.Load()

	cfg := &Config{}

	// Server
	cfg.Port = getEnv("PORT", "8080")
	cfg.Env = getEnv("ENV", "development")

	// Database
	cfg.DB = DatabaseConfig{
		URL:      getEnv("DATABASE_URL", ""),
		Host:     getEnv("DB_HOST", ""),
		Port:     getEnv("DB_PORT", "5432"),
		User:     getEnv("DB_USER", ""),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", ""),
		SSLMode:  getEnv("DB_SSLMODE", "disable"),
	}

	// Redis
	cfg.Redis = RedisConfig{
		Host:     getEnv("REDIS_HOST", "redis"),
		Port:     getEnv("REDIS_PORT", "6379"),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       getEnvInt("REDIS_DB", 0),
	}

	// GGCheckout
	cfg.GGCheckout = GGCheckoutConfig{
		WebhookSecret: getEnv("GGCHECKOUT_WEBHOOK_SECRET", ""),
	}

	// Mail (Resend)
	cfg.Mail = MailConfig{
		ResendAPIKey: getEnv("RESEND_API_KEY", ""),
		FromAddress:  getEnv("MAIL_FROM", "Entrega Automática <onboarding@resend.dev>"),
	}

	// Webhook processing
	var err error
	if cfg.Webhook.ProcessTimeout, err = parseDurationEnv("WEBHOOK_TIMEOUT", "25s"); err != nil {
		return nil, fmt.Errorf("invalid WEBHOOK_TIMEOUT: %w", err)
	}

	// Workers (durations)
	if cfg.Worker.DeliveryRetryInterval, err = parseDurationEnv("DELIVERY_RETRY_INTERVAL", "1m"); err != nil {
		return nil, fmt.Errorf("invalid DELIVERY_RETRY_INTERVAL: %w", err)
	}
	cfg.Worker.DeliveryRetryBatch = getEnvInt("DELIVERY_RETRY_BATCH", 20)

	// Basic validation for DB parameters — keeps messages concise and helpful.
	if cfg.DB.URL == "" && (cfg.DB.Host == "" || cfg.DB.User == "" || cfg.DB.Name == "") {
		return nil, errors.New("database configuration incomplete: set DATABASE_URL, or DB_HOST, DB_USER, and DB_NAME")
	}

	return cfg, nil
}

// getEnv returns the value of an environment variable or a default if empty.
func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// getEnvInt returns the value of an environment variable as an integer or a default if empty/invalid.
func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

// parseDurationEnv reads an environment variable and parses it as time.Duration.
// If the variable is empty, it falls back to the provided default value.
func parseDurationEnv(key, def string) (time.Duration, error) {
	raw := getEnv(key, def)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("duration must be >= 0")
	}
	return d, nil
}
