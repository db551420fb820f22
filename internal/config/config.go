package config

import (
	"fmt"
	"os"
	"time"
)

const (
	defaultJWTExpiry    = 720 * time.Hour // 30 days
	defaultMsg91BaseURL = "https://api.msg91.com/api/v5/widget"
	defaultMsg91Timeout = 10 * time.Second
)

// Config holds the application configuration
type Config struct {
	DatabaseURL string
	Port        string

	JWTSecret string
	JWTExpiry time.Duration

	Msg91AuthKey  string
	Msg91WidgetID string
	Msg91BaseURL  string
	Msg91Timeout  time.Duration
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:         "8080", // default port
		JWTExpiry:    defaultJWTExpiry,
		Msg91BaseURL: defaultMsg91BaseURL,
		Msg91Timeout: defaultMsg91Timeout,
	}

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}
	cfg.DatabaseURL = databaseURL

	if port := os.Getenv("PORT"); port != "" {
		cfg.Port = port
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is required")
	}
	cfg.JWTSecret = jwtSecret

	if raw := os.Getenv("JWT_EXPIRES_IN"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid JWT_EXPIRES_IN %q: %w", raw, err)
		}
		cfg.JWTExpiry = d
	}

	// MSG91 credentials are optional at boot: the adapter fails send/verify
	// calls with a provider error when they are missing, without a network call.
	cfg.Msg91AuthKey = os.Getenv("MSG91_AUTH_KEY")
	cfg.Msg91WidgetID = os.Getenv("MSG91_WIDGET_ID")

	if raw := os.Getenv("MSG91_BASE_URL"); raw != "" {
		cfg.Msg91BaseURL = raw
	}
	if raw := os.Getenv("MSG91_TIMEOUT"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid MSG91_TIMEOUT %q: %w", raw, err)
		}
		cfg.Msg91Timeout = d
	}

	return cfg, nil
}
