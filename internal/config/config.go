package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the full server configuration, read from the environment at
// startup.
type Config struct {
	Port     string `env:"OTPGATE_PORT" envDefault:"8080"`
	DBPath   string `env:"OTPGATE_DB_PATH" envDefault:"otpgate.db"`
	LogLevel string `env:"OTPGATE_LOG_LEVEL" envDefault:"info"`

	// StaticDir, when set, is served at / for the frontend.
	StaticDir string `env:"OTPGATE_STATIC_DIR"`

	// Postmark delivery. Leaving the token empty disables email; codes
	// are then only observable through logs at debug level.
	PostmarkToken string `env:"OTPGATE_POSTMARK_TOKEN"`
	EmailFrom     string `env:"OTPGATE_EMAIL_FROM" envDefault:"noreply@localhost"`
	EmailFromName string `env:"OTPGATE_EMAIL_FROM_NAME" envDefault:"Authentication System"`

	SessionTTL      time.Duration `env:"OTPGATE_SESSION_TTL" envDefault:"48h"`
	OTPTTL          time.Duration `env:"OTPGATE_OTP_TTL" envDefault:"5m"`
	CleanupInterval time.Duration `env:"OTPGATE_CLEANUP_INTERVAL" envDefault:"1h"`
}

// Load parses configuration from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
