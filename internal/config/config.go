// Package config loads application configuration from the environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// MinSecretKeyLength is the shortest SECRET_KEY accepted in production.
const MinSecretKeyLength = 16

// Config holds all application configuration.
type Config struct {
	AppEnv string `env:"APP_ENV" envDefault:"development"`
	Port   int    `env:"PORT" envDefault:"8080"`

	// Storage location and signing secret
	DBPath    string `env:"DB_PATH" envDefault:"expenses.db"`
	SecretKey string `env:"SECRET_KEY"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`

	SecureCookie         bool          `env:"SECURE_COOKIE" envDefault:"false"`
	SessionDuration      time.Duration `env:"SESSION_DURATION" envDefault:"720h"`
	SessionSweepInterval time.Duration `env:"SESSION_SWEEP_INTERVAL" envDefault:"1h"`

	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"10s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"10s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// Optional account created when the users table is empty
	AdminUser     string `env:"ADMIN_USER"`
	AdminPassword string `env:"ADMIN_PASSWORD"`

	// Read templates from disk instead of the embedded copies
	TemplateDir string `env:"TEMPLATE_DIR"`
}

// Load reads a .env file if one exists, then parses the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// Validate returns every configuration problem at once.
func (c *Config) Validate() error {
	var problems []string

	if c.Port < 1 || c.Port > 65535 {
		problems = append(problems, fmt.Sprintf("invalid port %d: must be between 1 and 65535", c.Port))
	}
	if strings.TrimSpace(c.DBPath) == "" {
		problems = append(problems, "DB_PATH cannot be empty")
	}
	if c.IsProduction() && len(c.SecretKey) < MinSecretKeyLength {
		problems = append(problems, fmt.Sprintf("SECRET_KEY must be at least %d characters in production", MinSecretKeyLength))
	}
	if c.SessionDuration < time.Minute {
		problems = append(problems, fmt.Sprintf("invalid session duration %v: must be at least 1m", c.SessionDuration))
	}
	if c.SessionSweepInterval < time.Second {
		problems = append(problems, fmt.Sprintf("invalid session sweep interval %v: must be at least 1s", c.SessionSweepInterval))
	}
	if (c.AdminUser == "") != (c.AdminPassword == "") {
		problems = append(problems, "ADMIN_USER and ADMIN_PASSWORD must be set together")
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		problems = append(problems, fmt.Sprintf("invalid log format %q: must be text or json", c.LogFormat))
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(problems, "\n- "))
	}
	return nil
}
