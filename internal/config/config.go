// Package config loads the process configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/randomairborne/aghast/internal/snowflake"
)

func init() {
	// Auto-load .env file if present (don't override existing env vars)
	_ = godotenv.Load()
}

const (
	defaultPort        = "8080"
	defaultEnvironment = "development"
)

// Config is everything aghast needs to start. The Discord and database
// settings are all required; the process refuses to boot without them.
type Config struct {
	Token        string
	DatabaseURL  string
	ForumChannel snowflake.ID
	Guild        snowflake.ID
	OpenMessage  string
	CloseMessage string

	Port        string
	Environment string
}

func Load() (Config, error) {
	cfg := Config{
		Token:        strings.TrimSpace(os.Getenv("AGHAST_TOKEN")),
		DatabaseURL:  strings.TrimSpace(os.Getenv("DATABASE_URL")),
		OpenMessage:  os.Getenv("AGHAST_OPEN_MESSAGE"),
		CloseMessage: os.Getenv("AGHAST_CLOSE_MESSAGE"),
		Port:         firstNonEmpty(strings.TrimSpace(os.Getenv("PORT")), defaultPort),
		Environment:  resolveEnvironment(),
	}

	var err error
	if cfg.ForumChannel, err = parseSnowflake("AGHAST_CHANNEL"); err != nil {
		return Config{}, err
	}
	if cfg.Guild, err = parseSnowflake("AGHAST_GUILD"); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate reports the first missing required setting.
func (c Config) Validate() error {
	if c.Token == "" {
		return fmt.Errorf("AGHAST_TOKEN is required")
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.ForumChannel.IsZero() {
		return fmt.Errorf("AGHAST_CHANNEL is required")
	}
	if c.Guild.IsZero() {
		return fmt.Errorf("AGHAST_GUILD is required")
	}
	if c.OpenMessage == "" {
		return fmt.Errorf("AGHAST_OPEN_MESSAGE is required")
	}
	if c.CloseMessage == "" {
		return fmt.Errorf("AGHAST_CLOSE_MESSAGE is required")
	}
	return nil
}

// IsProduction reports whether logs should be JSON rather than pretty.
func (c Config) IsProduction() bool {
	return isNonDevelopment(c.Environment)
}

func resolveEnvironment() string {
	return strings.ToLower(firstNonEmpty(
		strings.TrimSpace(os.Getenv("ENVIRONMENT")),
		strings.TrimSpace(os.Getenv("GO_ENV")),
		defaultEnvironment,
	))
}

func isNonDevelopment(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "", "dev", "development", "local", "test":
		return false
	default:
		return true
	}
}

func parseSnowflake(name string) (snowflake.ID, error) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return 0, nil
	}

	id, err := snowflake.Parse(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid snowflake: %w", name, err)
	}
	return id, nil
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}
