// Package config loads server settings from defaults, the environment and
// command-line flags, in that order of precedence (flags win).
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Config holds runtime settings for the flashcards server.
type Config struct {
	Port         int
	DatabaseURL  string // file path for SQLite, postgres:// URL for PostgreSQL
	SessionTTL   time.Duration
	CookieSecure bool
	LogLevel     string
	LogFormat    string

	// SessionSecret signs session cookies. There is no default.
	SessionSecret string

	// GitHub sign-in is enabled only when both id and secret are set.
	GitHubClientID     string
	GitHubClientSecret string
	GitHubCallbackURL  string
}

// LoadDefaults populates c with development defaults.
func (c *Config) LoadDefaults() {
	c.Port = 8080
	c.DatabaseURL = "data/flashcards.db"
	c.SessionTTL = 7 * 24 * time.Hour
	c.CookieSecure = false
	c.LogLevel = "info"
	c.LogFormat = "text"
}

// Load builds a Config from defaults, then lookup (normally os.LookupEnv),
// then args (normally os.Args[1:]), and validates the result.
func Load(args []string, lookup func(string) (string, bool)) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := applyEnv(cfg, lookup); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	if cfg.GitHubCallbackURL == "" {
		cfg.GitHubCallbackURL = fmt.Sprintf("http://localhost:%d/auth/github/callback", cfg.Port)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports the first setting that would stop the server from
// starting correctly.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("config: port %d out of range", c.Port)
	}
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return errors.New("config: DATABASE_URL is empty")
	}
	if c.SessionSecret == "" {
		return errors.New("config: SESSION_SECRET is required")
	}
	if len(c.SessionSecret) < 16 {
		return errors.New("config: SESSION_SECRET must be at least 16 characters")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("config: SESSION_TTL must be positive, got %s", c.SessionTTL)
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("config: LOG_FORMAT must be text or json, got %q", c.LogFormat)
	}
	return nil
}

// GitHubEnabled reports whether GitHub sign-in is configured.
func (c *Config) GitHubEnabled() bool {
	return c.GitHubClientID != "" && c.GitHubClientSecret != ""
}

// SlogLevel maps LogLevel onto a slog.Level.
func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("config: invalid LOG_LEVEL %q", c.LogLevel)
	}
	return level, nil
}
