package config

import (
	"flag"
	"fmt"
	"io"
)

// parseFlags overlays command-line flags onto c.
//
//	-port int        listen port
//	-db string       database file path or postgres:// URL
//	-session-ttl     session lifetime (e.g. 24h)
//	-cookie-secure   set the Secure flag on cookies
//	-log-level       debug, info, warn or error
//	-log-format      text or json
//
// The session secret has no flag so it never shows up in process listings.
func parseFlags(c *Config, args []string) error {
	fs := flag.NewFlagSet("flashcards", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.IntVar(&c.Port, "port", c.Port, "listen port")
	fs.StringVar(&c.DatabaseURL, "db", c.DatabaseURL, "database file path or postgres:// URL")
	fs.DurationVar(&c.SessionTTL, "session-ttl", c.SessionTTL, "session lifetime")
	fs.BoolVar(&c.CookieSecure, "cookie-secure", c.CookieSecure, "set the Secure flag on cookies")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "log level")
	fs.StringVar(&c.LogFormat, "log-format", c.LogFormat, "log format (text or json)")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("config: parsing flags: %w", err)
	}
	return nil
}
