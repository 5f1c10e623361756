// Package config holds server configuration: flags with environment
// overrides.
package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds application configuration.
type Config struct {
	// Server settings
	Port           int
	AllowedOrigins []string

	// Storage
	DBPath string

	// Logging
	Env      string
	LogLevel string

	// Statement branding (PNG path, optional)
	LogoPath string
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Port:           8080,
		AllowedOrigins: []string{"http://localhost:*", "http://127.0.0.1:*"},
		DBPath:         "cpap.db",
		Env:            "development",
		LogLevel:       "info",
	}
}

// UsageError is a command-line parse failure. The flag package has already
// printed it along with the usage text.
type UsageError struct {
	Err error
}

func (e *UsageError) Error() string { return e.Err.Error() }
func (e *UsageError) Unwrap() error { return e.Err }

// Load parses args (normally os.Args[1:]) on top of the defaults, then
// applies CPAP_* environment overrides. Environment wins over flags so a
// deployment can pin values without touching the command line.
func Load(args []string) (*Config, error) {
	return load(args, os.Getenv)
}

func load(args []string, getenv func(string) string) (*Config, error) {
	cfg := DefaultConfig()

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.IntVar(&cfg.Port, "port", cfg.Port, "HTTP server port")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, `SQLite database path (":memory:" for in-memory)`)
	fs.StringVar(&cfg.Env, "env", cfg.Env, "Environment: development or production")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug, info, warn, error")
	fs.StringVar(&cfg.LogoPath, "logo", cfg.LogoPath, "PNG logo printed on statements")
	if err := fs.Parse(args); err != nil {
		return nil, &UsageError{Err: err}
	}

	// Override with environment variables
	if port := getenv("CPAP_PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil || p <= 0 || p > 65535 {
			return nil, fmt.Errorf("invalid CPAP_PORT %q", port)
		}
		cfg.Port = p
	}
	if db := getenv("CPAP_DB"); db != "" {
		cfg.DBPath = db
	}
	if env := getenv("CPAP_ENV"); env != "" {
		cfg.Env = env
	}
	if lvl := getenv("CPAP_LOG_LEVEL"); lvl != "" {
		cfg.LogLevel = lvl
	}
	if logo := getenv("CPAP_LOGO"); logo != "" {
		cfg.LogoPath = logo
	}
	if origins := getenv("CPAP_ALLOWED_ORIGINS"); origins != "" {
		cfg.AllowedOrigins = splitList(origins)
	}

	return cfg, nil
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// LoadLogo reads the statement logo, if one is configured.
func (c *Config) LoadLogo() ([]byte, error) {
	if c.LogoPath == "" {
		return nil, nil
	}
	data, err := os.ReadFile(c.LogoPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read logo: %w", err)
	}
	return data, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
