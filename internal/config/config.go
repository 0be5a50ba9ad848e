package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"github.com/killuadb/schemamap/internal/database"
)

const (
	defaultPort         = 8080
	defaultFetchTimeout = 10 * time.Second
	defaultIdleTTL      = 30 * time.Minute
)

type Config struct {
	Port           int
	SchemaEndpoint string
	SchemaToken    string
	FetchTimeout   time.Duration
	AllowedOrigins []string
	LogLevel       slog.Level
	GinMode        string
	// SessionIdleTTL of zero keeps sessions until they are deleted.
	SessionIdleTTL time.Duration

	// LayoutDB is nil when saved layouts are kept in memory.
	LayoutDB *database.Options
}

// Load reads the configuration from the environment. A .env file in the
// working directory is loaded first.
func Load() (Config, error) {
	cfg := Config{
		Port:           defaultPort,
		SchemaEndpoint: os.Getenv("SCHEMA_ENDPOINT"),
		SchemaToken:    os.Getenv("SCHEMA_API_TOKEN"),
		FetchTimeout:   defaultFetchTimeout,
		AllowedOrigins: []string{"*"},
		LogLevel:       slog.LevelInfo,
		GinMode:        os.Getenv("GIN_MODE"),
		SessionIdleTTL: defaultIdleTTL,
	}

	if cfg.SchemaEndpoint == "" {
		return Config{}, fmt.Errorf("SCHEMA_ENDPOINT environment variable is required")
	}

	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port <= 0 {
			return Config{}, fmt.Errorf("invalid PORT %q", v)
		}
		cfg.Port = port
	}

	if v := os.Getenv("SCHEMA_FETCH_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid SCHEMA_FETCH_TIMEOUT: %w", err)
		}
		cfg.FetchTimeout = d
	}

	if v := os.Getenv("SESSION_IDLE_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d < 0 {
			return Config{}, fmt.Errorf("invalid SESSION_IDLE_TTL %q", v)
		}
		cfg.SessionIdleTTL = d
	}

	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		cfg.AllowedOrigins = splitList(v)
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(v)); err != nil {
			return Config{}, fmt.Errorf("invalid LOG_LEVEL: %w", err)
		}
	}

	if host := os.Getenv("LAYOUT_DB_HOST"); host != "" {
		opts := &database.Options{
			Host:     host,
			Port:     os.Getenv("LAYOUT_DB_PORT"),
			User:     os.Getenv("LAYOUT_DB_USERNAME"),
			Password: os.Getenv("LAYOUT_DB_PASSWORD"),
			Database: os.Getenv("LAYOUT_DB_DATABASE"),
		}
		if opts.Port == "" {
			opts.Port = "5432"
		}
		if opts.Database == "" {
			return Config{}, fmt.Errorf("LAYOUT_DB_DATABASE environment variable is required")
		}
		cfg.LayoutDB = opts
	}

	return cfg, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
