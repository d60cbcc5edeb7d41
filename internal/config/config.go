// Package config centralises configuration parsing for the activity registry.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config captures runtime configuration values.
type Config struct {
	HTTPAddress         string
	MetricsAddress      string
	ShutdownTimeout     time.Duration
	CORSAllowedOrigin   string
	LogLevel            string
	LogFormat           string
	LogRedactionEnabled bool
	LogHashSalt         string
	SeedFile            string
	KafkaBrokers        []string
	RosterTopic         string
	ConsumerGroup       string
	OutboxBufferSize    int
	OutboxBatchSize     int
	OutboxFlushInterval time.Duration
}

// EventsEnabled reports whether roster events should be published.
func (c Config) EventsEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

// Load reads an optional .env file and the environment, applying defaults for local dev.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	cfg := Config{
		HTTPAddress:         v.GetString("HTTP_ADDRESS"),
		MetricsAddress:      v.GetString("METRICS_ADDRESS"),
		ShutdownTimeout:     v.GetDuration("SHUTDOWN_TIMEOUT"),
		CORSAllowedOrigin:   v.GetString("CORS_ALLOWED_ORIGIN"),
		LogLevel:            v.GetString("LOG_LEVEL"),
		LogFormat:           v.GetString("LOG_FORMAT"),
		LogRedactionEnabled: v.GetBool("LOG_REDACTION_ENABLED"),
		LogHashSalt:         v.GetString("LOG_HASH_SALT"),
		SeedFile:            strings.TrimSpace(v.GetString("SEED_FILE")),
		KafkaBrokers:        splitAndTrim(v.GetString("KAFKA_BROKERS")),
		RosterTopic:         v.GetString("ROSTER_TOPIC"),
		ConsumerGroup:       v.GetString("CONSUMER_GROUP_ID"),
		OutboxBufferSize:    v.GetInt("OUTBOX_BUFFER_SIZE"),
		OutboxBatchSize:     v.GetInt("OUTBOX_BATCH_SIZE"),
		OutboxFlushInterval: v.GetDuration("OUTBOX_FLUSH_INTERVAL"),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("HTTP_ADDRESS", ":8080")
	v.SetDefault("METRICS_ADDRESS", ":9196")
	v.SetDefault("SHUTDOWN_TIMEOUT", "15s")
	v.SetDefault("CORS_ALLOWED_ORIGIN", "http://localhost:5173")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("LOG_REDACTION_ENABLED", true)
	v.SetDefault("LOG_HASH_SALT", "")
	v.SetDefault("SEED_FILE", "")
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("ROSTER_TOPIC", "activity_roster_events")
	v.SetDefault("CONSUMER_GROUP_ID", "activity-roster-audit")
	v.SetDefault("OUTBOX_BUFFER_SIZE", 256)
	v.SetDefault("OUTBOX_BATCH_SIZE", 25)
	v.SetDefault("OUTBOX_FLUSH_INTERVAL", "1s")
}

// Validate rejects settings the dispatcher and server cannot run with.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.HTTPAddress) == "" {
		errs = append(errs, errors.New("HTTP_ADDRESS is required"))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("SHUTDOWN_TIMEOUT must be > 0"))
	}
	if c.OutboxBufferSize <= 0 {
		errs = append(errs, errors.New("OUTBOX_BUFFER_SIZE must be > 0"))
	}
	if c.OutboxBatchSize <= 0 {
		errs = append(errs, errors.New("OUTBOX_BATCH_SIZE must be > 0"))
	}
	if c.OutboxFlushInterval <= 0 {
		errs = append(errs, errors.New("OUTBOX_FLUSH_INTERVAL must be > 0"))
	}
	if c.EventsEnabled() && strings.TrimSpace(c.RosterTopic) == "" {
		errs = append(errs, errors.New("ROSTER_TOPIC is required when KAFKA_BROKERS is set"))
	}
	return errors.Join(errs...)
}

func splitAndTrim(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
