// Package logger builds the service's zap loggers and fingerprints personal data in log fields.
package logger

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config controls logger construction.
type Config struct {
	Level        string
	Format       string
	RedactEmails bool
	HashSalt     string
}

type redaction struct {
	enabled bool
	salt    string
}

var emailRedaction atomic.Pointer[redaction]

func init() {
	emailRedaction.Store(&redaction{enabled: true})
}

// New returns a JSON logger for format "json" and a console logger otherwise.
// It also applies the email redaction settings process-wide.
func New(cfg Config) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	switch strings.ToLower(strings.TrimSpace(cfg.Level)) {
	case "debug":
		level = zapcore.DebugLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	}

	var zcfg zap.Config
	if strings.EqualFold(cfg.Format, "json") {
		zcfg = zap.NewProductionConfig()
	} else {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)

	SetEmailRedaction(cfg.RedactEmails, cfg.HashSalt)
	return zcfg.Build()
}

// SetEmailRedaction toggles fingerprinting for fields built with Email.
func SetEmailRedaction(enabled bool, salt string) {
	emailRedaction.Store(&redaction{enabled: enabled, salt: strings.TrimSpace(salt)})
}

// Email returns a field holding either the raw address or its fingerprint.
func Email(key, email string) zap.Field {
	r := emailRedaction.Load()
	if r == nil || !r.enabled {
		return zap.String(key, email)
	}
	return zap.String(key, Fingerprint(email, r.salt))
}

// Fingerprint hashes value with salt into a short stable token.
func Fingerprint(value, salt string) string {
	if value == "" {
		return ""
	}
	h := sha256.New()
	if salt != "" {
		_, _ = h.Write([]byte(salt))
	}
	_, _ = h.Write([]byte(value))
	return "hash:" + hex.EncodeToString(h.Sum(nil))[:12]
}
