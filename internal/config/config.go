// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"
)

// knownWeakSecrets contains default/example secrets that must be rejected in production.
var knownWeakSecrets = []string{
	"change-me-to-32-byte-secret-key!",
	"REPLACE_WITH_YOUR_OWN_SECRET_KEY!",
}

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBPath        string `env:"ACCOUNTS_DB_PATH" envDefault:"./data/accounts.db"`
	SessionSecret string `env:"ACCOUNTS_SESSION_SECRET,required"`
	ServerHost    string `env:"ACCOUNTS_SERVER_HOST" envDefault:"localhost"`
	ServerPort    int    `env:"ACCOUNTS_SERVER_PORT" envDefault:"8080"`
	Env           string `env:"ACCOUNTS_ENV" envDefault:"development"`
	LogLevel      string `env:"ACCOUNTS_LOG_LEVEL" envDefault:"info"`

	// BaseURL is the externally reachable origin used in verification
	// links sent to new registrants.
	BaseURL string `env:"ACCOUNTS_BASE_URL" envDefault:"http://localhost:8080"`

	// Email delivery configuration
	EmailMode string `env:"ACCOUNTS_EMAIL_MODE" envDefault:"console"` // "console" or "smtp"
	SMTPHost  string `env:"ACCOUNTS_SMTP_HOST"`
	SMTPPort  int    `env:"ACCOUNTS_SMTP_PORT" envDefault:"587"`
	SMTPFrom  string `env:"ACCOUNTS_SMTP_FROM"`
	SMTPUser  string `env:"ACCOUNTS_SMTP_USER"`
	SMTPPass  string `env:"ACCOUNTS_SMTP_PASS"`

	// PurgeSchedule is a 5-field cron expression for the unverified
	// purge job. Empty disables the scheduler.
	PurgeSchedule string `env:"ACCOUNTS_PURGE_SCHEDULE"`

	// Seeding configuration
	DoSeed bool `env:"ACCOUNTS_DO_SEED" envDefault:"false"` // Enable database seeding
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// MinSessionSecretLength is the minimum required length for the session secret.
// AES-256 requires 32 bytes minimum for secure encryption.
const MinSessionSecretLength = 32

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	// Validate session secret length
	if len(cfg.SessionSecret) < MinSessionSecretLength {
		return nil, fmt.Errorf("ACCOUNTS_SESSION_SECRET must be at least %d bytes long, got %d bytes; "+
			"generate a secure secret with: openssl rand -base64 32",
			MinSessionSecretLength, len(cfg.SessionSecret))
	}

	// Reject known weak/default secrets
	for _, weak := range knownWeakSecrets {
		if cfg.SessionSecret == weak {
			return nil, fmt.Errorf("ACCOUNTS_SESSION_SECRET is a known default value and must not be used; " +
				"generate a secure secret with: openssl rand -base64 32")
		}
	}

	// Warn about low-entropy secrets
	if !hasMinimumEntropy(cfg.SessionSecret) {
		slog.Warn("ACCOUNTS_SESSION_SECRET has low character diversity; " +
			"consider generating a random secret with: openssl rand -base64 32")
	}

	if cfg.EmailMode == "smtp" && (cfg.SMTPHost == "" || cfg.SMTPFrom == "") {
		return nil, fmt.Errorf("ACCOUNTS_EMAIL_MODE=smtp requires ACCOUNTS_SMTP_HOST and ACCOUNTS_SMTP_FROM")
	}

	return cfg, nil
}

// hasMinimumEntropy checks that a secret contains at least 3 character classes
// (lowercase, uppercase, digits, special characters).
func hasMinimumEntropy(s string) bool {
	charTypes := 0
	if strings.ContainsAny(s, "abcdefghijklmnopqrstuvwxyz") {
		charTypes++
	}
	if strings.ContainsAny(s, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") {
		charTypes++
	}
	if strings.ContainsAny(s, "0123456789") {
		charTypes++
	}
	if strings.ContainsAny(s, "!@#$%^&*()-_=+[]{}|;:,.<>?/~`'\"\\") {
		charTypes++
	}
	return charTypes >= 3
}
