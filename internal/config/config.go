// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// knownWeakSecrets contains default/example secrets that must be rejected.
var knownWeakSecrets = []string{
	"change-me-to-32-byte-secret-key!",
	"REPLACE_WITH_YOUR_OWN_SECRET_KEY!",
}

// MinJWTSecretLength is the minimum required length for the token signing
// secret.
const MinJWTSecretLength = 32

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBPath     string `env:"TKB_DB_PATH" envDefault:"./data/teamkb.db"`
	JWTSecret  string `env:"TKB_JWT_SECRET,required"`
	ServerHost string `env:"TKB_SERVER_HOST" envDefault:"localhost"`
	ServerPort int    `env:"TKB_SERVER_PORT" envDefault:"8080"`
	Env        string `env:"TKB_ENV" envDefault:"development"`
	LogLevel   string `env:"TKB_LOG_LEVEL" envDefault:"info"`

	// Token lifetimes
	AccessTokenTTL  time.Duration `env:"TKB_ACCESS_TOKEN_TTL" envDefault:"15m"`
	RefreshTokenTTL time.Duration `env:"TKB_REFRESH_TOKEN_TTL" envDefault:"168h"` // 7 days

	// FrontendURL is the base URL used when building password reset links.
	FrontendURL string `env:"TKB_FRONTEND_URL" envDefault:"http://localhost:3001"`

	// SMTP configuration; leaving Host empty logs reset links instead
	SMTPHost     string `env:"TKB_SMTP_HOST"`
	SMTPPort     int    `env:"TKB_SMTP_PORT" envDefault:"587"`
	SMTPUser     string `env:"TKB_SMTP_USER"`
	SMTPPassword string `env:"TKB_SMTP_PASS"`
	SMTPFrom     string `env:"TKB_SMTP_FROM" envDefault:"TeamKB <noreply@localhost>"`

	// Seeding configuration
	DoSeed bool `env:"TKB_DO_SEED" envDefault:"true"` // Create default admin on first run
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	// Validate signing secret length
	if len(cfg.JWTSecret) < MinJWTSecretLength {
		return nil, fmt.Errorf("TKB_JWT_SECRET must be at least %d bytes long, got %d bytes; "+
			"generate a secure secret with: openssl rand -base64 32",
			MinJWTSecretLength, len(cfg.JWTSecret))
	}

	// Reject known weak/default secrets
	for _, weak := range knownWeakSecrets {
		if cfg.JWTSecret == weak {
			return nil, fmt.Errorf("TKB_JWT_SECRET is a known default value and must not be used; " +
				"generate a secure secret with: openssl rand -base64 32")
		}
	}

	// Warn about low-entropy secrets
	if !hasMinimumEntropy(cfg.JWTSecret) {
		slog.Warn("TKB_JWT_SECRET has low character diversity; " +
			"consider generating a random secret with: openssl rand -base64 32")
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
