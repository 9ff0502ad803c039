// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"os"
	"testing"
	"time"
)

func setEnv(t *testing.T, key, value string) {
	t.Helper()
	if err := os.Setenv(key, value); err != nil {
		t.Fatalf("failed to set %s: %v", key, err)
	}
}

func TestLoad_Defaults(t *testing.T) {
	// Clear environment and set only required var
	os.Clearenv()
	setEnv(t, "TKB_JWT_SECRET", "test-secret-key-32-bytes-long!!!")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	// Check defaults
	if cfg.DBPath != "./data/teamkb.db" {
		t.Errorf("DBPath = %q, want %q", cfg.DBPath, "./data/teamkb.db")
	}
	if cfg.ServerHost != "localhost" {
		t.Errorf("ServerHost = %q, want %q", cfg.ServerHost, "localhost")
	}
	if cfg.ServerPort != 8080 {
		t.Errorf("ServerPort = %d, want %d", cfg.ServerPort, 8080)
	}
	if cfg.Env != "development" {
		t.Errorf("Env = %q, want %q", cfg.Env, "development")
	}
	if cfg.AccessTokenTTL != 15*time.Minute {
		t.Errorf("AccessTokenTTL = %v, want %v", cfg.AccessTokenTTL, 15*time.Minute)
	}
	if cfg.RefreshTokenTTL != 168*time.Hour {
		t.Errorf("RefreshTokenTTL = %v, want %v", cfg.RefreshTokenTTL, 168*time.Hour)
	}
	if cfg.FrontendURL != "http://localhost:3001" {
		t.Errorf("FrontendURL = %q, want %q", cfg.FrontendURL, "http://localhost:3001")
	}
	if !cfg.DoSeed {
		t.Error("DoSeed should default to true")
	}
}

func TestLoad_CustomValues(t *testing.T) {
	os.Clearenv()
	customSecret := "custom-secret-key-32-bytes-long!"
	setEnv(t, "TKB_JWT_SECRET", customSecret)
	setEnv(t, "TKB_DB_PATH", "/custom/path.db")
	setEnv(t, "TKB_SERVER_HOST", "0.0.0.0")
	setEnv(t, "TKB_SERVER_PORT", "3000")
	setEnv(t, "TKB_ENV", "production")
	setEnv(t, "TKB_ACCESS_TOKEN_TTL", "5m")
	setEnv(t, "TKB_FRONTEND_URL", "https://kb.example.com")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.JWTSecret != customSecret {
		t.Errorf("JWTSecret = %q, want %q", cfg.JWTSecret, customSecret)
	}
	if cfg.DBPath != "/custom/path.db" {
		t.Errorf("DBPath = %q, want %q", cfg.DBPath, "/custom/path.db")
	}
	if cfg.ServerPort != 3000 {
		t.Errorf("ServerPort = %d, want %d", cfg.ServerPort, 3000)
	}
	if cfg.Env != "production" {
		t.Errorf("Env = %q, want %q", cfg.Env, "production")
	}
	if cfg.AccessTokenTTL != 5*time.Minute {
		t.Errorf("AccessTokenTTL = %v, want %v", cfg.AccessTokenTTL, 5*time.Minute)
	}
	if cfg.FrontendURL != "https://kb.example.com" {
		t.Errorf("FrontendURL = %q, want %q", cfg.FrontendURL, "https://kb.example.com")
	}
}

func TestLoad_RequiredJWTSecret(t *testing.T) {
	os.Clearenv()
	// Don't set TKB_JWT_SECRET

	_, err := Load()
	if err == nil {
		t.Fatal("Load() should fail when TKB_JWT_SECRET is not set")
	}
}

func TestLoad_ShortJWTSecret(t *testing.T) {
	os.Clearenv()
	setEnv(t, "TKB_JWT_SECRET", "too-short")

	_, err := Load()
	if err == nil {
		t.Fatal("Load() should fail when TKB_JWT_SECRET is shorter than 32 bytes")
	}
}

func TestLoad_KnownWeakSecret(t *testing.T) {
	os.Clearenv()
	setEnv(t, "TKB_JWT_SECRET", "change-me-to-32-byte-secret-key!")

	_, err := Load()
	if err == nil {
		t.Fatal("Load() should reject known default secrets")
	}
}

func TestServerAddr(t *testing.T) {
	cfg := Config{ServerHost: "localhost", ServerPort: 8080}
	if got := cfg.ServerAddr(); got != "localhost:8080" {
		t.Errorf("ServerAddr() = %q, want %q", got, "localhost:8080")
	}
}

func TestIsDevelopment(t *testing.T) {
	if !(Config{Env: "development"}).IsDevelopment() {
		t.Error("development env should report IsDevelopment")
	}
	if (Config{Env: "production"}).IsDevelopment() {
		t.Error("production env should not report IsDevelopment")
	}
}

func TestHasMinimumEntropy(t *testing.T) {
	tests := []struct {
		secret string
		want   bool
	}{
		{"abcdefghijklmnop", false},
		{"Abcdefghijklmnop", false},
		{"Abcdefghijklmno1", true},
		{"Abcdef!hijklmnop", true},
		{"abcdef!hijklmno1", true},
	}
	for _, tt := range tests {
		if got := hasMinimumEntropy(tt.secret); got != tt.want {
			t.Errorf("hasMinimumEntropy(%q) = %v, want %v", tt.secret, got, tt.want)
		}
	}
}
