package config

import (
	"strings"
	"testing"
)

func TestValidate_DevAllowsMissingSecret(t *testing.T) {
	cfg := &Config{Env: "development", DatabaseURL: "postgres://x"}
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error in dev mode: %v", err)
	}
}

func TestValidate_ProductionRequiresSecret(t *testing.T) {
	cfg := &Config{Env: "production", DatabaseURL: "postgres://x", RedisURL: "redis://x"}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for missing AUTH_SECRET")
	}
	if !strings.Contains(err.Error(), "AUTH_SECRET") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidate_ProductionRejectsShortSecret(t *testing.T) {
	cfg := &Config{
		Env:         "production",
		DatabaseURL: "postgres://x",
		RedisURL:    "redis://x",
		AuthSecret:  "short",
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for short AUTH_SECRET")
	}
}

func TestValidate_ProductionRequiresRedis(t *testing.T) {
	cfg := &Config{
		Env:         "production",
		DatabaseURL: "postgres://x",
		AuthSecret:  strings.Repeat("s", 32),
	}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for missing REDIS_URL")
	}
	if !strings.Contains(err.Error(), "REDIS_URL") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidate_ProductionOK(t *testing.T) {
	cfg := &Config{
		Env:         "production",
		DatabaseURL: "postgres://x",
		RedisURL:    "redis://x",
		AuthSecret:  strings.Repeat("s", 32),
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestIsDev(t *testing.T) {
	if !(&Config{Env: "development"}).IsDev() {
		t.Error("expected dev mode")
	}
	if (&Config{Env: "production"}).IsDev() {
		t.Error("expected non-dev mode")
	}
	if !(&Config{Env: "production"}).IsProduction() {
		t.Error("expected production mode")
	}
}
