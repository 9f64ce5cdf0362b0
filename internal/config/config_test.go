package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.HTTP.Addr != ":8595" {
		t.Errorf("HTTP.Addr = %q, want :8595", cfg.HTTP.Addr)
	}
	if cfg.Ring.SnoozeMinutes != 9 {
		t.Errorf("Ring.SnoozeMinutes = %d, want 9", cfg.Ring.SnoozeMinutes)
	}
	if cfg.Satellite.BaseURL != "http://localhost:10700" {
		t.Errorf("Satellite.BaseURL = %q", cfg.Satellite.BaseURL)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() on defaults error = %v", err)
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("http:\n  addr: \":9000\"\nring:\n  snooze_minutes: 5\n")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.HTTP.Addr != ":9000" {
		t.Errorf("HTTP.Addr = %q, want :9000", cfg.HTTP.Addr)
	}
	if cfg.Ring.SnoozeMinutes != 5 {
		t.Errorf("Ring.SnoozeMinutes = %d, want 5", cfg.Ring.SnoozeMinutes)
	}
	// Untouched keys keep their defaults.
	if cfg.Store.Path == "" {
		t.Error("Store.Path lost its default")
	}
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv("CHIMED_HTTP_ADDR", ":7777")
	t.Setenv("CHIMED_LOG_LEVEL", "debug")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.HTTP.Addr != ":7777" {
		t.Errorf("HTTP.Addr = %q, want :7777", cfg.HTTP.Addr)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
	}
}

func TestValidateRejectsBadTimezone(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	cfg.Timezone = "Mars/Olympus_Mons"
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() accepted bogus timezone")
	}
}
