package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/laksh02009/Telegram-bot/internal/checklist"
	"github.com/laksh02009/Telegram-bot/internal/testutil"
)

func TestConfigYAMLRoundTrip(t *testing.T) {
	tmpDir := t.TempDir()

	cfg := DefaultConfig()
	cfg.Interview.RequireName = false
	cfg.Interview.SkipRemarkFor = []string{"Yes"}
	cfg.Store.Driver = DriverMemory

	if err := WriteConfig(tmpDir, cfg); err != nil {
		t.Fatalf("WriteConfig failed: %v", err)
	}

	loaded, err := ReadConfig(tmpDir)
	if err != nil {
		t.Fatalf("ReadConfig failed: %v", err)
	}

	if loaded.Interview.RequireName {
		t.Errorf("RequireName: got true, want false")
	}
	if len(loaded.Interview.SkipRemarkFor) != 1 || loaded.Interview.SkipRemarkFor[0] != "Yes" {
		t.Errorf("SkipRemarkFor: got %v, want [Yes]", loaded.Interview.SkipRemarkFor)
	}
	if loaded.Store.Driver != DriverMemory {
		t.Errorf("Store.Driver: got %q, want %q", loaded.Store.Driver, DriverMemory)
	}
}

func TestReadConfigKeepsDefaultsForMissingFields(t *testing.T) {
	tmpDir := testutil.ConfigProject(t, `version: 1
interview:
  require_name: false
checklist:
  - prompt: Is the EV charging working?
  - prompt: Floor condition
    options: [Clean, Dirty]
`)

	cfg, err := ReadConfig(tmpDir)
	if err != nil {
		t.Fatalf("ReadConfig failed: %v", err)
	}

	if cfg.Telegram.TokenEnv != "TELEGRAM_BOT_TOKEN" {
		t.Errorf("Telegram.TokenEnv: got %q, want default", cfg.Telegram.TokenEnv)
	}
	if cfg.Interview.RemarkSentinel != "N/A" {
		t.Errorf("RemarkSentinel: got %q, want N/A", cfg.Interview.RemarkSentinel)
	}

	cl, err := cfg.BuildChecklist()
	if err != nil {
		t.Fatalf("BuildChecklist failed: %v", err)
	}
	if cl.Len() != 2 {
		t.Fatalf("checklist length: got %d, want 2", cl.Len())
	}
	item, _ := cl.Item(1)
	if len(item.Options) != 2 || item.Options[0] != "Clean" {
		t.Errorf("item options: got %v", item.Options)
	}

	opts := cfg.InterviewOptions()
	if opts.RequireName || !opts.AskRemarks {
		t.Errorf("InterviewOptions: got %+v", opts)
	}
}

func TestReadConfigMissing(t *testing.T) {
	if _, err := ReadConfig(t.TempDir()); err == nil {
		t.Error("expected error for missing config")
	}
}

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	cl, _ := cfg.BuildChecklist()
	if cl.Len() != 4 {
		t.Errorf("default checklist length: got %d, want 4", cl.Len())
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown driver", func(c *Config) { c.Store.Driver = "redis" }},
		{"sqlite without path", func(c *Config) { c.Store.Path = "" }},
		{"bad ttl", func(c *Config) { c.Store.SessionTTL = "forever" }},
		{"bad sweep interval", func(c *Config) { c.Store.SweepInterval = "0s" }},
		{"unknown mode", func(c *Config) { c.Telegram.Mode = "carrier-pigeon" }},
		{"no token env", func(c *Config) { c.Telegram.TokenEnv = "" }},
		{"empty prompt", func(c *Config) { c.Checklist = []checklist.Item{{Prompt: " "}} }},
		{"webhook without secret env", func(c *Config) { c.Telegram.Mode = ModeWebhook; c.Telegram.SecretEnv = "" }},
		{"reserved char in prompt", func(c *Config) { c.Checklist = []checklist.Item{{Prompt: "Floor-level sensors ok?"}} }},
		{"reserved char in option", func(c *Config) {
			c.Checklist = []checklist.Item{{Prompt: "Lights", Options: []string{"On", "N.A"}}}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Errorf("Validate: expected error")
			}
		})
	}
}

func TestDurations(t *testing.T) {
	cfg := DefaultConfig()

	ttl, err := cfg.SessionTTL()
	if err != nil || ttl != 0 {
		t.Errorf("default SessionTTL: got %v, %v; want 0, nil", ttl, err)
	}

	cfg.Store.SessionTTL = "24h"
	ttl, err = cfg.SessionTTL()
	if err != nil || ttl != 24*time.Hour {
		t.Errorf("SessionTTL: got %v, %v; want 24h", ttl, err)
	}

	interval, err := cfg.SweepInterval()
	if err != nil || interval != 10*time.Minute {
		t.Errorf("SweepInterval: got %v, %v; want 10m", interval, err)
	}
}

func TestStorePath(t *testing.T) {
	cfg := DefaultConfig()
	if got, want := cfg.StorePath("/srv/bot"), filepath.Join("/srv/bot", Dir, "sessions.db"); got != want {
		t.Errorf("StorePath: got %q, want %q", got, want)
	}
	cfg.Store.Path = "/var/lib/inspector.db"
	if got := cfg.StorePath("/srv/bot"); got != "/var/lib/inspector.db" {
		t.Errorf("StorePath absolute: got %q", got)
	}
}

func TestCredentials(t *testing.T) {
	env := map[string]string{}
	getenv := func(k string) string { return env[k] }

	cfg := DefaultConfig()
	if _, _, err := cfg.Credentials(getenv); err == nil {
		t.Error("Credentials: expected error without a token")
	}

	env["TELEGRAM_BOT_TOKEN"] = "123:abc"
	token, secret, err := cfg.Credentials(getenv)
	if err != nil || token != "123:abc" || secret != "" {
		t.Errorf("polling Credentials: got %q, %q, %v", token, secret, err)
	}

	cfg.Telegram.Mode = ModeWebhook
	if _, _, err := cfg.Credentials(getenv); err == nil {
		t.Error("webhook Credentials: expected error without a secret")
	}

	env["TELEGRAM_WEBHOOK_SECRET"] = "s3cret"
	token, secret, err = cfg.Credentials(getenv)
	if err != nil || token != "123:abc" || secret != "s3cret" {
		t.Errorf("webhook Credentials: got %q, %q, %v", token, secret, err)
	}
}
