package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFrom_Defaults(t *testing.T) {
	home := t.TempDir()
	cfg, err := LoadFrom(home)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Backend.BaseURL != "http://127.0.0.1:8000" {
		t.Fatalf("base url = %q", cfg.Backend.BaseURL)
	}
	if cfg.Poll.OpsSeconds != 10 {
		t.Fatalf("ops poll = %d, want 10", cfg.Poll.OpsSeconds)
	}
	if cfg.Poll.QuotesSeconds != 30 {
		t.Fatalf("quotes poll = %d, want 30", cfg.Poll.QuotesSeconds)
	}
	if cfg.Poll.HeadlinesCron != "0 * * * *" {
		t.Fatalf("headlines cron = %q", cfg.Poll.HeadlinesCron)
	}
	if cfg.Email.Mailbox != "INBOX" || cfg.Email.FetchLimit != 5 {
		t.Fatalf("email defaults = %+v", cfg.Email)
	}
	if len(cfg.Scan.DefaultPaths) != 1 || cfg.Scan.DefaultPaths[0] != "~/Desktop" {
		t.Fatalf("scan paths = %v", cfg.Scan.DefaultPaths)
	}
}

func TestLoadFrom_YAMLOverridesAndNormalize(t *testing.T) {
	home := t.TempDir()
	raw := []byte(`
log_level: debug
backend:
  base_url: http://10.0.0.2:9000/
  timeout_seconds: 3
poll:
  ops_seconds: 2
email:
  mailbox: Work
  fetch_limit: 9
`)
	if err := os.WriteFile(filepath.Join(home, "config.yaml"), raw, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFrom(home)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("log level = %q", cfg.LogLevel)
	}
	// Trailing slash is normalized away.
	if cfg.Backend.BaseURL != "http://10.0.0.2:9000" {
		t.Fatalf("base url = %q", cfg.Backend.BaseURL)
	}
	if cfg.Backend.TimeoutSeconds != 3 {
		t.Fatalf("timeout = %d", cfg.Backend.TimeoutSeconds)
	}
	if cfg.Poll.OpsSeconds != 2 {
		t.Fatalf("ops poll = %d", cfg.Poll.OpsSeconds)
	}
	// Unset values fall back to defaults.
	if cfg.Poll.QuotesSeconds != 30 {
		t.Fatalf("quotes poll = %d", cfg.Poll.QuotesSeconds)
	}
	if cfg.Email.Mailbox != "Work" || cfg.Email.FetchLimit != 9 {
		t.Fatalf("email = %+v", cfg.Email)
	}
}

func TestLoadFrom_EnvOverrides(t *testing.T) {
	t.Setenv("MISSIONCTL_BACKEND_URL", "http://192.168.1.5:8000")
	t.Setenv("MISSIONCTL_API_KEY", "test-key")
	t.Setenv("MISSIONCTL_OPS_POLL_SECONDS", "4")

	cfg, err := LoadFrom(t.TempDir())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Backend.BaseURL != "http://192.168.1.5:8000" {
		t.Fatalf("base url = %q", cfg.Backend.BaseURL)
	}
	if cfg.Backend.APIKey != "test-key" {
		t.Fatalf("api key = %q", cfg.Backend.APIKey)
	}
	if cfg.Poll.OpsSeconds != 4 {
		t.Fatalf("ops poll = %d", cfg.Poll.OpsSeconds)
	}
}

func TestFingerprint_Stable(t *testing.T) {
	a, err := LoadFrom(t.TempDir())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	b, err := LoadFrom(t.TempDir())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if a.Fingerprint() != b.Fingerprint() {
		t.Fatalf("fingerprints differ for identical configs: %q vs %q", a.Fingerprint(), b.Fingerprint())
	}

	b.Poll.OpsSeconds = 99
	if a.Fingerprint() == b.Fingerprint() {
		t.Fatal("fingerprint did not change after config change")
	}
}
