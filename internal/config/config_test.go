package config

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleYAML = `
repository:
  baseUrl: https://repo.example.org
  email: bot@example.org
chat:
  apiUrl: https://chat.example.org/api
  adminHandle: someadmin
  overrides:
    hornung: jhornung
tracking:
  backend: sqlite
  dsn: /var/lib/etpapprover/ledger.db
scheduler:
  cronExpression: "30 7 * * 1-5"
  timezone: Europe/Berlin
logging:
  level: debug
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadFileMergesOverDefaults(t *testing.T) {
	cfg := LoadFile(writeConfig(t, sampleYAML))

	if cfg.Repository.BaseURL != "https://repo.example.org" {
		t.Errorf("BaseURL = %q", cfg.Repository.BaseURL)
	}
	if cfg.Chat.AdminHandle != "someadmin" {
		t.Errorf("AdminHandle = %q", cfg.Chat.AdminHandle)
	}
	if cfg.Chat.Overrides["hornung"] != "jhornung" {
		t.Errorf("Overrides = %v", cfg.Chat.Overrides)
	}
	if cfg.Tracking.Backend != "sqlite" {
		t.Errorf("Tracking.Backend = %q", cfg.Tracking.Backend)
	}
	if cfg.Scheduler.CronExpression != "30 7 * * 1-5" {
		t.Errorf("CronExpression = %q", cfg.Scheduler.CronExpression)
	}
	if cfg.Scheduler.Location().String() != "Europe/Berlin" {
		t.Errorf("Location = %q", cfg.Scheduler.Location())
	}

	// Untouched sections keep their defaults.
	if cfg.Email.SMTPPort != 25 {
		t.Errorf("SMTPPort = %d, want default 25", cfg.Email.SMTPPort)
	}
}

func TestLoadFileMissingFileFallsBackToDefaults(t *testing.T) {
	cfg := LoadFile(filepath.Join(t.TempDir(), "does-not-exist.yaml"))

	if cfg.Repository.BaseURL != "https://publish.etp.kit.edu" {
		t.Errorf("BaseURL = %q, want default", cfg.Repository.BaseURL)
	}
	if cfg.Chat.AdminHandle != "jhornung" {
		t.Errorf("AdminHandle = %q, want default", cfg.Chat.AdminHandle)
	}
}

func TestEnvOverridesWinOverFile(t *testing.T) {
	t.Setenv("REPOSITORY_EMAIL", "env@example.org")
	t.Setenv("REPOSITORY_PASSWORD", "env-secret")
	t.Setenv("MATTERMOST_TOKEN", "env-token")
	t.Setenv("TRACKING_DSN", "/tmp/env.db")

	cfg := LoadFile(writeConfig(t, sampleYAML))

	if cfg.Repository.Email != "env@example.org" {
		t.Errorf("Email = %q", cfg.Repository.Email)
	}
	if cfg.Repository.Password != "env-secret" {
		t.Errorf("Password = %q", cfg.Repository.Password)
	}
	if cfg.Chat.Token != "env-token" {
		t.Errorf("Token = %q", cfg.Chat.Token)
	}
	if cfg.Tracking.DSN != "/tmp/env.db" {
		t.Errorf("DSN = %q", cfg.Tracking.DSN)
	}
}

func TestLoadReadsPathFromEnv(t *testing.T) {
	t.Setenv("ETPAPPROVER_CONFIG", writeConfig(t, sampleYAML))

	cfg := Load()
	if cfg.Repository.BaseURL != "https://repo.example.org" {
		t.Errorf("BaseURL = %q", cfg.Repository.BaseURL)
	}
}

func TestUnknownTimezoneRevertsToUTC(t *testing.T) {
	cfg := LoadFile(writeConfig(t, "scheduler:\n  timezone: Not/AZone\n"))

	if cfg.Scheduler.Location().String() != "UTC" {
		t.Errorf("Location = %q, want UTC", cfg.Scheduler.Location())
	}
}
