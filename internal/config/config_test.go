package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sudokeep.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_MergesOverDefaults(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
version: "1"
sudoers_path: /opt/etc/sudoers
heartbeat:
  poll_seconds: 5
status:
  listen: "127.0.0.1:9412"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.SudoersPath != "/opt/etc/sudoers" {
		t.Errorf("SudoersPath = %q", cfg.SudoersPath)
	}
	if cfg.Heartbeat.PollSeconds != 5 {
		t.Errorf("PollSeconds = %d", cfg.Heartbeat.PollSeconds)
	}
	// Untouched fields keep their defaults.
	if cfg.SudoBin != "sudo" {
		t.Errorf("SudoBin = %q, want default", cfg.SudoBin)
	}
	if cfg.DefaultGraceSeconds != 300 {
		t.Errorf("DefaultGraceSeconds = %d, want default 300", cfg.DefaultGraceSeconds)
	}
	if cfg.Status.Listen != "127.0.0.1:9412" {
		t.Errorf("Status.Listen = %q", cfg.Status.Listen)
	}
}

func TestLoad_ExpandsEnvironment(t *testing.T) {
	t.Setenv("SUDOKEEP_TEST_SUDOERS", "/tmp/sudoers")

	path := writeConfig(t, `
version: "1"
sudoers_path: ${SUDOKEEP_TEST_SUDOERS}
sudo_bin: ${SUDOKEEP_TEST_MISSING:-/usr/bin/sudo}
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.SudoersPath != "/tmp/sudoers" {
		t.Errorf("SudoersPath = %q", cfg.SudoersPath)
	}
	if cfg.SudoBin != "/usr/bin/sudo" {
		t.Errorf("SudoBin = %q, want fallback default", cfg.SudoBin)
	}
}

func TestLoad_UnresolvedVariable(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, "version: \"1\"\nsudoers_path: ${SUDOKEEP_TEST_NO_SUCH_VAR}\n")

	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "unresolved variable") {
		t.Errorf("Load error = %v, want unresolved variable", err)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults pass", func(*Config) {}, ""},
		{"missing version", func(c *Config) { c.Version = "" }, "version field is required"},
		{"unsupported version", func(c *Config) { c.Version = "2" }, "unsupported version"},
		{"empty sudoers path", func(c *Config) { c.SudoersPath = "" }, "sudoers_path"},
		{"zero margin", func(c *Config) { c.Heartbeat.MarginSeconds = 0 }, "margin_seconds"},
		{"zero poll", func(c *Config) { c.Heartbeat.PollSeconds = 0 }, "poll_seconds"},
		{"bad prune schedule", func(c *Config) {
			c.Audit.Path = "/tmp/audit.db"
			c.Audit.PruneSchedule = "not a cron line"
		}, "prune_schedule"},
		{"zero retention", func(c *Config) {
			c.Audit.Path = "/tmp/audit.db"
			c.Audit.RetentionDays = 0
		}, "retention_days"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := Defaults()
			tt.mutate(cfg)

			err := Validate(cfg)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate: unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate error = %v, want substring %q", err, tt.wantErr)
			}
		})
	}
}
