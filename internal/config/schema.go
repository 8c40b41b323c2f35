// Package config handles YAML configuration loading, environment variable
// expansion, and structural validation for sudokeep.
package config

// Config is the top-level configuration structure. Every field has a
// working default; a missing config file is not an error.
type Config struct {
	// Version is the config format version. Currently only "1" is supported.
	Version string `yaml:"version"`

	// SudoersPath is the primary sudo settings file.
	SudoersPath string `yaml:"sudoers_path,omitempty"`

	// SudoBin is the path to the sudo binary.
	SudoBin string `yaml:"sudo_bin,omitempty"`

	// DefaultGraceSeconds is used when the sudoers configuration does not
	// specify a timestamp_timeout.
	DefaultGraceSeconds int64 `yaml:"default_grace_seconds,omitempty"`

	Heartbeat HeartbeatConfig `yaml:"heartbeat,omitempty"`
	Status    StatusConfig    `yaml:"status,omitempty"`
	Audit     AuditConfig     `yaml:"audit,omitempty"`
}

// HeartbeatConfig tunes the refresh loop timing.
type HeartbeatConfig struct {
	// MarginSeconds is the safety margin subtracted from the grace period
	// when computing the heartbeat interval.
	MarginSeconds int `yaml:"margin_seconds,omitempty"`

	// PollSeconds is the parent-liveness poll cadence.
	PollSeconds int `yaml:"poll_seconds,omitempty"`
}

// StatusConfig controls the optional local status endpoint.
type StatusConfig struct {
	// Listen is the address for the status HTTP listener. Empty disables it.
	Listen string `yaml:"listen,omitempty"`
}

// AuditConfig controls the optional elevation audit log.
type AuditConfig struct {
	// Path is the SQLite database file. Empty disables auditing.
	Path string `yaml:"path,omitempty"`

	// RetentionDays is how long events are kept before pruning.
	RetentionDays int `yaml:"retention_days,omitempty"`

	// PruneSchedule is a cron expression for the retention job.
	PruneSchedule string `yaml:"prune_schedule,omitempty"`
}

// Defaults returns a Config populated with the documented defaults.
func Defaults() *Config {
	return &Config{
		Version:             "1",
		SudoersPath:         "/etc/sudoers",
		SudoBin:             "sudo",
		DefaultGraceSeconds: 300,
		Heartbeat: HeartbeatConfig{
			MarginSeconds: 2,
			PollSeconds:   1,
		},
		Audit: AuditConfig{
			RetentionDays: 30,
			PruneSchedule: "0 */6 * * *",
		},
	}
}
