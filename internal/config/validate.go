package config

import (
	"errors"
	"fmt"

	"github.com/robfig/cron/v3"
)

// Validate checks the structural validity of a Config: the version field,
// timing constraints the keepalive loop depends on, and the audit prune
// schedule expression.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Version == "" {
		errs = append(errs, errors.New("config: version field is required"))
	} else if cfg.Version != "1" {
		errs = append(errs, fmt.Errorf("config: unsupported version %q (supported: \"1\")", cfg.Version))
	}

	if cfg.SudoersPath == "" {
		errs = append(errs, errors.New("config: sudoers_path must not be empty"))
	}

	if cfg.Heartbeat.MarginSeconds < 1 {
		errs = append(errs, fmt.Errorf("config: heartbeat.margin_seconds must be at least 1, got %d", cfg.Heartbeat.MarginSeconds))
	}
	if cfg.Heartbeat.PollSeconds < 1 {
		errs = append(errs, fmt.Errorf("config: heartbeat.poll_seconds must be at least 1, got %d", cfg.Heartbeat.PollSeconds))
	}

	if cfg.Audit.Path != "" {
		if cfg.Audit.RetentionDays < 1 {
			errs = append(errs, fmt.Errorf("config: audit.retention_days must be at least 1, got %d", cfg.Audit.RetentionDays))
		}
		parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
		if _, err := parser.Parse(cfg.Audit.PruneSchedule); err != nil {
			errs = append(errs, fmt.Errorf("config: audit.prune_schedule: %w", err))
		}
	}

	return errors.Join(errs...)
}
