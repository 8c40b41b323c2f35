// Package policy resolves the effective privilege grace period from the
// layered sudoers configuration: a primary settings file plus an optional
// #includedir override directory whose fragments take precedence.
package policy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"slices"
	"strings"

	"github.com/WhisperingChaos/sudokeep/internal/duration"
	"github.com/WhisperingChaos/sudokeep/internal/elevate"
)

// ErrConfigAccess indicates the primary settings file could not be read,
// even for existence or permission checking.
var ErrConfigAccess = errors.New("policy: settings file inaccessible")

// DefaultGracePeriod is sudo's stock timestamp_timeout: 5 minutes.
const DefaultGracePeriod int64 = 300

var (
	// timeoutPattern matches a Defaults line carrying a timestamp_timeout
	// value in decimal minutes.
	timeoutPattern = regexp.MustCompile(`^[ \t]*Defaults.*timestamp_timeout=([+-]?\d+(?:\.\d+)?)`)

	// includeDirPattern matches the include-directory directive. The path
	// runs to an unescaped '#' or end of line.
	includeDirPattern = regexp.MustCompile(`^[ \t]*#includedir[ \t]+(.*)$`)
)

// Config holds resolver settings with documented defaults.
type Config struct {
	// SudoersPath is the primary settings file. Defaults to /etc/sudoers.
	SudoersPath string

	// Default is the grace period, in seconds, used when neither the
	// override directory nor the primary file specifies one.
	// Defaults to DefaultGracePeriod.
	Default int64

	Logger *slog.Logger
}

func (c Config) withDefaults() Config {
	if c.SudoersPath == "" {
		c.SudoersPath = "/etc/sudoers"
	}
	if c.Default == 0 {
		c.Default = DefaultGracePeriod
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}

// Resolver derives grace-period values from sudoers configuration, reading
// it through the elevation gateway since the files are root-only readable.
type Resolver struct {
	cfg Config
	gw  elevate.Gateway
}

// NewResolver creates a Resolver with the given configuration.
func NewResolver(cfg Config, gw elevate.Gateway) (*Resolver, error) {
	if gw == nil {
		return nil, errors.New("policy: nil Gateway")
	}
	return &Resolver{cfg: cfg.withDefaults(), gw: gw}, nil
}

// EffectiveGracePeriod resolves the grace period in seconds. Precedence:
// a value from the override directory wins outright, then a value from the
// primary file, then the configured default. It fails with ErrConfigAccess
// when the primary file cannot be read at all.
func (r *Resolver) EffectiveGracePeriod(ctx context.Context) (int64, error) {
	raw, err := r.gw.ReadFileElevated(ctx, r.cfg.SudoersPath)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrConfigAccess, r.cfg.SudoersPath, err)
	}
	content := string(raw)

	if dir, ok := overrideDirectory(content); ok {
		if v, ok := r.overrideGracePeriod(ctx, dir); ok {
			return v, nil
		}
	}

	if v, ok := r.reduceTimeouts(content); ok {
		return v, nil
	}

	return r.cfg.Default, nil
}

// OverrideDirectory reports the #includedir path declared in the primary
// settings file. It reports false when there is no directive or the file
// is inaccessible.
func (r *Resolver) OverrideDirectory(ctx context.Context) (string, bool) {
	raw, err := r.gw.ReadFileElevated(ctx, r.cfg.SudoersPath)
	if err != nil {
		r.cfg.Logger.Warn("policy: settings file unreadable", "path", r.cfg.SudoersPath, "error", err)
		return "", false
	}
	return overrideDirectory(string(raw))
}

// OverrideGracePeriod resolves the grace period, in seconds, declared by
// the eligible fragments of an override directory. It reports false when
// no fragment specifies the setting.
func (r *Resolver) OverrideGracePeriod(ctx context.Context, dir string) (int64, bool) {
	return r.overrideGracePeriod(ctx, dir)
}

// SystemGracePeriod resolves the grace period, in seconds, declared by the
// primary settings file itself.
func (r *Resolver) SystemGracePeriod(ctx context.Context) (int64, bool) {
	raw, err := r.gw.ReadFileElevated(ctx, r.cfg.SudoersPath)
	if err != nil {
		r.cfg.Logger.Warn("policy: settings file unreadable", "path", r.cfg.SudoersPath, "error", err)
		return 0, false
	}
	return r.reduceTimeouts(string(raw))
}

func (r *Resolver) overrideGracePeriod(ctx context.Context, dir string) (int64, bool) {
	names, err := r.gw.ListDirElevated(ctx, dir)
	if err != nil {
		r.cfg.Logger.Warn("policy: override directory unreadable", "dir", dir, "error", err)
		return 0, false
	}
	slices.Sort(names)

	var fragments strings.Builder
	for _, name := range names {
		if !eligibleFragment(name) {
			continue
		}
		raw, err := r.gw.ReadFileElevated(ctx, dir+"/"+name)
		if err != nil {
			// Subdirectories and unreadable entries are skipped, not fatal.
			r.cfg.Logger.Debug("policy: skipping fragment", "name", name, "error", err)
			continue
		}
		fragments.Write(raw)
		fragments.WriteByte('\n')
	}

	return r.reduceTimeouts(fragments.String())
}

// reduceTimeouts extracts every timestamp_timeout line from content and
// reduces the values to a single grace period in seconds.
func (r *Resolver) reduceTimeouts(content string) (int64, bool) {
	var red reducer
	for _, line := range strings.Split(content, "\n") {
		m := timeoutPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		seconds, err := duration.ParseMinutes(m[1])
		if err != nil {
			r.cfg.Logger.Warn("policy: unparseable timestamp_timeout", "value", m[1], "error", err)
			continue
		}
		red.add(seconds)
	}
	return red.result()
}

// eligibleFragment applies sudo's include-directory filter: names with a
// dot or a trailing '~' are editor backups or package-manager remnants.
func eligibleFragment(name string) bool {
	return name != "" &&
		!strings.Contains(name, ".") &&
		!strings.HasSuffix(name, "~")
}

// overrideDirectory extracts the #includedir path from settings content.
// Embedded comment text after an unescaped '#' is trimmed.
func overrideDirectory(content string) (string, bool) {
	for _, line := range strings.Split(content, "\n") {
		m := includeDirPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		path := strings.TrimSpace(trimUnescapedComment(m[1]))
		path = strings.ReplaceAll(path, `\#`, "#")
		if path != "" {
			return path, true
		}
	}
	return "", false
}

// trimUnescapedComment cuts s at the first '#' not preceded by a backslash.
func trimUnescapedComment(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] == '#' && (i == 0 || s[i-1] != '\\') {
			return s[:i]
		}
	}
	return s
}
