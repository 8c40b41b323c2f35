// Package keepalive keeps an elevated session alive for the natural
// lifetime of a parent process. After an initial interactive elevation it
// spawns a detached loop that silently refreshes the grace period, racing
// a fixed-interval sleep against a liveness poll of the watched process.
package keepalive

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/WhisperingChaos/sudokeep/internal/duration"
	"github.com/WhisperingChaos/sudokeep/internal/elevate"
	"github.com/WhisperingChaos/sudokeep/internal/proc"
)

// ErrTimerUnstable indicates the configured grace period is too short
// relative to achievable timing precision to refresh reliably.
var ErrTimerUnstable = errors.New("keepalive: grace period too short for reliable refresh")

const (
	// DefaultMargin absorbs process-scheduling jitter (assumed bounded by
	// ~1 s on typical systems) plus clock and exec overhead (~1 s more).
	DefaultMargin = 2 * time.Second

	// DefaultPollInterval is how often the loop checks parent liveness.
	DefaultPollInterval = time.Second
)

// GracePolicy supplies the effective grace period when the caller gives no
// override. Satisfied by *policy.Resolver.
type GracePolicy interface {
	EffectiveGracePeriod(ctx context.Context) (int64, error)
}

// Config holds supervisor settings with documented defaults.
type Config struct {
	// Margin is subtracted (along with one second) from the grace period
	// to compute the heartbeat interval. Defaults to DefaultMargin.
	Margin time.Duration

	// PollInterval is the parent-liveness poll cadence.
	// Defaults to DefaultPollInterval.
	PollInterval time.Duration

	// Alive reports whether a pid is still running. Defaults to proc.Alive.
	Alive func(pid int) bool

	// Recorder observes session and refresh events. Defaults to NopRecorder.
	Recorder Recorder

	Logger *slog.Logger
}

func (c Config) withDefaults() Config {
	if c.Margin <= 0 {
		c.Margin = DefaultMargin
	}
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.Alive == nil {
		c.Alive = proc.Alive
	}
	if c.Recorder == nil {
		c.Recorder = NopRecorder{}
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}

// Supervisor starts and owns heartbeat sessions. Sessions for different
// parent processes are independent; each issues its own idempotent refresh
// calls against the privilege tool.
type Supervisor struct {
	cfg    Config
	gw     elevate.Gateway
	policy GracePolicy
}

// NewSupervisor creates a Supervisor with the given configuration.
func NewSupervisor(cfg Config, gw elevate.Gateway, policy GracePolicy) (*Supervisor, error) {
	if gw == nil {
		return nil, errors.New("keepalive: nil Gateway")
	}
	if policy == nil {
		return nil, errors.New("keepalive: nil GracePolicy")
	}
	return &Supervisor{cfg: cfg.withDefaults(), gw: gw, policy: policy}, nil
}

// Session is a running heartbeat loop tied to one watched process. It is
// owned by the Supervisor that started it; the only way it ends is the
// watched process exiting.
type Session struct {
	pid      int
	interval time.Duration
	done     chan struct{}
}

// PID is the watched parent process.
func (s *Session) PID() int { return s.pid }

// Interval is the computed heartbeat interval.
func (s *Session) Interval() time.Duration { return s.interval }

// Done is closed when the watched process has exited and both sub-tasks
// have been torn down.
func (s *Session) Done() <-chan struct{} { return s.done }

// Start performs the initial interactive elevation and, when the grace
// period calls for it, spawns the detached refresh loop for pid. The
// returned Session is nil when no loop is needed: a non-positive grace
// period means the elevation is session-persistent or single-use.
//
// overrideMinutes, when non-empty, is a decimal-minutes duration that
// bypasses policy resolution. All failures (parse, resolution, denied
// elevation, unstable timing) are reported here, before anything is
// spawned; the loop itself never reports back.
func (s *Supervisor) Start(ctx context.Context, pid int, overrideMinutes string) (*Session, error) {
	var grace int64
	var err error
	if overrideMinutes != "" {
		grace, err = duration.ParseMinutes(overrideMinutes)
	} else {
		grace, err = s.policy.EffectiveGracePeriod(ctx)
	}
	if err != nil {
		return nil, err
	}

	if err := s.gw.RefreshWithPrompt(ctx); err != nil {
		return nil, err
	}

	if grace <= 0 {
		// Session-persistent (negative) or single-use (zero): nothing to
		// keep alive.
		s.cfg.Logger.Debug("keepalive: no refresh loop needed", "grace_seconds", grace)
		return nil, nil
	}

	interval := time.Duration(grace-1)*time.Second - s.cfg.Margin
	if interval < s.cfg.Margin {
		return nil, fmt.Errorf("%w: grace period %ds, margin %s", ErrTimerUnstable, grace, s.cfg.Margin)
	}

	// Refresh once more immediately before spawning so the loop starts
	// against a freshly reset timer.
	if err := s.gw.RefreshWithPrompt(ctx); err != nil {
		return nil, err
	}

	sess := &Session{pid: pid, interval: interval, done: make(chan struct{})}
	s.cfg.Recorder.SessionStarted(pid, interval)
	s.cfg.Logger.Info("keepalive: refresh loop started",
		"pid", pid,
		"grace_seconds", grace,
		"interval", interval,
	)

	go s.run(sess)
	return sess, nil
}

// run is the detached heartbeat loop. It deliberately ignores the caller's
// context: parent exit is the sole termination signal, and refresh failures
// are retried on the next lap since no caller remains to observe them.
func (s *Supervisor) run(sess *Session) {
	defer close(sess.done)
	defer s.cfg.Recorder.SessionEnded(sess.pid)

	ctx := context.Background()
	for {
		if err := s.gw.RefreshSilently(ctx); err != nil {
			s.cfg.Recorder.RefreshFailed(sess.pid, err)
			s.cfg.Logger.Warn("keepalive: silent refresh failed", "pid", sess.pid, "error", err)
		} else {
			s.cfg.Recorder.RefreshSucceeded(sess.pid)
		}

		if !s.sleepWhileAlive(sess.pid, sess.interval) {
			s.cfg.Logger.Info("keepalive: watched process exited", "pid", sess.pid)
			return
		}
	}
}

// sleepWhileAlive races the heartbeat interval against the liveness poll.
// It reports false the moment the watched process is gone.
func (s *Supervisor) sleepWhileAlive(pid int, interval time.Duration) bool {
	sleep := time.NewTimer(interval)
	defer sleep.Stop()

	poll := time.NewTicker(s.cfg.PollInterval)
	defer poll.Stop()

	for {
		select {
		case <-sleep.C:
			return true
		case <-poll.C:
			if !s.cfg.Alive(pid) {
				return false
			}
		}
	}
}
