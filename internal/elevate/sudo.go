package elevate

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

// execFunc runs a command with the given stdio and returns its exit code.
// A non-nil error means the command could not be run at all; a non-zero
// exit code is not an error at this layer.
type execFunc func(ctx context.Context, stdin io.Reader, stdout, stderr io.Writer, name string, args ...string) (int, error)

// Sudo is the production Gateway backed by the sudo binary.
type Sudo struct {
	bin    string
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	run    execFunc
}

// Compile-time interface guard.
var _ Gateway = (*Sudo)(nil)

// SudoConfig configures the sudo-backed gateway.
type SudoConfig struct {
	// Bin is the path to the sudo binary. Defaults to "sudo" ($PATH lookup).
	Bin string
}

// NewSudo creates a Gateway that shells out to sudo. Interactive prompts
// go to the process's own terminal.
func NewSudo(cfg SudoConfig) *Sudo {
	bin := cfg.Bin
	if bin == "" {
		bin = "sudo"
	}
	return &Sudo{
		bin:    bin,
		stdin:  os.Stdin,
		stdout: os.Stdout,
		stderr: os.Stderr,
		run:    runCommand,
	}
}

// RefreshSilently implements Gateway via `sudo -n -v`: validate the cached
// credentials without prompting.
func (s *Sudo) RefreshSilently(ctx context.Context) error {
	code, err := s.run(ctx, nil, io.Discard, io.Discard, s.bin, "-n", "-v")
	if err != nil {
		return fmt.Errorf("elevate: sudo -n -v: %w", err)
	}
	if code != 0 {
		return fmt.Errorf("%w: no valid grace period (exit %d)", ErrDenied, code)
	}
	return nil
}

// RefreshWithPrompt implements Gateway via `sudo -v`, letting sudo prompt
// on the controlling terminal when re-authentication is required.
func (s *Sudo) RefreshWithPrompt(ctx context.Context) error {
	code, err := s.run(ctx, s.stdin, s.stdout, s.stderr, s.bin, "-v")
	if err != nil {
		return fmt.Errorf("elevate: sudo -v: %w", err)
	}
	if code != 0 {
		return fmt.Errorf("%w: authentication failed (exit %d)", ErrDenied, code)
	}
	return nil
}

// RunElevated implements Gateway. The command's stdio is passed through
// unchanged and its exit code is returned. An empty name degenerates to
// RefreshWithPrompt.
func (s *Sudo) RunElevated(ctx context.Context, name string, args ...string) (int, error) {
	if name == "" {
		if err := s.RefreshWithPrompt(ctx); err != nil {
			return 1, err
		}
		return 0, nil
	}

	argv := append([]string{"--", name}, args...)
	code, err := s.run(ctx, s.stdin, s.stdout, s.stderr, s.bin, argv...)
	if err != nil {
		return -1, fmt.Errorf("elevate: sudo %s: %w", name, err)
	}
	return code, nil
}

// ReadFileElevated implements Gateway via `sudo cat`. sudo may prompt if
// no grace period is active.
func (s *Sudo) ReadFileElevated(ctx context.Context, path string) ([]byte, error) {
	var out bytes.Buffer
	code, err := s.run(ctx, s.stdin, &out, s.stderr, s.bin, "cat", "--", path)
	if err != nil {
		return nil, fmt.Errorf("elevate: sudo cat %s: %w", path, err)
	}
	if code != 0 {
		return nil, fmt.Errorf("elevate: sudo cat %s: exit %d", path, code)
	}
	return out.Bytes(), nil
}

// ListDirElevated implements Gateway via `sudo ls -A`.
func (s *Sudo) ListDirElevated(ctx context.Context, path string) ([]string, error) {
	var out bytes.Buffer
	code, err := s.run(ctx, s.stdin, &out, s.stderr, s.bin, "ls", "-A", "--", path)
	if err != nil {
		return nil, fmt.Errorf("elevate: sudo ls %s: %w", path, err)
	}
	if code != 0 {
		return nil, fmt.Errorf("elevate: sudo ls %s: exit %d", path, code)
	}

	var names []string
	for _, line := range strings.Split(out.String(), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			names = append(names, line)
		}
	}
	return names, nil
}

// runCommand is the default execFunc, backed by os/exec.
func runCommand(ctx context.Context, stdin io.Reader, stdout, stderr io.Writer, name string, args ...string) (int, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	err := cmd.Run()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	if err != nil {
		return -1, err
	}
	return 0, nil
}
