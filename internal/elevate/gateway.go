// Package elevate is the boundary to the external privilege-escalation
// tool. The rest of sudokeep talks to a narrow Gateway interface so the
// policy resolver and keepalive supervisor can be tested without a real
// privileged session.
package elevate

import (
	"context"
	"errors"
)

// Sentinel errors for gateway operations.
var (
	// ErrDenied indicates the external tool refused elevation: bad
	// credentials, policy denial, or no currently valid grace period
	// when prompting is disallowed.
	ErrDenied = errors.New("elevate: elevation denied")
)

// Gateway exposes the privilege-tool primitives sudokeep depends on.
type Gateway interface {
	// RefreshSilently extends the current elevated session without any
	// interactive prompt. It fails when no valid grace period exists.
	RefreshSilently(ctx context.Context) error

	// RefreshWithPrompt extends or establishes the elevated session,
	// presenting an interactive credential prompt if required.
	RefreshWithPrompt(ctx context.Context) error

	// RunElevated executes a command under elevated privilege, mirroring
	// its stdout, stderr, and exit code. An empty name performs only the
	// elevation step and produces no output.
	RunElevated(ctx context.Context, name string, args ...string) (int, error)

	// ReadFileElevated reads a file's content under elevation. Needed for
	// sudo configuration files, which are typically root-only readable.
	ReadFileElevated(ctx context.Context, path string) ([]byte, error)

	// ListDirElevated lists the entry names of a directory under
	// elevation, non-recursively.
	ListDirElevated(ctx context.Context, path string) ([]string, error)
}
