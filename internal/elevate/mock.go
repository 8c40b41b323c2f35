package elevate

import (
	"context"
	"io/fs"
	"sync"
)

// Mock is a test double that implements Gateway. It serves file and
// directory content from in-memory maps and counts refresh calls.
type Mock struct {
	mu       sync.Mutex
	silent   int
	prompted int

	// Files maps paths to contents served by ReadFileElevated.
	Files map[string]string

	// Dirs maps directory paths to entry names served by ListDirElevated.
	Dirs map[string][]string

	// SilentErr and PromptErr, if set, are returned by the refresh calls.
	SilentErr error
	PromptErr error

	// RunFunc, if set, handles RunElevated.
	RunFunc func(ctx context.Context, name string, args ...string) (int, error)
}

// Compile-time interface guard.
var _ Gateway = (*Mock)(nil)

// RefreshSilently implements Gateway.
func (m *Mock) RefreshSilently(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.silent++
	return m.SilentErr
}

// RefreshWithPrompt implements Gateway.
func (m *Mock) RefreshWithPrompt(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prompted++
	return m.PromptErr
}

// RunElevated implements Gateway.
func (m *Mock) RunElevated(ctx context.Context, name string, args ...string) (int, error) {
	if m.RunFunc != nil {
		return m.RunFunc(ctx, name, args...)
	}
	return 0, nil
}

// ReadFileElevated implements Gateway.
func (m *Mock) ReadFileElevated(_ context.Context, path string) ([]byte, error) {
	if content, ok := m.Files[path]; ok {
		return []byte(content), nil
	}
	return nil, &fs.PathError{Op: "read", Path: path, Err: fs.ErrNotExist}
}

// ListDirElevated implements Gateway.
func (m *Mock) ListDirElevated(_ context.Context, path string) ([]string, error) {
	if names, ok := m.Dirs[path]; ok {
		return names, nil
	}
	return nil, &fs.PathError{Op: "readdir", Path: path, Err: fs.ErrNotExist}
}

// SilentCalls reports how many times RefreshSilently was invoked.
func (m *Mock) SilentCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.silent
}

// PromptCalls reports how many times RefreshWithPrompt was invoked.
func (m *Mock) PromptCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.prompted
}
