package keepalive

import "time"

// Recorder observes elevation lifecycle events. Implementations must be
// safe for concurrent use; the background loop calls them from its own
// goroutine.
type Recorder interface {
	SessionStarted(pid int, interval time.Duration)
	SessionEnded(pid int)
	RefreshSucceeded(pid int)
	RefreshFailed(pid int, err error)
}

// NopRecorder discards all events.
type NopRecorder struct{}

// Compile-time interface guard.
var _ Recorder = NopRecorder{}

func (NopRecorder) SessionStarted(int, time.Duration) {}
func (NopRecorder) SessionEnded(int)                  {}
func (NopRecorder) RefreshSucceeded(int)              {}
func (NopRecorder) RefreshFailed(int, error)          {}

// MultiRecorder fans events out to each member in order.
type MultiRecorder []Recorder

// Compile-time interface guard.
var _ Recorder = MultiRecorder(nil)

func (m MultiRecorder) SessionStarted(pid int, interval time.Duration) {
	for _, r := range m {
		r.SessionStarted(pid, interval)
	}
}

func (m MultiRecorder) SessionEnded(pid int) {
	for _, r := range m {
		r.SessionEnded(pid)
	}
}

func (m MultiRecorder) RefreshSucceeded(pid int) {
	for _, r := range m {
		r.RefreshSucceeded(pid)
	}
}

func (m MultiRecorder) RefreshFailed(pid int, err error) {
	for _, r := range m {
		r.RefreshFailed(pid, err)
	}
}
