package console

import (
	"sync"
	"time"

	"github.com/sweeney/motion-sensor/internal/logic"
)

// FakeEmitter records emitted output for test assertions. It is safe for
// concurrent use.
type FakeEmitter struct {
	mu sync.Mutex

	reports    []logic.Report
	failures   []logic.Failure
	heartbeats []logic.HeartbeatData
	lines      []string

	// emitError, if set, is returned by every method after recording.
	emitError error

	notify chan struct{}
}

// NewFakeEmitter creates a FakeEmitter for testing.
func NewFakeEmitter() *FakeEmitter {
	return &FakeEmitter{notify: make(chan struct{}, 1)}
}

// SetError makes every subsequent emit return err.
func (f *FakeEmitter) SetError(err error) {
	f.mu.Lock()
	f.emitError = err
	f.mu.Unlock()
}

// Reading records the report.
func (f *FakeEmitter) Reading(r logic.Report) error {
	f.mu.Lock()
	f.reports = append(f.reports, r)
	return f.record(FormatReading(r))
}

// Failure records the failure.
func (f *FakeEmitter) Failure(fl logic.Failure) error {
	f.mu.Lock()
	f.failures = append(f.failures, fl)
	return f.record(FormatFailure(fl))
}

// Heartbeat records the heartbeat.
func (f *FakeEmitter) Heartbeat(h logic.HeartbeatData) error {
	f.mu.Lock()
	f.heartbeats = append(f.heartbeats, h)
	return f.record(FormatHeartbeat(h))
}

// record appends the line and releases f.mu, which the caller holds.
func (f *FakeEmitter) record(line string) error {
	f.lines = append(f.lines, line)
	err := f.emitError
	f.mu.Unlock()

	select {
	case f.notify <- struct{}{}:
	default:
	}
	return err
}

// Reports returns every recorded report.
func (f *FakeEmitter) Reports() []logic.Report {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]logic.Report(nil), f.reports...)
}

// Failures returns every recorded failure.
func (f *FakeEmitter) Failures() []logic.Failure {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]logic.Failure(nil), f.failures...)
}

// Heartbeats returns every recorded heartbeat.
func (f *FakeEmitter) Heartbeats() []logic.HeartbeatData {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]logic.HeartbeatData(nil), f.heartbeats...)
}

// Lines returns every formatted line in emit order.
func (f *FakeEmitter) Lines() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.lines...)
}

// WaitFor blocks until cond holds for the recorded state or timeout passes.
// It reports whether cond held.
func (f *FakeEmitter) WaitFor(timeout time.Duration, cond func(f *FakeEmitter) bool) bool {
	deadline := time.After(timeout)
	for {
		if cond(f) {
			return true
		}
		select {
		case <-f.notify:
		case <-deadline:
			return cond(f)
		}
	}
}
