// Package status provides a thread-safe status tracker for the motion-sensor
// daemon. It is written by the sample loop and read by the heartbeat.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/motion-sensor/internal/logic"
)

// Config contains daemon configuration for display.
type Config struct {
	Variant     string
	PinMotion   int
	PinSensor   int
	Model       string
	QuiescentMs int64
	PollMs      int64
	HeartbeatMs int64
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type and safe to use after the lock is released.
type Snapshot struct {
	Counts     logic.Counts
	MotionHigh *bool
	StartTime  time.Time
	Now        time.Time
	Config     Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Heartbeat returns the liveness data for this snapshot.
func (s Snapshot) Heartbeat() logic.HeartbeatData {
	return logic.HeartbeatData{
		Timestamp: s.Now,
		Uptime:    s.Uptime(),
		Counts:    s.Counts,
	}
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
	now  func() time.Time
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
		now: time.Now,
	}
}

// SetClock replaces the time source used to stamp snapshots.
func (t *Tracker) SetClock(now func() time.Time) {
	t.mu.Lock()
	t.now = now
	t.mu.Unlock()
}

// RecordMotion counts a motion event handed to the sample loop.
func (t *Tracker) RecordMotion() {
	t.mu.Lock()
	t.snap.Counts.Motion++
	t.mu.Unlock()
}

// SetForeign sets the number of interrupts raised by other lines.
func (t *Tracker) SetForeign(n int) {
	t.mu.Lock()
	t.snap.Counts.Foreign = n
	t.mu.Unlock()
}

// RecordRead counts a sensor read. Readings themselves are not kept.
func (t *Tracker) RecordRead(ok bool) {
	t.mu.Lock()
	if ok {
		t.snap.Counts.Reads++
	} else {
		t.snap.Counts.Failures++
	}
	t.mu.Unlock()
}

// SetMotionLevel records the last known motion line level.
func (t *Tracker) SetMotionLevel(high bool) {
	t.mu.Lock()
	t.snap.MotionHigh = &high
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	now := t.now
	t.mu.RUnlock()
	s.Now = now()
	return s
}
