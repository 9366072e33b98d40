package task

import (
	"context"
	"log/slog"
	"time"

	"github.com/sweeney/motion-sensor/internal/console"
	"github.com/sweeney/motion-sensor/internal/status"
)

// DefaultHeartbeat is the liveness interval.
const DefaultHeartbeat = time.Second

// HeartbeatConfig configures a Heartbeat.
type HeartbeatConfig struct {
	Interval time.Duration

	// Tick overrides the internal ticker, for tests.
	Tick <-chan time.Time

	// Refresh, if set, runs before each snapshot to pull counters that
	// live outside the tracker.
	Refresh func()

	Logger *slog.Logger
}

// Heartbeat emits a liveness line on every tick. It has no interaction with
// sensor state beyond reading the tracker.
type Heartbeat struct {
	interval time.Duration
	tick     <-chan time.Time
	refresh  func()
	tracker  *status.Tracker
	out      console.Emitter
	logger   *slog.Logger
}

// NewHeartbeat creates a heartbeat task.
func NewHeartbeat(tracker *status.Tracker, out console.Emitter, cfg HeartbeatConfig) *Heartbeat {
	h := &Heartbeat{
		interval: cfg.Interval,
		tick:     cfg.Tick,
		refresh:  cfg.Refresh,
		tracker:  tracker,
		out:      out,
		logger:   cfg.Logger,
	}
	if h.interval <= 0 {
		h.interval = DefaultHeartbeat
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}
	h.logger = h.logger.With(slog.String("component", "heartbeat"))
	return h
}

// Name identifies the task in logs.
func (h *Heartbeat) Name() string {
	return "heartbeat"
}

// Run emits until ctx is cancelled.
func (h *Heartbeat) Run(ctx context.Context) error {
	tick := h.tick
	if tick == nil {
		ticker := time.NewTicker(h.interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-tick:
			h.beat()
		}
	}
}

func (h *Heartbeat) beat() {
	if h.refresh != nil {
		h.refresh()
	}
	hb := h.tracker.Snapshot().Heartbeat()
	if err := h.out.Heartbeat(hb); err != nil {
		h.logger.Debug("emit heartbeat", slog.Any("err", err))
	}
}
