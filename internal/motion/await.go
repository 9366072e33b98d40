package motion

import (
	"context"
	"log/slog"
	"time"

	"github.com/sweeney/motion-sensor/internal/gpio"
	"github.com/sweeney/motion-sensor/internal/logic"
)

// AwaitConfig configures an AwaitSource.
type AwaitConfig struct {
	Debounce logic.Debounce
	Now      func() time.Time
	After    func(time.Duration) <-chan time.Time
	Logger   *slog.Logger
}

// AwaitSource is the cooperative motion source: each Next re-arms a wait on
// the line level. With the level debounce mode a line held high resolves
// every Next immediately; edge mode waits for a low first.
type AwaitSource struct {
	pin    gpio.LevelWaiter
	gate   *logic.Gate
	now    func() time.Time
	after  func(time.Duration) <-chan time.Time
	logger *slog.Logger
}

// NewAwaitSource creates an await source owning pin.
func NewAwaitSource(pin gpio.LevelWaiter, cfg AwaitConfig) *AwaitSource {
	s := &AwaitSource{
		pin:    pin,
		gate:   logic.NewGate(cfg.Debounce),
		now:    cfg.Now,
		after:  cfg.After,
		logger: cfg.Logger,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.after == nil {
		s.after = time.After
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.logger = s.logger.With(slog.String("component", "await"))
	return s
}

// Next suspends until the gate accepts a high level.
func (s *AwaitSource) Next(ctx context.Context) (Event, error) {
	for {
		if s.gate.NeedsLow() {
			if err := s.pin.WaitLevel(ctx, false); err != nil {
				return Event{}, err
			}
			s.gate.Observe(false, s.now())
		}

		if err := sleep(ctx, s.after, s.gate.HoldoffRemaining(s.now())); err != nil {
			return Event{}, err
		}

		if err := s.pin.WaitLevel(ctx, true); err != nil {
			return Event{}, err
		}

		now := s.now()
		if s.gate.Observe(true, now) {
			return newEvent(SourceAwait, now), nil
		}
		s.logger.Debug("motion level ignored by debounce",
			slog.String("mode", string(s.gate.Policy().Mode)))
	}
}
