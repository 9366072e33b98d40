package motion

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/sweeney/motion-sensor/internal/gpio"
)

// DefaultPoll is how often the sample loop checks the flag.
const DefaultPoll = 10 * time.Millisecond

// InterruptConfig configures an InterruptSource.
type InterruptConfig struct {
	Poll   time.Duration
	Now    func() time.Time
	After  func(time.Duration) <-chan time.Time
	Logger *slog.Logger
}

// InterruptSource is the interrupt-driven motion source.
//
// It is only handed out once the motion line is armed and owned by the
// source, and the bank handler is installed after that, so HandleInterrupt
// can never run against state that does not exist yet.
type InterruptSource struct {
	section Section
	flag    EventFlag
	line    gpio.InterruptLine

	poll   time.Duration
	now    func() time.Time
	after  func(time.Duration) <-chan time.Time
	logger *slog.Logger

	foreign atomic.Int64
}

// NewInterruptSource takes the motion line out of bank, clears any edge
// latched before arming and installs the shared interrupt handler.
func NewInterruptSource(bank gpio.InterruptBank, offset int, cfg InterruptConfig) (*InterruptSource, error) {
	line, err := bank.Line(offset)
	if err != nil {
		return nil, fmt.Errorf("arm motion line: %w", err)
	}

	s := &InterruptSource{
		line:   line,
		poll:   cfg.Poll,
		now:    cfg.Now,
		after:  cfg.After,
		logger: cfg.Logger,
	}
	if s.poll <= 0 {
		s.poll = DefaultPoll
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
	s.logger = s.logger.With(slog.String("component", "interrupt"))

	s.section.With(func(CS) {
		line.ClearInterrupt()
	})
	bank.SetHandler(s.HandleInterrupt)

	return s, nil
}

// HandleInterrupt is the shared GPIO interrupt handler. It runs for edges on
// every line in the bank and only acts when the motion line is the source.
// The flag is set and the pending bit cleared under one CS, so a second edge
// cannot fire before the flag reflects the first.
func (s *InterruptSource) HandleInterrupt() {
	ours := false
	s.section.With(func(cs CS) {
		if !s.line.InterruptPending() {
			return
		}
		ours = true
		s.flag.Set(cs)
		s.line.ClearInterrupt()
	})

	// Diagnostic only.
	if !ours {
		s.foreign.Add(1)
		s.logger.Debug("interrupt not from motion line")
		return
	}
	s.logger.Debug("motion interrupt")
}

// Poll consumes a pending motion event, if any.
func (s *InterruptSource) Poll() bool {
	taken := false
	s.section.With(func(cs CS) {
		taken = s.flag.TakeIfPending(cs)
	})
	return taken
}

// Next polls the flag until an event is pending. The flag has already been
// cleared and the section released when Next returns, so the caller's
// sensor read never holds up the handler.
func (s *InterruptSource) Next(ctx context.Context) (Event, error) {
	for {
		if s.Poll() {
			return newEvent(SourceInterrupt, s.now()), nil
		}
		if err := sleep(ctx, s.after, s.poll); err != nil {
			return Event{}, err
		}
	}
}

// Foreign returns how many interrupts came from other lines in the bank.
func (s *InterruptSource) Foreign() int {
	return int(s.foreign.Load())
}
