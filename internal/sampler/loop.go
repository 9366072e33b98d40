// Package sampler runs the steady-state loop: wait for motion, respect the
// sensor's quiescent interval, read, convert, emit.
package sampler

import (
	"context"
	"log/slog"
	"time"

	"github.com/sweeney/motion-sensor/internal/console"
	"github.com/sweeney/motion-sensor/internal/dht"
	"github.com/sweeney/motion-sensor/internal/logic"
	"github.com/sweeney/motion-sensor/internal/motion"
	"github.com/sweeney/motion-sensor/internal/status"
)

// DefaultSourceRetry is the pause after a motion source error (e.g. the
// line could not be read) before waiting again.
const DefaultSourceRetry = time.Second

// Config configures a Loop.
type Config struct {
	// Quiescent is the delay between recognizing motion and reading.
	Quiescent time.Duration

	// MinInterval is the sensor's measurement cycle. Reads are spaced at
	// least this far apart whatever the quiescent delay.
	MinInterval time.Duration

	SourceRetry time.Duration
	Tracker     *status.Tracker
	Now         func() time.Time
	After       func(time.Duration) <-chan time.Time
	Logger      *slog.Logger
}

// Loop samples the sensor once per motion event.
type Loop struct {
	src    motion.Source
	sensor dht.Sensor
	out    console.Emitter

	quiescent time.Duration
	minGap    time.Duration
	lastRead  time.Time
	retry     time.Duration
	tracker   *status.Tracker
	now       func() time.Time
	after     func(time.Duration) <-chan time.Time
	logger    *slog.Logger
}

// New creates a sample loop.
func New(src motion.Source, sensor dht.Sensor, out console.Emitter, cfg Config) *Loop {
	l := &Loop{
		src:       src,
		sensor:    sensor,
		out:       out,
		quiescent: cfg.Quiescent,
		minGap:    cfg.MinInterval,
		retry:     cfg.SourceRetry,
		tracker:   cfg.Tracker,
		now:       cfg.Now,
		after:     cfg.After,
		logger:    cfg.Logger,
	}
	if l.retry <= 0 {
		l.retry = DefaultSourceRetry
	}
	if l.now == nil {
		l.now = time.Now
	}
	if l.after == nil {
		l.after = time.After
	}
	if l.logger == nil {
		l.logger = slog.Default()
	}
	l.logger = l.logger.With(slog.String("component", "sampler"))
	return l
}

// Name identifies the loop in task logs.
func (l *Loop) Name() string {
	return "sampler"
}

// Run waits for motion and samples until ctx is cancelled. Read failures
// and source errors never end the loop.
func (l *Loop) Run(ctx context.Context) error {
	l.logger.Info("sample loop started",
		slog.Duration("quiescent", l.quiescent),
		slog.Duration("min_interval", l.minGap))

	for {
		ev, err := l.src.Next(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			l.logger.Warn("motion source error", slog.Any("err", err))
			if !l.wait(ctx, l.retry) {
				return nil
			}
			continue
		}

		if !l.Sample(ctx, ev) {
			return nil
		}
	}
}

// Sample handles one motion event. It returns false only if ctx was
// cancelled while waiting to read, in which case no read happens.
func (l *Loop) Sample(ctx context.Context, ev motion.Event) bool {
	log := l.logger.With(slog.String("event_id", ev.ID.String()))
	log.Info("motion detected", slog.String("source", ev.Source))
	if l.tracker != nil {
		l.tracker.RecordMotion()
	}

	// Timed suspension, not a blocking sleep: other tasks keep running.
	if !l.wait(ctx, l.quiescent) {
		return false
	}
	if gap := l.untilReadable(); gap > 0 {
		log.Debug("waiting for sensor cycle", slog.Duration("wait", gap))
		if !l.wait(ctx, gap) {
			return false
		}
	}

	l.lastRead = l.now()
	r, err := l.sensor.Read()
	at := l.now()
	if l.tracker != nil {
		l.tracker.RecordRead(err == nil)
	}

	if err != nil {
		log.Warn("sensor read failed", slog.Any("err", err))
		if emitErr := l.out.Failure(logic.Failure{EventID: ev.ID.String(), Timestamp: at, Err: err}); emitErr != nil {
			log.Debug("emit failure", slog.Any("err", emitErr))
		}
		return true
	}

	report := logic.NewReport(ev.ID.String(), at, logic.Reading{
		TemperatureC: r.Temperature,
		Humidity:     r.Humidity,
	})
	log.Debug("sensor read",
		slog.Float64("temperature_c", float64(r.Temperature)),
		slog.Float64("humidity", float64(r.Humidity)))
	if emitErr := l.out.Reading(report); emitErr != nil {
		log.Debug("emit reading", slog.Any("err", emitErr))
	}
	return true
}

// untilReadable returns how long until the sensor's measurement cycle
// allows another read. A failed read still started a cycle.
func (l *Loop) untilReadable() time.Duration {
	if l.minGap <= 0 || l.lastRead.IsZero() {
		return 0
	}
	return l.minGap - l.now().Sub(l.lastRead)
}

func (l *Loop) wait(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	select {
	case <-ctx.Done():
		return false
	case <-l.after(d):
		return true
	}
}
