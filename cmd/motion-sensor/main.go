// Command motion-sensor reads a DHT temperature/humidity sensor whenever a
// PIR motion detector fires and prints the reading to stdout.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sweeney/motion-sensor/internal/config"
	"github.com/sweeney/motion-sensor/internal/console"
	"github.com/sweeney/motion-sensor/internal/dht"
	"github.com/sweeney/motion-sensor/internal/gpio"
	"github.com/sweeney/motion-sensor/internal/logic"
	"github.com/sweeney/motion-sensor/internal/motion"
	"github.com/sweeney/motion-sensor/internal/sampler"
	"github.com/sweeney/motion-sensor/internal/status"
	"github.com/sweeney/motion-sensor/internal/task"
)

func main() {
	flags := config.NewFlags(flag.CommandLine)
	flag.Parse()

	cfg, err := flags.Resolve()
	if err != nil {
		fmt.Fprintf(os.Stderr, "motion-sensor: %v\n", err)
		os.Exit(2)
	}

	logger := newLogger(os.Stderr, cfg.Level())
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if flags.PrintState() {
		err = printState(cfg, realHardware, os.Stdout)
	} else {
		err = run(ctx, cfg, realHardware, os.Stdout, logger)
	}
	if err != nil {
		logger.Error("fatal", slog.Any("err", err))
		stop()
		os.Exit(1)
	}
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// sensorDevice is a sensor that holds a GPIO line.
type sensorDevice interface {
	dht.Sensor
	io.Closer
}

// hardware opens the GPIO devices. Tests replace it with fakes.
type hardware struct {
	openBank   func(chip string, offsets []int) (gpio.InterruptBank, error)
	openLevel  func(chip string, offset int) (gpio.LevelWaiter, error)
	openSensor func(chip string, offset int, model dht.Model) (sensorDevice, error)
}

var realHardware = hardware{
	openBank: func(chip string, offsets []int) (gpio.InterruptBank, error) {
		b, err := gpio.NewRealBank(chip, offsets)
		if err != nil {
			return nil, err
		}
		return b, nil
	},
	openLevel: func(chip string, offset int) (gpio.LevelWaiter, error) {
		w, err := gpio.NewRealLevel(chip, offset)
		if err != nil {
			return nil, err
		}
		return w, nil
	},
	openSensor: func(chip string, offset int, model dht.Model) (sensorDevice, error) {
		s, err := dht.NewRealSensor(chip, offset, model)
		if err != nil {
			return nil, err
		}
		return s, nil
	},
}

// motionSource is a motion source plus what the daemon needs to run and
// release it.
type motionSource struct {
	motion.Source
	closer  io.Closer
	foreign func() int
}

// openSource arms the configured variant. The interrupt source is only
// built after the bank has the motion line, so the handler never runs
// before its state exists.
func openSource(cfg config.Config, hw hardware, logger *slog.Logger) (*motionSource, error) {
	switch cfg.Variant {
	case config.VariantInterrupt:
		bank, err := hw.openBank(cfg.Chip, cfg.BankOffsets())
		if err != nil {
			return nil, fmt.Errorf("init gpio: %w", err)
		}
		src, err := motion.NewInterruptSource(bank, cfg.PinMotion, motion.InterruptConfig{
			Poll:   cfg.Poll,
			Logger: logger,
		})
		if err != nil {
			bank.Close()
			return nil, err
		}
		return &motionSource{Source: src, closer: bank, foreign: src.Foreign}, nil

	case config.VariantAwait:
		pin, err := hw.openLevel(cfg.Chip, cfg.PinMotion)
		if err != nil {
			return nil, fmt.Errorf("init gpio: %w", err)
		}
		src := motion.NewAwaitSource(pin, motion.AwaitConfig{
			Debounce: cfg.DebouncePolicy(),
			Logger:   logger,
		})
		return &motionSource{Source: src, closer: pin}, nil

	default:
		return nil, fmt.Errorf("unknown variant %q", cfg.Variant)
	}
}

func statusConfig(cfg config.Config) status.Config {
	return status.Config{
		Variant:     cfg.Variant,
		PinMotion:   cfg.PinMotion,
		PinSensor:   cfg.PinSensor,
		Model:       cfg.SensorModel,
		QuiescentMs: cfg.QuiescentInterval().Milliseconds(),
		PollMs:      cfg.Poll.Milliseconds(),
		HeartbeatMs: cfg.Heartbeat.Milliseconds(),
	}
}

func run(ctx context.Context, cfg config.Config, hw hardware, stdout io.Writer, logger *slog.Logger) error {
	sensor, err := hw.openSensor(cfg.Chip, cfg.PinSensor, cfg.Model())
	if err != nil {
		return fmt.Errorf("init sensor: %w", err)
	}
	defer sensor.Close()

	src, err := openSource(cfg, hw, logger)
	if err != nil {
		return err
	}
	defer src.closer.Close()

	tracker := status.NewTracker(time.Now(), statusConfig(cfg))
	out := console.NewWriter(stdout)

	logger.Info("started",
		slog.String("variant", cfg.Variant),
		slog.Int("pin_motion", cfg.PinMotion),
		slog.Int("pin_sensor", cfg.PinSensor),
		slog.String("model", cfg.SensorModel),
		slog.Duration("quiescent", cfg.QuiescentInterval()),
		slog.Duration("heartbeat", cfg.Heartbeat))

	err = runTasks(ctx, cfg, src, sensor, out, tracker, logger)
	logger.Info("shutting down")
	return err
}

// runTasks runs the sample loop and, unless disabled, the heartbeat until
// ctx is cancelled.
func runTasks(ctx context.Context, cfg config.Config, src *motionSource, sensor dht.Sensor, out console.Emitter, tracker *status.Tracker, logger *slog.Logger) error {
	tasks := []task.Task{
		sampler.New(src, sensor, out, sampler.Config{
			Quiescent:   cfg.QuiescentInterval(),
			MinInterval: cfg.Model().MinInterval(),
			Tracker:     tracker,
			Logger:      logger,
		}),
	}

	if cfg.Heartbeat > 0 {
		hbCfg := task.HeartbeatConfig{Interval: cfg.Heartbeat, Logger: logger}
		if src.foreign != nil {
			hbCfg.Refresh = func() { tracker.SetForeign(src.foreign()) }
		}
		tasks = append(tasks, task.NewHeartbeat(tracker, out, hbCfg))
	}

	return task.Run(ctx, logger, tasks...)
}

// printState reads the motion level and takes one sensor reading, then
// prints a JSON status snapshot.
func printState(cfg config.Config, hw hardware, stdout io.Writer) error {
	pin, err := hw.openLevel(cfg.Chip, cfg.PinMotion)
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer pin.Close()

	high, err := pin.Value()
	if err != nil {
		return fmt.Errorf("read gpio: %w", err)
	}

	sensor, err := hw.openSensor(cfg.Chip, cfg.PinSensor, cfg.Model())
	if err != nil {
		return fmt.Errorf("init sensor: %w", err)
	}
	defer sensor.Close()

	tracker := status.NewTracker(time.Now(), statusConfig(cfg))
	tracker.SetMotionLevel(high)

	var report *logic.Report
	r, readErr := sensor.Read()
	tracker.RecordRead(readErr == nil)
	if readErr == nil {
		rep := logic.NewReport("", time.Now(), logic.Reading{TemperatureC: r.Temperature, Humidity: r.Humidity})
		report = &rep
	}

	_, err = fmt.Fprintf(stdout, "%s\n", status.FormatJSON(tracker.Snapshot(), report, readErr))
	return err
}
