package internal

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/motion-sensor/internal/clock"
	"github.com/sweeney/motion-sensor/internal/config"
	"github.com/sweeney/motion-sensor/internal/console"
	"github.com/sweeney/motion-sensor/internal/dht"
	"github.com/sweeney/motion-sensor/internal/gpio"
	"github.com/sweeney/motion-sensor/internal/motion"
	"github.com/sweeney/motion-sensor/internal/sampler"
	"github.com/sweeney/motion-sensor/internal/status"
	"github.com/sweeney/motion-sensor/internal/task"
)

var start = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

const (
	pinMotion = gpio.DefaultPinMotion
	pinOther  = 27
)

func startTasks(t *testing.T, tasks ...task.Task) (stop func()) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- task.Run(ctx, nil, tasks...) }()
	return func() {
		cancel()
		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(time.Second):
			t.Fatal("tasks did not stop")
		}
	}
}

// TestIntegrationInterruptVariant drives the interrupt variant from a
// shared GPIO bank through the sample loop to console lines.
func TestIntegrationInterruptVariant(t *testing.T) {
	cfg, err := config.Parse([]byte("variant: interrupt\npins_shared: [27]\npoll: 1ms\n"))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	bank := gpio.NewFakeBank(cfg.BankOffsets()...)
	src, err := motion.NewInterruptSource(bank, cfg.PinMotion, motion.InterruptConfig{Poll: cfg.Poll})
	require.NoError(t, err)

	sensor := dht.NewFakeSensor(nil,
		dht.Result{Reading: dht.Reading{Temperature: 20, Humidity: 45}},
		dht.Result{Err: fmt.Errorf("%w: no response after start pulse", dht.ErrTiming)},
		dht.Result{Reading: dht.Reading{Temperature: 25, Humidity: 60}},
	)
	out := console.NewFakeEmitter()
	tracker := status.NewTracker(start, status.Config{Variant: cfg.Variant})

	loop := sampler.New(src, sensor, out, sampler.Config{Quiescent: cfg.QuiescentInterval(), Tracker: tracker})
	tick := make(chan time.Time)
	hb := task.NewHeartbeat(tracker, out, task.HeartbeatConfig{
		Tick:    tick,
		Refresh: func() { tracker.SetForeign(src.Foreign()) },
	})

	stop := startTasks(t, loop, hb)
	defer stop()

	// Edges on the other line reach the handler and are ignored.
	require.NoError(t, bank.Fire(pinOther))
	require.NoError(t, bank.Fire(pinOther))

	for i, want := range []func(f *console.FakeEmitter) bool{
		func(f *console.FakeEmitter) bool { return len(f.Reports()) == 1 },
		func(f *console.FakeEmitter) bool { return len(f.Failures()) == 1 },
		func(f *console.FakeEmitter) bool { return len(f.Reports()) == 2 },
	} {
		require.NoError(t, bank.Fire(pinMotion))
		require.True(t, out.WaitFor(time.Second, want), "motion %d", i)
	}

	tick <- start
	require.True(t, out.WaitFor(time.Second, func(f *console.FakeEmitter) bool {
		return len(f.Heartbeats()) == 1
	}))

	counts := out.Heartbeats()[0].Counts
	assert.Equal(t, 3, counts.Motion)
	assert.Equal(t, 2, counts.Reads)
	assert.Equal(t, 1, counts.Failures)
	assert.Equal(t, 2, counts.Foreign)

	lines := out.Lines()
	require.Len(t, lines, 4)
	assert.Equal(t, []string{
		"DHT Sensor: Temp 68.0°F, Humidity 45.0%",
		"DHT Sensor: read failed: dht: timing error: no response after start pulse",
		"DHT Sensor: Temp 77.0°F, Humidity 60.0%",
	}, lines[:3])
	assert.Contains(t, lines[3], "heartbeat: uptime=")
	assert.Contains(t, lines[3], "motion=3 reads=2 failures=1")

	assert.Len(t, sensor.Calls(), 3, "one read per motion event, no retries")
	assert.False(t, src.Poll(), "every event consumed")
}

// TestIntegrationAwaitVariant drives the cooperative variant with edge
// debounce on a manual clock.
func TestIntegrationAwaitVariant(t *testing.T) {
	cfg, err := config.Parse([]byte("variant: await\ndebounce:\n  mode: edge\n"))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	require.Equal(t, 2*time.Second, cfg.QuiescentInterval())

	fc := clock.NewFake(start)
	pin := gpio.NewFakeLevel(false)
	src := motion.NewAwaitSource(pin, motion.AwaitConfig{
		Debounce: cfg.DebouncePolicy(),
		Now:      fc.Now,
		After:    fc.After,
	})

	sensor := dht.NewFakeSensor(fc.Now, dht.Result{Reading: dht.Reading{Temperature: 20, Humidity: 45}})
	out := console.NewFakeEmitter()
	tracker := status.NewTracker(start, status.Config{Variant: cfg.Variant})
	tracker.SetClock(fc.Now)

	loop := sampler.New(src, sensor, out, sampler.Config{
		Quiescent: cfg.QuiescentInterval(),
		Tracker:   tracker,
		Now:       fc.Now,
		After:     fc.After,
	})
	tick := make(chan time.Time)
	hb := task.NewHeartbeat(tracker, out, task.HeartbeatConfig{Tick: tick})

	stop := startTasks(t, loop, hb)
	defer stop()

	pin.Set(true)
	<-fc.Added()

	// The sample loop is suspended in its quiescent wait; the heartbeat
	// still runs.
	tick <- start
	require.True(t, out.WaitFor(time.Second, func(f *console.FakeEmitter) bool {
		return len(f.Heartbeats()) == 1
	}))
	assert.Empty(t, sensor.Calls())

	fc.Advance(time.Second)
	assert.Empty(t, sensor.Calls(), "read before the quiescent interval")

	fc.Advance(time.Second)
	require.True(t, out.WaitFor(time.Second, func(f *console.FakeEmitter) bool {
		return len(f.Reports()) == 1
	}))
	assert.Equal(t, start.Add(2*time.Second), sensor.Calls()[0])

	// The line stays high: edge debounce must not re-trigger.
	time.Sleep(20 * time.Millisecond)
	assert.Zero(t, fc.Waiters())
	assert.Len(t, sensor.Calls(), 1)

	pin.Set(false)
	pin.Set(true)
	<-fc.Added()
	fc.Advance(2 * time.Second)
	require.True(t, out.WaitFor(time.Second, func(f *console.FakeEmitter) bool {
		return len(f.Reports()) == 2
	}))

	calls := sensor.Calls()
	require.Len(t, calls, 2)
	assert.GreaterOrEqual(t, calls[1].Sub(calls[0]), 2*time.Second)

	counts := tracker.Snapshot().Counts
	assert.Equal(t, 2, counts.Motion)
	assert.Equal(t, 2, counts.Reads)
}

// TestIntegrationAwaitLevelModeRetriggers shows the level policy: a line
// held high resolves on every re-arm, paced only by the quiescent wait.
func TestIntegrationAwaitLevelModeRetriggers(t *testing.T) {
	cfg, err := config.Parse([]byte("variant: await\n"))
	require.NoError(t, err)

	fc := clock.NewFake(start)
	pin := gpio.NewFakeLevel(true)
	src := motion.NewAwaitSource(pin, motion.AwaitConfig{Debounce: cfg.DebouncePolicy(), Now: fc.Now, After: fc.After})
	sensor := dht.NewFakeSensor(fc.Now, dht.Result{Reading: dht.Reading{Temperature: 0, Humidity: 30}})
	out := console.NewFakeEmitter()
	loop := sampler.New(src, sensor, out, sampler.Config{Quiescent: cfg.QuiescentInterval(), Now: fc.Now, After: fc.After})

	stop := startTasks(t, loop)
	defer stop()

	for i := 1; i <= 3; i++ {
		<-fc.Added()
		fc.Advance(2 * time.Second)
		require.True(t, out.WaitFor(time.Second, func(f *console.FakeEmitter) bool {
			return len(f.Reports()) == i
		}))
	}

	assert.Equal(t, "DHT Sensor: Temp 32.0°F, Humidity 30.0%", out.Lines()[0])
	calls := sensor.Calls()
	for i := 1; i < len(calls); i++ {
		assert.Equal(t, 2*time.Second, calls[i].Sub(calls[i-1]))
	}
}

// TestIntegrationEventConsumption checks that N firings before M polls
// yield exactly one event.
func TestIntegrationEventConsumption(t *testing.T) {
	for n := 1; n <= 4; n++ {
		for m := 1; m <= 4; m++ {
			t.Run(fmt.Sprintf("fire%d_poll%d", n, m), func(t *testing.T) {
				bank := gpio.NewFakeBank(pinMotion, pinOther)
				src, err := motion.NewInterruptSource(bank, pinMotion, motion.InterruptConfig{})
				require.NoError(t, err)

				for i := 0; i < n; i++ {
					require.NoError(t, bank.Fire(pinMotion))
					require.NoError(t, bank.Fire(pinOther))
				}

				taken := 0
				for i := 0; i < m; i++ {
					if src.Poll() {
						assert.Zero(t, i, "only the first poll may see the event")
						taken++
					}
				}
				assert.Equal(t, 1, taken)
				assert.Equal(t, n, src.Foreign())
			})
		}
	}
}
