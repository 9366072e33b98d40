package gpio

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

// FakeLine is an interrupt line driven by FakeBank.Fire.
type FakeLine struct {
	offset  int
	pending atomic.Bool

	// Clears counts ClearInterrupt calls.
	Clears atomic.Int32
}

// Offset returns the line offset.
func (l *FakeLine) Offset() int {
	return l.offset
}

// InterruptPending reports whether an edge is latched.
func (l *FakeLine) InterruptPending() bool {
	return l.pending.Load()
}

// ClearInterrupt clears the latched edge.
func (l *FakeLine) ClearInterrupt() {
	l.pending.Store(false)
	l.Clears.Add(1)
}

// FakeBank is a test double for a shared GPIO interrupt.
type FakeBank struct {
	mu      sync.Mutex
	lines   map[int]*FakeLine
	handler func()

	// dispatch serializes handler runs, as a single interrupt vector does.
	dispatch sync.Mutex

	// Closed tracks if Close was called.
	Closed bool
}

// NewFakeBank creates a bank owning the given line offsets.
func NewFakeBank(offsets ...int) *FakeBank {
	b := &FakeBank{lines: make(map[int]*FakeLine, len(offsets))}
	for _, o := range offsets {
		b.lines[o] = &FakeLine{offset: o}
	}
	return b
}

// Line returns the fake line with the given offset.
func (b *FakeBank) Line(offset int) (InterruptLine, error) {
	l, err := b.FakeLine(offset)
	if err != nil {
		return nil, err
	}
	return l, nil
}

// FakeLine returns the concrete fake line so tests can inspect it.
func (b *FakeBank) FakeLine(offset int) (*FakeLine, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	l, ok := b.lines[offset]
	if !ok {
		return nil, fmt.Errorf("line %d not in bank", offset)
	}
	return l, nil
}

// SetHandler installs the shared interrupt handler.
func (b *FakeBank) SetHandler(h func()) {
	b.mu.Lock()
	b.handler = h
	b.mu.Unlock()
}

// Fire latches a rising edge on offset and runs the shared handler on the
// caller's goroutine, the way an interrupt preempts whatever was running.
func (b *FakeBank) Fire(offset int) error {
	l, err := b.FakeLine(offset)
	if err != nil {
		return err
	}

	b.dispatch.Lock()
	defer b.dispatch.Unlock()

	l.pending.Store(true)

	b.mu.Lock()
	h := b.handler
	b.mu.Unlock()
	if h != nil {
		h()
	}
	return nil
}

// Close marks the bank as closed.
func (b *FakeBank) Close() error {
	b.mu.Lock()
	b.Closed = true
	b.mu.Unlock()
	return nil
}

// FakeLevel is a test double that returns scripted line levels.
type FakeLevel struct {
	mu sync.Mutex

	// samples contains scripted levels. Each read consumes the next one;
	// once exhausted the last sample repeats.
	samples []bool
	index   int
	changed chan struct{}

	// readError, if set, is returned by Value and WaitLevel.
	readError error

	// Reads counts level reads.
	Reads int

	// Closed tracks if Close was called.
	Closed bool
}

// NewFakeLevel creates a FakeLevel with the given samples.
func NewFakeLevel(samples ...bool) *FakeLevel {
	return &FakeLevel{
		samples: samples,
		changed: make(chan struct{}),
	}
}

// Set appends a level and wakes any waiter, like an edge on real hardware.
func (f *FakeLevel) Set(high bool) {
	f.mu.Lock()
	f.samples = append(f.samples, high)
	close(f.changed)
	f.changed = make(chan struct{})
	f.mu.Unlock()
}

// SetReadError makes subsequent reads fail with err.
func (f *FakeLevel) SetReadError(err error) {
	f.mu.Lock()
	f.readError = err
	f.mu.Unlock()
}

// next returns the next scripted sample and a channel closed on the next
// Set. exhausted is true when the returned value is the repeated last one.
func (f *FakeLevel) next() (v, exhausted bool, changed <-chan struct{}, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.readError != nil {
		return false, false, nil, f.readError
	}
	f.Reads++
	changed = f.changed

	if f.index < len(f.samples) {
		v = f.samples[f.index]
		f.index++
		return v, false, changed, nil
	}
	if len(f.samples) == 0 {
		return false, true, changed, nil
	}
	return f.samples[len(f.samples)-1], true, changed, nil
}

// Value returns the next scripted sample.
func (f *FakeLevel) Value() (bool, error) {
	f.mu.Lock()
	empty := len(f.samples) == 0
	f.mu.Unlock()
	if empty {
		return false, errors.New("no samples configured")
	}
	v, _, _, err := f.next()
	return v, err
}

// WaitLevel consumes samples until one matches high. When the script is
// exhausted on a non-matching level it blocks until Set or ctx is done.
func (f *FakeLevel) WaitLevel(ctx context.Context, high bool) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		v, exhausted, changed, err := f.next()
		if err != nil {
			return err
		}
		if v == high {
			return nil
		}
		if exhausted {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-changed:
			}
		}
	}
}

// Close marks the waiter as closed.
func (f *FakeLevel) Close() error {
	f.mu.Lock()
	f.Closed = true
	f.mu.Unlock()
	return nil
}
