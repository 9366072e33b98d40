// Package clock provides a controllable stand-in for time.Now and
// time.After so that waiting loops can be tested without sleeping.
package clock

import (
	"sync"
	"time"
)

type waiter struct {
	at time.Time
	ch chan time.Time
}

// Fake is a manually driven clock.
type Fake struct {
	mu      sync.Mutex
	now     time.Time
	auto    bool
	waiters []waiter
	afters  []time.Duration
	added   chan struct{}
}

// NewFake creates a clock at start. After channels fire only on Advance.
func NewFake(start time.Time) *Fake {
	return &Fake{now: start, added: make(chan struct{}, 64)}
}

// NewAutoFake creates a clock at start whose After advances the clock by
// the requested duration and fires at once.
func NewAutoFake(start time.Time) *Fake {
	f := NewFake(start)
	f.auto = true
	return f
}

// Now returns the clock's current time.
func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// After returns a channel that receives the clock time once d has passed.
func (f *Fake) After(d time.Duration) <-chan time.Time {
	ch := make(chan time.Time, 1)

	f.mu.Lock()
	f.afters = append(f.afters, d)
	if f.auto {
		f.now = f.now.Add(d)
		ch <- f.now
		f.mu.Unlock()
		return ch
	}
	f.waiters = append(f.waiters, waiter{at: f.now.Add(d), ch: ch})
	f.mu.Unlock()

	select {
	case f.added <- struct{}{}:
	default:
	}
	return ch
}

// Advance moves the clock forward and fires every waiter that is due.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.now = f.now.Add(d)
	kept := f.waiters[:0]
	for _, w := range f.waiters {
		if !w.at.After(f.now) {
			w.ch <- f.now
			continue
		}
		kept = append(kept, w)
	}
	f.waiters = kept
}

// Afters returns every duration passed to After so far.
func (f *Fake) Afters() []time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]time.Duration(nil), f.afters...)
}

// Waiters returns how many After channels have not fired yet.
func (f *Fake) Waiters() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.waiters)
}

// Added receives once per After call on a manual clock, so a test can wait
// for the code under test to start waiting.
func (f *Fake) Added() <-chan struct{} {
	return f.added
}
