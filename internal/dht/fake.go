package dht

import (
	"fmt"
	"sync"
	"time"
)

// Result is one scripted outcome of FakeSensor.Read.
type Result struct {
	Reading Reading
	Err     error
}

// FakeSensor is a test double that returns scripted results and records
// when it was read.
type FakeSensor struct {
	mu      sync.Mutex
	results []Result
	index   int
	calls   []time.Time
	now     func() time.Time
	readCh  chan struct{}
}

// NewFakeSensor creates a FakeSensor. Each Read consumes the next result;
// once exhausted the last result repeats. now stamps each call and may be
// nil, in which case time.Now is used.
func NewFakeSensor(now func() time.Time, results ...Result) *FakeSensor {
	if now == nil {
		now = time.Now
	}
	return &FakeSensor{
		results: results,
		now:     now,
		readCh:  make(chan struct{}, 64),
	}
}

// Read returns the next scripted result.
func (f *FakeSensor) Read() (Reading, error) {
	f.mu.Lock()
	defer func() {
		f.mu.Unlock()
		select {
		case f.readCh <- struct{}{}:
		default:
		}
	}()

	f.calls = append(f.calls, f.now())

	if len(f.results) == 0 {
		return Reading{}, fmt.Errorf("%w: no results configured", ErrBus)
	}

	r := f.results[f.index]
	if f.index < len(f.results)-1 {
		f.index++
	}
	return r.Reading, r.Err
}

// Calls returns the time of every Read so far.
func (f *FakeSensor) Calls() []time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]time.Time(nil), f.calls...)
}

// Reads returns a channel that receives once per Read.
func (f *FakeSensor) Reads() <-chan struct{} {
	return f.readCh
}
