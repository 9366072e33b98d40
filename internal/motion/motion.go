// Package motion turns PIR line activity into motion events for the sample
// loop. Two sources implement Source: InterruptSource latches edges from a
// shared GPIO interrupt into an EventFlag, AwaitSource suspends on the line
// level.
package motion

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Source names.
const (
	SourceInterrupt = "interrupt"
	SourceAwait     = "await"
)

// Event is one recognized motion occurrence.
type Event struct {
	ID     uuid.UUID
	At     time.Time
	Source string
}

// Source produces motion events. Next blocks until the next event or until
// ctx is done, in which case it returns ctx.Err().
type Source interface {
	Next(ctx context.Context) (Event, error)
}

func newEvent(source string, at time.Time) Event {
	return Event{ID: uuid.New(), At: at, Source: source}
}

// sleep waits for d on after, or returns early with ctx.Err().
func sleep(ctx context.Context, after func(time.Duration) <-chan time.Time, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-after(d):
		return nil
	}
}
