// Package gpio provides motion-line access with hardware abstraction.
// The real implementation uses the Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

import "context"

// InterruptLine is a line armed for rising-edge interrupts.
// Its pending bit latches an edge until ClearInterrupt is called.
type InterruptLine interface {
	// Offset returns the line offset on its chip (BCM number on a Pi).
	Offset() int

	// InterruptPending reports whether an edge is latched on this line.
	InterruptPending() bool

	// ClearInterrupt clears the latched edge.
	ClearInterrupt()
}

// InterruptBank delivers one shared interrupt for every line it owns.
// The handler runs on the bank's dispatch goroutine for an edge on any line,
// so it has to work out for itself which line raised it.
type InterruptBank interface {
	// Line returns the armed line with the given offset.
	Line(offset int) (InterruptLine, error)

	// SetHandler installs the shared interrupt handler. Edges that arrive
	// before a handler is installed stay latched but are not dispatched.
	SetHandler(h func())

	// Close releases GPIO resources.
	Close() error
}

// LevelWaiter suspends the caller until a line reaches a logic level.
type LevelWaiter interface {
	// Value returns the current logic level (true = high).
	Value() (bool, error)

	// WaitLevel blocks until the line reads high (or low), or ctx is done.
	// It returns immediately if the line is already at that level.
	WaitLevel(ctx context.Context, high bool) error

	// Close releases GPIO resources.
	Close() error
}

// Default pin assignment (BCM numbering) and chip.
const (
	DefaultChip      = "gpiochip0"
	DefaultPinMotion = 17 // HC-SR501 PIR output
	DefaultPinSensor = 4  // DHT data line
)
