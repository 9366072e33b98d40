//go:build linux

package gpio

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/warthog618/go-gpiocdev"
)

type realLine struct {
	offset  int
	pending atomic.Bool
}

func (l *realLine) Offset() int            { return l.offset }
func (l *realLine) InterruptPending() bool { return l.pending.Load() }
func (l *realLine) ClearInterrupt()        { l.pending.Store(false) }

// RealBank delivers rising edges from actual hardware using the Linux GPIO
// character device. All lines share one request, so gpiocdev calls the
// event handler from a single goroutine for every line.
type RealBank struct {
	chip  *gpiocdev.Chip
	req   *gpiocdev.Lines
	lines map[int]*realLine // read-only after construction

	mu      sync.Mutex
	handler func()
}

// NewRealBank requests the given offsets as inputs with rising-edge detection.
func NewRealBank(chipName string, offsets []int) (*RealBank, error) {
	if len(offsets) == 0 {
		return nil, errors.New("no lines requested")
	}

	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	b := &RealBank{
		chip:  chip,
		lines: make(map[int]*realLine, len(offsets)),
	}
	for _, o := range offsets {
		b.lines[o] = &realLine{offset: o}
	}

	// Pull-down so a disconnected PIR reads as no motion.
	req, err := chip.RequestLines(offsets,
		gpiocdev.AsInput,
		gpiocdev.WithPullDown,
		gpiocdev.WithRisingEdge,
		gpiocdev.WithEventHandler(b.dispatch))
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request lines %v: %w", offsets, err)
	}
	b.req = req

	return b, nil
}

// dispatch is the shared interrupt: it latches the edge on its line and
// runs the installed handler.
func (b *RealBank) dispatch(evt gpiocdev.LineEvent) {
	if l, ok := b.lines[evt.Offset]; ok {
		l.pending.Store(true)
	}

	b.mu.Lock()
	h := b.handler
	b.mu.Unlock()
	if h != nil {
		h()
	}
}

// Line returns the armed line with the given offset.
func (b *RealBank) Line(offset int) (InterruptLine, error) {
	l, ok := b.lines[offset]
	if !ok {
		return nil, fmt.Errorf("line %d not in bank", offset)
	}
	return l, nil
}

// SetHandler installs the shared interrupt handler.
func (b *RealBank) SetHandler(h func()) {
	b.mu.Lock()
	b.handler = h
	b.mu.Unlock()
}

// Close releases GPIO resources.
// Reconfigures lines to input with pull-down (matching Pi boot defaults)
// before closing.
func (b *RealBank) Close() error {
	var errs []error

	if b.req != nil {
		if err := b.req.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure lines: %w", err))
		}
		if err := b.req.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close lines: %w", err))
		}
	}
	if b.chip != nil {
		if err := b.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	return errors.Join(errs...)
}

// RealLevel waits on the motion line level using both-edge events as a
// wakeup and the line value as the source of truth.
type RealLevel struct {
	chip  *gpiocdev.Chip
	line  *gpiocdev.Line
	edges chan struct{}
}

// NewRealLevel requests offset as an input with both-edge detection.
func NewRealLevel(chipName string, offset int) (*RealLevel, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	w := &RealLevel{
		chip:  chip,
		edges: make(chan struct{}, 1),
	}

	line, err := chip.RequestLine(offset,
		gpiocdev.AsInput,
		gpiocdev.WithPullDown,
		gpiocdev.WithBothEdges,
		gpiocdev.WithEventHandler(w.onEdge))
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request motion pin %d: %w", offset, err)
	}
	w.line = line

	return w, nil
}

func (w *RealLevel) onEdge(gpiocdev.LineEvent) {
	select {
	case w.edges <- struct{}{}:
	default:
	}
}

// Value returns the current logic level.
func (w *RealLevel) Value() (bool, error) {
	v, err := w.line.Value()
	if err != nil {
		return false, fmt.Errorf("read motion pin: %w", err)
	}
	return v == 1, nil
}

// WaitLevel blocks until the line reads the wanted level or ctx is done.
func (w *RealLevel) WaitLevel(ctx context.Context, high bool) error {
	for {
		v, err := w.Value()
		if err != nil {
			return err
		}
		if v == high {
			return nil
		}

		// An edge between Value and here stays buffered in w.edges.
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.edges:
		}
	}
}

// Close releases GPIO resources.
func (w *RealLevel) Close() error {
	var errs []error

	if w.line != nil {
		if err := w.line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure motion pin: %w", err))
		}
		if err := w.line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close motion pin: %w", err))
		}
	}
	if w.chip != nil {
		if err := w.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	return errors.Join(errs...)
}
