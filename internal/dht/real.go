//go:build linux

package dht

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/warthog618/go-gpiocdev"
)

// captureWindow covers the response preamble plus 40 bits at worst-case
// timing (~5ms) with margin.
const captureWindow = 8 * time.Millisecond

// RealSensor reads a DHT sensor through the Linux GPIO character device.
// The reply is captured as kernel-timestamped edge events, so decoding does
// not depend on userspace scheduling latency.
type RealSensor struct {
	chip  *gpiocdev.Chip
	line  *gpiocdev.Line
	model Model

	mu      sync.Mutex
	capture bool
	edges   []Edge
}

// NewRealSensor requests the data line as an open-drain output, idle high.
func NewRealSensor(chipName string, offset int, model Model) (*RealSensor, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	s := &RealSensor{
		chip:  chip,
		model: model,
		edges: make([]Edge, 0, eventBufferSize),
	}

	line, err := chip.RequestLine(offset,
		gpiocdev.AsOutput(1),
		gpiocdev.AsOpenDrain,
		gpiocdev.WithEventBufferSize(eventBufferSize),
		gpiocdev.WithEventHandler(s.onEdge))
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request sensor pin %d: %w", offset, err)
	}
	s.line = line

	return s, nil
}

func (s *RealSensor) onEdge(evt gpiocdev.LineEvent) {
	s.mu.Lock()
	if s.capture {
		s.edges = append(s.edges, Edge{
			Rising: evt.Type == gpiocdev.LineEventRisingEdge,
			At:     evt.Timestamp,
		})
	}
	s.mu.Unlock()
}

// Read performs one measurement. It blocks for roughly StartHold plus the
// capture window.
func (s *RealSensor) Read() (Reading, error) {
	s.mu.Lock()
	s.edges = s.edges[:0]
	s.capture = true
	s.mu.Unlock()

	if err := s.line.SetValue(0); err != nil {
		s.stopCapture()
		return Reading{}, fmt.Errorf("%w: start pulse: %v", ErrBus, err)
	}
	time.Sleep(s.model.StartHold())

	// Release the line and listen for the reply.
	if err := s.line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullUp, gpiocdev.WithBothEdges); err != nil {
		s.stopCapture()
		return Reading{}, fmt.Errorf("%w: switch to input: %v", ErrBus, err)
	}
	time.Sleep(captureWindow)

	edges := s.stopCapture()

	if err := s.line.Reconfigure(gpiocdev.AsOutput(1), gpiocdev.AsOpenDrain); err != nil {
		return Reading{}, fmt.Errorf("%w: switch to output: %v", ErrBus, err)
	}

	return Decode(s.model, HighPulses(edges))
}

func (s *RealSensor) stopCapture() []Edge {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.capture = false
	return append([]Edge(nil), s.edges...)
}

// Close releases GPIO resources.
func (s *RealSensor) Close() error {
	var errs []error

	if s.line != nil {
		if err := s.line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close sensor pin: %w", err))
		}
	}
	if s.chip != nil {
		if err := s.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	return errors.Join(errs...)
}
