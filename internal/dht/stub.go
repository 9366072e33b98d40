//go:build !linux

package dht

import "fmt"

// RealSensor is not available on non-Linux platforms.
type RealSensor struct{}

// NewRealSensor returns an error on non-Linux platforms.
func NewRealSensor(chipName string, offset int, model Model) (*RealSensor, error) {
	return nil, fmt.Errorf("%w: not supported on this platform (requires Linux)", ErrBus)
}

// Read is not implemented on non-Linux platforms.
func (s *RealSensor) Read() (Reading, error) {
	return Reading{}, fmt.Errorf("%w: not supported", ErrBus)
}

// Close is not implemented on non-Linux platforms.
func (s *RealSensor) Close() error {
	return nil
}
