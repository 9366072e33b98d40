//go:build !linux

package gpio

import (
	"context"
	"errors"
)

var errUnsupported = errors.New("gpio: not supported on this platform (requires Linux)")

// RealBank is not available on non-Linux platforms.
type RealBank struct{}

// NewRealBank returns an error on non-Linux platforms.
func NewRealBank(chipName string, offsets []int) (*RealBank, error) {
	return nil, errUnsupported
}

// Line is not implemented on non-Linux platforms.
func (b *RealBank) Line(offset int) (InterruptLine, error) {
	return nil, errUnsupported
}

// SetHandler is not implemented on non-Linux platforms.
func (b *RealBank) SetHandler(h func()) {}

// Close is not implemented on non-Linux platforms.
func (b *RealBank) Close() error {
	return nil
}

// RealLevel is not available on non-Linux platforms.
type RealLevel struct{}

// NewRealLevel returns an error on non-Linux platforms.
func NewRealLevel(chipName string, offset int) (*RealLevel, error) {
	return nil, errUnsupported
}

// Value is not implemented on non-Linux platforms.
func (w *RealLevel) Value() (bool, error) {
	return false, errUnsupported
}

// WaitLevel is not implemented on non-Linux platforms.
func (w *RealLevel) WaitLevel(ctx context.Context, high bool) error {
	return errUnsupported
}

// Close is not implemented on non-Linux platforms.
func (w *RealLevel) Close() error {
	return nil
}
