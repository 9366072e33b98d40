package dht

import (
	"fmt"
	"time"
)

const (
	frameBits = 40

	// A data bit's high period is ~27us for 0 and ~70us for 1.
	bitThreshold = 50 * time.Microsecond
	maxBitWidth  = 100 * time.Microsecond

	// eventBufferSize holds every edge of one read: the host start pulse,
	// the response preamble and 40 bits. The kernel default of 16 per line
	// would drop most of the frame if the handler falls behind.
	eventBufferSize = 2 * (frameBits + 2)
)

// Edge is one level transition on the data line.
type Edge struct {
	Rising bool
	At     time.Duration // monotonic timestamp
}

// HighPulses returns the widths of the complete high periods in edges.
// A rise without a following fall is dropped.
func HighPulses(edges []Edge) []time.Duration {
	var (
		out  []time.Duration
		rise time.Duration
		high bool
	)
	for _, e := range edges {
		if e.Rising {
			rise = e.At
			high = true
			continue
		}
		if high {
			out = append(out, e.At-rise)
			high = false
		}
	}
	return out
}

// Decode turns high-pulse widths into a reading. The last 40 pulses are the
// data bits, anything before them is the sensor's response preamble.
func Decode(model Model, pulses []time.Duration) (Reading, error) {
	if len(pulses) < frameBits {
		return Reading{}, fmt.Errorf("%w: got %d bits, want %d", ErrTiming, len(pulses), frameBits)
	}

	var frame [5]byte
	for i, w := range pulses[len(pulses)-frameBits:] {
		if w > maxBitWidth {
			return Reading{}, fmt.Errorf("%w: bit %d high for %v", ErrTiming, i, w)
		}
		frame[i/8] <<= 1
		if w > bitThreshold {
			frame[i/8] |= 1
		}
	}

	return DecodeFrame(model, frame)
}

// DecodeFrame checks the checksum and converts a raw 5-byte frame.
func DecodeFrame(model Model, f [5]byte) (Reading, error) {
	if sum := f[0] + f[1] + f[2] + f[3]; sum != f[4] {
		return Reading{}, fmt.Errorf("%w: got %#02x, want %#02x", ErrChecksum, f[4], sum)
	}

	var r Reading
	switch model {
	case DHT11:
		r.Humidity = float32(f[0]) + float32(f[1])/10
		r.Temperature = float32(f[2]) + float32(f[3]&0x7f)/10
		if f[3]&0x80 != 0 {
			r.Temperature = -r.Temperature
		}
	default:
		r.Humidity = float32(uint16(f[0])<<8|uint16(f[1])) / 10
		r.Temperature = float32(uint16(f[2]&0x7f)<<8|uint16(f[3])) / 10
		if f[2]&0x80 != 0 {
			r.Temperature = -r.Temperature
		}
	}

	if r.Humidity > 100 {
		return Reading{}, fmt.Errorf("%w: corrupt payload, humidity %.1f%% out of range", ErrBus, r.Humidity)
	}
	return r, nil
}
