// Package dht reads DHT11/DHT22 single-wire temperature/humidity sensors.
//
// A read drives the start pulse, records the sensor's reply as edge
// timestamps and decodes the high-pulse widths into a 40-bit frame:
// humidity (2 bytes), temperature (2 bytes), checksum (1 byte).
package dht

import (
	"errors"
	"fmt"
	"time"
)

// Read failures. Concrete errors wrap one of these; test with errors.Is.
var (
	ErrTiming   = errors.New("dht: timing error")
	ErrChecksum = errors.New("dht: checksum mismatch")
	ErrBus      = errors.New("dht: bus error")
)

// Reading is one measurement.
type Reading struct {
	Temperature float32 // degrees Celsius
	Humidity    float32 // relative humidity, percent
}

// Sensor is a blocking temperature/humidity source.
type Sensor interface {
	// Read performs one measurement. It never retries.
	Read() (Reading, error)
}

// Model selects the frame layout and start-pulse length.
type Model string

const (
	DHT11 Model = "dht11"
	DHT22 Model = "dht22"
)

// ParseModel validates a model name.
func ParseModel(s string) (Model, error) {
	switch m := Model(s); m {
	case DHT11, DHT22:
		return m, nil
	default:
		return "", fmt.Errorf("unknown sensor model %q (want dht11 or dht22)", s)
	}
}

// StartHold is how long the host holds the line low to request a reading.
func (m Model) StartHold() time.Duration {
	if m == DHT11 {
		return 18 * time.Millisecond
	}
	return 1100 * time.Microsecond
}

// MinInterval is the sensor's measurement cycle. Reading faster returns
// stale or corrupt data.
func (m Model) MinInterval() time.Duration {
	if m == DHT11 {
		return time.Second
	}
	return 2 * time.Second
}
