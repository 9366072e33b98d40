// Package logic contains the pure decision logic of the motion sensor.
// This package has NO external dependencies (no GPIO, console, OS, or time.Sleep).
// Time is always injectable via time.Time parameters.
package logic

import "time"

// Reading is one temperature/humidity measurement in sensor units.
type Reading struct {
	TemperatureC float32 // degrees Celsius
	Humidity     float32 // relative humidity, percent
}

// Report is a converted reading ready to be emitted.
type Report struct {
	EventID      string
	Timestamp    time.Time
	TemperatureF float32
	Humidity     float32
}

// Failure describes a sensor read that did not produce a reading.
type Failure struct {
	EventID   string
	Timestamp time.Time
	Err       error
}

// Counts tracks what the daemon has seen since startup.
type Counts struct {
	Motion   int // motion events handed to the sample loop
	Foreign  int // shared interrupts raised by other lines
	Reads    int // successful sensor reads
	Failures int // failed sensor reads
}

// HeartbeatData contains information for a liveness message.
type HeartbeatData struct {
	Timestamp time.Time
	Uptime    time.Duration
	Counts    Counts
}

// NewReport converts a reading taken for the given event.
func NewReport(eventID string, at time.Time, r Reading) Report {
	return Report{
		EventID:      eventID,
		Timestamp:    at,
		TemperatureF: CelsiusToFahrenheit(r.TemperatureC),
		Humidity:     r.Humidity,
	}
}

// CelsiusToFahrenheit converts c to degrees Fahrenheit.
func CelsiusToFahrenheit(c float32) float32 {
	return c*9/5 + 32
}
