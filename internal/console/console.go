// Package console emits readings and liveness lines on a line-oriented sink.
package console

import (
	"fmt"
	"time"

	"github.com/sweeney/motion-sensor/internal/logic"
)

// Emitter writes sample-loop output.
type Emitter interface {
	// Reading emits a converted measurement.
	Reading(r logic.Report) error

	// Failure emits a failed read. The loop never retries.
	Failure(f logic.Failure) error

	// Heartbeat emits a liveness line.
	Heartbeat(h logic.HeartbeatData) error
}

// FormatReading renders a report, e.g. "DHT Sensor: Temp 68.0°F, Humidity 45.0%".
func FormatReading(r logic.Report) string {
	return fmt.Sprintf("DHT Sensor: Temp %.1f°F, Humidity %.1f%%", r.TemperatureF, r.Humidity)
}

// FormatFailure renders a failed read.
func FormatFailure(f logic.Failure) string {
	return fmt.Sprintf("DHT Sensor: read failed: %v", f.Err)
}

// FormatHeartbeat renders a liveness line.
func FormatHeartbeat(h logic.HeartbeatData) string {
	return fmt.Sprintf("heartbeat: uptime=%v motion=%d reads=%d failures=%d",
		h.Uptime.Truncate(time.Second), h.Counts.Motion, h.Counts.Reads, h.Counts.Failures)
}
