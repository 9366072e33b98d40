package status

import (
	"encoding/json"
	"time"

	"github.com/sweeney/motion-sensor/internal/logic"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Motion        string       `json:"motion"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	StartTime     string       `json:"start_time"`
	Timestamp     string       `json:"timestamp"`
	Counts        CountsJSON   `json:"counts"`
	Reading       *ReadingJSON `json:"reading,omitempty"`
	ReadError     string       `json:"read_error,omitempty"`
	Config        ConfigJSON   `json:"config"`
}

// CountsJSON is the JSON representation of logic.Counts.
type CountsJSON struct {
	Motion   int `json:"motion"`
	Foreign  int `json:"foreign_interrupts"`
	Reads    int `json:"reads"`
	Failures int `json:"failures"`
}

// ReadingJSON is one converted reading.
type ReadingJSON struct {
	TemperatureF float32 `json:"temperature_f"`
	Humidity     float32 `json:"humidity_percent"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	Variant     string `json:"variant"`
	PinMotion   int    `json:"pin_motion"`
	PinSensor   int    `json:"pin_sensor"`
	Model       string `json:"model"`
	QuiescentMs int64  `json:"quiescent_ms"`
	PollMs      int64  `json:"poll_ms"`
	HeartbeatMs int64  `json:"heartbeat_ms"`
}

func motionString(high *bool) string {
	switch {
	case high == nil:
		return "UNKNOWN"
	case *high:
		return "HIGH"
	default:
		return "LOW"
	}
}

// FormatJSON returns the JSON status for a snapshot plus an optional one-shot
// read outcome (report or readErr, both may be nil).
func FormatJSON(snap Snapshot, report *logic.Report, readErr error) []byte {
	inner := StatusInner{
		Motion:        motionString(snap.MotionHigh),
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		Counts: CountsJSON{
			Motion:   snap.Counts.Motion,
			Foreign:  snap.Counts.Foreign,
			Reads:    snap.Counts.Reads,
			Failures: snap.Counts.Failures,
		},
		Config: ConfigJSON{
			Variant:     snap.Config.Variant,
			PinMotion:   snap.Config.PinMotion,
			PinSensor:   snap.Config.PinSensor,
			Model:       snap.Config.Model,
			QuiescentMs: snap.Config.QuiescentMs,
			PollMs:      snap.Config.PollMs,
			HeartbeatMs: snap.Config.HeartbeatMs,
		},
	}
	if report != nil {
		inner.Reading = &ReadingJSON{TemperatureF: report.TemperatureF, Humidity: report.Humidity}
	}
	if readErr != nil {
		inner.ReadError = readErr.Error()
	}

	data, _ := json.MarshalIndent(StatusJSON{Status: inner}, "", "  ")
	return data
}
