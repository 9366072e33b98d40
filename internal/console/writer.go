package console

import (
	"fmt"
	"io"
	"sync"

	"github.com/sweeney/motion-sensor/internal/logic"
)

// Writer emits lines to an io.Writer such as os.Stdout. It is safe for
// concurrent use by the sample loop and the heartbeat.
type Writer struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriter creates a Writer on w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Reading writes a formatted reading line.
func (c *Writer) Reading(r logic.Report) error {
	return c.line(FormatReading(r))
}

// Failure writes a formatted failure line.
func (c *Writer) Failure(f logic.Failure) error {
	return c.line(FormatFailure(f))
}

// Heartbeat writes a formatted liveness line.
func (c *Writer) Heartbeat(h logic.HeartbeatData) error {
	return c.line(FormatHeartbeat(h))
}

func (c *Writer) line(s string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := fmt.Fprintln(c.w, s); err != nil {
		return fmt.Errorf("write console: %w", err)
	}
	return nil
}
