package logic

import (
	"fmt"
	"time"
)

// DebounceMode selects how a motion level becomes a trigger.
type DebounceMode string

const (
	// DebounceLevel accepts any high sample. A line held high triggers again
	// on every re-arm.
	DebounceLevel DebounceMode = "level"
	// DebounceEdge requires the line to be seen low before the next trigger.
	DebounceEdge DebounceMode = "edge"
)

// ParseDebounceMode validates a mode string.
func ParseDebounceMode(s string) (DebounceMode, error) {
	switch m := DebounceMode(s); m {
	case DebounceLevel, DebounceEdge:
		return m, nil
	default:
		return "", fmt.Errorf("unknown debounce mode %q (want level or edge)", s)
	}
}

// Debounce is the trigger policy of the await variant.
type Debounce struct {
	Mode DebounceMode
	// Holdoff is the minimum time between two accepted triggers.
	Holdoff time.Duration
}

// Gate tracks level samples and decides which of them are new triggers.
type Gate struct {
	policy   Debounce
	fired    bool
	sawLow   bool
	lastFire time.Time
}

// NewGate creates a gate with the given policy. An empty mode means level.
func NewGate(policy Debounce) *Gate {
	if policy.Mode == "" {
		policy.Mode = DebounceLevel
	}
	return &Gate{policy: policy}
}

// Observe records a level sample and reports whether it is a new trigger.
func (g *Gate) Observe(high bool, now time.Time) bool {
	if !high {
		g.sawLow = true
		return false
	}

	if g.fired {
		if g.policy.Mode == DebounceEdge && !g.sawLow {
			return false
		}
		if now.Sub(g.lastFire) < g.policy.Holdoff {
			return false
		}
	}

	g.fired = true
	g.sawLow = false
	g.lastFire = now
	return true
}

// NeedsLow reports whether the next trigger requires a low sample first.
func (g *Gate) NeedsLow() bool {
	return g.policy.Mode == DebounceEdge && g.fired && !g.sawLow
}

// HoldoffRemaining returns how long until a high sample can trigger again.
// Zero means a trigger is possible now.
func (g *Gate) HoldoffRemaining(now time.Time) time.Duration {
	if !g.fired {
		return 0
	}
	left := g.policy.Holdoff - now.Sub(g.lastFire)
	if left < 0 {
		return 0
	}
	return left
}

// Policy returns the gate's debounce policy.
func (g *Gate) Policy() Debounce {
	return g.policy
}
