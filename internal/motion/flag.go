package motion

import "sync"

// Section is the one critical section shared by the interrupt handler and
// the sample loop. Everything it protects is touched only inside With.
type Section struct {
	mu sync.Mutex
}

// CS proves the holder is inside Section.With. It is valid only for the
// duration of the callback and must not be retained.
type CS struct {
	_ [0]func()
}

// With runs fn with the section held. fn must be short and must not block:
// flag and pending-bit updates only, never a sensor read.
func (s *Section) With(fn func(cs CS)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(CS{})
}

// EventFlag is a motion latch. The producer sets it; exactly one consumer
// takes it, so a single physical trigger is never counted twice.
type EventFlag struct {
	pending bool
}

// Set latches a motion event.
func (f *EventFlag) Set(CS) {
	f.pending = true
}

// TakeIfPending clears the latch and reports whether it was set. The read
// and the clear happen under the same CS, so no set can slip in between.
func (f *EventFlag) TakeIfPending(CS) bool {
	if !f.pending {
		return false
	}
	f.pending = false
	return true
}
