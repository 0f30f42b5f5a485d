package core

import (
	"sync"
)

// SlotState is the state of one action slot
type SlotState int

const (
	SlotIdle SlotState = iota
	SlotValidating
	SlotInFlight
)

func (s SlotState) String() string {
	switch s {
	case SlotIdle:
		return "idle"
	case SlotValidating:
		return "validating"
	case SlotInFlight:
		return "in_flight"
	default:
		return "unknown"
	}
}

// slot tracks a single action. Allowed transitions:
// Idle -> Validating -> InFlight, and any state -> Idle.
type slot struct {
	mu    sync.Mutex
	state SlotState
}

// acquire moves an idle slot into Validating
func (s *slot) acquire() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != SlotIdle {
		return false
	}
	s.state = SlotValidating
	return true
}

// dispatch moves a validating slot into InFlight
func (s *slot) dispatch() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != SlotValidating {
		return false
	}
	s.state = SlotInFlight
	return true
}

// release returns the slot to Idle
func (s *slot) release() {
	s.mu.Lock()
	s.state = SlotIdle
	s.mu.Unlock()
}

func (s *slot) current() SlotState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}
