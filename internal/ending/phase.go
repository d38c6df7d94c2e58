// Package ending runs the three-phase wind-down that closes a broadcast.
package ending

import "sync/atomic"

// Phase is the current position in the wind-down sequence. Phases only
// move forward.
type Phase int32

const (
	PhaseNone Phase = iota
	PhaseWindDown
	PhaseEndingAnnounce
	PhaseFinalGoodbye
	PhaseTerminated
)

func (p Phase) String() string {
	switch p {
	case PhaseWindDown:
		return "wind_down"
	case PhaseEndingAnnounce:
		return "ending_announce"
	case PhaseFinalGoodbye:
		return "final_goodbye"
	case PhaseTerminated:
		return "terminated"
	default:
		return ""
	}
}

// PhaseHandle is the shared, lock-free view of the ending phase. One
// handle is created at startup and passed to every component that needs
// it; the broadcast loop reads it each cycle while the manager advances
// it.
type PhaseHandle struct {
	v atomic.Int32
}

func NewPhaseHandle() *PhaseHandle {
	return &PhaseHandle{}
}

func (h *PhaseHandle) Phase() Phase {
	return Phase(h.v.Load())
}

// Set advances the phase. Attempts to move backward are ignored, so a
// late or duplicate trigger can never rewind the sequence.
func (h *PhaseHandle) Set(p Phase) {
	for {
		cur := h.v.Load()
		if int32(p) <= cur {
			return
		}
		if h.v.CompareAndSwap(cur, int32(p)) {
			return
		}
	}
}

// Ending reports whether the wind-down has begun.
func (h *PhaseHandle) Ending() bool {
	return h.Phase() != PhaseNone
}
