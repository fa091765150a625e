package media

import "fmt"

// State is the lifecycle state of an element or pipeline.
//
// States are ordered: Null < Ready < Paused < Playing. Transitions always
// move one step at a time; a pipeline asked to go from Null to Playing walks
// Null → Ready → Paused → Playing and reports every step on its bus.
type State int

const (
	// StateVoidPending means no transition is pending.
	StateVoidPending State = iota
	// StateNull is the initial state; no resources are allocated.
	StateNull
	// StateReady means resources are allocated but no data flows.
	StateReady
	// StatePaused means the pipeline is prerolled and pads are active.
	StatePaused
	// StatePlaying means data flows.
	StatePlaying
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case StateVoidPending:
		return "void-pending"
	case StateNull:
		return "null"
	case StateReady:
		return "ready"
	case StatePaused:
		return "paused"
	case StatePlaying:
		return "playing"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// StateChange is a single step between two adjacent states.
type StateChange struct {
	From State
	To   State
}

// Upward reports whether the change moves towards Playing.
func (c StateChange) Upward() bool { return c.To > c.From }

func (c StateChange) String() string {
	return c.From.String() + "->" + c.To.String()
}

// steps returns the ordered single-step transitions from one state to another.
func steps(from, to State) []StateChange {
	var out []StateChange
	for cur := from; cur != to; {
		next := cur + 1
		if to < cur {
			next = cur - 1
		}
		out = append(out, StateChange{From: cur, To: next})
		cur = next
	}
	return out
}
