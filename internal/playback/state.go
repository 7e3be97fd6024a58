package playback

import "fmt"

// State represents the coarse playback state.
type State int

const (
	// StateEmpty indicates the queue holds no segments.
	StateEmpty State = iota
	// StatePaused indicates segments exist but the sequence is not playing.
	StatePaused
	// StatePlaying indicates the sequence is playing.
	StatePlaying
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StatePaused:
		return "paused"
	case StatePlaying:
		return "playing"
	default:
		return "unknown"
	}
}

// Position is a snapshot of the playback position.
type Position struct {
	Index   int  // selected segment; meaningless when Length is 0
	Playing bool // sequence playing flag
	Length  int  // queue length at the time of the snapshot
}

// State derives the coarse state from the position.
func (p Position) State() State {
	switch {
	case p.Length == 0:
		return StateEmpty
	case p.Playing:
		return StatePlaying
	default:
		return StatePaused
	}
}

// InBounds reports whether the index is valid for the queue length. An empty
// queue is always in bounds.
func (p Position) InBounds() bool {
	if p.Length == 0 {
		return true
	}
	return p.Index >= 0 && p.Index < p.Length
}

func (p Position) String() string {
	return fmt.Sprintf("%s %d/%d", p.State(), p.Index+1, p.Length)
}
