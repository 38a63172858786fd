package matchrun

import (
	"errors"
	"fmt"
	"slices"
)

// State is the lifecycle state of a match run.
type State string

// State constants define the run state machine:
// Idle → Listing → Analyzing → Done | Failed | Cancelled.
const (
	StateIdle      State = "idle"
	StateListing   State = "listing"
	StateAnalyzing State = "analyzing"
	StateDone      State = "done"
	StateFailed    State = "failed"
	StateCancelled State = "cancelled"
)

// ErrInvalidTransition is returned for a state change the state machine forbids.
var ErrInvalidTransition = errors.New("invalid run state transition")

// Failed is reachable only from validation (Idle) or listing.
var transitions = map[State][]State{
	StateIdle:      {StateListing, StateFailed},
	StateListing:   {StateAnalyzing, StateFailed, StateCancelled},
	StateAnalyzing: {StateDone, StateCancelled},
}

// Terminal reports whether no further transitions are possible.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed || s == StateCancelled
}

// canTransition reports whether from → to is allowed.
func canTransition(from, to State) error {
	if slices.Contains(transitions[from], to) {
		return nil
	}
	return fmt.Errorf("%w: %s → %s", ErrInvalidTransition, from, to)
}

// Phase is the human-facing stage reported in progress events.
type Phase string

const (
	PhaseListing   Phase = "listing"
	PhaseFetching  Phase = "fetching"
	PhaseAnalyzing Phase = "analyzing"
	PhaseDone      Phase = "done"
)

// Progress is one progress update. Percent never decreases within a run.
type Progress struct {
	Phase     Phase  `json:"phase"`
	Percent   int    `json:"percent"`
	Status    string `json:"status"`
	Completed int    `json:"completed"`
	Total     int    `json:"total"`
}
