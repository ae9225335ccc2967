package domain

import "fmt"

// State is the submission state of a quiz session.
type State int

const (
	StateNotStarted State = iota
	StateInProgress
	StateAwaitingConfirmation
	StateSubmitting
	StateSubmitted
	StateFailed
)

var stateNames = map[State]string{
	StateNotStarted:           "not_started",
	StateInProgress:           "in_progress",
	StateAwaitingConfirmation: "awaiting_confirmation",
	StateSubmitting:           "submitting",
	StateSubmitted:            "submitted",
	StateFailed:               "failed",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int(s))
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Live reports whether a session in this state still holds the quiz, i.e. it
// has started and has not reached the terminal state.
func (s State) Live() bool {
	return s != StateNotStarted && s != StateSubmitted
}

func (s *State) UnmarshalText(b []byte) error {
	for st, name := range stateNames {
		if name == string(b) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown state %q", b)
}
