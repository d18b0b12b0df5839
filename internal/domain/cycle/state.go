package cycle

import "errors"

// ErrCompletedWithoutCycle is returned by State.Validate when the record
// claims completion but names no cycle.
var ErrCompletedWithoutCycle = errors.New("completed flag set without a cycle")

// State is the persisted dedup record.
type State struct {
	// LastCycle is the most recent cycle a start notification was delivered for.
	LastCycle Identity
	// IsCompleted is true once the completion notification for LastCycle was delivered.
	IsCompleted bool
}

// Default returns the state used when nothing was persisted yet.
func Default() *State {
	return new(State)
}

// Validate checks the invariant that completion only refers to a known cycle.
func (s *State) Validate() error {
	if s.LastCycle.IsZero() && s.IsCompleted {
		return ErrCompletedWithoutCycle
	}

	return nil
}

// Clone returns a copy of the state.
func (s *State) Clone() *State {
	cloned := *s

	return &cloned
}

// Started returns the state after a start notification for id was delivered.
func Started(id Identity) *State {
	return &State{
		LastCycle:   id,
		IsCompleted: false,
	}
}

// Completed returns the state after the completion notification was delivered.
func (s *State) Completed() *State {
	return &State{
		LastCycle:   s.LastCycle,
		IsCompleted: true,
	}
}
