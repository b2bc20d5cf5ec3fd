package guard

import (
	"errors"
	"fmt"
)

// State is the state of a guard check.
type State int

const (
	// Resolving is the initial state of every check.
	Resolving State = iota
	// Authorized lets the protected handler run.
	Authorized
	// Unauthorized redirects to the login page.
	Unauthorized
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case Resolving:
		return "resolving"
	case Authorized:
		return "authorized"
	case Unauthorized:
		return "unauthorized"
	default:
		return "unknown"
	}
}

// Terminal reports whether no transition leaves s.
func (s State) Terminal() bool {
	return s == Authorized || s == Unauthorized
}

// ErrIllegalTransition is returned when leaving a terminal state.
var ErrIllegalTransition = errors.New("illegal guard transition")

// machine tracks the state of one check. Only Resolving may transition.
type machine struct {
	state State
}

func (m *machine) transition(to State) error {
	if m.state != Resolving || !to.Terminal() {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, m.state, to)
	}

	m.state = to
	return nil
}
