package session

import "fmt"

// InvalidTransitionError reports a state-machine operation attempted from a
// state that does not permit it. Invalid transitions are explicit failures,
// never silent no-ops, so the session history stays auditable.
type InvalidTransitionError struct {
	Entity string
	ID     string
	From   string
	Op     string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("%s %s: cannot %s from %s", e.Entity, e.ID, e.Op, e.From)
}
