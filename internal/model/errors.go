package model

import "fmt"

// InvariantError reports a hierarchy that breaks the single-root,
// single-parent shape the rest of the program relies on.
type InvariantError struct {
	ID     int64
	Reason string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("invalid hierarchy at employee %d: %s", e.ID, e.Reason)
}
