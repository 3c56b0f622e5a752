// Package dnd models the drag-and-drop interaction on org chart cards as an
// explicit state machine, independent of how the UI delivers pointer or key
// events.
//
// A card plays two roles. As a drag source it moves idle -> dragging -> idle.
// As a drop target it accepts one item type (an employee), checks the move and
// emits a Request when the move is legal.
package dnd

import (
	"errors"

	"orgtree/internal/model"
	"orgtree/internal/reparent"
)

// State of the drag role.
type State int

const (
	StateIdle State = iota
	StateDragging
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDragging:
		return "dragging"
	default:
		return "unknown"
	}
}

// ErrDragInProgress is returned when a drag starts while another is active.
var ErrDragInProgress = errors.New("dnd: a drag is already in progress")

// Request asks the store to make ManagerID the manager of EmployeeID.
type Request struct {
	EmployeeID int64
	ManagerID  int64
}

// Outcome describes how a drop ended.
type Outcome struct {
	Request Request
	Verdict reparent.Verdict
	// Emitted is true when Request should be submitted.
	Emitted bool
}

// Session tracks the single active drag. The zero value is an idle session.
//
// A Session is meant to be driven from one event loop and is not safe for
// concurrent use.
type Session struct {
	state   State
	dragged model.Employee

	// OnTransition, when set, is called after every state change.
	OnTransition func(from, to State)
}

// State returns the current drag state.
func (s *Session) State() State { return s.state }

// Dragging returns the employee being dragged.
func (s *Session) Dragging() (model.Employee, bool) {
	if s.state != StateDragging {
		return model.Employee{}, false
	}
	return s.dragged, true
}

// IsDragged reports whether the card with the given id is being dragged.
// Renderers use it to draw that card with reduced intensity.
func (s *Session) IsDragged(id int64) bool {
	return s.state == StateDragging && s.dragged.ID == id
}

// Begin picks up e. The full node is captured so the drop target knows the
// dragged identity and current manager without another lookup.
func (s *Session) Begin(e model.Employee) error {
	if s.state == StateDragging {
		return ErrDragInProgress
	}
	s.dragged = e.Leaf()
	s.transition(StateDragging)
	return nil
}

// Refresh replaces the captured node with e when e is the card being dragged,
// so drop checks use the tree currently on screen. It reports whether the
// node was replaced.
func (s *Session) Refresh(e model.Employee) bool {
	if s.state != StateDragging || s.dragged.ID != e.ID {
		return false
	}
	s.dragged = e.Leaf()
	return true
}

// Cancel ends the drag without emitting a request. Cancelling an idle session
// does nothing.
func (s *Session) Cancel() {
	if s.state != StateDragging {
		return
	}
	s.dragged = model.Employee{}
	s.transition(StateIdle)
}

// Drop releases the dragged card over target and returns the request to
// submit, if the move is legal. Dropping while idle returns ok=false.
func (s *Session) Drop(target model.Employee) (Request, bool) {
	out := s.DropOutcome(target)
	return out.Request, out.Emitted
}

// DropOutcome is Drop with the validator verdict attached, for callers that
// log why a drop was ignored.
func (s *Session) DropOutcome(target model.Employee) Outcome {
	if s.state != StateDragging {
		return Outcome{Verdict: reparent.VerdictNone}
	}
	dragged := s.dragged
	s.dragged = model.Employee{}
	s.transition(StateIdle)

	v := reparent.Check(dragged, target.ID)
	if v.Rejected() {
		return Outcome{Verdict: v}
	}
	return Outcome{
		Request: Request{EmployeeID: dragged.ID, ManagerID: target.ID},
		Verdict: v,
		Emitted: true,
	}
}

func (s *Session) transition(to State) {
	from := s.state
	s.state = to
	if s.OnTransition != nil && from != to {
		s.OnTransition(from, to)
	}
}
