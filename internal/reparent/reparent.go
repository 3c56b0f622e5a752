// Package reparent decides whether a proposed manager change is worth sending
// to the hierarchy store.
//
// Only the cheap checks live here. Cycle detection (dropping an employee onto
// one of its own reports) is left to the store, which is the source of truth
// and rejects such moves with a detail message.
package reparent

import "orgtree/internal/model"

// Verdict is the outcome of checking a proposed move.
type Verdict int

const (
	// VerdictNone means no move was checked, for example a drop with nothing
	// being dragged.
	VerdictNone Verdict = iota
	// VerdictLegal means the move should be submitted.
	VerdictLegal
	// VerdictSelfMove means the employee was dropped onto itself.
	VerdictSelfMove
	// VerdictNoOp means the target already manages the employee.
	VerdictNoOp
)

func (v Verdict) String() string {
	switch v {
	case VerdictNone:
		return "none"
	case VerdictLegal:
		return "legal"
	case VerdictSelfMove:
		return "self-move"
	case VerdictNoOp:
		return "no-op"
	default:
		return "unknown"
	}
}

// Rejected reports whether the move should be silently dropped.
func (v Verdict) Rejected() bool { return v != VerdictLegal }

// Check applies the validation rules in order and returns the first that fires.
func Check(dragged model.Employee, targetID int64) Verdict {
	if dragged.ID == targetID {
		return VerdictSelfMove
	}
	if dragged.ReportsTo(targetID) {
		return VerdictNoOp
	}
	return VerdictLegal
}

// IsLegalMove reports whether dragging dragged onto targetID is a move the
// store should be asked to perform.
func IsLegalMove(dragged model.Employee, targetID int64) bool {
	return Check(dragged, targetID) == VerdictLegal
}

// CheckInTree looks the dragged employee up in the displayed tree before
// checking. An id that is not in the tree cannot be dragged, so it reports
// false.
func CheckInTree(t *model.Tree, draggedID, targetID int64) (Verdict, bool) {
	dragged, ok := t.Find(draggedID)
	if !ok {
		return VerdictNone, false
	}
	return Check(dragged, targetID), true
}

// IsLegalMoveInTree is IsLegalMove keyed by ids against the displayed tree.
func IsLegalMoveInTree(t *model.Tree, draggedID, targetID int64) bool {
	v, ok := CheckInTree(t, draggedID, targetID)
	return ok && v == VerdictLegal
}
