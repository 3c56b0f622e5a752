package reparent

import (
	"testing"

	"orgtree/internal/model"
)

// seedTree mirrors the store's seed data: CEO -> CTO/CFO/COO -> managers -> ICs.
func seedTree(t *testing.T) *model.Tree {
	t.Helper()
	root := model.Employee{ID: 1, Name: "John Smith", Title: "CEO", Subordinates: []model.Employee{
		{ID: 2, Name: "Jane Doe", Title: "CTO", ManagerID: model.ID64(1), Subordinates: []model.Employee{
			{ID: 5, Name: "Robert Brown", Title: "Development Manager", ManagerID: model.ID64(2), Subordinates: []model.Employee{
				{ID: 8, Name: "Daniel Jackson", Title: "Senior Developer", ManagerID: model.ID64(5)},
				{ID: 9, Name: "Olivia Miller", Title: "Junior Developer", ManagerID: model.ID64(5)},
			}},
			{ID: 6, Name: "Emily Davis", Title: "QA Manager", ManagerID: model.ID64(2), Subordinates: []model.Employee{
				{ID: 10, Name: "James Taylor", Title: "QA Engineer", ManagerID: model.ID64(6)},
			}},
		}},
		{ID: 3, Name: "Michael Johnson", Title: "CFO", ManagerID: model.ID64(1), Subordinates: []model.Employee{
			{ID: 7, Name: "David Wilson", Title: "Finance Manager", ManagerID: model.ID64(3)},
		}},
		{ID: 4, Name: "Sarah Williams", Title: "COO", ManagerID: model.ID64(1)},
	}}
	tr, err := model.NewTree(root)
	if err != nil {
		t.Fatalf("new tree: %v", err)
	}
	return tr
}

func TestIsLegalMove_DroppingOntoCurrentManagerIsNoOp(t *testing.T) {
	tr := seedTree(t)
	tr.Walk(func(e model.Employee, _ int) bool {
		if e.ManagerID == nil {
			return true
		}
		if IsLegalMove(e, *e.ManagerID) {
			t.Fatalf("employee %d onto current manager %d should be rejected", e.ID, *e.ManagerID)
		}
		if got := Check(e, *e.ManagerID); got != VerdictNoOp {
			t.Fatalf("expected no-op verdict, got %s", got)
		}
		return true
	})
}

func TestIsLegalMove_DroppingOntoSelfIsRejected(t *testing.T) {
	tr := seedTree(t)
	tr.Walk(func(e model.Employee, _ int) bool {
		if IsLegalMove(e, e.ID) {
			t.Fatalf("employee %d onto itself should be rejected", e.ID)
		}
		if got := Check(e, e.ID); got != VerdictSelfMove {
			t.Fatalf("expected self-move verdict, got %s", got)
		}
		return true
	})
}

func TestIsLegalMove_EveryOtherTargetIsAccepted(t *testing.T) {
	tr := seedTree(t)
	ids := tr.IDs()
	for _, draggedID := range ids {
		dragged, _ := tr.Find(draggedID)
		for _, targetID := range ids {
			if targetID == draggedID || dragged.ReportsTo(targetID) {
				continue
			}
			if !IsLegalMove(dragged, targetID) {
				t.Fatalf("move %d -> %d should be accepted", draggedID, targetID)
			}
		}
	}
}

func TestIsLegalMove_DoesNotCheckForCycles(t *testing.T) {
	tr := seedTree(t)
	// CTO onto one of her own developers: the store rejects this, not the client.
	if !IsLegalMoveInTree(tr, 2, 8) {
		t.Fatalf("cycle detection must be delegated to the store")
	}
	// Root onto a leaf.
	if !IsLegalMoveInTree(tr, 1, 10) {
		t.Fatalf("root onto descendant must be delegated to the store")
	}
}

func TestScenarios(t *testing.T) {
	tr := seedTree(t)

	// Scenario A: C1 dropped onto its root manager.
	if IsLegalMoveInTree(tr, 2, 1) {
		t.Fatalf("scenario A: child onto root manager must be a no-op")
	}

	// Scenario B: id=5 (manager 2) onto id=7.
	if !IsLegalMoveInTree(tr, 5, 7) {
		t.Fatalf("scenario B: 5 -> 7 must be legal")
	}

	// Scenario C: id=3 onto itself.
	if v, ok := CheckInTree(tr, 3, 3); !ok || v != VerdictSelfMove {
		t.Fatalf("scenario C: expected self-move, got %s ok=%v", v, ok)
	}
}

func TestIsLegalMoveInTree_UnknownDraggedEmployee(t *testing.T) {
	tr := seedTree(t)
	if IsLegalMoveInTree(tr, 404, 1) {
		t.Fatalf("unknown dragged employee should not be legal")
	}
	if v, ok := CheckInTree(tr, 404, 1); ok || v != VerdictNone {
		t.Fatalf("expected none/false for unknown employee, got %s ok=%v", v, ok)
	}
}

func TestVerdict_ZeroValueIsNotLegal(t *testing.T) {
	var v Verdict
	if v != VerdictNone || !v.Rejected() || v.String() != "none" {
		t.Fatalf("zero verdict should be none and rejected, got %s", v)
	}
}
