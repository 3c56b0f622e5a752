package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"orgtree/internal/model"
)

func seedRows() []Row {
	id := model.ID64
	return []Row{
		{ID: 1, Name: "John Smith", Title: "CEO"},
		{ID: 2, Name: "Jane Doe", Title: "CTO", ManagerID: id(1)},
		{ID: 3, Name: "Michael Johnson", Title: "CFO", ManagerID: id(1)},
		{ID: 4, Name: "Sarah Williams", Title: "COO", ManagerID: id(1)},
		{ID: 5, Name: "Robert Brown", Title: "Development Manager", ManagerID: id(2)},
		{ID: 6, Name: "Emily Davis", Title: "QA Manager", ManagerID: id(2)},
		{ID: 7, Name: "David Wilson", Title: "Finance Manager", ManagerID: id(3)},
		{ID: 8, Name: "Daniel Jackson", Title: "Senior Developer", ManagerID: id(5)},
		{ID: 9, Name: "Olivia Miller", Title: "Junior Developer", ManagerID: id(5)},
		{ID: 10, Name: "James Taylor", Title: "QA Engineer", ManagerID: id(6)},
	}
}

func childIDs(e model.Employee) []int64 {
	var out []int64
	for _, c := range e.Subordinates {
		out = append(out, c.ID)
	}
	return out
}

func TestBuildTree_OrdersReportsAndMarksLeaves(t *testing.T) {
	rows := seedRows()
	// Shuffle so ordering comes from BuildTree, not input order.
	rows[1], rows[3] = rows[3], rows[1]

	root, err := BuildTree(rows, 1)
	if err != nil {
		t.Fatalf("BuildTree: %v", err)
	}
	if got := childIDs(root); len(got) != 3 || got[0] != 2 || got[1] != 3 || got[2] != 4 {
		t.Fatalf("unexpected direct reports: %v", got)
	}
	tr, err := model.NewTree(root)
	if err != nil {
		t.Fatalf("tree should satisfy model invariants: %v", err)
	}
	leaf, _ := tr.Subtree(10)
	if leaf.Subordinates == nil || len(leaf.Subordinates) != 0 {
		t.Fatalf("leaf should have an empty subordinate list, got %#v", leaf.Subordinates)
	}
}

func TestBuildTree_UnknownRoot(t *testing.T) {
	if _, err := BuildTree(seedRows(), 42); !errors.Is(err, ErrEmployeeNotFound) {
		t.Fatalf("expected ErrEmployeeNotFound, got %v", err)
	}
}

func TestBuildTree_LoopIsAnError(t *testing.T) {
	rows := []Row{
		{ID: 1, Name: "a", ManagerID: model.ID64(2)},
		{ID: 2, Name: "b", ManagerID: model.ID64(1)},
	}
	if _, err := BuildTree(rows, 1); err == nil {
		t.Fatalf("expected loop error")
	}
}

func TestRootID_NoRoot(t *testing.T) {
	rows := []Row{{ID: 3, ManagerID: model.ID64(4)}}
	if _, err := RootID(rows); !errors.Is(err, ErrNoRoot) {
		t.Fatalf("expected ErrNoRoot, got %v", err)
	}
}

func TestWouldCycle(t *testing.T) {
	managerOf := map[int64]*int64{}
	for _, r := range seedRows() {
		managerOf[r.ID] = r.ManagerID
	}
	cases := []struct {
		name     string
		emp, mgr int64
		want     bool
	}{
		{name: "self", emp: 3, mgr: 3, want: true},
		{name: "direct report", emp: 2, mgr: 5, want: true},
		{name: "deep report", emp: 2, mgr: 8, want: true},
		{name: "root under leaf", emp: 1, mgr: 10, want: true},
		{name: "sibling branch", emp: 5, mgr: 7, want: false},
		{name: "up the chain", emp: 8, mgr: 1, want: false},
		{name: "unknown manager", emp: 8, mgr: 99, want: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := WouldCycle(managerOf, tc.emp, tc.mgr); got != tc.want {
				t.Fatalf("WouldCycle(%d, %d) = %v, want %v", tc.emp, tc.mgr, got, tc.want)
			}
		})
	}
}

func TestPlanUpdate_Rules(t *testing.T) {
	cases := []struct {
		name    string
		emp     int64
		mgr     *int64
		wantErr error
		wantMsg string
	}{
		{name: "move", emp: 5, mgr: model.ID64(7), wantMsg: "Robert Brown's manager updated successfully"},
		{name: "same manager", emp: 5, mgr: model.ID64(2), wantMsg: "Robert Brown's manager updated successfully"},
		{name: "missing employee", emp: 99, mgr: model.ID64(1), wantErr: ErrEmployeeNotFound},
		{name: "missing manager", emp: 5, mgr: model.ID64(99), wantErr: ErrManagerNotFound},
		{name: "cycle", emp: 2, mgr: model.ID64(8), wantErr: ErrCycle},
		{name: "self", emp: 2, mgr: model.ID64(2), wantErr: ErrCycle},
		{name: "second root", emp: 2, mgr: nil, wantErr: ErrTopLevelExists},
		{name: "root stays root", emp: 1, mgr: nil, wantMsg: "John Smith's manager updated successfully"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			msg, err := planUpdate(seedRows(), tc.emp, tc.mgr)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected %v, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if msg != tc.wantMsg {
				t.Fatalf("message = %q, want %q", msg, tc.wantMsg)
			}
		})
	}
}

func openSeeded(t *testing.T) *SQLiteStore {
	t.Helper()
	ctx := context.Background()
	s, err := OpenSQLite(ctx, filepath.Join(t.TempDir(), "data", "employees.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	if err := s.Seed(ctx); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	return s
}

func TestSQLiteStore_SeedIsIdempotent(t *testing.T) {
	s := openSeeded(t)
	ctx := context.Background()
	if err := s.Seed(ctx); err != nil {
		t.Fatalf("second Seed: %v", err)
	}

	root, err := s.Tree(ctx)
	if err != nil {
		t.Fatalf("Tree: %v", err)
	}
	tr, err := model.NewTree(root)
	if err != nil {
		t.Fatalf("NewTree: %v", err)
	}
	if tr.Len() != len(seedData) {
		t.Fatalf("expected %d employees, got %d", len(seedData), tr.Len())
	}
	if root.ID != 1 || root.Name != "John Smith" || root.ManagerID != nil {
		t.Fatalf("unexpected root: %+v", root)
	}
	qa, _ := tr.Find(10)
	if qa.Name != "James Taylor" || !qa.ReportsTo(6) {
		t.Fatalf("unexpected employee 10: %+v", qa)
	}
}

func TestSQLiteStore_UpdateManagerMovesSubtree(t *testing.T) {
	s := openSeeded(t)
	ctx := context.Background()

	msg, err := s.UpdateManager(ctx, 5, model.ID64(7))
	if err != nil {
		t.Fatalf("UpdateManager: %v", err)
	}
	if msg != "Robert Brown's manager updated successfully" {
		t.Fatalf("unexpected message %q", msg)
	}

	root, err := s.Tree(ctx)
	if err != nil {
		t.Fatalf("Tree: %v", err)
	}
	tr, err := model.NewTree(root)
	if err != nil {
		t.Fatalf("NewTree: %v", err)
	}
	if p, _ := tr.ParentOf(5); p != 7 {
		t.Fatalf("expected 5 under 7, got %d", p)
	}
	if p, _ := tr.ParentOf(8); p != 5 {
		t.Fatalf("subtree should move with its root, 8 is under %d", p)
	}
	if d, _ := tr.Depth(8); d != 4 {
		t.Fatalf("expected depth 4 for employee 8, got %d", d)
	}
}

func TestSQLiteStore_RejectionsLeaveDataUnchanged(t *testing.T) {
	s := openSeeded(t)
	ctx := context.Background()
	before, err := s.Tree(ctx)
	if err != nil {
		t.Fatalf("Tree: %v", err)
	}

	cases := []struct {
		emp     int64
		mgr     *int64
		wantErr *Error
	}{
		{emp: 2, mgr: model.ID64(8), wantErr: ErrCycle},
		{emp: 3, mgr: model.ID64(3), wantErr: ErrCycle},
		{emp: 99, mgr: model.ID64(1), wantErr: ErrEmployeeNotFound},
		{emp: 2, mgr: model.ID64(99), wantErr: ErrManagerNotFound},
		{emp: 4, mgr: nil, wantErr: ErrTopLevelExists},
	}
	for _, tc := range cases {
		_, err := s.UpdateManager(ctx, tc.emp, tc.mgr)
		var se *Error
		if !errors.As(err, &se) || se != tc.wantErr {
			t.Fatalf("UpdateManager(%d): expected %v, got %v", tc.emp, tc.wantErr, err)
		}
	}

	after, err := s.Tree(ctx)
	if err != nil {
		t.Fatalf("Tree: %v", err)
	}
	bt, _ := model.NewTree(before)
	at, _ := model.NewTree(after)
	for _, id := range bt.IDs() {
		bp, _ := bt.ParentOf(id)
		ap, _ := at.ParentOf(id)
		if bp != ap {
			t.Fatalf("employee %d moved from %d to %d after rejected updates", id, bp, ap)
		}
	}
}

func TestSQLiteStore_Subtree(t *testing.T) {
	s := openSeeded(t)
	ctx := context.Background()

	sub, err := s.Subtree(ctx, 2)
	if err != nil {
		t.Fatalf("Subtree: %v", err)
	}
	if got := childIDs(sub); len(got) != 2 || got[0] != 5 || got[1] != 6 {
		t.Fatalf("unexpected reports of 2: %v", got)
	}
	if _, err := s.Subtree(ctx, 404); !errors.Is(err, ErrEmployeeNotFound) {
		t.Fatalf("expected ErrEmployeeNotFound, got %v", err)
	}
}

func TestSQLiteStore_EmptyHasNoRoot(t *testing.T) {
	ctx := context.Background()
	s, err := OpenSQLite(ctx, ":memory:")
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer s.Close()

	if _, err := s.Tree(ctx); !errors.Is(err, ErrNoRoot) {
		t.Fatalf("expected ErrNoRoot, got %v", err)
	}
	id, err := s.Insert(ctx, "Solo", "Founder", nil)
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	root, err := s.Tree(ctx)
	if err != nil {
		t.Fatalf("Tree: %v", err)
	}
	if root.ID != id || len(root.Subordinates) != 0 {
		t.Fatalf("unexpected root %+v", root)
	}
}

func TestOpen_UnknownDriver(t *testing.T) {
	if _, err := Open(context.Background(), Options{Driver: "mysql"}); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
}
