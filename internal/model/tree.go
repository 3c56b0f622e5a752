package model

// Tree is a read-only snapshot of the org chart as returned by one fetch.
//
// A Tree is never patched after construction: a successful reparent causes a
// full refetch, which produces a new Tree.
type Tree struct {
	root   Employee
	byID   map[int64]*Employee
	depth  map[int64]int
	parent map[int64]int64
	order  []int64
}

// NewTree validates root and builds an indexed snapshot of it. The snapshot
// keeps its own deep copy, so later changes to root do not leak in.
func NewTree(root Employee) (*Tree, error) {
	if err := Validate(root); err != nil {
		return nil, err
	}
	t := &Tree{
		root:   root.Clone(),
		byID:   map[int64]*Employee{},
		depth:  map[int64]int{},
		parent: map[int64]int64{},
	}
	var index func(e *Employee, depth int)
	index = func(e *Employee, depth int) {
		t.byID[e.ID] = e
		t.depth[e.ID] = depth
		t.order = append(t.order, e.ID)
		for i := range e.Subordinates {
			ch := &e.Subordinates[i]
			t.parent[ch.ID] = e.ID
			index(ch, depth+1)
		}
	}
	index(&t.root, 0)
	return t, nil
}

// Validate checks the hierarchy invariants: the root has no manager, every
// other node names its parent as manager, and no id appears twice.
func Validate(root Employee) error {
	if root.ManagerID != nil {
		return &InvariantError{ID: root.ID, Reason: "root has a manager"}
	}
	seen := map[int64]bool{}
	var walk func(e Employee, parent *Employee) error
	walk = func(e Employee, parent *Employee) error {
		if seen[e.ID] {
			return &InvariantError{ID: e.ID, Reason: "employee appears more than once"}
		}
		seen[e.ID] = true
		if parent != nil {
			if e.ManagerID == nil {
				return &InvariantError{ID: e.ID, Reason: "non-root employee has no manager"}
			}
			if *e.ManagerID != parent.ID {
				return &InvariantError{ID: e.ID, Reason: "manager_id does not match parent"}
			}
		}
		for i := range e.Subordinates {
			if err := walk(e.Subordinates[i], &e); err != nil {
				return err
			}
		}
		return nil
	}
	return walk(root, nil)
}

// Root returns a deep copy of the root employee.
func (t *Tree) Root() Employee {
	if t == nil {
		return Employee{}
	}
	return t.root.Clone()
}

// Len returns the number of employees in the tree.
func (t *Tree) Len() int {
	if t == nil {
		return 0
	}
	return len(t.order)
}

// Find returns the employee with the given id, without its subordinates.
func (t *Tree) Find(id int64) (Employee, bool) {
	if t == nil {
		return Employee{}, false
	}
	e, ok := t.byID[id]
	if !ok {
		return Employee{}, false
	}
	return e.Leaf(), true
}

// Subtree returns a deep copy of the subtree rooted at id.
func (t *Tree) Subtree(id int64) (Employee, bool) {
	if t == nil {
		return Employee{}, false
	}
	e, ok := t.byID[id]
	if !ok {
		return Employee{}, false
	}
	return e.Clone(), true
}

// Depth returns how many levels below the root id sits.
func (t *Tree) Depth(id int64) (int, bool) {
	if t == nil {
		return 0, false
	}
	d, ok := t.depth[id]
	return d, ok
}

// ParentOf returns the id of the node that holds id as a child.
func (t *Tree) ParentOf(id int64) (int64, bool) {
	if t == nil {
		return 0, false
	}
	p, ok := t.parent[id]
	return p, ok
}

// DirectReports returns the immediate subordinates of id, without their own
// subtrees.
func (t *Tree) DirectReports(id int64) []Employee {
	if t == nil {
		return nil
	}
	e, ok := t.byID[id]
	if !ok {
		return nil
	}
	out := make([]Employee, 0, len(e.Subordinates))
	for _, ch := range e.Subordinates {
		out = append(out, ch.Leaf())
	}
	return out
}

// IDs returns employee ids in pre-order (root first, children in server order).
func (t *Tree) IDs() []int64 {
	if t == nil {
		return nil
	}
	out := make([]int64, len(t.order))
	copy(out, t.order)
	return out
}

// Walk visits the tree in pre-order. Returning false from fn skips the
// children of the visited node.
func (t *Tree) Walk(fn func(e Employee, depth int) bool) {
	if t == nil || fn == nil {
		return
	}
	var walk func(e *Employee, depth int)
	walk = func(e *Employee, depth int) {
		if !fn(e.Leaf(), depth) {
			return
		}
		for i := range e.Subordinates {
			walk(&e.Subordinates[i], depth+1)
		}
	}
	walk(&t.root, 0)
}
