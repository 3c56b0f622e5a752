package model

// Employee is one card in the org chart. Subordinates holds the direct reports;
// it may be nil or empty for leaf employees.
type Employee struct {
	ID           int64      `json:"id"`
	Name         string     `json:"name"`
	Title        string     `json:"title"`
	ManagerID    *int64     `json:"manager_id"`
	Subordinates []Employee `json:"subordinates"`
}

// IsRoot reports whether the employee has no manager.
func (e Employee) IsRoot() bool { return e.ManagerID == nil }

// ReportsTo reports whether the employee's current manager is managerID.
func (e Employee) ReportsTo(managerID int64) bool {
	return e.ManagerID != nil && *e.ManagerID == managerID
}

// Clone returns a deep copy of the employee and its whole subtree.
func (e Employee) Clone() Employee {
	out := e
	if e.ManagerID != nil {
		id := *e.ManagerID
		out.ManagerID = &id
	}
	if e.Subordinates != nil {
		out.Subordinates = make([]Employee, len(e.Subordinates))
		for i := range e.Subordinates {
			out.Subordinates[i] = e.Subordinates[i].Clone()
		}
	}
	return out
}

// Leaf returns a copy of the employee without its subordinates.
func (e Employee) Leaf() Employee {
	out := e
	if e.ManagerID != nil {
		id := *e.ManagerID
		out.ManagerID = &id
	}
	out.Subordinates = nil
	return out
}

// ID64 is a small helper for building optional manager ids.
func ID64(v int64) *int64 { return &v }
