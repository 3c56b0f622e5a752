// Package store persists the employee hierarchy and enforces the rules every
// manager change must satisfy.
//
// Two backends share the same semantics: SQLiteStore for local use and
// PostgresStore for a shared deployment. Both load the (small) employees table
// in one query and assemble trees in memory with BuildTree.
package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"orgtree/internal/model"
)

// Repository is the hierarchy store as seen by the HTTP API and the CLI.
type Repository interface {
	// Tree returns the hierarchy rooted at the employee without a manager.
	Tree(ctx context.Context) (model.Employee, error)
	// Subtree returns the hierarchy rooted at employeeID.
	Subtree(ctx context.Context, employeeID int64) (model.Employee, error)
	// UpdateManager makes managerID the manager of employeeID. A nil managerID
	// promotes the employee to the top level.
	UpdateManager(ctx context.Context, employeeID int64, managerID *int64) (string, error)
	// Seed fills an empty store with the initial org chart.
	Seed(ctx context.Context) error
	Close() error
}

// Driver names accepted by Open.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Options selects and configures a backend.
type Options struct {
	Driver      string
	SQLitePath  string
	PostgresDSN string
}

// Open returns the backend named by opts.Driver with its schema in place.
func Open(ctx context.Context, opts Options) (Repository, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Driver)) {
	case "", DriverSQLite:
		return OpenSQLite(ctx, opts.SQLitePath)
	case DriverPostgres:
		return OpenPostgres(ctx, opts.PostgresDSN)
	default:
		return nil, fmt.Errorf("store: unknown driver %q", opts.Driver)
	}
}

// Row is one employees table row.
type Row struct {
	ID        int64
	Name      string
	Title     string
	ManagerID *int64
}

// RootID returns the id of the first employee (by id) without a manager.
func RootID(rows []Row) (int64, error) {
	var (
		root  int64
		found bool
	)
	for _, r := range rows {
		if r.ManagerID == nil && (!found || r.ID < root) {
			root, found = r.ID, true
		}
	}
	if !found {
		return 0, ErrNoRoot
	}
	return root, nil
}

// BuildTree assembles the hierarchy below rootID from flat rows. Direct
// reports are ordered by id and leaves get an empty (non-nil) subordinate list.
func BuildTree(rows []Row, rootID int64) (model.Employee, error) {
	byID := make(map[int64]Row, len(rows))
	children := map[int64][]int64{}
	for _, r := range rows {
		byID[r.ID] = r
		if r.ManagerID != nil {
			children[*r.ManagerID] = append(children[*r.ManagerID], r.ID)
		}
	}
	if _, ok := byID[rootID]; !ok {
		return model.Employee{}, ErrEmployeeNotFound
	}
	for _, ids := range children {
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	}

	seen := map[int64]bool{}
	var build func(id int64) (model.Employee, error)
	build = func(id int64) (model.Employee, error) {
		if seen[id] {
			return model.Employee{}, fmt.Errorf("store: hierarchy loops back to employee %d", id)
		}
		seen[id] = true
		r := byID[id]
		e := model.Employee{
			ID:           r.ID,
			Name:         r.Name,
			Title:        r.Title,
			ManagerID:    r.ManagerID,
			Subordinates: []model.Employee{},
		}
		for _, cid := range children[id] {
			ch, err := build(cid)
			if err != nil {
				return model.Employee{}, err
			}
			e.Subordinates = append(e.Subordinates, ch)
		}
		return e, nil
	}
	return build(rootID)
}

// WouldCycle reports whether making newManagerID the manager of employeeID
// would close a loop. It walks the manager chain upwards from newManagerID;
// managerOf maps an employee to its manager (nil for the root).
func WouldCycle(managerOf map[int64]*int64, employeeID, newManagerID int64) bool {
	if employeeID == newManagerID {
		return true
	}
	visited := map[int64]bool{employeeID: true}
	cur := &newManagerID
	for cur != nil {
		if visited[*cur] {
			return true
		}
		next, ok := managerOf[*cur]
		if !ok {
			return false
		}
		visited[*cur] = true
		cur = next
	}
	return false
}

// planUpdate checks a manager change against the current rows and returns the
// confirmation message for it.
func planUpdate(rows []Row, employeeID int64, managerID *int64) (string, error) {
	managerOf := make(map[int64]*int64, len(rows))
	var emp *Row
	for i := range rows {
		managerOf[rows[i].ID] = rows[i].ManagerID
		if rows[i].ID == employeeID {
			emp = &rows[i]
		}
	}
	if emp == nil {
		return "", ErrEmployeeNotFound
	}

	if managerID == nil {
		if root, err := RootID(rows); err == nil && root != employeeID {
			return "", ErrTopLevelExists
		}
	} else {
		if _, ok := managerOf[*managerID]; !ok {
			return "", ErrManagerNotFound
		}
		if WouldCycle(managerOf, employeeID, *managerID) {
			return "", ErrCycle
		}
	}
	return fmt.Sprintf("%s's manager updated successfully", emp.Name), nil
}

func treeFromRows(rows []Row) (model.Employee, error) {
	root, err := RootID(rows)
	if err != nil {
		return model.Employee{}, err
	}
	return BuildTree(rows, root)
}

type seedEmployee struct {
	key, name, title, manager string
}

// seedData is inserted level by level so ids come out 1..10 on an empty table.
var seedData = []seedEmployee{
	{key: "ceo", name: "John Smith", title: "CEO"},
	{key: "cto", name: "Jane Doe", title: "CTO", manager: "ceo"},
	{key: "cfo", name: "Michael Johnson", title: "CFO", manager: "ceo"},
	{key: "coo", name: "Sarah Williams", title: "COO", manager: "ceo"},
	{key: "dev", name: "Robert Brown", title: "Development Manager", manager: "cto"},
	{key: "qa", name: "Emily Davis", title: "QA Manager", manager: "cto"},
	{key: "fin", name: "David Wilson", title: "Finance Manager", manager: "cfo"},
	{key: "dev1", name: "Daniel Jackson", title: "Senior Developer", manager: "dev"},
	{key: "dev2", name: "Olivia Miller", title: "Junior Developer", manager: "dev"},
	{key: "qa1", name: "James Taylor", title: "QA Engineer", manager: "qa"},
}

// seed inserts seedData through insert, which must return the new row id.
func seed(insert func(name, title string, managerID *int64) (int64, error)) error {
	ids := map[string]int64{}
	for _, s := range seedData {
		var mgr *int64
		if s.manager != "" {
			id, ok := ids[s.manager]
			if !ok {
				return errors.New("store: seed manager inserted out of order")
			}
			mgr = &id
		}
		id, err := insert(s.name, s.title, mgr)
		if err != nil {
			return fmt.Errorf("store: seed %s: %w", s.name, err)
		}
		ids[s.key] = id
	}
	return nil
}
