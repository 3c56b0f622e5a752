package store

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"orgtree/internal/model"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps the hierarchy in a local SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path and applies the
// schema. ":memory:" is accepted for throwaway stores.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("store: sqlite path is empty")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
	}
	// modernc.org/sqlite driver name is "sqlite".
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// One connection: writes are serialized and ":memory:" stays a single db.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if err := migrateSQLite(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

func migrateSQLite(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS employees (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			title TEXT NOT NULL,
			manager_id INTEGER REFERENCES employees(id)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_employees_name ON employees(name);`,
		`CREATE INDEX IF NOT EXISTS idx_employees_manager ON employees(manager_id);`,
	}
	for _, s := range stmts {
		if _, err := db.ExecContext(ctx, s); err != nil {
			return err
		}
	}
	return nil
}

type sqliteQueryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func loadSQLiteRows(ctx context.Context, q sqliteQueryer) ([]Row, error) {
	rows, err := q.QueryContext(ctx, `SELECT id, name, title, manager_id FROM employees ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var (
			r   Row
			mgr sql.NullInt64
		)
		if err := rows.Scan(&r.ID, &r.Name, &r.Title, &mgr); err != nil {
			return nil, err
		}
		if mgr.Valid {
			r.ManagerID = model.ID64(mgr.Int64)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Tree(ctx context.Context) (model.Employee, error) {
	rows, err := loadSQLiteRows(ctx, s.db)
	if err != nil {
		return model.Employee{}, err
	}
	return treeFromRows(rows)
}

func (s *SQLiteStore) Subtree(ctx context.Context, employeeID int64) (model.Employee, error) {
	rows, err := loadSQLiteRows(ctx, s.db)
	if err != nil {
		return model.Employee{}, err
	}
	return BuildTree(rows, employeeID)
}

func (s *SQLiteStore) UpdateManager(ctx context.Context, employeeID int64, managerID *int64) (string, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback() }()

	rows, err := loadSQLiteRows(ctx, tx)
	if err != nil {
		return "", err
	}
	msg, err := planUpdate(rows, employeeID, managerID)
	if err != nil {
		return "", err
	}
	var mgr any
	if managerID != nil {
		mgr = *managerID
	}
	if _, err := tx.ExecContext(ctx, `UPDATE employees SET manager_id = ? WHERE id = ?`, mgr, employeeID); err != nil {
		return "", err
	}
	if err := tx.Commit(); err != nil {
		return "", err
	}
	return msg, nil
}

// Seed inserts the initial org chart unless the table already has rows.
func (s *SQLiteStore) Seed(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var n int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM employees`).Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	err = seed(func(name, title string, managerID *int64) (int64, error) {
		var mgr any
		if managerID != nil {
			mgr = *managerID
		}
		res, err := tx.ExecContext(ctx, `INSERT INTO employees(name, title, manager_id) VALUES(?, ?, ?)`, name, title, mgr)
		if err != nil {
			return 0, err
		}
		return res.LastInsertId()
	})
	if err != nil {
		return err
	}
	return tx.Commit()
}

// Insert adds one employee and returns its id. It does not check hierarchy
// rules; it exists for fixtures and imports.
func (s *SQLiteStore) Insert(ctx context.Context, name, title string, managerID *int64) (int64, error) {
	var mgr any
	if managerID != nil {
		mgr = *managerID
	}
	res, err := s.db.ExecContext(ctx, `INSERT INTO employees(name, title, manager_id) VALUES(?, ?, ?)`, name, title, mgr)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *SQLiteStore) Close() error { return s.db.Close() }
