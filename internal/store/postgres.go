package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"orgtree/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// pgPool is the subset of *pgxpool.Pool the store uses.
type pgPool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
	Close()
}

type pgQueryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresStore keeps the hierarchy in PostgreSQL.
type PostgresStore struct {
	pool pgPool
}

// NewPostgresStore wraps an existing pool. The schema is not touched; call
// Migrate for that.
func NewPostgresStore(pool pgPool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// OpenPostgres connects to dsn, checks the connection and applies the schema.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, errors.New("store: postgres dsn is empty")
	}
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("store: parse postgres dsn: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("store: create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	s := NewPostgresStore(pool)
	if err := s.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

const pgSchema = `
CREATE TABLE IF NOT EXISTS employees (
    id BIGSERIAL PRIMARY KEY,
    name TEXT NOT NULL,
    title TEXT NOT NULL,
    manager_id BIGINT REFERENCES employees(id)
);
CREATE INDEX IF NOT EXISTS idx_employees_name ON employees(name);
CREATE INDEX IF NOT EXISTS idx_employees_manager ON employees(manager_id);
`

// Migrate creates the employees table if it does not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, pgSchema); err != nil {
		return fmt.Errorf("store: migrate: %w", err)
	}
	return nil
}

const pgSelectEmployees = `SELECT id, name, title, manager_id FROM employees ORDER BY id`

func loadPgRows(ctx context.Context, q pgQueryer, query string) ([]Row, error) {
	rows, err := q.Query(ctx, query)
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

func (s *PostgresStore) Tree(ctx context.Context) (model.Employee, error) {
	rows, err := loadPgRows(ctx, s.pool, pgSelectEmployees)
	if err != nil {
		return model.Employee{}, err
	}
	return treeFromRows(rows)
}

func (s *PostgresStore) Subtree(ctx context.Context, employeeID int64) (model.Employee, error) {
	rows, err := loadPgRows(ctx, s.pool, pgSelectEmployees)
	if err != nil {
		return model.Employee{}, err
	}
	return BuildTree(rows, employeeID)
}

func (s *PostgresStore) UpdateManager(ctx context.Context, employeeID int64, managerID *int64) (string, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return "", err
	}

	msg, err := s.updateManagerTx(ctx, tx, employeeID, managerID)
	if err != nil {
		_ = tx.Rollback(ctx)
		return "", err
	}
	if err := tx.Commit(ctx); err != nil {
		return "", err
	}
	return msg, nil
}

func (s *PostgresStore) updateManagerTx(ctx context.Context, tx pgx.Tx, employeeID int64, managerID *int64) (string, error) {
	rows, err := loadPgRows(ctx, tx, pgSelectEmployees+` FOR UPDATE`)
	if err != nil {
		return "", err
	}
	msg, err := planUpdate(rows, employeeID, managerID)
	if err != nil {
		return "", err
	}
	if _, err := tx.Exec(ctx, `UPDATE employees SET manager_id = $1 WHERE id = $2`, managerID, employeeID); err != nil {
		return "", err
	}
	return msg, nil
}

// Seed inserts the initial org chart unless the table already has rows.
func (s *PostgresStore) Seed(ctx context.Context) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	if err := seedPg(ctx, tx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

func seedPg(ctx context.Context, tx pgx.Tx) error {
	var n int64
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM employees`).Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	return seed(func(name, title string, managerID *int64) (int64, error) {
		var id int64
		err := tx.QueryRow(ctx,
			`INSERT INTO employees (name, title, manager_id) VALUES ($1, $2, $3) RETURNING id`,
			name, title, managerID,
		).Scan(&id)
		return id, err
	})
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
