package store

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"orgtree/internal/model"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
)

func seedMockRows(rows []Row) *pgxmock.Rows {
	out := pgxmock.NewRows([]string{"id", "name", "title", "manager_id"})
	for _, r := range rows {
		var mgr any
		if r.ManagerID != nil {
			mgr = *r.ManagerID
		}
		out.AddRow(r.ID, r.Name, r.Title, mgr)
	}
	return out
}

func newMockStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	t.Cleanup(mock.Close)
	return NewPostgresStore(mock), mock
}

func TestPostgresStore_Tree(t *testing.T) {
	t.Parallel()
	s, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(pgSelectEmployees)).
		WillReturnRows(seedMockRows(seedRows()))

	root, err := s.Tree(context.Background())
	if err != nil {
		t.Fatalf("Tree returned error: %v", err)
	}
	tr, err := model.NewTree(root)
	if err != nil {
		t.Fatalf("NewTree: %v", err)
	}
	if tr.Len() != 10 {
		t.Fatalf("expected 10 employees, got %d", tr.Len())
	}
	if p, _ := tr.ParentOf(9); p != 5 {
		t.Fatalf("expected 9 under 5, got %d", p)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresStore_UpdateManager_Commits(t *testing.T) {
	t.Parallel()
	s, mock := newMockStore(t)

	mock.ExpectBeginTx(pgx.TxOptions{IsoLevel: pgx.Serializable})
	mock.ExpectQuery(regexp.QuoteMeta(pgSelectEmployees + ` FOR UPDATE`)).
		WillReturnRows(seedMockRows(seedRows()))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE employees SET manager_id = $1 WHERE id = $2`)).
		WithArgs(model.ID64(7), int64(5)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	msg, err := s.UpdateManager(context.Background(), 5, model.ID64(7))
	if err != nil {
		t.Fatalf("UpdateManager returned error: %v", err)
	}
	if msg != "Robert Brown's manager updated successfully" {
		t.Fatalf("unexpected message %q", msg)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresStore_UpdateManager_CycleRollsBack(t *testing.T) {
	t.Parallel()
	s, mock := newMockStore(t)

	mock.ExpectBeginTx(pgx.TxOptions{IsoLevel: pgx.Serializable})
	mock.ExpectQuery(regexp.QuoteMeta(pgSelectEmployees + ` FOR UPDATE`)).
		WillReturnRows(seedMockRows(seedRows()))
	mock.ExpectRollback()

	_, err := s.UpdateManager(context.Background(), 2, model.ID64(9))
	if !errors.Is(err, ErrCycle) {
		t.Fatalf("expected ErrCycle, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresStore_UpdateManager_QueryErrorRollsBack(t *testing.T) {
	t.Parallel()
	s, mock := newMockStore(t)

	boom := errors.New("connection lost")
	mock.ExpectBeginTx(pgx.TxOptions{IsoLevel: pgx.Serializable})
	mock.ExpectQuery(regexp.QuoteMeta(pgSelectEmployees)).WillReturnError(boom)
	mock.ExpectRollback()

	_, err := s.UpdateManager(context.Background(), 5, model.ID64(7))
	if !errors.Is(err, boom) {
		t.Fatalf("expected query error, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresStore_SeedSkipsWhenPopulated(t *testing.T) {
	t.Parallel()
	s, mock := newMockStore(t)

	mock.ExpectBeginTx(pgx.TxOptions{})
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM employees`)).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(10)))
	mock.ExpectCommit()

	if err := s.Seed(context.Background()); err != nil {
		t.Fatalf("Seed returned error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresStore_SeedInsertsOrgChart(t *testing.T) {
	t.Parallel()
	s, mock := newMockStore(t)

	mock.ExpectBeginTx(pgx.TxOptions{})
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM employees`)).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(0)))
	for i, e := range seedData {
		mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO employees (name, title, manager_id) VALUES ($1, $2, $3) RETURNING id`)).
			WithArgs(e.name, e.title, pgxmock.AnyArg()).
			WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(i + 1)))
	}
	mock.ExpectCommit()

	if err := s.Seed(context.Background()); err != nil {
		t.Fatalf("Seed returned error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresStore_Migrate(t *testing.T) {
	t.Parallel()
	s, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta(`CREATE TABLE IF NOT EXISTS employees`)).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	if err := s.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate returned error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
