package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"github.com/example/usercli/internal/internaltypes"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	d, err := Open(context.Background(), filepath.Join(t.TempDir(), "data", "test.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })

	_, err = d.Exec(context.Background(), `CREATE TABLE items (id INTEGER PRIMARY KEY AUTOINCREMENT, name TEXT NOT NULL UNIQUE)`)
	require.NoError(t, err)
	return d
}

func countItems(t *testing.T, q Querier) int {
	t.Helper()
	var n int
	require.NoError(t, q.QueryRow(context.Background(), `SELECT COUNT(*) FROM items`).Scan(&n))
	return n
}

func TestParseURL(t *testing.T) {
	dir := t.TempDir()

	driver, dsn, dialect, err := parseURL("postgres://u:p@localhost:5432/app?sslmode=disable")
	require.NoError(t, err)
	require.Equal(t, "pgx", driver)
	require.Equal(t, DialectPostgres, dialect)
	require.Equal(t, "postgres://u:p@localhost:5432/app?sslmode=disable", dsn)

	_, _, dialect, err = parseURL("postgresql://localhost/app")
	require.NoError(t, err)
	require.Equal(t, DialectPostgres, dialect)

	path := filepath.Join(dir, "a.db")
	driver, dsn, dialect, err = parseURL("sqlite://" + path)
	require.NoError(t, err)
	require.Equal(t, "sqlite", driver)
	require.Equal(t, DialectSQLite, dialect)
	require.Equal(t, path+"?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", dsn)

	_, dsn, _, err = parseURL(":memory:")
	require.NoError(t, err)
	require.Equal(t, ":memory:?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", dsn)

	_, _, _, err = parseURL("  ")
	require.Error(t, err)
}

func TestRebind(t *testing.T) {
	q := `SELECT id FROM users WHERE username = ? OR email = ? LIMIT ?`
	require.Equal(t, q, DialectSQLite.Rebind(q))
	require.Equal(t, `SELECT id FROM users WHERE username = $1 OR email = $2 LIMIT $3`, DialectPostgres.Rebind(q))
	require.Equal(t, `SELECT 1`, DialectPostgres.Rebind(`SELECT 1`))
}

func TestContains(t *testing.T) {
	require.Equal(t, "instr(email, ?) > 0", DialectSQLite.Contains("email"))
	require.Equal(t, "strpos(email, ?) > 0", DialectPostgres.Contains("email"))
}

func TestOpenUnreachablePostgresFails(t *testing.T) {
	_, err := Open(context.Background(), "postgres://nobody:x@127.0.0.1:1/none?connect_timeout=1", nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "db ping")
}

func TestSessionCommitPersists(t *testing.T) {
	d := openTestDB(t)
	ctx := context.Background()

	err := d.WithSession(ctx, func(s *Session) error {
		require.False(t, s.InTx())
		id, err := s.ExecReturningID(ctx, `INSERT INTO items (name) VALUES (?) RETURNING id`, "a")
		require.NoError(t, err)
		require.NotZero(t, id)
		require.True(t, s.InTx())
		// the session sees its own pending write
		require.Equal(t, 1, countItems(t, s))
		return s.Commit()
	})
	require.NoError(t, err)
	require.Equal(t, 1, countItems(t, d))
}

func TestSessionReleaseRollsBackUncommitted(t *testing.T) {
	d := openTestDB(t)
	ctx := context.Background()

	sentinel := errors.New("boom")
	err := d.WithSession(ctx, func(s *Session) error {
		_, err := s.Exec(ctx, `INSERT INTO items (name) VALUES (?)`, "a")
		require.NoError(t, err)
		return sentinel
	})
	require.ErrorIs(t, err, sentinel)
	require.Equal(t, 0, countItems(t, d))
}

func TestSessionReleasedOnPanic(t *testing.T) {
	d := openTestDB(t)
	ctx := context.Background()

	require.Panics(t, func() {
		_ = d.WithSession(ctx, func(s *Session) error {
			_, err := s.Exec(ctx, `INSERT INTO items (name) VALUES (?)`, "a")
			require.NoError(t, err)
			panic("boom")
		})
	})
	// the only connection was handed back, otherwise this would block
	require.Equal(t, 0, countItems(t, d))
}

func TestSessionRollbackThenContinue(t *testing.T) {
	d := openTestDB(t)
	ctx := context.Background()

	err := d.WithSession(ctx, func(s *Session) error {
		_, err := s.Exec(ctx, `INSERT INTO items (name) VALUES (?)`, "a")
		require.NoError(t, err)
		require.NoError(t, s.Commit())

		_, err = s.Exec(ctx, `INSERT INTO items (name) VALUES (?)`, "a")
		require.Error(t, err)
		require.True(t, IsUniqueViolation(err))
		require.NoError(t, s.Rollback())
		require.False(t, s.InTx())

		_, err = s.Exec(ctx, `INSERT INTO items (name) VALUES (?)`, "b")
		require.NoError(t, err)
		return s.Commit()
	})
	require.NoError(t, err)
	require.Equal(t, 2, countItems(t, d))
}

func TestSessionCommitAndRollbackWithoutWritesAreNoops(t *testing.T) {
	d := openTestDB(t)
	s, err := d.NewSession(context.Background())
	require.NoError(t, err)
	require.NoError(t, s.Commit())
	require.NoError(t, s.Rollback())
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	_, err = s.Exec(context.Background(), `INSERT INTO items (name) VALUES (?)`, "a")
	require.ErrorIs(t, err, ErrSessionClosed)
}

func TestSessionReadsAfterCloseFail(t *testing.T) {
	ctx := context.Background()
	d := openTestDB(t)
	s, err := d.NewSession(ctx)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = s.Query(ctx, `SELECT name FROM items`)
	require.ErrorIs(t, err, ErrSessionClosed)

	_, err = s.ExecReturningID(ctx, `INSERT INTO items (name) VALUES (?) RETURNING id`, "a")
	require.ErrorIs(t, err, ErrSessionClosed)

	var n int
	require.ErrorIs(t, s.QueryRow(ctx, `SELECT COUNT(*) FROM items`).Scan(&n), sql.ErrConnDone)

	// the pool is unaffected
	require.Equal(t, 0, countItems(t, d))
}

func TestOpenWithoutLogger(t *testing.T) {
	d, err := Open(context.Background(), ":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	require.NotNil(t, d.log)
	require.NoError(t, d.WithSession(context.Background(), func(s *Session) error { return nil }))
}

func TestIsUniqueViolation(t *testing.T) {
	require.False(t, IsUniqueViolation(nil))
	require.False(t, IsUniqueViolation(errors.New("UNIQUE constraint failed")))
	require.True(t, IsUniqueViolation(&pgconn.PgError{Code: "23505"}))
	require.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23502"}))
	require.True(t, IsUniqueViolation(fmt.Errorf("create user: %w", &pgconn.PgError{Code: "23505"})))
}

func TestWrapNotFound(t *testing.T) {
	require.NoError(t, WrapNotFound(nil))
	require.ErrorIs(t, WrapNotFound(sql.ErrNoRows), internaltypes.ErrNotFound)

	other := errors.New("disk full")
	wrapped := WrapNotFound(other)
	require.ErrorIs(t, wrapped, other)
	require.NotErrorIs(t, wrapped, internaltypes.ErrNotFound)
	require.EqualError(t, wrapped, "db: disk full")
}
