package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"github.com/example/usercli/internal/logging"
)

// Querier is what the repositories and schema helpers run against: either
// the pool itself or a Session.
type Querier interface {
	Dialect() Dialect
	Exec(ctx context.Context, query string, args ...any) (sql.Result, error)
	ExecReturningID(ctx context.Context, query string, args ...any) (int64, error)
	QueryRow(ctx context.Context, query string, args ...any) *sql.Row
	Query(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

type DB struct {
	sql     *sql.DB
	dialect Dialect
	log     logrus.FieldLogger
}

// Open connects to the store named by databaseURL. postgres:// and
// postgresql:// URLs go through pgx; anything else is treated as a SQLite
// file path, optionally prefixed with sqlite:// or file:.
func Open(ctx context.Context, databaseURL string, log logrus.FieldLogger) (*DB, error) {
	if log == nil {
		log = logging.Discard()
	}

	driver, dsn, dialect, err := parseURL(databaseURL)
	if err != nil {
		return nil, err
	}

	sqlDB, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dialect, err)
	}
	if dialect == DialectSQLite {
		// one writer; also keeps :memory: databases coherent
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetConnMaxLifetime(5 * time.Minute)
		sqlDB.SetConnMaxIdleTime(1 * time.Minute)
	}

	d := &DB{sql: sqlDB, dialect: dialect, log: log.WithField("dialect", string(dialect))}
	if err := d.Ping(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}
	d.log.Debug("database opened")
	return d, nil
}

func parseURL(raw string) (driver, dsn string, dialect Dialect, err error) {
	raw = strings.TrimSpace(raw)
	switch {
	case strings.HasPrefix(raw, "postgres://"), strings.HasPrefix(raw, "postgresql://"):
		return "pgx", raw, DialectPostgres, nil
	case strings.HasPrefix(raw, "sqlite://"):
		raw = strings.TrimPrefix(raw, "sqlite://")
	case strings.HasPrefix(raw, "file:"):
		raw = strings.TrimPrefix(raw, "file:")
	}
	if raw == "" {
		return "", "", "", errors.New("database url is empty")
	}

	path, query, _ := strings.Cut(raw, "?")
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return "", "", "", fmt.Errorf("ensure data dir: %w", err)
		}
	}
	pragmas := "_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	if query != "" {
		pragmas = query + "&" + pragmas
	}
	return "sqlite", path + "?" + pragmas, DialectSQLite, nil
}

func (d *DB) Close() error {
	d.log.Debug("database closed")
	return d.sql.Close()
}

func (d *DB) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return d.sql.PingContext(ctx)
}

func (d *DB) Dialect() Dialect { return d.dialect }

func (d *DB) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return d.sql.ExecContext(ctx, d.dialect.Rebind(query), args...)
}

func (d *DB) ExecReturningID(ctx context.Context, query string, args ...any) (int64, error) {
	var id int64
	err := d.sql.QueryRowContext(ctx, d.dialect.Rebind(query), args...).Scan(&id)
	return id, err
}

func (d *DB) QueryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return d.sql.QueryRowContext(ctx, d.dialect.Rebind(query), args...)
}

func (d *DB) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return d.sql.QueryContext(ctx, d.dialect.Rebind(query), args...)
}
