package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
)

var ErrSessionClosed = errors.New("session closed")

// Session is a unit of work pinned to a single connection. The first write
// opens a transaction; reads issued afterwards see those writes. Nothing is
// persisted until Commit.
type Session struct {
	conn    *sql.Conn
	tx      *sql.Tx
	dialect Dialect
	log     logrus.FieldLogger
	closed  bool
}

func (d *DB) NewSession(ctx context.Context) (*Session, error) {
	conn, err := d.sql.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire session: %w", err)
	}
	d.log.Debug("session acquired")
	return &Session{conn: conn, dialect: d.dialect, log: d.log}, nil
}

// WithSession runs fn inside a fresh session and releases it on every exit
// path, panics included. Uncommitted work is rolled back.
func (d *DB) WithSession(ctx context.Context, fn func(*Session) error) (err error) {
	s, err := d.NewSession(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := s.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return fn(s)
}

func (s *Session) Dialect() Dialect { return s.dialect }

func (s *Session) InTx() bool { return s.tx != nil }

func (s *Session) begin(ctx context.Context) error {
	if s.closed {
		return ErrSessionClosed
	}
	if s.tx != nil {
		return nil
	}
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	s.tx = tx
	return nil
}

func (s *Session) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	if err := s.begin(ctx); err != nil {
		return nil, err
	}
	return s.tx.ExecContext(ctx, s.dialect.Rebind(query), args...)
}

func (s *Session) ExecReturningID(ctx context.Context, query string, args ...any) (int64, error) {
	if err := s.begin(ctx); err != nil {
		return 0, err
	}
	var id int64
	err := s.tx.QueryRowContext(ctx, s.dialect.Rebind(query), args...).Scan(&id)
	return id, err
}

// QueryRow on a closed session reports sql.ErrConnDone from Scan; a
// *sql.Row cannot carry ErrSessionClosed.
func (s *Session) QueryRow(ctx context.Context, query string, args ...any) *sql.Row {
	if s.tx != nil {
		return s.tx.QueryRowContext(ctx, s.dialect.Rebind(query), args...)
	}
	return s.conn.QueryRowContext(ctx, s.dialect.Rebind(query), args...)
}

func (s *Session) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	if s.closed {
		return nil, ErrSessionClosed
	}
	if s.tx != nil {
		return s.tx.QueryContext(ctx, s.dialect.Rebind(query), args...)
	}
	return s.conn.QueryContext(ctx, s.dialect.Rebind(query), args...)
}

func (s *Session) Commit() error {
	if s.tx == nil {
		return nil
	}
	err := s.tx.Commit()
	s.tx = nil
	if err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	s.log.Debug("session committed")
	return nil
}

func (s *Session) Rollback() error {
	if s.tx == nil {
		return nil
	}
	err := s.tx.Rollback()
	s.tx = nil
	if err != nil && !errors.Is(err, sql.ErrTxDone) {
		return fmt.Errorf("rollback: %w", err)
	}
	s.log.Debug("session rolled back")
	return nil
}

func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	rbErr := s.Rollback()
	s.closed = true
	err := s.conn.Close()
	s.log.Debug("session released")
	return errors.Join(rbErr, err)
}
