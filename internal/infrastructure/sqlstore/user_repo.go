package sqlstore

import (
	"context"
	"database/sql"

	"github.com/example/usercli/internal/db"
	"github.com/example/usercli/internal/domain/user"
	"github.com/example/usercli/internal/internaltypes"
)

const userColumns = `id, username, email, password`

// UserRepo runs user queries through whatever it is given, normally the
// command's Session, so writes stay pending until the session commits.
type UserRepo struct{ q db.Querier }

func NewUserRepo(q db.Querier) *UserRepo { return &UserRepo{q: q} }

func (r *UserRepo) Add(ctx context.Context, u *user.User) error {
	id, err := r.q.ExecReturningID(ctx,
		`INSERT INTO users (username, email, password) VALUES (?,?,?) RETURNING id`,
		u.Username, u.Email, u.Password,
	)
	if err != nil {
		return err
	}
	u.ID = id
	return nil
}

func (r *UserRepo) Refresh(ctx context.Context, u *user.User) error {
	row := r.q.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id=?`, u.ID)
	fresh, err := scanUser(row)
	if err != nil {
		return err
	}
	*u = fresh
	return nil
}

func (r *UserRepo) GetByUsername(ctx context.Context, username string) (user.User, error) {
	row := r.q.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE username=? ORDER BY id LIMIT 1`, username)
	return scanUser(row)
}

// Search returns users whose username or email contains term, matching
// case-sensitively.
func (r *UserRepo) Search(ctx context.Context, term string) ([]user.User, error) {
	d := r.q.Dialect()
	return r.list(ctx,
		`SELECT `+userColumns+` FROM users WHERE `+d.Contains("username")+` OR `+d.Contains("email")+` ORDER BY id`,
		term, term,
	)
}

func (r *UserRepo) All(ctx context.Context) ([]user.User, error) {
	return r.list(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
}

func (r *UserRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// Callers pass non-negative values.
func (r *UserRepo) Page(ctx context.Context, limit, offset int) ([]user.User, error) {
	return r.list(ctx, `SELECT `+userColumns+` FROM users ORDER BY id LIMIT ? OFFSET ?`, limit, offset)
}

func (r *UserRepo) Update(ctx context.Context, u user.User) error {
	res, err := r.q.Exec(ctx,
		`UPDATE users SET username=?, email=?, password=? WHERE id=?`,
		u.Username, u.Email, u.Password, u.ID,
	)
	if err != nil {
		return err
	}
	return requireOneRow(res)
}

func (r *UserRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.q.Exec(ctx, `DELETE FROM users WHERE id=?`, id)
	if err != nil {
		return err
	}
	return requireOneRow(res)
}

func (r *UserRepo) list(ctx context.Context, query string, args ...any) ([]user.User, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []user.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(s scanner) (user.User, error) {
	var u user.User
	if err := s.Scan(&u.ID, &u.Username, &u.Email, &u.Password); err != nil {
		return user.User{}, db.WrapNotFound(err)
	}
	return u, nil
}

func requireOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return internaltypes.ErrNotFound
	}
	return nil
}
