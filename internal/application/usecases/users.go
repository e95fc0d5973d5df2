package usecases

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/example/usercli/internal/db"
	"github.com/example/usercli/internal/domain/user"
	"github.com/example/usercli/internal/infrastructure/sqlstore"
	"github.com/example/usercli/internal/internaltypes"
	"github.com/example/usercli/internal/migrate"
)

const (
	SeedUsername = "bob"
	SeedEmail    = "bob@mail.com"
	SeedPassword = "bobpass"

	DefaultListLimit = 10
)

// UserService must not outlive its session.
type UserService struct {
	Session *db.Session
	Users   *sqlstore.UserRepo
	Log     logrus.FieldLogger
}

func NewUserService(s *db.Session, log logrus.FieldLogger) UserService {
	return UserService{Session: s, Users: sqlstore.NewUserRepo(s), Log: log}
}

type Page struct {
	Users []user.User
	Total int
}

// Initialize wipes the store, recreates the schema and seeds the default
// user, all in one transaction.
func (s UserService) Initialize(ctx context.Context) (user.User, error) {
	if err := migrate.DropAll(ctx, s.Session); err != nil {
		return user.User{}, err
	}
	if err := migrate.CreateAll(ctx, s.Session); err != nil {
		return user.User{}, err
	}
	seed := user.New(SeedUsername, SeedEmail, SeedPassword)
	if err := s.Users.Add(ctx, &seed); err != nil {
		return user.User{}, fmt.Errorf("seed user: %w", err)
	}
	if err := s.Session.Commit(); err != nil {
		return user.User{}, err
	}
	if err := s.Users.Refresh(ctx, &seed); err != nil {
		return user.User{}, err
	}
	s.Log.WithField("username", seed.Username).Info("database initialized")
	return seed, nil
}

func (s UserService) Get(ctx context.Context, username string) (user.User, error) {
	return s.Users.GetByUsername(ctx, username)
}

func (s UserService) Find(ctx context.Context, search string) ([]user.User, error) {
	return s.Users.Search(ctx, search)
}

func (s UserService) All(ctx context.Context) ([]user.User, error) {
	return s.Users.All(ctx)
}

// List pages through the table. Negative limit or offset count as zero.
func (s UserService) List(ctx context.Context, limit, offset int) (Page, error) {
	if limit < 0 || offset < 0 {
		s.Log.WithFields(logrus.Fields{"limit": limit, "offset": offset}).Warn("negative pagination value clamped to 0")
		limit, offset = max(limit, 0), max(offset, 0)
	}
	total, err := s.Users.Count(ctx)
	if err != nil {
		return Page{}, err
	}
	users, err := s.Users.Page(ctx, limit, offset)
	if err != nil {
		return Page{}, err
	}
	return Page{Users: users, Total: total}, nil
}

// ChangeEmail returns internaltypes.ErrNotFound for an unknown username.
// A clash with another user's email is not recovered here; the store error
// is returned as is and the session is left to roll back.
func (s UserService) ChangeEmail(ctx context.Context, username, email string) (user.User, error) {
	u, err := s.Users.GetByUsername(ctx, username)
	if err != nil {
		return user.User{}, err
	}
	u.Email = email
	if err := s.Users.Update(ctx, u); err != nil {
		return user.User{}, fmt.Errorf("change email: %w", err)
	}
	if err := s.Session.Commit(); err != nil {
		return user.User{}, fmt.Errorf("change email: %w", err)
	}
	s.Log.WithField("username", username).Info("email changed")
	return u, nil
}

// Create inserts a new user. A duplicate username or email rolls the
// session back and yields internaltypes.ErrAlreadyExists.
func (s UserService) Create(ctx context.Context, username, email, password string) (user.User, error) {
	u := user.New(username, email, password)
	err := s.Users.Add(ctx, &u)
	if err == nil {
		err = s.Session.Commit()
	}
	if err != nil {
		if rbErr := s.Session.Rollback(); rbErr != nil {
			return user.User{}, rbErr
		}
		if db.IsUniqueViolation(err) {
			s.Log.WithField("username", username).Debug("duplicate user rejected")
			return user.User{}, internaltypes.ErrAlreadyExists
		}
		return user.User{}, fmt.Errorf("create user: %w", err)
	}
	s.Log.WithField("username", username).Info("user created")
	return u, nil
}

func (s UserService) Delete(ctx context.Context, username string) error {
	u, err := s.Users.GetByUsername(ctx, username)
	if err != nil {
		return err
	}
	if err := s.Users.Delete(ctx, u.ID); err != nil {
		return err
	}
	if err := s.Session.Commit(); err != nil {
		return err
	}
	s.Log.WithField("username", username).Info("user deleted")
	return nil
}
