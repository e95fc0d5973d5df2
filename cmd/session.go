package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/example/usercli/internal/application/usecases"
	"github.com/example/usercli/internal/config"
	"github.com/example/usercli/internal/db"
	"github.com/example/usercli/internal/logging"
	"github.com/example/usercli/internal/migrate"
)

// withUsers opens the store, acquires one session for the whole command and
// releases both before returning. ensureSchema creates missing tables first.
func withUsers(cmd *cobra.Command, ensureSchema bool, fn func(context.Context, usecases.UserService) error) error {
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	if u, _ := cmd.Flags().GetString("database-url"); u != "" {
		cfg.DatabaseURL = u
	}
	log := logging.New(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	d, err := db.Open(ctx, cfg.DatabaseURL, log)
	if err != nil {
		return err
	}
	defer d.Close()

	if ensureSchema {
		if err := migrate.CreateAll(ctx, d); err != nil {
			return err
		}
	}

	return d.WithSession(ctx, func(s *db.Session) error {
		return fn(ctx, usecases.NewUserService(s, log.WithField("command", cmd.Name())))
	})
}
