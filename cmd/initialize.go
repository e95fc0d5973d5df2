package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/usercli/internal/application/usecases"
)

func newInitializeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "initialize",
		Short: "Drop all tables, recreate them and seed the default user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withUsers(cmd, false, func(ctx context.Context, svc usecases.UserService) error {
				if _, err := svc.Initialize(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Database Initialized")
				return nil
			})
		},
	}
}
