package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/example/usercli/internal/application/usecases"
	"github.com/example/usercli/internal/domain/user"
	"github.com/example/usercli/internal/internaltypes"
)

func printUsers(w io.Writer, users []user.User) {
	for _, u := range users {
		fmt.Fprintln(w, u)
	}
}

func newGetUserCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "get-user <username>",
		Short:   "Get a user by exact username",
		Example: "  usercli get-user bob",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			username := args[0]
			return withUsers(cmd, true, func(ctx context.Context, svc usecases.UserService) error {
				u, err := svc.Get(ctx, username)
				if errors.Is(err, internaltypes.ErrNotFound) {
					fmt.Fprintf(cmd.OutOrStdout(), "%s not found!\n", username)
					return nil
				}
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), u)
				return nil
			})
		},
	}
}

func newFindUserCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "find-user <search>",
		Short:   "Find users by partial match in username or email",
		Example: "  usercli find-user thom",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			search := args[0]
			return withUsers(cmd, true, func(ctx context.Context, svc usecases.UserService) error {
				users, err := svc.Find(ctx, search)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(users) == 0 {
					fmt.Fprintf(out, "No users found with search term '%s'.\n", search)
					return nil
				}
				fmt.Fprintf(out, "Users matching '%s':\n", search)
				printUsers(out, users)
				return nil
			})
		},
	}
}

func newGetAllUsersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get-all-users",
		Short: "Get all users in the database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withUsers(cmd, true, func(ctx context.Context, svc usecases.UserService) error {
				users, err := svc.All(ctx)
				if err != nil {
					return err
				}
				if len(users) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No users found.")
					return nil
				}
				printUsers(cmd.OutOrStdout(), users)
				return nil
			})
		},
	}
}

func newListUsersCmd() *cobra.Command {
	var limit, offset int

	c := &cobra.Command{
		Use:   "list-users",
		Short: "List users with pagination",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withUsers(cmd, true, func(ctx context.Context, svc usecases.UserService) error {
				page, err := svc.List(ctx, limit, offset)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Showing %d of %d users\n", len(page.Users), page.Total)
				printUsers(cmd.OutOrStdout(), page.Users)
				return nil
			})
		},
	}

	c.Flags().IntVar(&limit, "limit", usecases.DefaultListLimit, "the number of users to show")
	c.Flags().IntVar(&offset, "offset", 0, "the number of users to skip before starting to collect the result set")
	return c
}

func newChangeEmailCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "change-email <username> <new_email>",
		Short: "Change a user's email address",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			username, email := args[0], args[1]
			return withUsers(cmd, true, func(ctx context.Context, svc usecases.UserService) error {
				u, err := svc.ChangeEmail(ctx, username, email)
				if errors.Is(err, internaltypes.ErrNotFound) {
					fmt.Fprintf(cmd.OutOrStdout(), "%s not found! Unable to update email.\n", username)
					return nil
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Update %s's email to %s\n", u.Username, u.Email)
				return nil
			})
		},
	}
}

func newCreateUserCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "create-user <username> <email> <password>",
		Short:   "Create a new user",
		Example: "  usercli create-user alice alice@example.com password123",
		Args:    cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withUsers(cmd, true, func(ctx context.Context, svc usecases.UserService) error {
				u, err := svc.Create(ctx, args[0], args[1], args[2])
				if errors.Is(err, internaltypes.ErrAlreadyExists) {
					fmt.Fprintln(cmd.OutOrStdout(), "Username or email already exists")
					return nil
				}
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), u)
				return nil
			})
		},
	}
}

func newDeleteUserCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "delete-user <username>",
		Short:   "Delete a user by username",
		Example: "  usercli delete-user bob",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			username := args[0]
			return withUsers(cmd, true, func(ctx context.Context, svc usecases.UserService) error {
				err := svc.Delete(ctx, username)
				if errors.Is(err, internaltypes.ErrNotFound) {
					fmt.Fprintf(cmd.OutOrStdout(), "%s not found! Unable to delete.\n", username)
					return nil
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "User '%s' deleted successfully.\n", username)
				return nil
			})
		},
	}
}
