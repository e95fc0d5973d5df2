package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	Version   = "dev"
	CommitSHA = "none"
	BuildDate = "unknown"
)

func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "usercli",
		Short:         "Manage user records in a local relational store",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("database-url", "", "database URL or SQLite path (overrides DATABASE_URL)")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newInitializeCmd())
	root.AddCommand(newGetUserCmd())
	root.AddCommand(newFindUserCmd())
	root.AddCommand(newGetAllUsersCmd())
	root.AddCommand(newListUsersCmd())
	root.AddCommand(newChangeEmailCmd())
	root.AddCommand(newCreateUserCmd())
	root.AddCommand(newDeleteUserCmd())

	return root
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
