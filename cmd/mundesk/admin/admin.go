package admin

import (
	"fmt"

	"github.com/mundesk/mundesk/cmd"
	"github.com/mundesk/mundesk/pkg/db"
	"github.com/mundesk/mundesk/pkg/db/migrate"
	"github.com/spf13/cobra"
)

var (
	// Command is the admin command.
	Command = &cobra.Command{
		Use:   "admin",
		Short: "Administrate the server",
	}

	migrateCmd = &cobra.Command{
		Use:                "migrate",
		Short:              "Migrate the database to the latest version",
		Args:               cobra.NoArgs,
		PersistentPreRunE:  cmd.InitBackendContext,
		PersistentPostRunE: cmd.CloseDBContext,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if err := migrate.Migrate(ctx, db.FromContext(ctx)); err != nil {
				return fmt.Errorf("migration: %w", err)
			}

			return nil
		},
	}

	rollbackCmd = &cobra.Command{
		Use:                "rollback",
		Short:              "Rollback the database to the previous version",
		Args:               cobra.NoArgs,
		PersistentPreRunE:  cmd.InitBackendContext,
		PersistentPostRunE: cmd.CloseDBContext,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if err := migrate.Rollback(ctx, db.FromContext(ctx)); err != nil {
				return fmt.Errorf("rollback: %w", err)
			}

			return nil
		},
	}

	versionCmd = &cobra.Command{
		Use:                "version",
		Short:              "Print the database schema version",
		Args:               cobra.NoArgs,
		PersistentPreRunE:  cmd.InitBackendContext,
		PersistentPostRunE: cmd.CloseDBContext,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			v, err := migrate.Version(ctx, db.FromContext(ctx))
			if err != nil {
				return fmt.Errorf("version: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), v)
			return nil
		},
	}
)

func init() {
	Command.AddCommand(
		migrateCmd,
		rollbackCmd,
		versionCmd,
	)
}
