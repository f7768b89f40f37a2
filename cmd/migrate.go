package cmd

import (
	"context"
	"database/sql"

	"github.com/vibast-solutions/ms-go-journal/config"
	"github.com/vibast-solutions/ms-go-journal/migrations"

	"github.com/sethvargo/go-envconfig"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the database schema",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withMigrationDB(cmd.Context(), migrations.Up)
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back the most recent migration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withMigrationDB(cmd.Context(), migrations.Down)
	},
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the status of every migration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withMigrationDB(cmd.Context(), migrations.Status)
	},
}

func init() {
	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateDownCmd)
	migrateCmd.AddCommand(migrateStatusCmd)
	rootCmd.AddCommand(migrateCmd)
}

func withMigrationDB(ctx context.Context, run func(context.Context, *sql.DB) error) error {
	if ctx == nil {
		ctx = context.Background()
	}

	dbCfg, err := config.LoadDatabase(ctx, envconfig.OsLookuper())
	if err != nil {
		return err
	}

	db, err := openDatabase(ctx, dbCfg.MySQLDSN)
	if err != nil {
		return err
	}
	defer db.Close()

	return run(ctx, db)
}
