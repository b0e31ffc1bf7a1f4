package main

import (
	"fmt"

	"car-price/internal/database"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending postgres history migrations",
	Long: `Applies the goose migrations in DB_MIGRATIONS_DIR to the postgres
history database. With --status the migration state is printed instead.`,
	RunE: runMigrate,
}

func init() {
	migrateCmd.Flags().Bool("status", false, "print migration status without applying")
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	db, err := database.Open(cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.PingContext(cmd.Context()); err != nil {
		return fmt.Errorf("failed to reach postgres: %w", err)
	}

	status, _ := cmd.Flags().GetBool("status")
	if status {
		return database.MigrationStatus(db, cfg.Database.MigrationsDir)
	}
	return database.RunMigrations(db, cfg.Database.MigrationsDir, log)
}
