package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/remitware/remit/internal/common"
	"github.com/remitware/remit/internal/config"
	"github.com/remitware/remit/internal/storage"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long: `Initialize or update the database schema to the latest version.

This command ensures your local database has all the required
tables and indexes for the application to function properly.`,
		RunE: runMigrate,
	}

	cmd.Flags().Bool("status", false, "Show current migration status without applying changes")
	return cmd
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	status, _ := cmd.Flags().GetBool("status")

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	store, err := storage.NewSQLiteStorage(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = store.Close() }()

	if status {
		version, err := store.SchemaVersion(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Database:        %s\n", cfg.DatabasePath)
		fmt.Printf("Current version: %d\n", version)
		fmt.Printf("Latest version:  %d\n", storage.ExpectedSchemaVersion)
		if version < storage.ExpectedSchemaVersion {
			fmt.Println("Run 'remit migrate' to apply pending migrations.")
		}
		return nil
	}

	common.LogInfo("Running database migrations", common.Fields{"database": cfg.DatabasePath})
	if err := store.Migrate(ctx); err != nil {
		return common.NewUserError("database migration failed", err)
	}

	common.LogInfo("Database migrations completed successfully", common.Fields{
		"version": storage.ExpectedSchemaVersion,
	})
	return nil
}
