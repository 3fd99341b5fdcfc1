// Package commands provides CLI commands for the admin tool
package commands

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"modleapp/internal/database"
	"modleapp/internal/observability"
	"modleapp/internal/services"
	contextutils "modleapp/internal/utils"

	"github.com/spf13/cobra"
)

// DatabaseCommands returns the database management commands
func DatabaseCommands(userService *services.UserService, logger *observability.Logger, dbManager *database.Manager, db *sql.DB, databaseURL string) *cobra.Command {
	dbCmd := &cobra.Command{
		Use:   "db",
		Short: "Database management commands",
		Long: `Database management commands for the puzzle application.

Available commands:
  stats    - Show database statistics
  version  - Show the current schema migration version`,
	}

	// Add subcommands
	dbCmd.AddCommand(statsCmd(userService, logger, db))
	dbCmd.AddCommand(versionCmd(logger, dbManager, databaseURL))

	return dbCmd
}

// statsCmd returns the stats command
func statsCmd(userService *services.UserService, logger *observability.Logger, db *sql.DB) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show database statistics",
		Long:  `Show database statistics including user, puzzle and history counts.`,
		RunE:  runStats(userService, logger, db),
	}
}

// versionCmd returns the migration version command
func versionCmd(logger *observability.Logger, dbManager *database.Manager, databaseURL string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show the current schema migration version",
		Long:  `Show the version the schema migrations are currently at and whether the last migration left the schema dirty.`,
		RunE:  runMigrationVersion(logger, dbManager, databaseURL),
	}
}

// runStats returns a function that shows database statistics
func runStats(userService *services.UserService, logger *observability.Logger, db *sql.DB) func(cmd *cobra.Command, args []string) error {
	return func(_ *cobra.Command, _ []string) error {
		ctx := context.Background()

		// Log diagnostic information
		logger.Info(ctx, "Diagnostic info", map[string]interface{}{"config_file": os.Getenv("MODLE_CONFIG_FILE"), "database": getDatabaseInfo(db)})

		logger.Info(ctx, "Showing database statistics", map[string]interface{}{})

		// Get user statistics
		users, err := userService.GetAllUsers(ctx)
		if err != nil {
			logger.Error(ctx, "Failed to get user statistics", err, map[string]interface{}{})
			return contextutils.WrapErrorf(contextutils.ErrInternalError, "failed to get user statistics: %v", err)
		}

		var puzzleCount, historyCount int
		if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM puzzles").Scan(&puzzleCount); err != nil {
			logger.Warn(ctx, "Failed to count puzzles", map[string]interface{}{"error": err.Error()})
		}
		if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM daily_history").Scan(&historyCount); err != nil {
			logger.Warn(ctx, "Failed to count history entries", map[string]interface{}{"error": err.Error()})
		}

		fmt.Printf("Users:           %d\n", len(users))
		fmt.Printf("Puzzles:         %d\n", puzzleCount)
		fmt.Printf("History entries: %d\n", historyCount)

		logger.Info(ctx, "Database statistics", map[string]interface{}{"total_users": len(users), "total_puzzles": puzzleCount, "total_history": historyCount, "database": "PostgreSQL", "status": "Connected"})

		return nil
	}
}

// runMigrationVersion returns a function that reports the migration version
func runMigrationVersion(logger *observability.Logger, dbManager *database.Manager, databaseURL string) func(cmd *cobra.Command, args []string) error {
	return func(_ *cobra.Command, _ []string) error {
		ctx := context.Background()

		logger.Info(ctx, "Checking migration version", map[string]interface{}{"database_url": maskDatabaseURL(databaseURL)})

		version, dirty, err := dbManager.MigrationVersion(databaseURL)
		if err != nil {
			logger.Error(ctx, "Failed to get migration version", err, map[string]interface{}{})
			return contextutils.WrapErrorf(contextutils.ErrInternalError, "failed to get migration version: %v", err)
		}

		fmt.Printf("Migration version: %d\n", version)
		if dirty {
			fmt.Println("Schema state:      dirty (last migration did not complete)")
		} else {
			fmt.Println("Schema state:      clean")
		}

		return nil
	}
}
