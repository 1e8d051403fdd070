package main

import (
	"fmt"

	"armybuilder/internal/config"
	"armybuilder/internal/pg"
	"armybuilder/internal/sqlite"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the document table for the configured database",
	RunE:  runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	switch cfg.DBDriver {
	case config.DBPostgres:
		db, err := pg.Open(ctx, cfg.DBURL)
		if err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
		defer db.Close()
		if err := pg.ApplyDDL(ctx, db, pg.Schema(), logger); err != nil {
			return err
		}
	case config.DBSQLite:
		db, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return fmt.Errorf("sqlite: %w", err)
		}
		defer db.Close()
		if err := sqlite.ApplyDDL(ctx, db, sqlite.Schema()); err != nil {
			return err
		}
	default:
		return fmt.Errorf("nothing to migrate for db driver %q", cfg.DBDriver)
	}
	logger.Info("schema applied", zap.String("driver", cfg.DBDriver))
	return nil
}
