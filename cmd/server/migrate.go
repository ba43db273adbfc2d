package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/soaringjerry/supportportal/internal/db"
	"github.com/soaringjerry/supportportal/internal/logging"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
		defer cancel()
		conn, applied, err := openDatabase(ctx, cfg.DB.Path, cfg.DB.MigrationsDir, logger)
		if err != nil {
			return err
		}
		defer conn.Close()
		fmt.Fprintf(cmd.OutOrStdout(), "applied %d migration(s)\n", len(applied))
		for _, name := range applied {
			fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", name)
		}
		return nil
	},
}

// openDatabase opens the SQLite file at path and brings its schema up to date.
func openDatabase(ctx context.Context, path, migrationsDir string, log *zap.Logger) (*sql.DB, []string, error) {
	storeLog := logging.For(log, logging.CategoryStore)
	conn, err := db.Open(path)
	if err != nil {
		return nil, nil, err
	}
	applied, err := db.RunMigrations(ctx, conn, migrationsDir, storeLog)
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("migrate %s: %w", path, err)
	}
	storeLog.Info("database ready", zap.String("path", path), zap.Int("applied", len(applied)))
	return conn, applied, nil
}
