// Grounded on the teacher's cmd/migrate.go command shape (a migrate parent
// with up/version subcommands, DSN/dir resolution split out into helpers),
// but calling internal/runlog/migrate directly instead of golang-migrate —
// see DESIGN.md for why golang-migrate was dropped.
package main

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/spf13/cobra"
	_ "modernc.org/sqlite"

	"github.com/spectrail/core/internal/runlog/migrate"
)

var migrationsDirFlag string

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or inspect database migrations",
	}
	cmd.PersistentFlags().StringVar(&migrationsDirFlag, "migrations-dir", "", "override the migrations directory (default: resolved from db.driver)")
	cmd.AddCommand(migrateUpCmd())
	cmd.AddCommand(migrateVersionCmd())
	return cmd
}

func openMigrationDB(cfg *DevConfig) (*sql.DB, migrate.Dialect, error) {
	switch cfg.DB.Driver {
	case "postgres":
		if cfg.DB.PostgresDSN == "" {
			return nil, 0, fmt.Errorf("db.driver is postgres but SPECTRAIL_POSTGRES_DSN is not set")
		}
		db, err := sql.Open("pgx", cfg.DB.PostgresDSN)
		if err != nil {
			return nil, 0, fmt.Errorf("open postgres: %w", err)
		}
		return db, migrate.DialectPostgres, nil
	case "sqlite", "":
		path := cfg.DB.SQLitePath
		if path == "" {
			path = "spectrail.db"
		}
		db, err := sql.Open("sqlite", path)
		if err != nil {
			return nil, 0, fmt.Errorf("open sqlite: %w", err)
		}
		return db, migrate.DialectSQLite, nil
	default:
		return nil, 0, fmt.Errorf("unknown db.driver %q", cfg.DB.Driver)
	}
}

func migrateUpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadDevConfig(resolveConfigPath())
			if err != nil {
				return err
			}
			if migrationsDirFlag != "" {
				cfg.DB.MigrationsDir = migrationsDirFlag
			}
			db, dialect, err := openMigrationDB(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			applied, err := migrate.Up(context.Background(), db, cfg.resolveMigrationsDir(), dialect)
			if err != nil {
				return fmt.Errorf("migrate up: %w", err)
			}
			fmt.Printf("applied %d migration(s)\n", applied)
			return nil
		},
	}
}

func migrateVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show the current schema version",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadDevConfig(resolveConfigPath())
			if err != nil {
				return err
			}
			db, _, err := openMigrationDB(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			v, err := migrate.Version(context.Background(), db)
			if err != nil {
				return fmt.Errorf("read version: %w", err)
			}
			fmt.Printf("version: %d\n", v)
			return nil
		},
	}
}
