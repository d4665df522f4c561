// wire.go is cmd/spectrail's single wiring point: config -> storage ->
// provider -> WorkflowFacade, the same end-to-end assembly shape as the
// teacher's cmd/doctor.go (one command builds everything a real run needs).
package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/spectrail/core/internal/chatprovider"
	"github.com/spectrail/core/internal/projects"
	"github.com/spectrail/core/internal/runlog"
	pglog "github.com/spectrail/core/internal/runlog/postgres"
	sqlitelog "github.com/spectrail/core/internal/runlog/sqlite"
	"github.com/spectrail/core/internal/telemetry"
	"github.com/spectrail/core/internal/workflow"
)

// app bundles everything a subcommand needs, plus its own teardown.
type app struct {
	cfg      *DevConfig
	db       *sql.DB
	log      runlog.RunLog
	projects projects.Store
	workflow *workflow.Facade
	logger   *telemetry.Logger
}

func (a *app) Close() {
	if closer, ok := a.log.(interface{ Close() error }); ok {
		closer.Close()
	}
}

func buildApp(ctx context.Context, cfg *DevConfig) (*app, error) {
	logger := telemetry.NewLogger(nil)

	var (
		runLog   runlog.RunLog
		db       *sql.DB
		dialect  projects.Dialect
	)

	migrationsDir := cfg.resolveMigrationsDir()

	switch cfg.DB.Driver {
	case "postgres":
		if cfg.DB.PostgresDSN == "" {
			return nil, fmt.Errorf("db.driver is postgres but SPECTRAIL_POSTGRES_DSN is not set")
		}
		store, err := pglog.Open(ctx, cfg.DB.PostgresDSN, migrationsDir)
		if err != nil {
			return nil, fmt.Errorf("open postgres runlog: %w", err)
		}
		runLog = store
		db = store.DB()
		dialect = projects.DialectPostgres
	case "sqlite", "":
		path := cfg.DB.SQLitePath
		if path == "" {
			path = "spectrail.db"
		}
		store, err := sqlitelog.Open(ctx, path, migrationsDir)
		if err != nil {
			return nil, fmt.Errorf("open sqlite runlog: %w", err)
		}
		runLog = store
		db = store.DB()
		dialect = projects.DialectSQLite
	default:
		return nil, fmt.Errorf("unknown db.driver %q (want sqlite or postgres)", cfg.DB.Driver)
	}

	projectStore := projects.NewSQLStore(db, dialect)

	chat, err := chatprovider.New(cfg.providerSettings(), "", logger)
	if err != nil {
		if closer, ok := runLog.(interface{ Close() error }); ok {
			closer.Close()
		}
		return nil, fmt.Errorf("build chat provider: %w", err)
	}

	facade := workflow.New(projectStore, runLog, chat, cfg.Provider.Model)

	return &app{
		cfg:      cfg,
		db:       db,
		log:      runLog,
		projects: projectStore,
		workflow: facade,
		logger:   logger,
	}, nil
}
