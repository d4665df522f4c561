// Package migrate applies versioned SQL migrations against a *sql.DB.
// Grounded on the teacher's cmd/migrate.go (resolveMigrationsDir: flag/env/
// binary-relative resolution order) but hand-rolled instead of wrapping
// golang-migrate/migrate/v4, whose only registered database driver in the
// retrieval pack is postgres — incompatible with the cgo-free
// modernc.org/sqlite driver this module also needs (see DESIGN.md).
package migrate

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

func nowRFC3339() string { return time.Now().UTC().Format(time.RFC3339Nano) }

// ResolveDir mirrors the teacher's resolveMigrationsDir: an explicit flag
// wins, then an environment variable, then a directory next to the running
// binary.
func ResolveDir(flagValue, envVar string) string {
	if flagValue != "" {
		return flagValue
	}
	if v := os.Getenv(envVar); v != "" {
		return v
	}
	exe, err := os.Executable()
	if err != nil {
		return "migrations"
	}
	return filepath.Join(filepath.Dir(exe), "migrations")
}

// file is one parsed migration: NNNN_description.sql, applied in numeric
// order.
type file struct {
	version int
	name    string
	path    string
}

func loadFiles(dir string) ([]file, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read migrations dir %q: %w", dir, err)
	}
	var files []file
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		parts := strings.SplitN(e.Name(), "_", 2)
		if len(parts) != 2 {
			continue
		}
		v, err := strconv.Atoi(parts[0])
		if err != nil {
			continue
		}
		files = append(files, file{version: v, name: e.Name(), path: filepath.Join(dir, e.Name())})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].version < files[j].version })
	return files, nil
}

// Dialect distinguishes the two placeholder styles the backends need:
// sqlite/modernc accepts "?", pgx requires "$1"-style.
type Dialect int

const (
	DialectSQLite Dialect = iota
	DialectPostgres
)

func (d Dialect) insertVersionSQL() string {
	if d == DialectPostgres {
		return `INSERT INTO schema_migrations (version, applied_at) VALUES ($1, $2)`
	}
	return `INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)`
}

// Up applies every migration in dir whose version is greater than the
// highest already-recorded version, in order, each inside its own
// transaction. It creates the bookkeeping table schema_migrations (version
// integer primary key, applied_at) if absent.
func Up(ctx context.Context, db *sql.DB, dir string, dialect Dialect) (int, error) {
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version    INTEGER PRIMARY KEY,
		applied_at TEXT NOT NULL
	)`); err != nil {
		return 0, fmt.Errorf("create schema_migrations: %w", err)
	}

	files, err := loadFiles(dir)
	if err != nil {
		return 0, err
	}

	current := 0
	row := db.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`)
	if err := row.Scan(&current); err != nil {
		return 0, fmt.Errorf("read current version: %w", err)
	}

	applied := 0
	for _, f := range files {
		if f.version <= current {
			continue
		}
		sqlBytes, err := os.ReadFile(f.path)
		if err != nil {
			return applied, fmt.Errorf("read %s: %w", f.name, err)
		}

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return applied, fmt.Errorf("begin tx for %s: %w", f.name, err)
		}
		if _, err := tx.ExecContext(ctx, string(sqlBytes)); err != nil {
			tx.Rollback()
			return applied, fmt.Errorf("apply %s: %w", f.name, err)
		}
		if _, err := tx.ExecContext(ctx, dialect.insertVersionSQL(), f.version, nowRFC3339()); err != nil {
			tx.Rollback()
			return applied, fmt.Errorf("record %s: %w", f.name, err)
		}
		if err := tx.Commit(); err != nil {
			return applied, fmt.Errorf("commit %s: %w", f.name, err)
		}
		applied++
	}
	return applied, nil
}

// Version returns the highest applied migration version, or 0 if none.
func Version(ctx context.Context, db *sql.DB) (int, error) {
	var v int
	row := db.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`)
	if err := row.Scan(&v); err != nil {
		return 0, fmt.Errorf("read version: %w", err)
	}
	return v, nil
}
