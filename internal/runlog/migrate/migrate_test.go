package migrate

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"
)

func TestUpAppliesMigrationsOnce(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "0001_init.sql"), []byte(`CREATE TABLE widgets (id TEXT PRIMARY KEY)`), 0o644); err != nil {
		t.Fatalf("write migration: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "0002_add_col.sql"), []byte(`ALTER TABLE widgets ADD COLUMN name TEXT`), 0o644); err != nil {
		t.Fatalf("write migration: %v", err)
	}

	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()

	ctx := t.Context()
	applied, err := Up(ctx, db, dir, DialectSQLite)
	if err != nil {
		t.Fatalf("Up: %v", err)
	}
	if applied != 2 {
		t.Fatalf("want 2 applied, got %d", applied)
	}

	v, err := Version(ctx, db)
	if err != nil || v != 2 {
		t.Fatalf("version: %d err: %v", v, err)
	}

	// Second call is a no-op.
	applied, err = Up(ctx, db, dir, DialectSQLite)
	if err != nil {
		t.Fatalf("second Up: %v", err)
	}
	if applied != 0 {
		t.Fatalf("want 0 applied on rerun, got %d", applied)
	}

	if _, err := db.Exec(`INSERT INTO widgets (id, name) VALUES ('a', 'b')`); err != nil {
		t.Fatalf("insert into migrated table failed: %v", err)
	}
}

func TestResolveDirPrecedence(t *testing.T) {
	t.Setenv("SPECTRAIL_TEST_MIGRATIONS_DIR", "/from/env")
	if got := ResolveDir("/from/flag", "SPECTRAIL_TEST_MIGRATIONS_DIR"); got != "/from/flag" {
		t.Fatalf("flag should win, got %q", got)
	}
	if got := ResolveDir("", "SPECTRAIL_TEST_MIGRATIONS_DIR"); got != "/from/env" {
		t.Fatalf("env should win absent flag, got %q", got)
	}
}
