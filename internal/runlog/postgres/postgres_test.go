package postgres

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spectrail/core/pkg/spectrailapi"
)

// These tests need a reachable Postgres instance and are skipped unless
// SPECTRAIL_TEST_POSTGRES_DSN is set (there is no embedded postgres
// fixture in this module, unlike the sqlite backend).
func newTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("SPECTRAIL_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("SPECTRAIL_TEST_POSTGRES_DSN not set")
	}
	migrationsDir := filepath.Join("..", "..", "..", "migrations", "postgres")
	s, err := Open(t.Context(), dsn, migrationsDir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	// Runs and artifacts reference tasks(id), so seed the tasks the tests use.
	if _, err := s.db.ExecContext(t.Context(), `INSERT INTO projects (id, name, repo_path, created_at) VALUES ('proj-1', 'demo', '/repos/demo', now()) ON CONFLICT (id) DO NOTHING`); err != nil {
		t.Fatalf("seed project: %v", err)
	}
	for _, id := range []string{"task-1", "task-2"} {
		if _, err := s.db.ExecContext(t.Context(), `INSERT INTO tasks (id, project_id, title, mode, status) VALUES ($1, 'proj-1', 'demo', 'plan', 'draft') ON CONFLICT (id) DO NOTHING`, id); err != nil {
			t.Fatalf("seed task: %v", err)
		}
	}
	return s
}

func TestOpenRunAndCloseRun(t *testing.T) {
	s := newTestStore(t)
	ctx := t.Context()

	run, err := s.OpenRun(ctx, "task-1", nil, spectrailapi.RunTypeVerify, "openai", "gpt-4o")
	if err != nil {
		t.Fatalf("OpenRun: %v", err)
	}
	if err := s.CloseRun(ctx, run.ID); err != nil {
		t.Fatalf("CloseRun: %v", err)
	}
	got, err := s.GetRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if got.Open() {
		t.Fatal("expected closed run")
	}
}

func TestUpsertArtifactIdempotentByTaskAndKind(t *testing.T) {
	s := newTestStore(t)
	ctx := t.Context()

	a1, err := s.UpsertArtifact(ctx, "task-2", nil, spectrailapi.ArtifactVerificationReport, "first")
	if err != nil {
		t.Fatalf("UpsertArtifact: %v", err)
	}
	a2, err := s.UpsertArtifact(ctx, "task-2", nil, spectrailapi.ArtifactVerificationReport, "second")
	if err != nil {
		t.Fatalf("UpsertArtifact: %v", err)
	}
	if a1.ID != a2.ID {
		t.Fatalf("expected stable id across upserts, got %q then %q", a1.ID, a2.ID)
	}
}
