// Package postgres is the alternate runlog.RunLog backend for multi-user
// deployments, grounded on the teacher's internal/store/pg package (one
// struct per backend wrapping a *sql.DB opened via pgx's database/sql
// shim) but stripped of its in-memory session cache, which has no
// equivalent need here (see internal/runlog/sqlite for the same note).
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/spectrail/core/internal/runlog/migrate"
	"github.com/spectrail/core/pkg/spectrailapi"
)

// Store implements runlog.RunLog on Postgres.
type Store struct {
	db *sql.DB
}

// Open connects to dsn and applies any pending migrations from
// migrationsDir.
func Open(ctx context.Context, dsn, migrationsDir string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if migrationsDir != "" {
		if _, err := migrate.Up(ctx, db, migrationsDir, migrate.DialectPostgres); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply migrations: %w", err)
		}
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// DB returns the underlying connection, for callers (cmd/spectrail) that
// need to share it with internal/projects.SQLStore rather than open a
// second connection to the same database.
func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) OpenRun(ctx context.Context, taskID string, phaseID *string, runType spectrailapi.RunType, provider, model string) (*spectrailapi.Run, error) {
	run := &spectrailapi.Run{
		ID:        uuid.NewString(),
		TaskID:    taskID,
		PhaseID:   phaseID,
		RunType:   runType,
		Provider:  provider,
		Model:     model,
		StartedAt: time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, task_id, phase_id, run_type, provider, model, started_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		run.ID, run.TaskID, run.PhaseID, string(run.RunType), run.Provider, run.Model, run.StartedAt)
	if err != nil {
		return nil, persistErr("open run", err)
	}
	return run, nil
}

func (s *Store) CloseRun(ctx context.Context, runID string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE runs SET ended_at = $1 WHERE id = $2 AND ended_at IS NULL`, time.Now().UTC(), runID)
	if err != nil {
		return persistErr("close run", err)
	}
	return nil
}

func (s *Store) AppendStep(ctx context.Context, runID string, assistantMsg spectrailapi.Message, toolCalls []spectrailapi.ToolCall, toolMsgs []spectrailapi.Message) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return persistErr("begin append step", err)
	}
	defer tx.Rollback()

	if err := insertMessage(ctx, tx, runID, &assistantMsg); err != nil {
		return err
	}
	for i := range toolCalls {
		if err := insertToolCall(ctx, tx, runID, &toolCalls[i]); err != nil {
			return err
		}
	}
	for i := range toolMsgs {
		if err := insertMessage(ctx, tx, runID, &toolMsgs[i]); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return persistErr("commit append step", err)
	}
	return nil
}

func (s *Store) AppendMessage(ctx context.Context, msg spectrailapi.Message) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return persistErr("begin append message", err)
	}
	defer tx.Rollback()
	if err := insertMessage(ctx, tx, msg.RunID, &msg); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return persistErr("commit append message", err)
	}
	return nil
}

func insertMessage(ctx context.Context, tx *sql.Tx, runID string, msg *spectrailapi.Message) error {
	msg.ID = uuid.NewString()
	msg.RunID = runID
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	_, err := tx.ExecContext(ctx,
		`INSERT INTO messages (id, run_id, role, content, created_at) VALUES ($1, $2, $3, $4, $5)`,
		msg.ID, msg.RunID, string(msg.Role), msg.Content, msg.CreatedAt)
	if err != nil {
		return persistErr("insert message", err)
	}
	return nil
}

func insertToolCall(ctx context.Context, tx *sql.Tx, runID string, tc *spectrailapi.ToolCall) error {
	tc.ID = uuid.NewString()
	tc.RunID = runID
	if tc.CreatedAt.IsZero() {
		tc.CreatedAt = time.Now().UTC()
	}
	_, err := tx.ExecContext(ctx,
		`INSERT INTO tool_calls (id, run_id, name, args_json, result_json, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		tc.ID, tc.RunID, tc.Name, tc.ArgsJSON, tc.ResultJSON, tc.CreatedAt)
	if err != nil {
		return persistErr("insert tool call", err)
	}
	return nil
}

func (s *Store) UpsertArtifact(ctx context.Context, taskID string, phaseID *string, kind spectrailapi.ArtifactKind, content string) (*spectrailapi.Artifact, error) {
	now := time.Now().UTC()
	id := uuid.NewString()
	row := s.db.QueryRowContext(ctx,
		`INSERT INTO artifacts (id, task_id, phase_id, kind, content, created_at, pinned)
		 VALUES ($1, $2, $3, $4, $5, $6, false)
		 ON CONFLICT (task_id, kind) DO UPDATE SET content = excluded.content, phase_id = excluded.phase_id, created_at = excluded.created_at
		 RETURNING id, created_at, pinned`,
		id, taskID, phaseID, string(kind), content, now)
	var gotID string
	var createdAt time.Time
	var pinned bool
	if err := row.Scan(&gotID, &createdAt, &pinned); err != nil {
		return nil, persistErr("upsert artifact", err)
	}
	return &spectrailapi.Artifact{
		ID: gotID, TaskID: taskID, PhaseID: phaseID, Kind: kind, Content: content, CreatedAt: createdAt, Pinned: pinned,
	}, nil
}

func (s *Store) ListMessages(ctx context.Context, runID string) ([]spectrailapi.Message, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, run_id, role, content, created_at FROM messages WHERE run_id = $1 ORDER BY created_at ASC`, runID)
	if err != nil {
		return nil, persistErr("list messages", err)
	}
	defer rows.Close()

	var out []spectrailapi.Message
	for rows.Next() {
		var m spectrailapi.Message
		var role string
		if err := rows.Scan(&m.ID, &m.RunID, &role, &m.Content, &m.CreatedAt); err != nil {
			return nil, persistErr("scan message", err)
		}
		m.Role = spectrailapi.MessageRole(role)
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *Store) ListToolCalls(ctx context.Context, runID string) ([]spectrailapi.ToolCall, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, run_id, name, args_json, result_json, created_at FROM tool_calls WHERE run_id = $1 ORDER BY created_at ASC`, runID)
	if err != nil {
		return nil, persistErr("list tool calls", err)
	}
	defer rows.Close()

	var out []spectrailapi.ToolCall
	for rows.Next() {
		var tc spectrailapi.ToolCall
		if err := rows.Scan(&tc.ID, &tc.RunID, &tc.Name, &tc.ArgsJSON, &tc.ResultJSON, &tc.CreatedAt); err != nil {
			return nil, persistErr("scan tool call", err)
		}
		out = append(out, tc)
	}
	return out, rows.Err()
}

func (s *Store) ListArtifacts(ctx context.Context, taskID string) ([]spectrailapi.Artifact, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, task_id, phase_id, kind, content, created_at, pinned FROM artifacts WHERE task_id = $1 ORDER BY kind ASC`, taskID)
	if err != nil {
		return nil, persistErr("list artifacts", err)
	}
	defer rows.Close()

	var out []spectrailapi.Artifact
	for rows.Next() {
		var a spectrailapi.Artifact
		var kind string
		var phaseID sql.NullString
		if err := rows.Scan(&a.ID, &a.TaskID, &phaseID, &kind, &a.Content, &a.CreatedAt, &a.Pinned); err != nil {
			return nil, persistErr("scan artifact", err)
		}
		if phaseID.Valid {
			a.PhaseID = &phaseID.String
		}
		a.Kind = spectrailapi.ArtifactKind(kind)
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) GetRun(ctx context.Context, runID string) (*spectrailapi.Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, task_id, phase_id, run_type, provider, model, started_at, ended_at FROM runs WHERE id = $1`, runID)
	var run spectrailapi.Run
	var phaseID sql.NullString
	var runType string
	var endedAt sql.NullTime
	if err := row.Scan(&run.ID, &run.TaskID, &phaseID, &runType, &run.Provider, &run.Model, &run.StartedAt, &endedAt); err != nil {
		return nil, persistErr("get run", err)
	}
	if phaseID.Valid {
		run.PhaseID = &phaseID.String
	}
	run.RunType = spectrailapi.RunType(runType)
	if endedAt.Valid {
		t := endedAt.Time
		run.EndedAt = &t
	}
	return &run, nil
}

func (s *Store) GetSetting(ctx context.Context, key string) (string, bool, error) {
	row := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = $1`, key)
	var v string
	if err := row.Scan(&v); err != nil {
		if err == sql.ErrNoRows {
			return "", false, nil
		}
		return "", false, persistErr("get setting", err)
	}
	return v, true, nil
}

func (s *Store) UpsertSettings(ctx context.Context, pairs map[string]string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return persistErr("begin upsert settings", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	for k, v := range pairs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO settings (key, value, updated_at) VALUES ($1, $2, $3)
			 ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
			k, v, now); err != nil {
			return persistErr("upsert setting "+k, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return persistErr("commit upsert settings", err)
	}
	return nil
}

func persistErr(op string, err error) error {
	return spectrailapi.NewCoreError(spectrailapi.ErrPersistenceError, fmt.Sprintf("%s: %s", op, err.Error()), err)
}
