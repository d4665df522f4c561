// Package projects is a minimal stand-in for the Project/Task/Setting
// management spec §1 explicitly places out of scope as an external
// collaborator ("the desktop shell or another Core component already
// owns these"). It exists only so internal/workflow and cmd/spectrail have
// something concrete to call; a real deployment would replace this with
// whatever component already manages projects. No teacher file grounds
// this directly — it is new glue sized to the minimum the rest of the
// module needs, kept intentionally thin.
package projects

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/spectrail/core/pkg/spectrailapi"
)

// Store is the narrow Project/Task surface WorkflowFacade and the plan
// command depend on.
type Store interface {
	CreateProject(ctx context.Context, name, repoPath string) (*spectrailapi.Project, error)
	GetProject(ctx context.Context, id string) (*spectrailapi.Project, error)
	ListProjects(ctx context.Context) ([]spectrailapi.Project, error)

	CreateTask(ctx context.Context, projectID, title string, mode spectrailapi.TaskMode) (*spectrailapi.Task, error)
	GetTask(ctx context.Context, id string) (*spectrailapi.Task, error)
	ListTasks(ctx context.Context, projectID string) ([]spectrailapi.Task, error)
	SetTaskStatus(ctx context.Context, id string, status spectrailapi.TaskStatus) error
}

// Dialect distinguishes sqlite ("?") from postgres ("$1") placeholders,
// same split as internal/runlog/migrate.
type Dialect int

const (
	DialectSQLite Dialect = iota
	DialectPostgres
)

// SQLStore implements Store on the same database runlog uses (the
// projects/tasks tables are part of the shared schema in migrations/).
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
}

func NewSQLStore(db *sql.DB, dialect Dialect) *SQLStore {
	return &SQLStore{db: db, dialect: dialect}
}

func (s *SQLStore) ph(n int) string {
	if s.dialect == DialectPostgres {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

func (s *SQLStore) CreateProject(ctx context.Context, name, repoPath string) (*spectrailapi.Project, error) {
	p := &spectrailapi.Project{
		ID:        uuid.NewString(),
		Name:      name,
		RepoPath:  repoPath,
		CreatedAt: time.Now().UTC(),
	}
	q := fmt.Sprintf(`INSERT INTO projects (id, name, repo_path, created_at) VALUES (%s, %s, %s, %s)`,
		s.ph(1), s.ph(2), s.ph(3), s.ph(4))
	if _, err := s.db.ExecContext(ctx, q, p.ID, p.Name, p.RepoPath, timeArg(s.dialect, p.CreatedAt)); err != nil {
		return nil, wrapErr("create project", err)
	}
	return p, nil
}

func (s *SQLStore) GetProject(ctx context.Context, id string) (*spectrailapi.Project, error) {
	q := fmt.Sprintf(`SELECT id, name, repo_path, created_at, last_opened_at FROM projects WHERE id = %s`, s.ph(1))
	row := s.db.QueryRowContext(ctx, q, id)
	return scanProject(row, s.dialect)
}

func (s *SQLStore) ListProjects(ctx context.Context) ([]spectrailapi.Project, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, repo_path, created_at, last_opened_at FROM projects ORDER BY created_at ASC`)
	if err != nil {
		return nil, wrapErr("list projects", err)
	}
	defer rows.Close()

	var out []spectrailapi.Project
	for rows.Next() {
		p, err := scanProject(rows, s.dialect)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProject(row scanner, dialect Dialect) (*spectrailapi.Project, error) {
	var p spectrailapi.Project
	if dialect == DialectPostgres {
		var lastOpened sql.NullTime
		if err := row.Scan(&p.ID, &p.Name, &p.RepoPath, &p.CreatedAt, &lastOpened); err != nil {
			return nil, wrapErr("scan project", err)
		}
		if lastOpened.Valid {
			t := lastOpened.Time
			p.LastOpenedAt = &t
		}
		return &p, nil
	}
	var createdAt string
	var lastOpened sql.NullString
	if err := row.Scan(&p.ID, &p.Name, &p.RepoPath, &createdAt, &lastOpened); err != nil {
		return nil, wrapErr("scan project", err)
	}
	p.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	if lastOpened.Valid {
		t, _ := time.Parse(time.RFC3339Nano, lastOpened.String)
		p.LastOpenedAt = &t
	}
	return &p, nil
}

func (s *SQLStore) CreateTask(ctx context.Context, projectID, title string, mode spectrailapi.TaskMode) (*spectrailapi.Task, error) {
	t := &spectrailapi.Task{
		ID:        uuid.NewString(),
		ProjectID: projectID,
		Title:     title,
		Mode:      mode,
		Status:    spectrailapi.TaskStatusDraft,
	}
	q := fmt.Sprintf(`INSERT INTO tasks (id, project_id, title, mode, status) VALUES (%s, %s, %s, %s, %s)`,
		s.ph(1), s.ph(2), s.ph(3), s.ph(4), s.ph(5))
	if _, err := s.db.ExecContext(ctx, q, t.ID, t.ProjectID, t.Title, string(t.Mode), string(t.Status)); err != nil {
		return nil, wrapErr("create task", err)
	}
	return t, nil
}

func (s *SQLStore) GetTask(ctx context.Context, id string) (*spectrailapi.Task, error) {
	q := fmt.Sprintf(`SELECT id, project_id, title, mode, status FROM tasks WHERE id = %s`, s.ph(1))
	row := s.db.QueryRowContext(ctx, q, id)
	return scanTask(row)
}

func (s *SQLStore) ListTasks(ctx context.Context, projectID string) ([]spectrailapi.Task, error) {
	q := fmt.Sprintf(`SELECT id, project_id, title, mode, status FROM tasks WHERE project_id = %s`, s.ph(1))
	rows, err := s.db.QueryContext(ctx, q, projectID)
	if err != nil {
		return nil, wrapErr("list tasks", err)
	}
	defer rows.Close()

	var out []spectrailapi.Task
	for rows.Next() {
		tk, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *tk)
	}
	return out, rows.Err()
}

func scanTask(row scanner) (*spectrailapi.Task, error) {
	var t spectrailapi.Task
	var mode, status string
	if err := row.Scan(&t.ID, &t.ProjectID, &t.Title, &mode, &status); err != nil {
		return nil, wrapErr("scan task", err)
	}
	t.Mode = spectrailapi.TaskMode(mode)
	t.Status = spectrailapi.TaskStatus(status)
	return &t, nil
}

func (s *SQLStore) SetTaskStatus(ctx context.Context, id string, status spectrailapi.TaskStatus) error {
	q := fmt.Sprintf(`UPDATE tasks SET status = %s WHERE id = %s`, s.ph(1), s.ph(2))
	if _, err := s.db.ExecContext(ctx, q, string(status), id); err != nil {
		return wrapErr("set task status", err)
	}
	return nil
}

func timeArg(dialect Dialect, t time.Time) any {
	if dialect == DialectPostgres {
		return t
	}
	return t.Format(time.RFC3339Nano)
}

func wrapErr(op string, err error) error {
	return spectrailapi.NewCoreError(spectrailapi.ErrPersistenceError, fmt.Sprintf("%s: %s", op, err.Error()), err)
}
