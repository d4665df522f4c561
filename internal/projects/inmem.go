package projects

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spectrail/core/pkg/spectrailapi"
)

// InmemStore is a memory-backed Store for tests.
type InmemStore struct {
	mu       sync.Mutex
	projects map[string]*spectrailapi.Project
	tasks    map[string]*spectrailapi.Task
}

func NewInmemStore() *InmemStore {
	return &InmemStore{
		projects: make(map[string]*spectrailapi.Project),
		tasks:    make(map[string]*spectrailapi.Task),
	}
}

func (s *InmemStore) CreateProject(_ context.Context, name, repoPath string) (*spectrailapi.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := &spectrailapi.Project{ID: uuid.NewString(), Name: name, RepoPath: repoPath, CreatedAt: time.Now().UTC()}
	s.projects[p.ID] = p
	return p, nil
}

func (s *InmemStore) GetProject(_ context.Context, id string) (*spectrailapi.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[id]
	if !ok {
		return nil, spectrailapi.NewCoreError(spectrailapi.ErrPersistenceError, "unknown project: "+id, nil)
	}
	cp := *p
	return &cp, nil
}

func (s *InmemStore) ListProjects(_ context.Context) ([]spectrailapi.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]spectrailapi.Project, 0, len(s.projects))
	for _, p := range s.projects {
		out = append(out, *p)
	}
	return out, nil
}

func (s *InmemStore) CreateTask(_ context.Context, projectID, title string, mode spectrailapi.TaskMode) (*spectrailapi.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &spectrailapi.Task{ID: uuid.NewString(), ProjectID: projectID, Title: title, Mode: mode, Status: spectrailapi.TaskStatusDraft}
	s.tasks[t.ID] = t
	return t, nil
}

func (s *InmemStore) GetTask(_ context.Context, id string) (*spectrailapi.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return nil, spectrailapi.NewCoreError(spectrailapi.ErrPersistenceError, "unknown task: "+id, nil)
	}
	cp := *t
	return &cp, nil
}

func (s *InmemStore) ListTasks(_ context.Context, projectID string) ([]spectrailapi.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []spectrailapi.Task
	for _, t := range s.tasks {
		if t.ProjectID == projectID {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (s *InmemStore) SetTaskStatus(_ context.Context, id string, status spectrailapi.TaskStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return spectrailapi.NewCoreError(spectrailapi.ErrPersistenceError, "unknown task: "+id, nil)
	}
	t.Status = status
	return nil
}

var _ Store = (*InmemStore)(nil)
