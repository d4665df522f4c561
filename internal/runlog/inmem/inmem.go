// Package inmem is a memory-backed runlog.RunLog for use in tests that
// exercise AgentLoop/WorkflowFacade without a real database. Grounded on
// the teacher's store-selection pattern (pluggable backend behind one
// interface) but with a plain mutex-guarded map instead of a driver.
package inmem

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spectrail/core/pkg/spectrailapi"
)

// Store is an in-memory RunLog. The zero value is not usable; use New.
type Store struct {
	mu        sync.Mutex
	runs      map[string]*spectrailapi.Run
	messages  map[string][]spectrailapi.Message // by run ID
	toolCalls map[string][]spectrailapi.ToolCall // by run ID
	artifacts map[string]map[spectrailapi.ArtifactKind]*spectrailapi.Artifact // by task ID
	settings  map[string]spectrailapi.Setting
	now       func() time.Time
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		runs:      make(map[string]*spectrailapi.Run),
		messages:  make(map[string][]spectrailapi.Message),
		toolCalls: make(map[string][]spectrailapi.ToolCall),
		artifacts: make(map[string]map[spectrailapi.ArtifactKind]*spectrailapi.Artifact),
		settings:  make(map[string]spectrailapi.Setting),
		now:       time.Now,
	}
}

func (s *Store) OpenRun(_ context.Context, taskID string, phaseID *string, runType spectrailapi.RunType, provider, model string) (*spectrailapi.Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	run := &spectrailapi.Run{
		ID:        uuid.NewString(),
		TaskID:    taskID,
		PhaseID:   phaseID,
		RunType:   runType,
		Provider:  provider,
		Model:     model,
		StartedAt: s.now(),
	}
	s.runs[run.ID] = run
	return run, nil
}

func (s *Store) CloseRun(_ context.Context, runID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	run, ok := s.runs[runID]
	if !ok {
		return spectrailapi.NewCoreError(spectrailapi.ErrPersistenceError, "unknown run: "+runID, nil)
	}
	if run.EndedAt == nil {
		ended := s.now()
		run.EndedAt = &ended
	}
	return nil
}

func (s *Store) AppendStep(_ context.Context, runID string, assistantMsg spectrailapi.Message, toolCalls []spectrailapi.ToolCall, toolMsgs []spectrailapi.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.runs[runID]; !ok {
		return spectrailapi.NewCoreError(spectrailapi.ErrPersistenceError, "unknown run: "+runID, nil)
	}

	assistantMsg.ID = uuid.NewString()
	assistantMsg.RunID = runID
	if assistantMsg.CreatedAt.IsZero() {
		assistantMsg.CreatedAt = s.now()
	}
	s.messages[runID] = append(s.messages[runID], assistantMsg)

	for i := range toolCalls {
		toolCalls[i].ID = uuid.NewString()
		toolCalls[i].RunID = runID
		if toolCalls[i].CreatedAt.IsZero() {
			toolCalls[i].CreatedAt = s.now()
		}
		s.toolCalls[runID] = append(s.toolCalls[runID], toolCalls[i])
	}

	for i := range toolMsgs {
		toolMsgs[i].ID = uuid.NewString()
		toolMsgs[i].RunID = runID
		if toolMsgs[i].CreatedAt.IsZero() {
			toolMsgs[i].CreatedAt = s.now()
		}
		s.messages[runID] = append(s.messages[runID], toolMsgs[i])
	}
	return nil
}

func (s *Store) AppendMessage(_ context.Context, msg spectrailapi.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.runs[msg.RunID]; !ok {
		return spectrailapi.NewCoreError(spectrailapi.ErrPersistenceError, "unknown run: "+msg.RunID, nil)
	}
	msg.ID = uuid.NewString()
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = s.now()
	}
	s.messages[msg.RunID] = append(s.messages[msg.RunID], msg)
	return nil
}

func (s *Store) UpsertArtifact(_ context.Context, taskID string, phaseID *string, kind spectrailapi.ArtifactKind, content string) (*spectrailapi.Artifact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	byKind, ok := s.artifacts[taskID]
	if !ok {
		byKind = make(map[spectrailapi.ArtifactKind]*spectrailapi.Artifact)
		s.artifacts[taskID] = byKind
	}

	existing, ok := byKind[kind]
	if ok {
		existing.Content = content
		existing.PhaseID = phaseID
		existing.CreatedAt = s.now()
		return existing, nil
	}

	art := &spectrailapi.Artifact{
		ID:        uuid.NewString(),
		TaskID:    taskID,
		PhaseID:   phaseID,
		Kind:      kind,
		Content:   content,
		CreatedAt: s.now(),
	}
	byKind[kind] = art
	return art, nil
}

func (s *Store) ListMessages(_ context.Context, runID string) ([]spectrailapi.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]spectrailapi.Message, len(s.messages[runID]))
	copy(out, s.messages[runID])
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) ListToolCalls(_ context.Context, runID string) ([]spectrailapi.ToolCall, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]spectrailapi.ToolCall, len(s.toolCalls[runID]))
	copy(out, s.toolCalls[runID])
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) ListArtifacts(_ context.Context, taskID string) ([]spectrailapi.Artifact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	byKind := s.artifacts[taskID]
	out := make([]spectrailapi.Artifact, 0, len(byKind))
	for _, a := range byKind {
		out = append(out, *a)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Kind < out[j].Kind })
	return out, nil
}

func (s *Store) GetRun(_ context.Context, runID string) (*spectrailapi.Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	run, ok := s.runs[runID]
	if !ok {
		return nil, spectrailapi.NewCoreError(spectrailapi.ErrPersistenceError, "unknown run: "+runID, nil)
	}
	cp := *run
	return &cp, nil
}

func (s *Store) GetSetting(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	setting, ok := s.settings[key]
	if !ok {
		return "", false, nil
	}
	return setting.Value, true, nil
}

func (s *Store) UpsertSettings(_ context.Context, pairs map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for k, v := range pairs {
		s.settings[k] = spectrailapi.Setting{Key: k, Value: v, UpdatedAt: now}
	}
	return nil
}
