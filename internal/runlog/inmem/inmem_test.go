package inmem

import (
	"testing"

	"github.com/spectrail/core/pkg/spectrailapi"
)

func TestOpenRunAndAppendStep(t *testing.T) {
	s := New()
	ctx := t.Context()

	run, err := s.OpenRun(ctx, "task-1", nil, spectrailapi.RunTypePlan, "openai", "gpt-4o")
	if err != nil {
		t.Fatalf("OpenRun: %v", err)
	}
	if !run.Open() {
		t.Fatal("new run should be open")
	}

	err = s.AppendStep(ctx, run.ID,
		spectrailapi.Message{Role: spectrailapi.RoleAssistant, Content: ""},
		[]spectrailapi.ToolCall{{Name: "list_files", ArgsJSON: `{}`, ResultJSON: `{"files":[]}`}},
		[]spectrailapi.Message{{Role: spectrailapi.RoleTool, Content: `{"files":[]}`}},
	)
	if err != nil {
		t.Fatalf("AppendStep: %v", err)
	}

	msgs, err := s.ListMessages(ctx, run.ID)
	if err != nil {
		t.Fatalf("ListMessages: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("want 2 messages (assistant+tool), got %d", len(msgs))
	}

	calls, err := s.ListToolCalls(ctx, run.ID)
	if err != nil {
		t.Fatalf("ListToolCalls: %v", err)
	}
	if len(calls) != 1 {
		t.Fatalf("want 1 tool call, got %d", len(calls))
	}

	if err := s.CloseRun(ctx, run.ID); err != nil {
		t.Fatalf("CloseRun: %v", err)
	}
	closed, err := s.GetRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if closed.Open() {
		t.Fatal("run should be closed")
	}
	// idempotent close
	if err := s.CloseRun(ctx, run.ID); err != nil {
		t.Fatalf("second CloseRun should be a no-op, got %v", err)
	}
}

func TestUpsertArtifactReplacesByKind(t *testing.T) {
	s := New()
	ctx := t.Context()

	a1, err := s.UpsertArtifact(ctx, "task-1", nil, spectrailapi.ArtifactPlanMD, "v1")
	if err != nil {
		t.Fatalf("UpsertArtifact: %v", err)
	}
	a2, err := s.UpsertArtifact(ctx, "task-1", nil, spectrailapi.ArtifactPlanMD, "v2")
	if err != nil {
		t.Fatalf("UpsertArtifact: %v", err)
	}
	if a1.ID != a2.ID {
		t.Fatalf("expected same artifact ID on upsert, got %q then %q", a1.ID, a2.ID)
	}

	arts, err := s.ListArtifacts(ctx, "task-1")
	if err != nil {
		t.Fatalf("ListArtifacts: %v", err)
	}
	if len(arts) != 1 || arts[0].Content != "v2" {
		t.Fatalf("want one artifact with content v2, got %+v", arts)
	}
}

func TestUpsertSettingsBulk(t *testing.T) {
	s := New()
	ctx := t.Context()

	if err := s.UpsertSettings(ctx, map[string]string{"provider.base_url": "https://x", "provider.model": "gpt-4o"}); err != nil {
		t.Fatalf("UpsertSettings: %v", err)
	}
	v, ok, err := s.GetSetting(ctx, "provider.model")
	if err != nil || !ok || v != "gpt-4o" {
		t.Fatalf("got v=%q ok=%v err=%v", v, ok, err)
	}
	_, ok, _ = s.GetSetting(ctx, "missing")
	if ok {
		t.Fatal("expected missing setting to report ok=false")
	}
}

func TestAppendStepUnknownRunFails(t *testing.T) {
	s := New()
	err := s.AppendStep(t.Context(), "no-such-run", spectrailapi.Message{Role: spectrailapi.RoleAssistant}, nil, nil)
	if err == nil {
		t.Fatal("expected error for unknown run")
	}
}
