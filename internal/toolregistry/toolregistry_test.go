package toolregistry

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/spectrail/core/pkg/spectrailapi"
)

func echoSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"project_id": map[string]any{"type": "string"},
		},
		"required": []any{"project_id"},
	}
}

func TestDispatchUnknownTool(t *testing.T) {
	r := New()
	resultJSON, _, err := r.Dispatch(context.Background(), "nope", map[string]any{})
	if err != nil {
		t.Fatalf("unexpected fatal error: %v", err)
	}
	var env spectrailapi.ToolErrorEnvelope
	if jerr := json.Unmarshal([]byte(resultJSON), &env); jerr != nil {
		t.Fatalf("expected error envelope json, got %q", resultJSON)
	}
	if env.Error == "" {
		t.Fatalf("expected non-empty error message")
	}
}

func TestDispatchInvalidArgs(t *testing.T) {
	r := New()
	r.Register("echo", "echoes", echoSchema(), func(ctx context.Context, args map[string]any) (any, error) {
		return args, nil
	})
	resultJSON, _, err := r.Dispatch(context.Background(), "echo", map[string]any{})
	if err != nil {
		t.Fatalf("unexpected fatal error: %v", err)
	}
	var env spectrailapi.ToolErrorEnvelope
	if jerr := json.Unmarshal([]byte(resultJSON), &env); jerr != nil {
		t.Fatalf("expected error envelope json, got %q", resultJSON)
	}
}

func TestDispatchSuccess(t *testing.T) {
	r := New()
	r.Register("echo", "echoes", echoSchema(), func(ctx context.Context, args map[string]any) (any, error) {
		return map[string]any{"ok": true}, nil
	})
	resultJSON, truncated, err := r.Dispatch(context.Background(), "echo", map[string]any{"project_id": "p"})
	if err != nil || truncated {
		t.Fatalf("got %q truncated=%v err=%v", resultJSON, truncated, err)
	}
	if resultJSON != `{"ok":true}` {
		t.Fatalf("got %q", resultJSON)
	}
}

func TestDispatchFatalPropagates(t *testing.T) {
	r := New()
	r.Register("boom", "explodes", echoSchema(), func(ctx context.Context, args map[string]any) (any, error) {
		return nil, spectrailapi.NewCoreError(spectrailapi.ErrRepoUnavailable, "repo gone", nil)
	})
	_, _, err := r.Dispatch(context.Background(), "boom", map[string]any{"project_id": "p"})
	ce, ok := spectrailapi.AsCoreError(err)
	if !ok || ce.Kind != spectrailapi.ErrRepoUnavailable {
		t.Fatalf("want fatal RepoUnavailable, got %v", err)
	}
}

func TestDispatchNonFatalToolErrorDoesNotAbort(t *testing.T) {
	r := New()
	r.Register("escape", "path escape", echoSchema(), func(ctx context.Context, args map[string]any) (any, error) {
		return nil, spectrailapi.NewCoreError(spectrailapi.ErrPathEscape, "path escape", nil)
	})
	resultJSON, _, err := r.Dispatch(context.Background(), "escape", map[string]any{"project_id": "p"})
	if err != nil {
		t.Fatalf("expected nil fatal error, got %v", err)
	}
	var env spectrailapi.ToolErrorEnvelope
	if jerr := json.Unmarshal([]byte(resultJSON), &env); jerr != nil || env.Error != "path escape" {
		t.Fatalf("got %q", resultJSON)
	}
}

func TestDefinitionsOrderMatchesRegistration(t *testing.T) {
	r := New()
	r.Register("a", "", echoSchema(), func(context.Context, map[string]any) (any, error) { return nil, nil })
	r.Register("b", "", echoSchema(), func(context.Context, map[string]any) (any, error) { return nil, nil })
	defs := r.Definitions()
	if len(defs) != 2 || defs[0].Name != "a" || defs[1].Name != "b" {
		t.Fatalf("got %+v", defs)
	}
}
