package workflow

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spectrail/core/internal/chatprovider"
	"github.com/spectrail/core/internal/projects"
	"github.com/spectrail/core/internal/runlog/inmem"
	"github.com/spectrail/core/pkg/spectrailapi"
)

func initTestRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
	run := func(args ...string) {
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		cmd.Env = append(os.Environ(), "GIT_AUTHOR_NAME=t", "GIT_AUTHOR_EMAIL=t@t.com", "GIT_COMMITTER_NAME=t", "GIT_COMMITTER_EMAIL=t@t.com")
		if out, err := cmd.CombinedOutput(); err != nil {
			t.Fatalf("git %v: %v: %s", args, err, out)
		}
	}
	run("init")
	if err := os.WriteFile(filepath.Join(dir, "main.go"), []byte("package main\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	run("add", ".")
	run("commit", "-m", "init")
	return dir
}

func newFacade(t *testing.T, handler http.HandlerFunc) (*Facade, string, string) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := chatprovider.New(spectrailapi.ProviderSettings{ProviderName: "openai", BaseURL: srv.URL, Model: "gpt-4o", APIKey: "sk-test"}, "", nil)
	if err != nil {
		t.Fatalf("chatprovider.New: %v", err)
	}

	store := projects.NewInmemStore()
	repoPath := initTestRepo(t)
	ctx := t.Context()
	proj, err := store.CreateProject(ctx, "demo", repoPath)
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	task, err := store.CreateTask(ctx, proj.ID, "Add dark mode", spectrailapi.TaskModePlan)
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}

	log := inmem.New()
	f := New(store, log, client, "gpt-4o")
	return f, proj.ID, task.ID
}

func TestGeneratePlanHappyPath(t *testing.T) {
	f, _, taskID := newFacade(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{"message": map[string]any{"role": "assistant", "content": "## Summary\nplan"}, "finish_reason": "stop"}},
		})
	})

	result, err := f.GeneratePlan(t.Context(), taskID)
	if err != nil {
		t.Fatalf("GeneratePlan: %v", err)
	}
	if result.PlanMD != "## Summary\nplan" {
		t.Fatalf("got %q", result.PlanMD)
	}

	artifacts, err := f.ListArtifacts(t.Context(), taskID)
	if err != nil || len(artifacts) != 1 {
		t.Fatalf("ListArtifacts: %v %d", err, len(artifacts))
	}
}

func TestVerifyTaskSeedsDiffAndChecks(t *testing.T) {
	var capturedUser string
	f, _, taskID := newFacade(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		if msgs, ok := body["messages"].([]any); ok && len(msgs) > 0 {
			if last, ok := msgs[len(msgs)-1].(map[string]any); ok {
				capturedUser, _ = last["content"].(string)
			}
		}
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{"message": map[string]any{"role": "assistant", "content": "## Compliance\nok"}, "finish_reason": "stop"}},
		})
	})

	result, err := f.VerifyTask(t.Context(), taskID, spectrailapi.VerifyOptions{RunTests: true})
	if err != nil {
		t.Fatalf("VerifyTask: %v", err)
	}
	if result.ReportMD != "## Compliance\nok" {
		t.Fatalf("got %q", result.ReportMD)
	}
	if capturedUser == "" {
		t.Fatal("expected to capture the user message sent to the provider")
	}
	if !strings.Contains(capturedUser, "## Current diff") || !strings.Contains(capturedUser, "## Pre-run check results") {
		t.Fatalf("user message missing diff or check results: %q", capturedUser)
	}
}
