// Package workflow is the external-facing surface spec §6 calls
// WorkflowFacade: generate_plan and verify_task, plus the read-side
// queries a desktop shell or CLI needs to render a run's transcript and a
// task's artifacts. It is the one place that wires ProjectResolver,
// RepoTools, ChatProvider, PromptBuilder, and AgentLoop together.
//
// Grounded on the teacher's cmd/doctor.go (the pattern of one command
// wiring config → provider → tools → loop end to end) and
// internal/agent/loop.go's call-site shape, generalized from "process one
// chat message" to "run one plan or verify operation".
package workflow

import (
	"context"
	"fmt"

	"github.com/spectrail/core/internal/agentloop"
	"github.com/spectrail/core/internal/chatprovider"
	"github.com/spectrail/core/internal/projects"
	"github.com/spectrail/core/internal/promptbuilder"
	"github.com/spectrail/core/internal/repotools"
	"github.com/spectrail/core/internal/runlog"
	"github.com/spectrail/core/internal/toolregistry"
	"github.com/spectrail/core/pkg/spectrailapi"
)

// projectResolverAdapter satisfies repotools.ProjectResolver over
// projects.Store, which speaks in terms of full Project records rather
// than a bare repo path.
type projectResolverAdapter struct {
	store projects.Store
}

func (a projectResolverAdapter) RepoPath(ctx context.Context, projectID string) (string, error) {
	p, err := a.store.GetProject(ctx, projectID)
	if err != nil {
		return "", err
	}
	return p.RepoPath, nil
}

// Facade is the Core's single external entry point.
type Facade struct {
	projects projects.Store
	repo     *repotools.RepoTools
	tools    *toolregistry.Registry
	log      runlog.RunLog
	chat     *chatprovider.Client
	model    string
}

// New wires a Facade from its dependencies. chat is captured as a snapshot
// per spec §9 — callers construct a fresh Client (and therefore a fresh
// Facade, or at least a fresh chat field) whenever provider settings
// change mid-session.
func New(projectStore projects.Store, log runlog.RunLog, chat *chatprovider.Client, model string) *Facade {
	resolver := projectResolverAdapter{store: projectStore}
	repo := repotools.New(resolver, nil)
	tools := toolregistry.New()
	toolregistry.RegisterRepoTools(tools, repo)

	return &Facade{
		projects: projectStore,
		repo:     repo,
		tools:    tools,
		log:      log,
		chat:     chat,
		model:    model,
	}
}

// GeneratePlan runs a plan AgentLoop invocation for taskID and returns its
// artifact.
func (f *Facade) GeneratePlan(ctx context.Context, taskID string) (*spectrailapi.PlanResult, error) {
	task, err := f.projects.GetTask(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("workflow: generate_plan: %w", err)
	}
	repoPath, err := f.repo.RepoPathFor(ctx, task.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("workflow: generate_plan: %w", err)
	}

	system, user := promptbuilder.PlanPrompt(task.Title, repoPath)

	loop := agentloop.New(f.chat, f.tools, f.log, nil, nil)
	result, err := loop.Run(ctx, agentloop.Params{
		TaskID:    taskID,
		ProjectID: task.ProjectID,
		RunType:   spectrailapi.RunTypePlan,
		Model:     f.model,
		System:    system,
		User:      user,
	}, spectrailapi.ArtifactPlanMD)
	if err != nil {
		return nil, err
	}

	return &spectrailapi.PlanResult{
		RunID:          result.RunID,
		PlanMD:         result.FinalContent,
		ToolCallsCount: result.ToolCallsCount,
		Truncated:      result.Truncated,
	}, nil
}

// VerifyTask pre-runs the requested checks (spec §4.10), seeds their
// output into the verify prompt alongside the current diff and the prior
// plan artifact (if any), then runs a verify AgentLoop invocation.
func (f *Facade) VerifyTask(ctx context.Context, taskID string, opts spectrailapi.VerifyOptions) (*spectrailapi.VerifyResult, error) {
	task, err := f.projects.GetTask(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("workflow: verify_task: %w", err)
	}
	repoPath, err := f.repo.RepoPathFor(ctx, task.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("workflow: verify_task: %w", err)
	}

	diffResult, err := f.repo.GitDiff(ctx, repotools.GitDiffArgs{ProjectID: task.ProjectID, Staged: opts.Staged})
	if err != nil {
		return nil, fmt.Errorf("workflow: verify_task: %w", err)
	}

	var priorPlan string
	if artifacts, aerr := f.log.ListArtifacts(ctx, taskID); aerr == nil {
		for _, a := range artifacts {
			if a.Kind == spectrailapi.ArtifactPlanMD {
				priorPlan = a.Content
			}
		}
	}

	var checkOutputs []string
	var ran spectrailapi.RanChecks

	runCheck := func(kind string) bool {
		res, rerr := f.repo.RunCommand(ctx, repotools.RunCommandArgs{ProjectID: task.ProjectID, Kind: kind})
		if rerr != nil {
			checkOutputs = append(checkOutputs, fmt.Sprintf("%s: could not run (%s)", kind, rerr.Error()))
			return false
		}
		status := "PASSED"
		if !res.Success {
			status = "FAILED"
		}
		if res.TimedOut {
			status = "TIMED OUT"
		}
		checkOutputs = append(checkOutputs, fmt.Sprintf("%s: %s\n%s\n%s", kind, status, res.Stdout, res.Stderr))
		return true
	}
	if opts.RunTests {
		ran.Tests = runCheck("tests")
	}
	if opts.RunLint {
		ran.Lint = runCheck("lint")
	}
	if opts.RunBuild {
		ran.Build = runCheck("build")
	}

	system, user := promptbuilder.VerifyPrompt(task.Title, repoPath, diffResult.Diff, priorPlan, checkOutputs)

	loop := agentloop.New(f.chat, f.tools, f.log, nil, nil)
	result, err := loop.Run(ctx, agentloop.Params{
		TaskID:    taskID,
		ProjectID: task.ProjectID,
		RunType:   spectrailapi.RunTypeVerify,
		Model:     f.model,
		System:    system,
		User:      user,
	}, spectrailapi.ArtifactVerificationReport)
	if err != nil {
		return nil, err
	}

	return &spectrailapi.VerifyResult{
		RunID:     result.RunID,
		ReportMD:  result.FinalContent,
		RanChecks: ran,
		Truncated: result.Truncated || diffResult.Truncated,
	}, nil
}

// ListToolCalls returns one run's tool-call history.
func (f *Facade) ListToolCalls(ctx context.Context, runID string) ([]spectrailapi.ToolCall, error) {
	return f.log.ListToolCalls(ctx, runID)
}

// ListMessages returns one run's message transcript.
func (f *Facade) ListMessages(ctx context.Context, runID string) ([]spectrailapi.Message, error) {
	return f.log.ListMessages(ctx, runID)
}

// ListArtifacts returns one task's artifacts.
func (f *Facade) ListArtifacts(ctx context.Context, taskID string) ([]spectrailapi.Artifact, error) {
	return f.log.ListArtifacts(ctx, taskID)
}
