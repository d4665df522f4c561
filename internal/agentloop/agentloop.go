// Package agentloop is the INIT → AWAIT_ASSISTANT → EXECUTE_TOOLS →
// EMIT_ARTIFACT state machine driving one plan or verify run (spec §4.8,
// §4.9). Grounded on the teacher's internal/agent/loop.go Think → Act →
// Observe cycle, but deliberately simplified: no sessions/channels/bus/
// bootstrap/vision/tracing-collector — RunLog and Tracer replace them
// directly — and tool execution is strictly sequential (see DESIGN.md's
// "Deliberate redesigns" section for why the teacher's goroutine-parallel
// branch is dropped).
package agentloop

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spectrail/core/internal/chatprovider"
	"github.com/spectrail/core/internal/runlog"
	"github.com/spectrail/core/internal/telemetry"
	"github.com/spectrail/core/internal/toolregistry"
	"github.com/spectrail/core/pkg/spectrailapi"
)

// maxIterations caps provider round-trips per run (spec §4.9: "12 provider
// requests").
const maxIterations = 12

// contextCharCap is the total message length above which the transcript
// is pruned to the system message plus the last keepLastMessages entries
// before a provider call (spec §4.9). The pruned list is not re-checked
// against the cap.
const contextCharCap = 100_000

// keepLastMessages is how many trailing messages survive pruning, in
// addition to the system message (spec §4.9: "system + last 6 messages").
const keepLastMessages = 6

// Params is the input to Run: the seed system+user messages and the run's
// identity.
type Params struct {
	TaskID      string
	ProjectID   string
	PhaseID     *string
	RunType     spectrailapi.RunType
	Provider    string
	Model       string
	Temperature float64
	MaxTokens   int
	System      chatprovider.Message
	User        chatprovider.Message
}

// Result is what Run hands back to WorkflowFacade.
type Result struct {
	RunID          string
	FinalContent   string
	ToolCallsCount int
	Iterations     int
	Truncated      bool
}

// Loop runs one AgentLoop invocation end to end.
type Loop struct {
	chat   *chatprovider.Client
	tools  *toolregistry.Registry
	log    runlog.RunLog
	tracer *telemetry.Tracer
	logger *telemetry.Logger
}

// New constructs a Loop. logger/tracer may be nil; telemetry.NewLogger/
// NewTracer are used as zero-value-safe fallbacks where needed.
func New(chat *chatprovider.Client, tools *toolregistry.Registry, log runlog.RunLog, tracer *telemetry.Tracer, logger *telemetry.Logger) *Loop {
	if tracer == nil {
		tracer = telemetry.NewTracer("spectrail.agentloop")
	}
	if logger == nil {
		logger = telemetry.NewLogger(nil)
	}
	return &Loop{chat: chat, tools: tools, log: log, tracer: tracer, logger: logger}
}

// Run executes INIT, the AWAIT_ASSISTANT/EXECUTE_TOOLS cycle, and
// EMIT_ARTIFACT, persisting every step through RunLog as it goes. On a
// fatal error it transitions to ABORT: the run is closed before the error
// is returned, so no run is ever left open on disk.
func (l *Loop) Run(ctx context.Context, params Params, artifactKind spectrailapi.ArtifactKind) (*Result, error) {
	// INIT
	run, err := l.log.OpenRun(ctx, params.TaskID, params.PhaseID, params.RunType, params.Provider, params.Model)
	if err != nil {
		return nil, fmt.Errorf("agentloop: open run: %w", err)
	}

	result, runErr := l.runLoop(ctx, run.ID, params, artifactKind)

	// ABORT / DONE both close the run; an idempotent close means the happy
	// path and the error path can share this one line.
	if closeErr := l.log.CloseRun(ctx, run.ID); closeErr != nil {
		l.logger.Warn("agentloop: close run failed", "run_id", run.ID, "error", closeErr)
	}

	if runErr != nil {
		return nil, runErr
	}
	return result, nil
}

func (l *Loop) runLoop(ctx context.Context, runID string, params Params, artifactKind spectrailapi.ArtifactKind) (*Result, error) {
	if err := l.log.AppendMessage(ctx, spectrailapi.Message{RunID: runID, Role: spectrailapi.RoleSystem, Content: params.System.Content}); err != nil {
		return nil, fmt.Errorf("agentloop: persist system message: %w", err)
	}
	if err := l.log.AppendMessage(ctx, spectrailapi.Message{RunID: runID, Role: spectrailapi.RoleUser, Content: params.User.Content}); err != nil {
		return nil, fmt.Errorf("agentloop: persist user message: %w", err)
	}

	messages := []chatprovider.Message{params.System, params.User}
	toolDefs := l.tools.Definitions()

	truncated := false
	toolCallsCount := 0
	iteration := 0
	finalContent := ""

	for iteration < maxIterations {
		iteration++

		pruned, wasPruned := pruneContext(messages)
		if wasPruned {
			truncated = true
		}

		llmCtx, span := l.tracer.StartLLMSpan(ctx, runID, iteration)
		resp, err := l.chat.Complete(llmCtx, chatprovider.ChatRequest{
			Model:       params.Model,
			Messages:    pruned,
			Tools:       toolDefs,
			Temperature: params.Temperature,
			MaxTokens:   params.MaxTokens,
		})
		span.End()
		if err != nil {
			return nil, err
		}

		if len(resp.ToolCalls) == 0 {
			finalContent = resp.Content
			assistantMsg := chatprovider.Message{Role: "assistant", Content: resp.Content}
			messages = append(messages, assistantMsg)
			if err := l.log.AppendStep(ctx, runID,
				spectrailapi.Message{RunID: runID, Role: spectrailapi.RoleAssistant, Content: resp.Content},
				nil, nil,
			); err != nil {
				return nil, fmt.Errorf("agentloop: persist final assistant message: %w", err)
			}
			break
		}

		assistantMsg := chatprovider.Message{Role: "assistant", Content: resp.Content, ToolCalls: resp.ToolCalls}
		messages = append(messages, assistantMsg)

		toolCallRows := make([]spectrailapi.ToolCall, 0, len(resp.ToolCalls))
		toolMsgRows := make([]spectrailapi.Message, 0, len(resp.ToolCalls))

		// Strictly sequential: each tool result is produced and appended to
		// the in-memory transcript before the next tool call starts, so
		// tool_call_id correlation stays aligned. The whole step (assistant
		// message, tool-call rows, tool messages) is persisted by the single
		// AppendStep below, after the last tool returns.
		for _, tc := range resp.ToolCalls {
			if _, ok := tc.Arguments["project_id"]; !ok {
				if tc.Arguments == nil {
					tc.Arguments = make(map[string]any, 1)
				}
				// spec §4.9: project_id is injected if the model omitted it.
				tc.Arguments["project_id"] = params.ProjectID
			}
			toolCtx, toolSpan := l.tracer.StartToolSpan(ctx, runID, tc.Name)
			resultJSON, wasTruncated, derr := l.tools.Dispatch(toolCtx, tc.Name, tc.Arguments)
			toolSpan.End()
			if derr != nil {
				return nil, derr
			}
			if wasTruncated {
				truncated = true
			}
			toolCallsCount++

			argsJSON, _ := json.Marshal(tc.Arguments)
			toolCallRows = append(toolCallRows, spectrailapi.ToolCall{
				RunID: runID, Name: tc.Name, ArgsJSON: string(argsJSON), ResultJSON: resultJSON,
			})

			toolMsg := chatprovider.Message{Role: "tool", Content: resultJSON, ToolCallID: tc.ID}
			messages = append(messages, toolMsg)
			toolMsgRows = append(toolMsgRows, spectrailapi.Message{RunID: runID, Role: spectrailapi.RoleTool, Content: resultJSON})
		}

		if err := l.log.AppendStep(ctx, runID,
			spectrailapi.Message{RunID: runID, Role: spectrailapi.RoleAssistant, Content: assistantMsg.Content},
			toolCallRows, toolMsgRows,
		); err != nil {
			return nil, fmt.Errorf("agentloop: persist step: %w", err)
		}
	}

	if iteration >= maxIterations && finalContent == "" {
		truncated = true
		finalContent = "Reached the maximum number of provider requests for this run without producing a final answer."
	}

	if _, err := l.log.UpsertArtifact(ctx, params.TaskID, params.PhaseID, artifactKind, finalContent); err != nil {
		return nil, fmt.Errorf("agentloop: upsert artifact: %w", err)
	}

	return &Result{
		RunID:          runID,
		FinalContent:   finalContent,
		ToolCallsCount: toolCallsCount,
		Iterations:     iteration,
		Truncated:      truncated,
	}, nil
}

// pruneContext keeps the system message (index 0) plus the last
// keepLastMessages entries once the total character count of messages
// exceeds contextCharCap. The returned bool reports whether the cap was
// exceeded at all, independent of whether pruning could remove anything —
// a seed system+user pair that alone exceeds the cap is still truncated.
func pruneContext(messages []chatprovider.Message) ([]chatprovider.Message, bool) {
	overCap := totalChars(messages) > contextCharCap
	if !overCap {
		return messages, false
	}
	if len(messages) <= keepLastMessages+1 {
		return messages, true
	}

	system := messages[0]
	tail := messages[len(messages)-keepLastMessages:]
	pruned := make([]chatprovider.Message, 0, keepLastMessages+1)
	pruned = append(pruned, system)
	pruned = append(pruned, tail...)
	return pruned, true
}

func totalChars(messages []chatprovider.Message) int {
	total := 0
	for _, m := range messages {
		total += len(m.Content)
	}
	return total
}
