// Package runlog defines the durable, append-only store behind AgentLoop:
// runs, messages, tool calls, and artifacts (spec §4.6). The interface is
// narrow and backend-agnostic; internal/runlog/sqlite, /postgres, and
// /inmem each satisfy it.
//
// Grounded on the teacher's internal/store/stores.go (container-of-
// interfaces pattern) and internal/store/session_store.go (narrow,
// verb-based method shape); simplified because RunLog has no per-session
// state, no pagination, and a single writer per process (spec §4.6: "not
// supported" for multi-process access).
package runlog

import (
	"context"

	"github.com/spectrail/core/pkg/spectrailapi"
)

// RunLog is the single-writer, append-only persistence contract AgentLoop
// and WorkflowFacade depend on.
type RunLog interface {
	// OpenRun creates a new Run row and returns it with StartedAt set.
	OpenRun(ctx context.Context, taskID string, phaseID *string, runType spectrailapi.RunType, provider, model string) (*spectrailapi.Run, error)

	// CloseRun sets EndedAt on an open run. Calling it on an already-closed
	// run is a no-op (idempotent close, e.g. from a defer in ABORT path).
	CloseRun(ctx context.Context, runID string) error

	// AppendStep persists one assistant message together with zero or more
	// ToolCall rows and their corresponding tool messages, as a single
	// atomic step per spec §4.6 ("writes that belong to one step ...
	// grouped so that a crash mid-step leaves either all or none of that
	// step's rows visible"). assistantMsg may be the only content (a final
	// answer with no tool calls).
	AppendStep(ctx context.Context, runID string, assistantMsg spectrailapi.Message, toolCalls []spectrailapi.ToolCall, toolMsgs []spectrailapi.Message) error

	// AppendMessage appends a single message outside of a tool-call step
	// (used for the INIT seed messages: system, user).
	AppendMessage(ctx context.Context, msg spectrailapi.Message) error

	// UpsertArtifact saves content as the latest artifact of kind for
	// taskID, replacing any previous content for that (task_id, kind) pair
	// (spec §3: "Upsert by (task_id, kind)").
	UpsertArtifact(ctx context.Context, taskID string, phaseID *string, kind spectrailapi.ArtifactKind, content string) (*spectrailapi.Artifact, error)

	// ListMessages returns a run's messages in created_at order.
	ListMessages(ctx context.Context, runID string) ([]spectrailapi.Message, error)

	// ListToolCalls returns a run's tool calls in created_at order.
	ListToolCalls(ctx context.Context, runID string) ([]spectrailapi.ToolCall, error)

	// ListArtifacts returns a task's artifacts, most recent per kind.
	ListArtifacts(ctx context.Context, taskID string) ([]spectrailapi.Artifact, error)

	// GetRun returns a run by id.
	GetRun(ctx context.Context, runID string) (*spectrailapi.Run, error)

	// GetSetting returns one setting's value, or ("", false) if unset.
	GetSetting(ctx context.Context, key string) (string, bool, error)

	// UpsertSettings writes every pair atomically: either all persist or
	// none do (spec §8 testable property 5).
	UpsertSettings(ctx context.Context, pairs map[string]string) error
}
