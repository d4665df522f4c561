// Package spectrailapi defines the domain types and error taxonomy shared
// between the Core's internal packages and its external callers (the
// desktop shell, the dev CLI). Nothing here depends on a storage backend or
// a transport — it is the vocabulary, not the implementation.
package spectrailapi

import "time"

// RunType enumerates the kinds of AgentLoop invocation a Run records.
type RunType string

const (
	RunTypePlan     RunType = "plan"
	RunTypeVerify   RunType = "verify"
	RunTypeHandoff  RunType = "handoff"
	RunTypeReview   RunType = "review"
	RunTypePhases   RunType = "phases"
	RunTypeTest     RunType = "test"
)

// TaskMode enumerates the external Task's operating mode.
type TaskMode string

const (
	TaskModePlan    TaskMode = "plan"
	TaskModePhases  TaskMode = "phases"
	TaskModeReview  TaskMode = "review"
)

// TaskStatus enumerates the external Task's lifecycle status.
type TaskStatus string

const (
	TaskStatusDraft    TaskStatus = "draft"
	TaskStatusActive   TaskStatus = "active"
	TaskStatusDone     TaskStatus = "done"
	TaskStatusArchived TaskStatus = "archived"
)

// MessageRole enumerates the chat-completions role vocabulary.
type MessageRole string

const (
	RoleSystem    MessageRole = "system"
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
	RoleTool      MessageRole = "tool"
)

// ArtifactKind enumerates the final outputs a run can produce.
type ArtifactKind string

const (
	ArtifactPlanMD             ArtifactKind = "plan_md"
	ArtifactPhaseList          ArtifactKind = "phase_list"
	ArtifactVerificationReport ArtifactKind = "verification_report"
	ArtifactHandoffPrompt      ArtifactKind = "handoff_prompt"
	ArtifactNotes              ArtifactKind = "notes"
)

// Project is an external collaborator entity: it supplies the filesystem
// root PathGuard contains every access to. The Core never creates or
// mutates Projects beyond what internal/projects' minimal stand-in needs
// for the dev CLI's plan command.
type Project struct {
	ID           string
	Name         string
	RepoPath     string
	CreatedAt    time.Time
	LastOpenedAt *time.Time
}

// Task is an external collaborator entity: the unit of work a Run belongs
// to.
type Task struct {
	ID        string
	ProjectID string
	Title     string
	Mode      TaskMode
	Status    TaskStatus
}

// Run is one invocation of AgentLoop.
type Run struct {
	ID        string
	TaskID    string
	PhaseID   *string
	RunType   RunType
	Provider  string
	Model     string
	StartedAt time.Time
	EndedAt   *time.Time
}

// Open reports whether the run may still accept Messages/ToolCalls.
func (r *Run) Open() bool { return r.EndedAt == nil }

// Message is one entry in a run's append-only transcript.
type Message struct {
	ID        string
	RunID     string
	Role      MessageRole
	Content   string
	CreatedAt time.Time
}

// ToolCall is one executed tool invocation within a run.
type ToolCall struct {
	ID         string
	RunID      string
	Name       string
	ArgsJSON   string
	ResultJSON string
	CreatedAt  time.Time
}

// Artifact is a persisted Markdown output, upserted by (task_id, kind).
type Artifact struct {
	ID        string
	TaskID    string
	PhaseID   *string
	Kind      ArtifactKind
	Content   string
	CreatedAt time.Time
	Pinned    bool
}

// Setting is one row of the flat key/value configuration store.
type Setting struct {
	Key       string
	Value     string
	UpdatedAt time.Time
}

// ProviderSettings is the snapshot of settings relevant to ChatProvider,
// captured once at run start per spec §9 ("treat them as a snapshot
// captured at run start"). It is never re-read mid-run.
type ProviderSettings struct {
	ProviderName      string
	BaseURL           string
	Model             string
	APIKey            string
	Temperature       float64
	MaxTokens         int
	ExtraHeaders      map[string]string
	DevMode           bool
}

// VerifyOptions controls which checks verify_task pre-runs.
type VerifyOptions struct {
	RunTests bool
	RunLint  bool
	RunBuild bool
	Staged   bool
}

// RanChecks reports which pre-run checks verify_task actually executed.
type RanChecks struct {
	Tests bool
	Lint  bool
	Build bool
}

// PlanResult is generate_plan's return shape.
type PlanResult struct {
	RunID         string
	PlanMD        string
	ToolCallsCount int
	Truncated     bool
}

// VerifyResult is verify_task's return shape.
type VerifyResult struct {
	RunID     string
	ReportMD  string
	RanChecks RanChecks
	Truncated bool
}
