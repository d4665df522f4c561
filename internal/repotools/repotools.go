// Package repotools implements the frozen seven-tool contract spec §4.4
// enumerates: list_files, read_file, grep, git_status, git_diff,
// git_log_short, run_command. Every tool looks up a project's repo_path
// through an external ProjectResolver, then routes every path through
// pathguard before touching the filesystem.
//
// Grounded on the teacher's internal/tools/filesystem.go (read_file,
// path containment), internal/tools/shell.go (allow/deny command
// texture), and re-cinq-detergent's internal/git/git.go (git wrapper
// retry-on-transient-error shape) and internal/engine/ignore_test.go
// (gitignore-aware traversal).
package repotools

import (
	"context"

	"github.com/spectrail/core/internal/pathguard"
	"github.com/spectrail/core/internal/telemetry"
)

// ProjectResolver is the external collaborator contract RepoTools needs:
// given a project id, return its repo root. Satisfied by internal/projects
// in this module, or by the desktop shell's real project store.
type ProjectResolver interface {
	RepoPath(ctx context.Context, projectID string) (string, error)
}

// RepoTools holds the dependencies shared by every tool implementation.
type RepoTools struct {
	projects ProjectResolver
	log      *telemetry.Logger
}

// New constructs a RepoTools bound to the given project resolver.
func New(projects ProjectResolver, log *telemetry.Logger) *RepoTools {
	if log == nil {
		log = telemetry.NewLogger(nil)
	}
	return &RepoTools{projects: projects, log: log}
}

// guardFor resolves project_id to a repo root and constructs a PathGuard
// for it. Every tool method calls this first.
func (r *RepoTools) guardFor(ctx context.Context, projectID string) (*pathguard.Guard, error) {
	root, err := r.projects.RepoPath(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return pathguard.New(root)
}

// RepoPathFor resolves project_id to its canonicalized repo root, for
// callers (WorkflowFacade's prompt assembly) that need the path itself
// rather than a tool result.
func (r *RepoTools) RepoPathFor(ctx context.Context, projectID string) (string, error) {
	guard, err := r.guardFor(ctx, projectID)
	if err != nil {
		return "", err
	}
	return guard.Root(), nil
}
