package repotools

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/spectrail/core/internal/outputbounder"
	"github.com/spectrail/core/pkg/spectrailapi"
)

// git retry constants, same shape as re-cinq-detergent's internal/git/git.go:
// a handful of git failures (index/ref locks) are transient under concurrent
// git usage and worth a short retry rather than surfacing to the agent.
const (
	gitRetryInitialDelay = 100 * time.Millisecond
	gitRetryMaxAttempts  = 3
	gitRetryMultiplier   = 2
)

var gitTransientPatterns = []string{
	"index.lock",
	"cannot lock ref",
	"unable to create",
}

var sleepFunc = time.Sleep

func isGitTransient(msg string) bool {
	for _, p := range gitTransientPatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}

func runGit(ctx context.Context, dir string, args ...string) (string, error) {
	delay := gitRetryInitialDelay
	var lastErr error
	for attempt := 0; attempt < gitRetryMaxAttempts; attempt++ {
		cmd := exec.CommandContext(ctx, "git", args...)
		cmd.Dir = dir
		out, err := cmd.CombinedOutput()
		if err == nil {
			return string(out), nil
		}
		lastErr = fmt.Errorf("git %s: %s: %w", strings.Join(args, " "), strings.TrimSpace(string(out)), err)
		if !isGitTransient(string(out)) || attempt == gitRetryMaxAttempts-1 {
			return "", lastErr
		}
		sleepFunc(delay)
		delay *= gitRetryMultiplier
	}
	return "", lastErr
}

// GitStatusArgs is git_status's validated argument shape.
type GitStatusArgs struct {
	ProjectID string `json:"project_id"`
}

// GitStatusResult is git_status's output shape.
type GitStatusResult struct {
	Status string `json:"status"`
}

// GitStatus runs `git status --porcelain=v1 -b`.
func (r *RepoTools) GitStatus(ctx context.Context, args GitStatusArgs) (GitStatusResult, error) {
	guard, err := r.guardFor(ctx, args.ProjectID)
	if err != nil {
		return GitStatusResult{}, err
	}
	out, err := runGit(ctx, guard.Root(), "status", "--porcelain=v1", "-b")
	if err != nil {
		return GitStatusResult{}, spectrailapi.NewCoreError(spectrailapi.ErrInvalidArgs, err.Error(), err)
	}
	return GitStatusResult{Status: out}, nil
}

// GitDiffArgs is git_diff's validated argument shape.
type GitDiffArgs struct {
	ProjectID string `json:"project_id"`
	Staged    bool   `json:"staged,omitempty"`
}

// GitDiffResult is git_diff's output shape, clipped to 100 KiB (spec §4.4).
type GitDiffResult struct {
	Diff        string `json:"diff"`
	Truncated   bool   `json:"truncated"`
	TotalBytes  int    `json:"total_bytes"`
}

const gitDiffCap = 100 * 1024

// GitDiff runs `git diff` or `git diff --cached`.
func (r *RepoTools) GitDiff(ctx context.Context, args GitDiffArgs) (GitDiffResult, error) {
	guard, err := r.guardFor(ctx, args.ProjectID)
	if err != nil {
		return GitDiffResult{}, err
	}
	gitArgs := []string{"diff"}
	if args.Staged {
		gitArgs = append(gitArgs, "--cached")
	}
	out, err := runGit(ctx, guard.Root(), gitArgs...)
	if err != nil {
		return GitDiffResult{}, spectrailapi.NewCoreError(spectrailapi.ErrInvalidArgs, err.Error(), err)
	}
	clipped, truncated, total := outputbounder.Bound(out, gitDiffCap)
	return GitDiffResult{Diff: clipped, Truncated: truncated, TotalBytes: total}, nil
}

// GitLogShortArgs is git_log_short's validated argument shape.
type GitLogShortArgs struct {
	ProjectID  string `json:"project_id"`
	MaxCommits int    `json:"max_commits,omitempty"`
}

// GitLogShortResult is git_log_short's output shape.
type GitLogShortResult struct {
	Log []string `json:"log"`
}

const defaultMaxCommits = 10

// GitLogShort runs `git log --oneline -n <N>`.
func (r *RepoTools) GitLogShort(ctx context.Context, args GitLogShortArgs) (GitLogShortResult, error) {
	guard, err := r.guardFor(ctx, args.ProjectID)
	if err != nil {
		return GitLogShortResult{}, err
	}
	n := args.MaxCommits
	if n <= 0 {
		n = defaultMaxCommits
	}
	out, err := runGit(ctx, guard.Root(), "log", "--oneline", "-n", fmt.Sprint(n))
	if err != nil {
		return GitLogShortResult{}, spectrailapi.NewCoreError(spectrailapi.ErrInvalidArgs, err.Error(), err)
	}
	out = strings.TrimRight(out, "\n")
	if out == "" {
		return GitLogShortResult{Log: []string{}}, nil
	}
	return GitLogShortResult{Log: strings.Split(out, "\n")}, nil
}
