package repotools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spectrail/core/internal/procrunner"
	"github.com/spectrail/core/pkg/spectrailapi"
)

// RunCommandArgs is run_command's validated argument shape.
type RunCommandArgs struct {
	ProjectID string `json:"project_id"`
	Kind      string `json:"kind"`
	Runner    string `json:"runner,omitempty"`
}

// RunCommandResult is run_command's output shape.
type RunCommandResult struct {
	Success  bool   `json:"success"`
	ExitCode int    `json:"exit_code"`
	Stdout   string `json:"stdout"`
	Stderr   string `json:"stderr"`
	TimedOut bool   `json:"timed_out"`
}

// allowList is the (kind, runner) → argv matrix spec §4.4 and §9 declare
// authoritative over the larger aspirational command set (see DESIGN.md
// Open Question decisions).
var allowList = map[string]map[string][]string{
	"tests": {
		"npm":  {"npm", "test"},
		"yarn": {"yarn", "test"},
		"pnpm": {"pnpm", "test"},
		"go":   {"go", "test", "./..."},
		"cargo": {"cargo", "test"},
		"pytest": {"pytest"},
	},
	"lint": {
		"npm":   {"npm", "run", "lint"},
		"yarn":  {"yarn", "lint"},
		"pnpm":  {"pnpm", "lint"},
		"go":    {"go", "vet", "./..."},
		"cargo": {"cargo", "clippy"},
	},
	"build": {
		"npm":   {"npm", "run", "build"},
		"yarn":  {"yarn", "build"},
		"pnpm":  {"pnpm", "build"},
		"go":    {"go", "build", "./..."},
		"cargo": {"cargo", "build"},
	},
}

// runnerLockfiles maps a runner name to the lockfile whose presence
// auto-detects it (spec §4.4: "Auto-detects runner from lockfiles").
var runnerLockfiles = []struct {
	runner string
	file   string
}{
	{"pnpm", "pnpm-lock.yaml"},
	{"yarn", "yarn.lock"},
	{"npm", "package-lock.json"},
	{"cargo", "Cargo.toml"},
	{"pytest", "pyproject.toml"},
	{"go", "go.mod"},
}

// RunCommand executes a fixed argv per (kind, runner) from allowList.
// Anything outside the allow-list fails with DisallowedCommand before a
// process is spawned (spec §4.4).
func (r *RepoTools) RunCommand(ctx context.Context, args RunCommandArgs) (RunCommandResult, error) {
	guard, err := r.guardFor(ctx, args.ProjectID)
	if err != nil {
		return RunCommandResult{}, err
	}

	kindMatrix, ok := allowList[args.Kind]
	if !ok {
		return RunCommandResult{}, spectrailapi.NewCoreError(spectrailapi.ErrDisallowedCommand, fmt.Sprintf("unknown kind: %q", args.Kind), nil)
	}

	runner := args.Runner
	if runner == "" {
		runner = detectRunner(guard.Root())
	}
	argv, ok := kindMatrix[runner]
	if !ok {
		return RunCommandResult{}, spectrailapi.NewCoreError(spectrailapi.ErrDisallowedCommand, fmt.Sprintf("no allow-listed command for kind=%q runner=%q", args.Kind, runner), nil)
	}

	res := procrunner.Run(ctx, guard.Root(), argv, 0)
	return RunCommandResult{
		Success:  res.Success,
		ExitCode: res.ExitCode,
		Stdout:   res.Stdout,
		Stderr:   res.Stderr,
		TimedOut: res.TimedOut,
	}, nil
}

func detectRunner(root string) string {
	for _, candidate := range runnerLockfiles {
		if _, err := os.Stat(filepath.Join(root, candidate.file)); err == nil {
			return candidate.runner
		}
	}
	return ""
}
