package toolregistry

import (
	"context"
	"encoding/json"

	"github.com/spectrail/core/internal/repotools"
)

// RegisterRepoTools wires the frozen 7-tool contract (spec §4.4) into reg,
// backed by rt. Every schema requires project_id per spec §4.5.
func RegisterRepoTools(reg *Registry, rt *repotools.RepoTools) {
	reg.Register("list_files", "List files in the repository, gitignore-aware.",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"project_id": map[string]any{"type": "string"},
				"globs":      map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
				"max_files":  map[string]any{"type": "integer", "minimum": 1},
			},
			"required": []any{"project_id"},
		},
		func(ctx context.Context, args map[string]any) (any, error) {
			var a repotools.ListFilesArgs
			if err := decode(args, &a); err != nil {
				return nil, err
			}
			return rt.ListFiles(ctx, a)
		},
	)

	reg.Register("read_file", "Read the contents of a file in the repository.",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"project_id": map[string]any{"type": "string"},
				"path":       map[string]any{"type": "string"},
				"max_bytes":  map[string]any{"type": "integer", "minimum": 1},
			},
			"required": []any{"project_id", "path"},
		},
		func(ctx context.Context, args map[string]any) (any, error) {
			var a repotools.ReadFileArgs
			if err := decode(args, &a); err != nil {
				return nil, err
			}
			return rt.ReadFile(ctx, a)
		},
	)

	reg.Register("grep", "Search the repository for a query string or regex.",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"project_id":  map[string]any{"type": "string"},
				"query":       map[string]any{"type": "string"},
				"path":        map[string]any{"type": "string"},
				"max_results": map[string]any{"type": "integer", "minimum": 1},
			},
			"required": []any{"project_id", "query"},
		},
		func(ctx context.Context, args map[string]any) (any, error) {
			var a repotools.GrepArgs
			if err := decode(args, &a); err != nil {
				return nil, err
			}
			return rt.Grep(ctx, a)
		},
	)

	reg.Register("git_status", "Show the working tree status.",
		map[string]any{
			"type":       "object",
			"properties": map[string]any{"project_id": map[string]any{"type": "string"}},
			"required":   []any{"project_id"},
		},
		func(ctx context.Context, args map[string]any) (any, error) {
			var a repotools.GitStatusArgs
			if err := decode(args, &a); err != nil {
				return nil, err
			}
			return rt.GitStatus(ctx, a)
		},
	)

	reg.Register("git_diff", "Show changes between commits, the working tree, or the index.",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"project_id": map[string]any{"type": "string"},
				"staged":     map[string]any{"type": "boolean"},
			},
			"required": []any{"project_id"},
		},
		func(ctx context.Context, args map[string]any) (any, error) {
			var a repotools.GitDiffArgs
			if err := decode(args, &a); err != nil {
				return nil, err
			}
			return rt.GitDiff(ctx, a)
		},
	)

	reg.Register("git_log_short", "Show abbreviated commit history.",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"project_id":  map[string]any{"type": "string"},
				"max_commits": map[string]any{"type": "integer", "minimum": 1},
			},
			"required": []any{"project_id"},
		},
		func(ctx context.Context, args map[string]any) (any, error) {
			var a repotools.GitLogShortArgs
			if err := decode(args, &a); err != nil {
				return nil, err
			}
			return rt.GitLogShort(ctx, a)
		},
	)

	reg.Register("run_command", "Run an allow-listed test/lint/build command.",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"project_id": map[string]any{"type": "string"},
				"kind":       map[string]any{"type": "string", "enum": []any{"tests", "lint", "build"}},
				"runner":     map[string]any{"type": "string"},
			},
			"required": []any{"project_id", "kind"},
		},
		func(ctx context.Context, args map[string]any) (any, error) {
			var a repotools.RunCommandArgs
			if err := decode(args, &a); err != nil {
				return nil, err
			}
			return rt.RunCommand(ctx, a)
		},
	)
}

// decode round-trips a validated args map into a typed struct via JSON.
// The schema already guaranteed shape, so this only fails on truly
// malformed input (e.g. a type jsonschema's draft let through leniently).
func decode(args map[string]any, out any) error {
	raw, err := json.Marshal(args)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}
