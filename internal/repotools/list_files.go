package repotools

import (
	"context"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"
	"github.com/spectrail/core/pkg/spectrailapi"
)

// prunedDirs are always skipped during list_files traversal regardless of
// .gitignore contents (spec §4.4: "common junk ... pruned").
var prunedDirs = map[string]bool{
	"node_modules": true,
	"target":       true,
	"dist":         true,
	"build":        true,
	".git":         true,
}

// ListFilesArgs is list_files' validated argument shape.
type ListFilesArgs struct {
	ProjectID string   `json:"project_id"`
	Globs     []string `json:"globs,omitempty"`
	MaxFiles  int      `json:"max_files,omitempty"`
}

// ListFilesResult is list_files' output shape.
type ListFilesResult struct {
	Files     []string `json:"files"`
	Truncated bool     `json:"truncated"`
}

const defaultMaxFiles = 2000

// ListFiles performs a gitignore-aware traversal from the repo root,
// returning paths relative to root. Hidden files are included; node_modules,
// target, dist, build, and .git are always pruned (spec §4.4).
func (r *RepoTools) ListFiles(ctx context.Context, args ListFilesArgs) (ListFilesResult, error) {
	guard, err := r.guardFor(ctx, args.ProjectID)
	if err != nil {
		return ListFilesResult{}, err
	}
	maxFiles := args.MaxFiles
	if maxFiles <= 0 {
		maxFiles = defaultMaxFiles
	}

	gi := loadGitignore(guard.Root())

	var matched []string
	truncated := false

	walkErr := filepath.WalkDir(guard.Root(), func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // skip unreadable entries rather than aborting the whole walk
		}
		rel, relErr := filepath.Rel(guard.Root(), path)
		if relErr != nil || rel == "." {
			return nil
		}
		base := d.Name()
		if d.IsDir() {
			if prunedDirs[base] {
				return filepath.SkipDir
			}
			if gi != nil && gi.MatchesPath(rel+"/") {
				return filepath.SkipDir
			}
			return nil
		}
		if gi != nil && gi.MatchesPath(rel) {
			return nil
		}
		relSlash := filepath.ToSlash(rel)
		if len(args.Globs) > 0 && !matchesAnyGlob(relSlash, args.Globs) {
			return nil
		}
		if len(matched) >= maxFiles {
			truncated = true
			return filepath.SkipAll
		}
		matched = append(matched, relSlash)
		return nil
	})
	if walkErr != nil {
		return ListFilesResult{}, spectrailapi.NewCoreError(spectrailapi.ErrRepoUnavailable, "failed to walk repo: "+walkErr.Error(), walkErr)
	}

	sort.Strings(matched)
	return ListFilesResult{Files: matched, Truncated: truncated}, nil
}

func loadGitignore(root string) *ignore.GitIgnore {
	gi, err := ignore.CompileIgnoreFile(filepath.Join(root, ".gitignore"))
	if err != nil {
		return nil
	}
	return gi
}

func matchesAnyGlob(relPath string, globs []string) bool {
	for _, g := range globs {
		if ok, _ := filepath.Match(g, relPath); ok {
			return true
		}
		if ok, _ := filepath.Match(g, filepath.Base(relPath)); ok {
			return true
		}
		if strings.Contains(g, "**") {
			// filepath.Match has no doublestar support; fall back to a
			// prefix/suffix check on the segment around **.
			parts := strings.SplitN(g, "**", 2)
			if strings.HasPrefix(relPath, strings.TrimSuffix(parts[0], "/")) {
				if len(parts) < 2 || strings.HasSuffix(relPath, strings.TrimPrefix(parts[1], "/")) {
					return true
				}
			}
		}
	}
	return false
}
