package repotools

import (
	"bufio"
	"context"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spectrail/core/pkg/spectrailapi"
)

// GrepArgs is grep's validated argument shape.
type GrepArgs struct {
	ProjectID  string `json:"project_id"`
	Query      string `json:"query"`
	Path       string `json:"path,omitempty"`
	MaxResults int    `json:"max_results,omitempty"`
}

// GrepResult is grep's output shape. Tool names which backend produced the
// results so the agent can gauge recall (ripgrep honors .gitignore and
// regex; the fallback is a plain substring scan).
type GrepResult struct {
	Results []string `json:"results"`
	Tool    string    `json:"tool"`
}

const defaultMaxResults = 200

// Grep prefers an external `rg` binary when present; otherwise it falls
// back to a pure-Go walker doing a substring scan. Result lines are
// formatted "path:line:text".
func (r *RepoTools) Grep(ctx context.Context, args GrepArgs) (GrepResult, error) {
	if strings.TrimSpace(args.Query) == "" {
		return GrepResult{}, spectrailapi.NewCoreError(spectrailapi.ErrInvalidArgs, "query is required", nil)
	}
	guard, err := r.guardFor(ctx, args.ProjectID)
	if err != nil {
		return GrepResult{}, err
	}
	searchRoot := guard.Root()
	if args.Path != "" {
		resolved, rerr := guard.Resolve(args.Path)
		if rerr != nil {
			return GrepResult{}, rerr
		}
		searchRoot = resolved
	}
	maxResults := args.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}

	if rgPath, err := exec.LookPath("rg"); err == nil {
		results, err := grepWithRipgrep(ctx, rgPath, guard.Root(), searchRoot, args.Query, maxResults)
		if err == nil {
			return GrepResult{Results: results, Tool: "ripgrep"}, nil
		}
		// fall through to the pure-Go walker on any rg failure
	}

	results, err := grepFallback(guard.Root(), searchRoot, args.Query, maxResults)
	if err != nil {
		return GrepResult{}, spectrailapi.NewCoreError(spectrailapi.ErrRepoUnavailable, "grep failed: "+err.Error(), err)
	}
	return GrepResult{Results: results, Tool: "fallback"}, nil
}

func grepWithRipgrep(ctx context.Context, rgPath, root, searchRoot, query string, maxResults int) ([]string, error) {
	cmd := exec.CommandContext(ctx, rgPath, "--line-number", "--with-filename", "--no-heading", "--color=never", "-m", fmt.Sprint(maxResults), query, searchRoot)
	cmd.Dir = root
	out, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok && exitErr.ExitCode() == 1 {
			return nil, nil // rg exit code 1 == no matches, not a failure
		}
		return nil, err
	}
	var lines []string
	scanner := bufio.NewScanner(strings.NewReader(string(out)))
	for scanner.Scan() && len(lines) < maxResults {
		line := scanner.Text()
		rel, relErr := filepath.Rel(root, strings.SplitN(line, ":", 2)[0])
		if relErr == nil {
			parts := strings.SplitN(line, ":", 2)
			if len(parts) == 2 {
				line = filepath.ToSlash(rel) + ":" + parts[1]
			}
		}
		lines = append(lines, line)
	}
	return lines, nil
}

func grepFallback(root, searchRoot, query string, maxResults int) ([]string, error) {
	var results []string
	err := filepath.WalkDir(searchRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if prunedDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if len(results) >= maxResults {
			return filepath.SkipAll
		}
		f, openErr := os.Open(path)
		if openErr != nil {
			return nil
		}
		defer f.Close()
		rel, _ := filepath.Rel(root, path)
		scanner := bufio.NewScanner(f)
		lineNo := 0
		for scanner.Scan() {
			lineNo++
			if strings.Contains(scanner.Text(), query) {
				results = append(results, fmt.Sprintf("%s:%d:%s", filepath.ToSlash(rel), lineNo, scanner.Text()))
				if len(results) >= maxResults {
					break
				}
			}
		}
		return nil
	})
	return results, err
}
