// Package pathguard is the sole gate for every filesystem access RepoTools
// makes. It canonicalises a requested path against a repo root and rejects
// anything that would resolve outside it, including through symlinks.
//
// Grounded on the teacher's internal/tools/filesystem.go resolvePath /
// isPathInside; simplified to the single contract spec §4.1 names (no
// sandbox routing, no allow/deny prefix lists — RepoTools has exactly one
// root per project and no virtual filesystem).
package pathguard

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spectrail/core/pkg/spectrailapi"
)

// Guard contains every resolved path within repoRoot.
type Guard struct {
	root string
}

// New canonicalises repoRoot once at construction. If the root itself
// cannot be canonicalised, New returns a RepoUnavailable error and no
// Guard (spec §4.1).
func New(repoRoot string) (*Guard, error) {
	abs, err := filepath.Abs(repoRoot)
	if err != nil {
		return nil, spectrailapi.NewCoreError(spectrailapi.ErrRepoUnavailable, "repo root cannot be made absolute: "+err.Error(), err)
	}
	real, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, spectrailapi.NewCoreError(spectrailapi.ErrRepoUnavailable, "repo root does not exist or is unreadable: "+err.Error(), err)
	}
	return &Guard{root: real}, nil
}

// Root returns the canonical repo root.
func (g *Guard) Root() string { return g.root }

// Resolve canonicalises requested (relative to the root, or absolute) and
// returns the contained absolute path, or a PathEscape CoreError if it
// would lie outside the root.
func (g *Guard) Resolve(requested string) (string, error) {
	if strings.TrimSpace(requested) == "" {
		return "", spectrailapi.NewCoreError(spectrailapi.ErrInvalidArgs, "path is required", nil)
	}

	var joined string
	if filepath.IsAbs(requested) {
		joined = filepath.Clean(requested)
	} else {
		joined = filepath.Clean(filepath.Join(g.root, requested))
	}

	// Reject any path whose lexical form still contains ".." relative to
	// root before we even touch the filesystem — cheap first check.
	if rel, err := filepath.Rel(g.root, joined); err == nil {
		if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return "", pathEscape(requested)
		}
	}

	real, err := filepath.EvalSymlinks(joined)
	if err != nil {
		if !os.IsNotExist(err) {
			return "", pathEscape(requested)
		}
		// Non-existent target: resolve the deepest existing ancestor and
		// re-validate, so a symlinked parent directory cannot be used to
		// smuggle a path outside the root for a not-yet-created file.
		real, err = resolveNonExistent(joined)
		if err != nil {
			return "", pathEscape(requested)
		}
	}

	if !isInside(real, g.root) {
		return "", pathEscape(requested)
	}
	return real, nil
}

func pathEscape(requested string) error {
	return spectrailapi.NewCoreError(spectrailapi.ErrPathEscape, fmt.Sprintf("path escapes repo root: %q", requested), nil)
}

func resolveNonExistent(path string) (string, error) {
	parent := filepath.Dir(path)
	if parent == path {
		return "", os.ErrNotExist
	}
	realParent, err := filepath.EvalSymlinks(parent)
	if err != nil {
		if os.IsNotExist(err) {
			realParent, err = resolveNonExistent(parent)
			if err != nil {
				return "", err
			}
		} else {
			return "", err
		}
	}
	return filepath.Join(realParent, filepath.Base(path)), nil
}

// isInside reports whether child is equal to or nested under parent.
func isInside(child, parent string) bool {
	if child == parent {
		return true
	}
	return strings.HasPrefix(child, parent+string(filepath.Separator))
}
