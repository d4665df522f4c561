package repotools

import (
	"bytes"
	"context"
	"os"

	"github.com/spectrail/core/internal/outputbounder"
	"github.com/spectrail/core/pkg/spectrailapi"
)

const (
	defaultMaxBytes  = 200_000
	binarySniffBytes = 8192
)

// ReadFileArgs is read_file's validated argument shape.
type ReadFileArgs struct {
	ProjectID string `json:"project_id"`
	Path      string `json:"path"`
	MaxBytes  int    `json:"max_bytes,omitempty"`
}

// ReadFileResult is read_file's output shape. Binary is true when the
// NUL-byte heuristic fires; Content is absent in that case.
type ReadFileResult struct {
	Content   string `json:"content,omitempty"`
	Truncated bool   `json:"truncated"`
	TotalSize int    `json:"total_size"`
	Binary    bool   `json:"binary,omitempty"`
}

// ReadFile resolves path through PathGuard, detects binary content via a
// NUL-byte heuristic on the first 8 KiB, and returns the (possibly
// truncated) content otherwise.
func (r *RepoTools) ReadFile(ctx context.Context, args ReadFileArgs) (ReadFileResult, error) {
	guard, err := r.guardFor(ctx, args.ProjectID)
	if err != nil {
		return ReadFileResult{}, err
	}
	resolved, err := guard.Resolve(args.Path)
	if err != nil {
		return ReadFileResult{}, err
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		if os.IsNotExist(err) {
			return ReadFileResult{}, spectrailapi.NewCoreError(spectrailapi.ErrInvalidArgs, "file does not exist: "+args.Path, err)
		}
		return ReadFileResult{}, spectrailapi.NewCoreError(spectrailapi.ErrInvalidArgs, "failed to read file: "+err.Error(), err)
	}

	sniff := data
	if len(sniff) > binarySniffBytes {
		sniff = sniff[:binarySniffBytes]
	}
	if bytes.IndexByte(sniff, 0x00) >= 0 {
		return ReadFileResult{Binary: true, TotalSize: len(data)}, nil
	}

	maxBytes := args.MaxBytes
	if maxBytes <= 0 {
		maxBytes = defaultMaxBytes
	}
	clipped, truncated, total := outputbounder.Bound(string(data), maxBytes)
	return ReadFileResult{Content: clipped, Truncated: truncated, TotalSize: total}, nil
}
