package repotools

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/spectrail/core/pkg/spectrailapi"
)

type fakeResolver struct{ root string }

func (f fakeResolver) RepoPath(ctx context.Context, projectID string) (string, error) {
	return f.root, nil
}

func initGitRepo(t *testing.T, dir string) {
	t.Helper()
	run := func(args ...string) {
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		if out, err := cmd.CombinedOutput(); err != nil {
			t.Skipf("git unavailable in test env: %v (%s)", err, out)
		}
	}
	run("init", "-q")
	run("config", "user.email", "test@example.com")
	run("config", "user.name", "Test")
}

func newTestTools(t *testing.T, root string) *RepoTools {
	t.Helper()
	return New(fakeResolver{root: root}, nil)
}

func TestListFilesPrunesJunkAndIncludesHidden(t *testing.T) {
	root := t.TempDir()
	os.MkdirAll(filepath.Join(root, "node_modules", "x"), 0o755)
	os.WriteFile(filepath.Join(root, "node_modules", "x", "y.js"), []byte("x"), 0o644)
	os.WriteFile(filepath.Join(root, ".hidden"), []byte("h"), 0o644)
	os.WriteFile(filepath.Join(root, "main.go"), []byte("package main"), 0o644)

	rt := newTestTools(t, root)
	res, err := rt.ListFiles(context.Background(), ListFilesArgs{ProjectID: "p"})
	if err != nil {
		t.Fatalf("ListFiles: %v", err)
	}
	var sawHidden, sawNodeModules bool
	for _, f := range res.Files {
		if f == ".hidden" {
			sawHidden = true
		}
		if f == "node_modules/x/y.js" {
			sawNodeModules = true
		}
	}
	if !sawHidden {
		t.Errorf("expected hidden file included, got %v", res.Files)
	}
	if sawNodeModules {
		t.Errorf("expected node_modules pruned, got %v", res.Files)
	}
}

func TestListFilesMaxFilesBoundary(t *testing.T) {
	root := t.TempDir()
	for i := 0; i < 5; i++ {
		os.WriteFile(filepath.Join(root, string(rune('a'+i))+".txt"), []byte("x"), 0o644)
	}
	rt := newTestTools(t, root)

	res, err := rt.ListFiles(context.Background(), ListFilesArgs{ProjectID: "p", MaxFiles: 5})
	if err != nil || res.Truncated || len(res.Files) != 5 {
		t.Fatalf("got %+v err=%v", res, err)
	}

	res2, err := rt.ListFiles(context.Background(), ListFilesArgs{ProjectID: "p", MaxFiles: 3})
	if err != nil || !res2.Truncated || len(res2.Files) != 3 {
		t.Fatalf("got %+v err=%v", res2, err)
	}
}

func TestReadFileTruncationBoundary(t *testing.T) {
	root := t.TempDir()
	content := "0123456789"
	os.WriteFile(filepath.Join(root, "f.txt"), []byte(content), 0o644)
	rt := newTestTools(t, root)

	exact, err := rt.ReadFile(context.Background(), ReadFileArgs{ProjectID: "p", Path: "f.txt", MaxBytes: len(content)})
	if err != nil || exact.Truncated {
		t.Fatalf("got %+v err=%v", exact, err)
	}

	short, err := rt.ReadFile(context.Background(), ReadFileArgs{ProjectID: "p", Path: "f.txt", MaxBytes: len(content) - 1})
	if err != nil || !short.Truncated {
		t.Fatalf("got %+v err=%v", short, err)
	}
}

func TestReadFileDetectsBinary(t *testing.T) {
	root := t.TempDir()
	os.WriteFile(filepath.Join(root, "bin.dat"), []byte{0x00, 0x01, 0x02}, 0o644)
	rt := newTestTools(t, root)

	res, err := rt.ReadFile(context.Background(), ReadFileArgs{ProjectID: "p", Path: "bin.dat"})
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !res.Binary || res.Content != "" || res.TotalSize != 3 {
		t.Fatalf("got %+v", res)
	}
}

func TestReadFileSymlinkEscapeFails(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()
	os.WriteFile(filepath.Join(outside, "secret.txt"), []byte("nope"), 0o644)
	if err := os.Symlink(filepath.Join(outside, "secret.txt"), filepath.Join(root, "link.txt")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}
	rt := newTestTools(t, root)

	_, err := rt.ReadFile(context.Background(), ReadFileArgs{ProjectID: "p", Path: "link.txt"})
	ce, ok := spectrailapi.AsCoreError(err)
	if !ok || ce.Kind != spectrailapi.ErrPathEscape {
		t.Fatalf("want PathEscape, got %v", err)
	}
}

func TestGitStatus(t *testing.T) {
	root := t.TempDir()
	initGitRepo(t, root)
	rt := newTestTools(t, root)

	res, err := rt.GitStatus(context.Background(), GitStatusArgs{ProjectID: "p"})
	if err != nil {
		t.Fatalf("GitStatus: %v", err)
	}
	if res.Status == "" {
		t.Fatalf("expected non-empty status, got %q", res.Status)
	}
}

func TestRunCommandDisallowedKind(t *testing.T) {
	root := t.TempDir()
	rt := newTestTools(t, root)

	_, err := rt.RunCommand(context.Background(), RunCommandArgs{ProjectID: "p", Kind: "deploy"})
	ce, ok := spectrailapi.AsCoreError(err)
	if !ok || ce.Kind != spectrailapi.ErrDisallowedCommand {
		t.Fatalf("want DisallowedCommand, got %v", err)
	}
}

func TestRunCommandAutoDetectsGoRunner(t *testing.T) {
	root := t.TempDir()
	os.WriteFile(filepath.Join(root, "go.mod"), []byte("module x\n\ngo 1.21\n"), 0o644)
	rt := newTestTools(t, root)

	res, err := rt.RunCommand(context.Background(), RunCommandArgs{ProjectID: "p", Kind: "build"})
	if err != nil {
		t.Fatalf("RunCommand: %v", err)
	}
	// "go build ./..." will fail (no package files) but must still have been
	// spawned, not rejected as disallowed.
	if res.TimedOut {
		t.Fatalf("unexpected timeout: %+v", res)
	}
}
