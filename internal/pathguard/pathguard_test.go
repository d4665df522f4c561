package pathguard

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spectrail/core/pkg/spectrailapi"
)

func mustTempRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "README.md"), []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestResolveWithinRoot(t *testing.T) {
	root := mustTempRepo(t)
	g, err := New(root)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	got, err := g.Resolve("README.md")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	want := filepath.Join(g.Root(), "README.md")
	if got != want {
		t.Errorf("got %q want %q", got, want)
	}
}

func TestResolveRejectsTraversal(t *testing.T) {
	root := mustTempRepo(t)
	g, err := New(root)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = g.Resolve("../etc/passwd")
	ce, ok := spectrailapi.AsCoreError(err)
	if !ok || ce.Kind != spectrailapi.ErrPathEscape {
		t.Fatalf("want PathEscape, got %v", err)
	}
}

func TestResolveRejectsSymlinkEscape(t *testing.T) {
	root := mustTempRepo(t)
	outside := t.TempDir()
	if err := os.WriteFile(filepath.Join(outside, "secret.txt"), []byte("nope"), 0o644); err != nil {
		t.Fatal(err)
	}
	link := filepath.Join(root, "escape")
	if err := os.Symlink(outside, link); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}
	g, err := New(root)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = g.Resolve("escape/secret.txt")
	ce, ok := spectrailapi.AsCoreError(err)
	if !ok || ce.Kind != spectrailapi.ErrPathEscape {
		t.Fatalf("want PathEscape, got %v", err)
	}
}

func TestResolveAbsolutePathUnderRoot(t *testing.T) {
	root := mustTempRepo(t)
	g, err := New(root)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	abs := filepath.Join(g.Root(), "sub")
	got, err := g.Resolve(abs)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != abs {
		t.Errorf("got %q want %q", got, abs)
	}
}

func TestNewRejectsMissingRoot(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "does-not-exist"))
	ce, ok := spectrailapi.AsCoreError(err)
	if !ok || ce.Kind != spectrailapi.ErrRepoUnavailable {
		t.Fatalf("want RepoUnavailable, got %v", err)
	}
}
