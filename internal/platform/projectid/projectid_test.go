package projectid_test

import (
	"os"
	"path/filepath"
	"testing"

	"statusrelay/internal/platform/projectid"
)

func TestFromWorkdirPrefersVCSRoot(t *testing.T) {
	t.Parallel()
	root := filepath.Join(t.TempDir(), "My Service")
	nested := filepath.Join(root, "internal", "db")
	if err := os.MkdirAll(filepath.Join(root, ".git"), 0o755); err != nil {
		t.Fatalf("mkdir .git: %v", err)
	}
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("mkdir nested: %v", err)
	}

	if got := projectid.FromWorkdir(nested); got != "my-service" {
		t.Fatalf("subdirectory should map to the checkout root, got %q", got)
	}
	if got := projectid.FromWorkdir(root); got != "my-service" {
		t.Fatalf("root should map to itself, got %q", got)
	}
}

func TestFromWorkdirFallsBackToBasename(t *testing.T) {
	t.Parallel()
	dir := filepath.Join(t.TempDir(), "Scratch_Pad")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if got := projectid.FromWorkdir(dir); got != "scratch-pad" {
		t.Fatalf("basename should sanitize, got %q", got)
	}
}

func TestFromWorkdirEmpty(t *testing.T) {
	t.Parallel()
	if got := projectid.FromWorkdir(""); got != "unknown" {
		t.Fatalf("empty workdir should map to unknown, got %q", got)
	}
}
