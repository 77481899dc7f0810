package revision

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/undofs/undofs/internal/node"
)

func TestLatestVersionEmpty(t *testing.T) {
	dir := t.TempDir()
	_, ok, err := LatestVersion(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("expected no revisions in empty node")
	}
}

func TestLatestVersionIgnoresNonNumeric(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "0"), "a")
	writeFile(t, filepath.Join(dir, "1"), "b")
	writeFile(t, filepath.Join(dir, "foo"), "")
	writeFile(t, filepath.Join(dir, "dir"), "")
	writeFile(t, filepath.Join(dir, "deleted"), "")

	v, ok, err := LatestVersion(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok || v != 1 {
		t.Fatalf("got (%d, %v), want (1, true)", v, ok)
	}
}

func TestNewPathFirstWrite(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a.node")
	dst, err := NewPath(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dst != filepath.Join(dir, "0") {
		t.Fatalf("got %q, want revision 0", dst)
	}
	if !node.Exists(dir) {
		t.Fatal("expected node directory to be created")
	}
}

func TestNewPathOnDirectoryNodeFails(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a.node")
	if err := node.MarkDirectory(dir); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := NewPath(dir); err != ErrIsDirectory {
		t.Fatalf("got %v, want ErrIsDirectory", err)
	}
}

func TestNewPathClonesPriorRevision(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a.node")
	first, err := NewPath(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	writeFile(t, first, "v0")

	second, err := NewPath(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second != filepath.Join(dir, "1") {
		t.Fatalf("got %q, want revision 1", second)
	}
	content, err := os.ReadFile(second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(content) != "v0" {
		t.Fatalf("got %q, want cloned content %q", content, "v0")
	}
}

func TestNewPathAfterTombstoneDoesNotClone(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a.node")
	first, err := NewPath(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	writeFile(t, first, "v0")

	if err := node.MarkDeleted(dir); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	second, err := NewPath(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second != filepath.Join(dir, "1") {
		t.Fatalf("got %q, want revision 1", second)
	}
	if node.IsDeleted(dir) {
		t.Fatal("expected tombstone to be removed")
	}
	if _, err := os.Stat(second); !os.IsNotExist(err) {
		t.Fatal("expected resurrected revision to start with no content")
	}
}

func TestLatestPathForDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a.node")
	if err := node.MarkDirectory(dir); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := LatestPath(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != dir {
		t.Fatalf("got %q, want %q", got, dir)
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
