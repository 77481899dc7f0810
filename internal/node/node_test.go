package node

import (
	"path/filepath"
	"testing"
)

func TestMarkDirectoryThenIsDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a.node")
	if IsDirectory(dir) {
		t.Fatal("expected not-yet-created node to not be a directory")
	}
	if err := MarkDirectory(dir); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !IsDirectory(dir) {
		t.Fatal("expected node to be a directory after MarkDirectory")
	}
}

func TestMarkDirectoryTwiceFails(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a.node")
	if err := MarkDirectory(dir); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := MarkDirectory(dir); err != ErrAlreadyMarked {
		t.Fatalf("got %v, want ErrAlreadyMarked", err)
	}
}

func TestMarkDeletedAndUndelete(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a.node")
	if err := MarkDeleted(dir); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !IsDeleted(dir) {
		t.Fatal("expected node to be deleted")
	}
	if err := Undelete(dir); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if IsDeleted(dir) {
		t.Fatal("expected node to no longer be deleted")
	}
}

func TestUndeleteWithoutMarkerFails(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a.node")
	if err := Undelete(dir); err != ErrNotMarked {
		t.Fatalf("got %v, want ErrNotMarked", err)
	}
}

func TestExists(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a.node")
	if Exists(dir) {
		t.Fatal("expected node to not exist yet")
	}
	if err := MarkDirectory(dir); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !Exists(dir) {
		t.Fatal("expected node to exist after MarkDirectory")
	}
}
