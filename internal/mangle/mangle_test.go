package mangle

import (
	"strings"
	"testing"
)

func TestVersionDirRoot(t *testing.T) {
	got, err := VersionDir("/backing", "/")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "/backing" {
		t.Fatalf("got %q, want %q", got, "/backing")
	}
}

func TestVersionDirNested(t *testing.T) {
	got, err := VersionDir("/backing", "/a/b/file.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "/backing/a.node/b.node/file.txt.node"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestVersionDirCollapsesSlashes(t *testing.T) {
	got, err := VersionDir("/backing", "//a//b/")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "/backing/a.node/b.node"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestVersionDirNameTooLong(t *testing.T) {
	long := strings.Repeat("x", 5000)
	_, err := VersionDir("/backing", "/"+long)
	if err != ErrNameTooLong {
		t.Fatalf("got %v, want ErrNameTooLong", err)
	}
}

func TestDemangleRoundTrip(t *testing.T) {
	logical := "/a/b/file.txt"
	physical, err := VersionDir("/backing", logical)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := Demangle("/backing", physical)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != logical {
		t.Fatalf("got %q, want %q", got, logical)
	}
}

func TestDemangleSegment(t *testing.T) {
	name, err := DemangleSegment("file.txt.node")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if name != "file.txt" {
		t.Fatalf("got %q, want %q", name, "file.txt")
	}
}

func TestDemangleSegmentNotMangled(t *testing.T) {
	_, err := DemangleSegment("0")
	if err != ErrNotMangled {
		t.Fatalf("got %v, want ErrNotMangled", err)
	}
}

func TestDemangleSegmentRejectsEmpty(t *testing.T) {
	if _, err := DemangleSegment(""); err != ErrNotMangled {
		t.Fatalf("got %v, want ErrNotMangled", err)
	}
	if _, err := DemangleSegment(".node"); err != ErrNotMangled {
		t.Fatalf("got %v, want ErrNotMangled", err)
	}
}

func TestDemangleMalformedSegmentReportsBestEffort(t *testing.T) {
	got, err := Demangle("/backing", "/backing/a.node/stray")
	if err != ErrNotMangled {
		t.Fatalf("got %v, want ErrNotMangled", err)
	}
	if got != "/a/stray" {
		t.Fatalf("got %q, want %q", got, "/a/stray")
	}
}
