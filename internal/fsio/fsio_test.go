package fsio

import (
	"testing"
	"time"

	"github.com/spf13/afero"

	"github.com/nota-kb/docserver/internal/apperrors"
)

func newTestIO(t *testing.T) *IO {
	t.Helper()
	afs := afero.NewMemMapFs()
	return New(afs, "/docs", 0)
}

func TestResolveRejectsTraversal(t *testing.T) {
	io := newTestIO(t)
	if _, err := io.Resolve("/../etc/passwd"); apperrors.CodeOf(err) != apperrors.CodePathTraversal {
		t.Fatalf("expected PATH_TRAVERSAL, got %v", err)
	}
}

func TestResolveRejectsRelative(t *testing.T) {
	io := newTestIO(t)
	if _, err := io.Resolve("relative/doc.md"); err == nil {
		t.Fatal("expected error for non-absolute logical path")
	}
}

func TestReadSnapshotTooLarge(t *testing.T) {
	afs := afero.NewMemMapFs()
	io := New(afs, "/docs", 10)
	p, err := io.Resolve("/big.md")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := io.WriteIfUnchanged(p, []byte("0123456789ABCDEF"), time.Time{}); err != nil {
		t.Fatalf("seed write: %v", err)
	}
	if _, err := io.ReadSnapshot(p); apperrors.CodeOf(err) != apperrors.CodeFileTooLarge {
		t.Fatalf("expected FILE_TOO_LARGE, got %v", err)
	}
}

func TestWriteIfUnchangedDetectsConcurrentModification(t *testing.T) {
	io := newTestIO(t)
	p, _ := io.Resolve("/doc.md")

	mtime1, err := io.WriteIfUnchanged(p, []byte("v1"), time.Time{})
	if err != nil {
		t.Fatalf("initial write: %v", err)
	}

	// Client 2 writes using the correct (current) mtime.
	if _, err := io.WriteIfUnchanged(p, []byte("v2-from-client-2"), mtime1); err != nil {
		t.Fatalf("client 2 write: %v", err)
	}

	// Client 1 retries with the stale mtime it originally read.
	_, err = io.WriteIfUnchanged(p, []byte("v1-stale-retry"), mtime1)
	if apperrors.CodeOf(err) != apperrors.CodeConcurrentModification {
		t.Fatalf("expected CONCURRENT_MODIFICATION, got %v", err)
	}

	snap, err := io.ReadSnapshot(p)
	if err != nil {
		t.Fatal(err)
	}
	if string(snap.Content) != "v2-from-client-2" {
		t.Fatalf("disk content = %q, want client 2's write to have won", snap.Content)
	}
}

func TestMoveCreatesParents(t *testing.T) {
	io := newTestIO(t)
	from, _ := io.Resolve("/a.md")
	to, _ := io.Resolve("/nested/dir/b.md")

	if _, err := io.WriteIfUnchanged(from, []byte("x"), time.Time{}); err != nil {
		t.Fatal(err)
	}
	if err := io.Move(from, to); err != nil {
		t.Fatalf("Move: %v", err)
	}
	if io.Exists(from) {
		t.Fatal("source should no longer exist")
	}
	if !io.Exists(to) {
		t.Fatal("destination should exist")
	}
}
