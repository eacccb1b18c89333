package cache

import (
	"testing"
	"time"

	"github.com/spf13/afero"
	"go.uber.org/goleak"

	"github.com/nota-kb/docserver/internal/apperrors"
	"github.com/nota-kb/docserver/internal/applog"
	"github.com/nota-kb/docserver/internal/fsio"
)

func newTestCache(t *testing.T, maxDocuments, maxHeadings int) (*Cache, *fsio.IO) {
	t.Helper()
	afs := afero.NewMemMapFs()
	io := fsio.New(afs, "/docs", 0)
	c, err := New(io, applog.Nop(), maxDocuments, maxHeadings, WithWatcherFactory(func() (Watcher, error) {
		return newNoopWatcher(), nil
	}))
	if err != nil {
		t.Fatal(err)
	}
	return c, io
}

func writeDoc(t *testing.T, io *fsio.IO, logical, content string) {
	t.Helper()
	p, err := io.Resolve(fsio.LogicalPath(logical))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := io.WriteIfUnchanged(p, []byte(content), time.Time{}); err != nil {
		t.Fatal(err)
	}
}

const sampleDoc = `# Guide

## Install

Run the installer.

### JWT Tokens

Body one.
`

func TestGetDocumentMissingFileReturnsNilNotError(t *testing.T) {
	c, _ := newTestCache(t, 10, 1000)
	doc, err := c.GetDocument("/missing.md")
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if doc != nil {
		t.Fatalf("expected nil document, got %+v", doc)
	}
}

func TestGetSectionContentPopulatesBothKeysWithSameEntry(t *testing.T) {
	c, io := newTestCache(t, 10, 1000)
	writeDoc(t, io, "/guide.md", sampleDoc)

	content, err := c.GetSectionContent("/guide.md", "install/jwt-tokens")
	if err != nil {
		t.Fatal(err)
	}
	if len(content) == 0 {
		t.Fatal("expected non-empty section content")
	}

	doc, err := c.GetDocument("/guide.md")
	if err != nil {
		t.Fatal(err)
	}
	doc.mu.Lock()
	hierEntry := doc.sections["install/jwt-tokens"]
	flatEntry := doc.sections["jwt-tokens"]
	doc.mu.Unlock()

	if hierEntry == nil || flatEntry == nil {
		t.Fatalf("expected both keys populated, got hier=%v flat=%v", hierEntry, flatEntry)
	}
	if hierEntry != flatEntry {
		t.Fatal("hierarchical and flat keys must share the same entry object (atomicity invariant)")
	}
}

func TestInvalidateClearsSectionTierAndBumpsGeneration(t *testing.T) {
	c, io := newTestCache(t, 10, 1000)
	writeDoc(t, io, "/guide.md", sampleDoc)

	if _, err := c.GetSectionContent("/guide.md", "install"); err != nil {
		t.Fatal(err)
	}
	doc, _ := c.GetDocument("/guide.md")
	genBefore := doc.Generation()

	c.Invalidate("/guide.md")

	doc.mu.Lock()
	sectionCount := len(doc.sections)
	doc.mu.Unlock()
	if sectionCount != 0 {
		t.Fatalf("expected section tier cleared, has %d entries", sectionCount)
	}
	if doc.Generation() != genBefore+1 {
		t.Fatalf("expected generation to bump by 1, got %d -> %d", genBefore, doc.Generation())
	}
}

func TestGetSectionContentUnknownSlugReturnsSectionNotFound(t *testing.T) {
	c, io := newTestCache(t, 10, 1000)
	writeDoc(t, io, "/guide.md", sampleDoc)

	_, err := c.GetSectionContent("/guide.md", "nonexistent")
	if apperrors.CodeOf(err) != apperrors.CodeSectionNotFound {
		t.Fatalf("expected SECTION_NOT_FOUND, got %v", err)
	}
}

func TestEvictionReleasesWatcherGoroutines(t *testing.T) {
	defer goleak.VerifyNone(t)

	c, io := newTestCache(t, 1, 1000)
	writeDoc(t, io, "/a.md", sampleDoc)
	writeDoc(t, io, "/b.md", sampleDoc)

	if _, err := c.GetDocument("/a.md"); err != nil {
		t.Fatal(err)
	}
	// Capacity is 1: loading b evicts a, which must release a's watcher.
	if _, err := c.GetDocument("/b.md"); err != nil {
		t.Fatal(err)
	}
	c.Close()
	time.Sleep(10 * time.Millisecond)
}

func TestReconcileReparsesHeadingsOnExternalChange(t *testing.T) {
	c, io := newTestCache(t, 10, 1000)
	writeDoc(t, io, "/guide.md", sampleDoc)

	doc, err := c.GetDocument("/guide.md")
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.Headings) != 3 {
		t.Fatalf("expected 3 headings before the external edit, got %d", len(doc.Headings))
	}

	physical, err := io.Resolve(fsio.LogicalPath("/guide.md"))
	if err != nil {
		t.Fatal(err)
	}
	newContent := "# Guide\n\n## Install\n\nRun the installer.\n"
	if err := afero.WriteFile(io.FS(), string(physical), []byte(newContent), 0o644); err != nil {
		t.Fatal(err)
	}
	// MemMapFs' write may land on the same timestamp as the original; force
	// a distinct mtime so reconcile actually observes a change.
	if err := io.FS().Chtimes(string(physical), time.Now(), doc.Mtime.Add(time.Hour)); err != nil {
		t.Fatal(err)
	}

	c.reconcile("/guide.md", physical)

	doc.mu.Lock()
	headingCount := len(doc.Headings)
	content := string(doc.Content)
	sectionCount := len(doc.sections)
	doc.mu.Unlock()

	if headingCount != 2 {
		t.Fatalf("expected headings reparsed to 2 after the external edit, got %d", headingCount)
	}
	if content != newContent {
		t.Fatalf("expected doc.Content refreshed to the new bytes, got %q", content)
	}
	if sectionCount != 0 {
		t.Fatalf("expected section tier cleared alongside the heading reparse, got %d entries", sectionCount)
	}
}

func TestHeadingCapEvictsLeastRecentlyUsedDocuments(t *testing.T) {
	c, io := newTestCache(t, 10, 3) // 3 headings total cap; sampleDoc has 3 headings
	writeDoc(t, io, "/a.md", sampleDoc)
	writeDoc(t, io, "/b.md", sampleDoc)

	if _, err := c.GetDocument("/a.md"); err != nil {
		t.Fatal(err)
	}
	if _, err := c.GetDocument("/b.md"); err != nil {
		t.Fatal(err)
	}
	if _, ok := c.docs.Get("/a.md"); ok {
		t.Fatal("expected /a.md to have been evicted once the heading cap was exceeded")
	}
}
