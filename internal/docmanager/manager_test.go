package docmanager

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/spf13/afero"

	"github.com/nota-kb/docserver/internal/apperrors"
	"github.com/nota-kb/docserver/internal/applog"
	"github.com/nota-kb/docserver/internal/cache"
	"github.com/nota-kb/docserver/internal/fsio"
	"github.com/nota-kb/docserver/internal/markdown"
)

func newTestManager(t *testing.T) (*Manager, *fsio.IO) {
	t.Helper()
	afs := afero.NewMemMapFs()
	io := fsio.New(afs, "/docs", 0)
	// A real fsnotify watcher can't register against paths that only
	// exist on the in-memory filesystem; the cache's own startWatching
	// already degrades that failure to a background polling goroutine,
	// so tests need no special watcher injection here.
	c, err := cache.New(io, applog.Nop(), 100, 100000)
	if err != nil {
		t.Fatal(err)
	}
	return New(io, c, applog.Nop()), io
}

func TestCreateDocumentWritesFromTemplate(t *testing.T) {
	m, _ := newTestManager(t)
	result, err := m.CreateDocument("/guide.md", CreateOptions{
		Title: "Deployment Guide", Overview: "How we deploy safely to production.", Template: "guide",
	})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(result.Document.Content), "# Deployment Guide") {
		t.Fatalf("missing title: %s", result.Document.Content)
	}
	foundMissingSteps := false
	for _, w := range result.TemplateWarnings {
		if w.Code == "missing_required_section" {
			foundMissingSteps = true
		}
	}
	if foundMissingSteps {
		t.Fatalf("guide template should self-satisfy its own Steps requirement: %+v", result.TemplateWarnings)
	}
}

func TestCreateDocumentRejectsExistingPathWithoutOverwrite(t *testing.T) {
	m, _ := newTestManager(t)
	if _, err := m.CreateDocument("/a.md", CreateOptions{Title: "A"}); err != nil {
		t.Fatal(err)
	}
	if _, err := m.CreateDocument("/a.md", CreateOptions{Title: "A2"}); err == nil {
		t.Fatal("expected an error creating over an existing document")
	}
}

func TestGetDocumentReturnsNilForMissingFile(t *testing.T) {
	m, _ := newTestManager(t)
	doc, err := m.GetDocument("/missing.md")
	if err != nil || doc != nil {
		t.Fatalf("expected (nil, nil), got (%v, %v)", doc, err)
	}
}

func TestEditSectionReplaceThenReadBack(t *testing.T) {
	m, _ := newTestManager(t)
	if _, err := m.CreateDocument("/a.md", CreateOptions{Title: "A", Template: "blank"}); err != nil {
		t.Fatal(err)
	}

	result, err := m.EditSection("/a.md", "a", "replace", "New body content.", "")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(result.Content), "New body content.") {
		t.Fatalf("edited content missing new body: %s", result.Content)
	}

	content, err := m.GetSectionContent("/a.md", "a")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(content), "New body content.") {
		t.Fatalf("section content not updated in cache: %s", content)
	}
}

func TestEditSectionInsertAfterReportsNewSlug(t *testing.T) {
	m, _ := newTestManager(t)
	if _, err := m.CreateDocument("/a.md", CreateOptions{Title: "A", Template: "blank"}); err != nil {
		t.Fatal(err)
	}

	result, err := m.EditSection("/a.md", "a", "insert_after", "New section body.", "New Section")
	if err != nil {
		t.Fatal(err)
	}
	if result.NewSlug != "new-section" {
		t.Fatalf("expected new-section slug, got %q", result.NewSlug)
	}
}

func TestEditSectionRemoveReportsRemovedBytes(t *testing.T) {
	m, _ := newTestManager(t)
	if _, err := m.CreateDocument("/a.md", CreateOptions{Title: "A", Overview: "Body.", Template: "guide"}); err != nil {
		t.Fatal(err)
	}

	result, err := m.EditSection("/a.md", "overview", "remove", "", "")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(result.RemovedBytes), "## Overview") {
		t.Fatalf("expected removed bytes to include the heading, got %q", result.RemovedBytes)
	}
	if strings.Contains(string(result.Content), "## Overview") {
		t.Fatal("expected edited content to no longer contain the removed section")
	}
}

func TestEditSectionDetectsConcurrentModification(t *testing.T) {
	m, io := newTestManager(t)
	if _, err := m.CreateDocument("/a.md", CreateOptions{Title: "A", Template: "blank"}); err != nil {
		t.Fatal(err)
	}

	physical, _ := io.Resolve(fsio.LogicalPath("/a.md"))
	doc, err := m.GetDocument("/a.md")
	if err != nil || doc == nil {
		t.Fatalf("expected the created document, got (%v, %v)", doc, err)
	}
	// Rewrite the file behind the cache's back: the cache still holds the
	// mtime it loaded, so EditSection's mtime-checked write must refuse.
	if _, err := io.WriteIfUnchanged(physical, []byte("# A\n\nChanged out from under the cache.\n"), doc.Mtime); err != nil {
		t.Fatal(err)
	}
	_, err = m.EditSection("/a.md", "a", "replace", "x", "")
	if apperrors.CodeOf(err) != apperrors.CodeConcurrentModification {
		t.Fatalf("expected CONCURRENT_MODIFICATION, got %v", err)
	}
}

func TestMoveDocument(t *testing.T) {
	m, io := newTestManager(t)
	if _, err := m.CreateDocument("/a.md", CreateOptions{Title: "A", Template: "blank"}); err != nil {
		t.Fatal(err)
	}
	if err := m.MoveDocument("/a.md", "/nested/b.md"); err != nil {
		t.Fatal(err)
	}
	fromPhysical, _ := io.Resolve(fsio.LogicalPath("/a.md"))
	toPhysical, _ := io.Resolve(fsio.LogicalPath("/nested/b.md"))
	if io.Exists(fromPhysical) {
		t.Fatal("source should no longer exist")
	}
	if !io.Exists(toPhysical) {
		t.Fatal("destination should exist")
	}
}

func TestMoveSectionAcrossDocuments(t *testing.T) {
	m, _ := newTestManager(t)
	if _, err := m.CreateDocument("/src.md", CreateOptions{Title: "Src", Overview: "x", Template: "guide"}); err != nil {
		t.Fatal(err)
	}
	if _, err := m.CreateDocument("/dest.md", CreateOptions{Title: "Dest", Overview: "y", Template: "guide"}); err != nil {
		t.Fatal(err)
	}

	// "steps" sits at depth 2 in the guide template, so inserting after it
	// places the moved section at the same depth it held in the source.
	if err := m.MoveSection("/src.md", "overview", "/dest.md", "steps", markdown.PositionAfter); err != nil {
		t.Fatal(err)
	}

	destDoc, err := m.GetDocument("/dest.md")
	if err != nil {
		t.Fatal(err)
	}
	// The guide template already gives the destination its own Overview, so
	// the moved one is the second.
	if strings.Count(string(destDoc.Content), "## Overview") != 2 {
		t.Fatalf("expected moved section in destination: %s", destDoc.Content)
	}

	srcDoc, err := m.GetDocument("/src.md")
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(srcDoc.Content), "## Overview") {
		t.Fatalf("expected section removed from source: %s", srcDoc.Content)
	}
}

func TestArchiveDocumentWritesAuditRecord(t *testing.T) {
	m, io := newTestManager(t)
	if _, err := m.CreateDocument("/a.md", CreateOptions{Title: "A", Template: "blank"}); err != nil {
		t.Fatal(err)
	}

	result, err := m.ArchiveDocument("/a.md")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(result.ArchivePath, "/archived/") {
		t.Fatalf("expected archive path under /archived/, got %s", result.ArchivePath)
	}
	if !strings.HasSuffix(result.AuditPath, ".audit") {
		t.Fatalf("expected audit path to end in .audit, got %s", result.AuditPath)
	}
	auditPhysical, err := io.Resolve(fsio.LogicalPath(result.AuditPath))
	if err != nil {
		t.Fatal(err)
	}
	if !io.Exists(auditPhysical) {
		t.Fatal("expected audit record to have been written")
	}

	snap, err := io.ReadSnapshot(auditPhysical)
	if err != nil {
		t.Fatal(err)
	}
	var record auditRecord
	if err := json.Unmarshal(snap.Content, &record); err != nil {
		t.Fatalf("audit record is not valid JSON: %v", err)
	}
	if record.OriginalPath != "/a.md" {
		t.Errorf("original_path = %q, want /a.md", record.OriginalPath)
	}
	if record.ArchivePath != result.ArchivePath {
		t.Errorf("archive_path = %q, want %q", record.ArchivePath, result.ArchivePath)
	}
	if record.Operation != "archive" {
		t.Errorf("operation = %q, want %q", record.Operation, "archive")
	}
	if record.Timestamp == "" {
		t.Error("expected a non-empty timestamp")
	}
}

func TestDeleteDocumentPermanentlyRemoves(t *testing.T) {
	m, io := newTestManager(t)
	if _, err := m.CreateDocument("/a.md", CreateOptions{Title: "A", Template: "blank"}); err != nil {
		t.Fatal(err)
	}
	if _, err := m.DeleteDocument("/a.md", DeleteOptions{Archive: false}); err != nil {
		t.Fatal(err)
	}
	physical, _ := io.Resolve(fsio.LogicalPath("/a.md"))
	if io.Exists(physical) {
		t.Fatal("expected document to be permanently removed")
	}
}

func TestEditDocumentMetadataReflectsChangeNotStaleCache(t *testing.T) {
	m, _ := newTestManager(t)
	if _, err := m.CreateDocument("/a.md", CreateOptions{Title: "Old Title", Overview: "Old overview text.", Template: "blank"}); err != nil {
		t.Fatal(err)
	}

	newTitle := "New Title"
	newOverview := "New overview text."
	handle, err := m.EditDocumentMetadata("/a.md", MetadataOptions{Title: &newTitle, Overview: &newOverview})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(handle.Content), "# New Title") {
		t.Fatalf("expected updated title, got %s", handle.Content)
	}
	if !strings.Contains(string(handle.Content), "New overview text.") {
		t.Fatalf("expected updated overview, got %s", handle.Content)
	}
	if strings.Contains(string(handle.Content), "Old overview text.") {
		t.Fatalf("expected old overview to be gone, got %s", handle.Content)
	}
}

func TestEditSectionUnknownModeIsInvalidParameterValue(t *testing.T) {
	m, _ := newTestManager(t)
	if _, err := m.CreateDocument("/a.md", CreateOptions{Title: "A", Template: "blank"}); err != nil {
		t.Fatal(err)
	}
	_, err := m.EditSection("/a.md", "a", "nonsense", "", "")
	if apperrors.CodeOf(err) != apperrors.CodeInvalidParameterValue {
		t.Fatalf("expected INVALID_PARAMETER_VALUE, got %v", err)
	}
}
