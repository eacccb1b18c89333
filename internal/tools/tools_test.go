package tools

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"

	"github.com/nota-kb/docserver/internal/address"
	"github.com/nota-kb/docserver/internal/applog"
	"github.com/nota-kb/docserver/internal/cache"
	"github.com/nota-kb/docserver/internal/docmanager"
	"github.com/nota-kb/docserver/internal/fsio"
	"github.com/nota-kb/docserver/internal/reference"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	afs := afero.NewMemMapFs()
	io := fsio.New(afs, "/docs", 0)
	c, err := cache.New(io, applog.Nop(), 100, 100000)
	if err != nil {
		t.Fatal(err)
	}
	manager := docmanager.New(io, c, applog.Nop())
	addrs, err := address.NewCache()
	if err != nil {
		t.Fatal(err)
	}
	loader := reference.NewLoader(manager.ForReferenceLoader(), 3, 1000, 30*time.Second)
	return New(manager, addrs, loader, applog.Nop())
}

func TestCreateDocumentReturnsRelatedDocumentsInNamespace(t *testing.T) {
	r := newTestRegistry(t)
	if _, errResp := r.CreateDocument(CreateDocumentParams{Path: "/guides/a.md", Title: "A", Template: "blank"}); errResp != nil {
		t.Fatal(errResp)
	}
	result, errResp := r.CreateDocument(CreateDocumentParams{Path: "/guides/b.md", Title: "B", Template: "blank"})
	if errResp != nil {
		t.Fatal(errResp)
	}
	if len(result.RelatedDocuments) != 1 || result.RelatedDocuments[0] != "/guides/a.md" {
		t.Fatalf("expected /guides/a.md as a related document, got %+v", result.RelatedDocuments)
	}
}

func TestViewDocumentReportsTaskStats(t *testing.T) {
	r := newTestRegistry(t)
	content := "Status: pending"
	if _, errResp := r.CreateDocument(CreateDocumentParams{Path: "/p.md", Title: "P", Overview: "An overview with enough words.", Template: "task-list"}); errResp != nil {
		t.Fatal(errResp)
	}
	results := r.Section("/p.md", []SectionOp{
		{Section: "tasks", Operation: "append_child", Title: "First task", Content: content},
	})
	if results[0].Error != nil {
		t.Fatal(results[0].Error)
	}

	view, errResp := r.ViewDocument("/p.md")
	if errResp != nil {
		t.Fatal(errResp)
	}
	if view.Stats.HeadingCount < 2 {
		t.Fatalf("expected at least 2 headings, got %d", view.Stats.HeadingCount)
	}
	if view.Stats.TaskCountsByStat["pending"] != 1 {
		t.Fatalf("expected 1 pending task, got %+v", view.Stats.TaskCountsByStat)
	}
}

func TestTaskBatchCreateEditAndList(t *testing.T) {
	r := newTestRegistry(t)
	if _, errResp := r.CreateDocument(CreateDocumentParams{Path: "/proj.md", Title: "Proj", Overview: "An overview with enough words.", Template: "task-list"}); errResp != nil {
		t.Fatal(errResp)
	}

	createResults := r.Task("/proj.md", []TaskOp{
		{Operation: "create", Title: "Write docs", Content: "Status: pending"},
	})
	if createResults[0].Error != nil {
		t.Fatal(createResults[0].Error)
	}
	slug := createResults[0].NewSlug
	if slug == "" {
		t.Fatal("expected a new task slug")
	}

	editResults := r.Task("/proj.md", []TaskOp{
		{Operation: "edit", Task: slug, Status: "in_progress"},
	})
	if editResults[0].Error != nil {
		t.Fatal(editResults[0].Error)
	}
	if editResults[0].Task.Status != "in_progress" {
		t.Fatalf("expected in_progress, got %q", editResults[0].Task.Status)
	}

	listResults := r.Task("/proj.md", []TaskOp{{Operation: "list"}})
	if listResults[0].Error != nil {
		t.Fatal(listResults[0].Error)
	}
	if len(listResults[0].Tasks) != 1 || listResults[0].Tasks[0].Slug != slug {
		t.Fatalf("expected the one created task in the list, got %+v", listResults[0].Tasks)
	}
}

func TestStartAndCompleteTaskFindsNextPending(t *testing.T) {
	r := newTestRegistry(t)
	if _, errResp := r.CreateDocument(CreateDocumentParams{Path: "/proj.md", Title: "Proj", Overview: "An overview with enough words.", Template: "task-list"}); errResp != nil {
		t.Fatal(errResp)
	}
	first := r.Task("/proj.md", []TaskOp{{Operation: "create", Title: "First", Content: "Status: pending"}})[0]
	second := r.Task("/proj.md", []TaskOp{{Operation: "create", Title: "Second", Content: "Status: pending"}})[0]
	if first.Error != nil || second.Error != nil {
		t.Fatalf("setup failed: %v %v", first.Error, second.Error)
	}

	startResult, errResp := r.StartTask(context.Background(), StartTaskParams{Document: "/proj.md", Task: first.NewSlug})
	if errResp != nil {
		t.Fatal(errResp)
	}
	if startResult.Task.Status != "pending" {
		t.Fatalf("expected pending, got %q", startResult.Task.Status)
	}

	completeResult, errResp := r.CompleteTask(context.Background(), CompleteTaskParams{
		Document: "/proj.md", Task: first.NewSlug, Note: "done", FindNext: true,
	})
	if errResp != nil {
		t.Fatal(errResp)
	}
	if completeResult.Task.Status != "completed" {
		t.Fatalf("expected completed, got %q", completeResult.Task.Status)
	}
	if !strings.Contains(completeResult.Task.Body, "done") {
		t.Fatalf("expected the completion note in the task body, got %q", completeResult.Task.Body)
	}
	if completeResult.NextPending == nil || completeResult.NextPending.Slug != second.NewSlug {
		t.Fatalf("expected the second task as next pending, got %+v", completeResult.NextPending)
	}
}

func TestBrowseAndSearchDocuments(t *testing.T) {
	r := newTestRegistry(t)
	if _, errResp := r.CreateDocument(CreateDocumentParams{Path: "/guides/setup.md", Title: "Setup Guide", Overview: "Covers authentication tokens.", Template: "guide"}); errResp != nil {
		t.Fatal(errResp)
	}
	if _, errResp := r.CreateDocument(CreateDocumentParams{Path: "/reference/api.md", Title: "API Reference", Template: "reference"}); errResp != nil {
		t.Fatal(errResp)
	}

	summaries, errResp := r.BrowseDocuments("")
	if errResp != nil {
		t.Fatal(errResp)
	}
	if len(summaries) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(summaries))
	}

	results, errResp := r.SearchDocuments(SearchParams{Query: "authentication"})
	if errResp != nil {
		t.Fatal(errResp)
	}
	if len(results) != 1 || results[0].Path != "/guides/setup.md" {
		t.Fatalf("expected setup.md as the sole match, got %+v", results)
	}
}

func TestBrowseDocumentsFilteredByExpression(t *testing.T) {
	r := newTestRegistry(t)
	if _, errResp := r.CreateDocument(CreateDocumentParams{Path: "/guides/setup.md", Title: "Setup Guide", Overview: "Covers authentication tokens.", Template: "guide"}); errResp != nil {
		t.Fatal(errResp)
	}
	if _, errResp := r.CreateDocument(CreateDocumentParams{Path: "/reference/api.md", Title: "API Reference", Template: "reference"}); errResp != nil {
		t.Fatal(errResp)
	}

	summaries, errResp := r.BrowseDocumentsFiltered("", `namespace == "guides"`)
	if errResp != nil {
		t.Fatal(errResp)
	}
	if len(summaries) != 1 || summaries[0].Path != "/guides/setup.md" {
		t.Fatalf("expected only the guides document, got %+v", summaries)
	}
}

func TestBrowseDocumentsFilteredRejectsInvalidExpression(t *testing.T) {
	r := newTestRegistry(t)
	if _, errResp := r.BrowseDocumentsFiltered("", "namespace =="); errResp == nil {
		t.Fatal("expected an error for a malformed filter expression")
	}
}

func TestSearchDocumentsAppliesFilterAlongsideQuery(t *testing.T) {
	r := newTestRegistry(t)
	if _, errResp := r.CreateDocument(CreateDocumentParams{Path: "/guides/setup.md", Title: "Setup Guide", Overview: "Covers authentication tokens.", Template: "guide"}); errResp != nil {
		t.Fatal(errResp)
	}
	if _, errResp := r.CreateDocument(CreateDocumentParams{Path: "/reference/auth.md", Title: "Auth Reference", Overview: "Covers authentication flows.", Template: "reference"}); errResp != nil {
		t.Fatal(errResp)
	}

	results, errResp := r.SearchDocuments(SearchParams{Query: "authentication", Filter: `namespace == "reference"`})
	if errResp != nil {
		t.Fatal(errResp)
	}
	if len(results) != 1 || results[0].Path != "/reference/auth.md" {
		t.Fatalf("expected only the reference document, got %+v", results)
	}
}

func TestMoveSectionAcrossDocumentsViaToolsFacade(t *testing.T) {
	r := newTestRegistry(t)
	if _, errResp := r.CreateDocument(CreateDocumentParams{Path: "/src.md", Title: "Src", Overview: "x", Template: "guide"}); errResp != nil {
		t.Fatal(errResp)
	}
	if _, errResp := r.CreateDocument(CreateDocumentParams{Path: "/dest.md", Title: "Dest", Overview: "y", Template: "guide"}); errResp != nil {
		t.Fatal(errResp)
	}

	result, errResp := r.Move(MoveSectionParams{
		FromDocument: "/src.md", FromSection: "overview", ToDocument: "/dest.md", ToSection: "steps", Position: "after",
	})
	if errResp != nil {
		t.Fatal(errResp)
	}
	if result.ToDocument != "/dest.md" {
		t.Fatalf("unexpected destination: %+v", result)
	}

	destView, errResp := r.ViewDocument("/dest.md")
	if errResp != nil {
		t.Fatal(errResp)
	}
	// The guide template already gives the destination its own Overview, so
	// the moved one is the second.
	if strings.Count(destView.Content, "## Overview") != 2 {
		t.Fatalf("expected moved section in destination: %s", destView.Content)
	}
}

func TestDeleteDocumentWithoutArchivePermanentlyRemoves(t *testing.T) {
	r := newTestRegistry(t)
	if _, errResp := r.CreateDocument(CreateDocumentParams{Path: "/a.md", Title: "A", Template: "blank"}); errResp != nil {
		t.Fatal(errResp)
	}
	result, errResp := r.DeleteDocument("/a.md", false)
	if errResp != nil {
		t.Fatal(errResp)
	}
	if result.Archived || result.ArchivePath != "" {
		t.Fatalf("expected no archive path for a permanent delete, got %+v", result)
	}
	if doc, err := r.Manager.GetDocument("/a.md"); err != nil || doc != nil {
		t.Fatalf("expected document to be gone, got %+v %v", doc, err)
	}
}
