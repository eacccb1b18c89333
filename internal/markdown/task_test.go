package markdown

import "testing"

const taskDoc = `# Project

## Tasks

### Write docs

Status: in_progress
Workflow: writing-guide

### Ship it

**Status**: blocked
Main-Workflow: release-checklist

## Notes

### Not a task

Just a regular subsection, not under Tasks.
`

func TestIsTaskIsStructuralNotByName(t *testing.T) {
	doc, err := Parse("/p.md", []byte(taskDoc))
	if err != nil {
		t.Fatal(err)
	}
	var writeDocs, notATask = -1, -1
	for i, h := range doc.Headings {
		switch h.Title {
		case "Write docs":
			writeDocs = i
		case "Not a task":
			notATask = i
		}
	}
	if writeDocs == -1 || notATask == -1 {
		t.Fatal("fixture headings not found")
	}
	if !IsTask(doc.Headings, writeDocs) {
		t.Fatal("expected 'Write docs' (child of Tasks) to be a task")
	}
	if IsTask(doc.Headings, notATask) {
		t.Fatal("expected 'Not a task' (child of Notes) to not be a task")
	}
}

func TestParseTaskStatusRecognizesPlainAndBoldForms(t *testing.T) {
	doc, err := Parse("/p.md", []byte(taskDoc))
	if err != nil {
		t.Fatal(err)
	}
	for _, h := range doc.Headings {
		switch h.Title {
		case "Write docs":
			if got := ParseTaskStatus(h.Body([]byte(taskDoc))); got != StatusInProgress {
				t.Fatalf("expected in_progress, got %q", got)
			}
		case "Ship it":
			if got := ParseTaskStatus(h.Body([]byte(taskDoc))); got != StatusBlocked {
				t.Fatalf("expected blocked, got %q", got)
			}
		}
	}
}

func TestParseTaskStatusDefaultsToPending(t *testing.T) {
	doc, err := Parse("/p.md", []byte("# A\n\n## Tasks\n\n### No status here\n\nJust text.\n"))
	if err != nil {
		t.Fatal(err)
	}
	h := doc.Headings[len(doc.Headings)-1]
	if got := ParseTaskStatus(h.Body(doc.Content)); got != StatusPending {
		t.Fatalf("expected default pending, got %q", got)
	}
}

func TestParseWorkflowRefDistinguishesMain(t *testing.T) {
	doc, err := Parse("/p.md", []byte(taskDoc))
	if err != nil {
		t.Fatal(err)
	}
	for _, h := range doc.Headings {
		switch h.Title {
		case "Write docs":
			name, isMain, found := ParseWorkflowRef(h.Body([]byte(taskDoc)))
			if !found || isMain || name != "writing-guide" {
				t.Fatalf("unexpected workflow ref: %q %v %v", name, isMain, found)
			}
		case "Ship it":
			name, isMain, found := ParseWorkflowRef(h.Body([]byte(taskDoc)))
			if !found || !isMain || name != "release-checklist" {
				t.Fatalf("unexpected main workflow ref: %q %v %v", name, isMain, found)
			}
		}
	}
}
