package apperrors

import (
	"errors"
	"testing"
)

func TestErrorsIsByCode(t *testing.T) {
	err := Newf(CodeConcurrentModification, "mtime changed for %s", "/doc.md")
	if !errors.Is(err, Sentinel(CodeConcurrentModification)) {
		t.Fatal("expected errors.Is to match on Code")
	}
	if errors.Is(err, Sentinel(CodeDocumentNotFound)) {
		t.Fatal("did not expect match on a different Code")
	}
}

func TestWithDoesNotMutateOriginal(t *testing.T) {
	base := New(CodeSectionNotFound, "no such section")
	enriched := base.With("available_sections", []string{"overview", "tasks"})
	if len(base.Context) != 0 {
		t.Fatalf("With mutated original context: %v", base.Context)
	}
	if enriched.Context["available_sections"] == nil {
		t.Fatal("enriched error missing context")
	}
}

func TestCodeOf(t *testing.T) {
	if CodeOf(errors.New("plain")) != "" {
		t.Fatal("expected empty code for non-apperrors error")
	}
	if CodeOf(Newf(CodeFileTooLarge, "too big")) != CodeFileTooLarge {
		t.Fatal("expected CodeOf to recover the code")
	}
}
