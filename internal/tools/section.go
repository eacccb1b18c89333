package tools

import (
	"github.com/nota-kb/docserver/internal/apperrors"
	"github.com/nota-kb/docserver/internal/reference"
)

// extractedOriginals returns the raw matched text of every `@`-reference
// token found in content, in source order.
func extractedOriginals(content string) []string {
	refs := reference.Extract(content)
	if len(refs) == 0 {
		return nil
	}
	out := make([]string, len(refs))
	for i, r := range refs {
		out[i] = r.Original
	}
	return out
}

// SectionOp is one entry in a section batch: {document?, section,
// operation, content?, title?}. Document, when empty, falls back to the
// batch's DefaultDocument; a full path encoded directly in Section
// overrides it regardless.
type SectionOp struct {
	Document  string // optional; falls back to DefaultDocument
	Section   string
	Operation string // replace, append, prepend, insert_before, insert_after, append_child, remove
	Content   string
	Title     string
}

// SectionOpResult is one batch entry's outcome: every operation reports
// status independently, so a caller can see exactly which of N operations
// succeeded.
type SectionOpResult struct {
	Document string         `json:"document"`
	Section  string         `json:"section"`
	NewSlug  string         `json:"new_slug,omitempty"`
	Removed  string         `json:"removed_content,omitempty"`
	Error    *ErrorResponse `json:"error,omitempty"`
}

// Section runs a batch of per-section operations sequentially. All
// operations execute regardless of earlier failures in the batch — a
// partial failure reports per-operation status and does not roll back
// prior successes; the caller owns rollback.
func (r *Registry) Section(defaultDocument string, ops []SectionOp) []SectionOpResult {
	results := make([]SectionOpResult, len(ops))
	for i, op := range ops {
		results[i] = r.runSectionOp(defaultDocument, op)
	}
	return results
}

func (r *Registry) runSectionOp(defaultDocument string, op SectionOp) SectionOpResult {
	docRaw := op.Document
	if docRaw == "" {
		docRaw = defaultDocument
	}

	docAddr, err := r.Addresses.Document(docRaw)
	if err != nil {
		e := asErrorResponse(err)
		return SectionOpResult{Document: docRaw, Section: op.Section, Error: &e}
	}
	secAddr, err := r.Addresses.Section(op.Section, docAddr.Path)
	if err != nil {
		e := asErrorResponse(err)
		return SectionOpResult{Document: docAddr.Path, Section: op.Section, Error: &e}
	}

	if op.Operation == "" {
		e := asErrorResponse(apperrors.New(apperrors.CodeMissingParameter, "section operation is required"))
		return SectionOpResult{Document: secAddr.Document.Path, Section: secAddr.Slug, Error: &e}
	}

	result, err := r.Manager.EditSection(secAddr.Document.Path, secAddr.Slug, op.Operation, op.Content, op.Title)
	if err != nil {
		e := asErrorResponse(err)
		return SectionOpResult{Document: secAddr.Document.Path, Section: secAddr.Slug, Error: &e}
	}

	return SectionOpResult{
		Document: secAddr.Document.Path,
		Section:  secAddr.Slug,
		NewSlug:  result.NewSlug,
		Removed:  string(result.RemovedBytes),
	}
}

// ViewSectionResult is view_section's response: content plus the
// references extracted from it (not loaded — that is the reference
// loader's job, invoked separately when a caller wants the tree).
type ViewSectionResult struct {
	Document string   `json:"document"`
	Section  string   `json:"section"`
	Content  string   `json:"content"`
	RefsSeen []string `json:"references,omitempty"`
}

// ViewSection returns section's content plus the raw `@`-reference tokens
// it contains.
func (r *Registry) ViewSection(rawDocument, rawSection string) (ViewSectionResult, *ErrorResponse) {
	docAddr, err := r.Addresses.Document(rawDocument)
	if err != nil {
		e := asErrorResponse(err)
		return ViewSectionResult{}, &e
	}
	secAddr, err := r.Addresses.Section(rawSection, docAddr.Path)
	if err != nil {
		e := asErrorResponse(err)
		return ViewSectionResult{}, &e
	}

	content, err := r.Manager.GetSectionContent(docAddr.Path, secAddr.Slug)
	if err != nil {
		e := asErrorResponse(err)
		return ViewSectionResult{}, &e
	}

	return ViewSectionResult{
		Document: docAddr.Path,
		Section:  secAddr.Slug,
		Content:  string(content),
		RefsSeen: extractedOriginals(string(content)),
	}, nil
}
