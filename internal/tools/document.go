package tools

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/nota-kb/docserver/internal/docmanager"
	"github.com/nota-kb/docserver/internal/markdown"
	"github.com/nota-kb/docserver/internal/template"
)

// CreateDocumentParams is create_document's final stage: the prior stages
// (template selection, title/overview drafting) are a session-state
// concern the external collaborator drives; this is the atomic write.
type CreateDocumentParams struct {
	Path      string
	Title     string
	Overview  string
	Template  string
	Overwrite bool
}

// CreateDocumentResult reports the new document's canonical address, any
// non-fatal template compliance warnings, and related-document suggestions
// (other documents sharing the same namespace, excluding self).
type CreateDocumentResult struct {
	Path             string              `json:"path"`
	Namespace        string              `json:"namespace"`
	TemplateWarnings []template.Warning  `json:"template_warnings,omitempty"`
	RelatedDocuments []string            `json:"related_documents,omitempty"`
}

// CreateDocument validates the path, instantiates content from the named
// template, writes it, and returns suggestion hints drawn from documents
// sharing its namespace.
func (r *Registry) CreateDocument(p CreateDocumentParams) (CreateDocumentResult, *ErrorResponse) {
	addr, err := r.Addresses.Document(p.Path)
	if err != nil {
		e := asErrorResponse(err)
		return CreateDocumentResult{}, &e
	}

	result, err := r.Manager.CreateDocument(addr.Path, docmanager.CreateOptions{
		Title: p.Title, Overview: p.Overview, Template: p.Template, Overwrite: p.Overwrite,
	})
	if err != nil {
		e := asErrorResponse(err)
		return CreateDocumentResult{}, &e
	}

	related, err := r.relatedDocuments(addr.Path, addr.Namespace)
	if err != nil {
		r.Logger.Warn("create_document: listing related documents failed", zapError(err))
	}

	return CreateDocumentResult{
		Path:             addr.Path,
		Namespace:        addr.Namespace,
		TemplateWarnings: result.TemplateWarnings,
		RelatedDocuments: related,
	}, nil
}

// relatedDocuments returns every other document in namespace, excluding
// self, up to a small cap — a suggestion hint, not an exhaustive index.
func (r *Registry) relatedDocuments(selfPath, namespace string) ([]string, error) {
	handles, err := r.Manager.ListDocuments()
	if err != nil {
		return nil, err
	}
	var related []string
	for _, h := range handles {
		if h.Path == selfPath {
			continue
		}
		ns := namespaceOf(h.Path)
		if ns == namespace {
			related = append(related, h.Path)
		}
		if len(related) >= 10 {
			break
		}
	}
	return related, nil
}

func namespaceOf(path string) string {
	idx := strings.LastIndex(path, "/")
	ns := strings.Trim(path[:idx], "/")
	if ns == "" {
		return "root"
	}
	return ns
}

// DocumentStats is view_document's statistics block.
type DocumentStats struct {
	HeadingCount     int            `json:"heading_count"`
	TaskCountsByStat map[string]int `json:"task_counts_by_status"`
	LinkCount        int            `json:"link_count"`
	WordCount        int            `json:"word_count"`
	SizeHuman        string         `json:"size"`
}

// ViewDocumentResult is view_document's full response.
type ViewDocumentResult struct {
	Path    string        `json:"path"`
	Content string        `json:"content"`
	Stats   DocumentStats `json:"stats"`
}

var inlineLinkPattern = regexp.MustCompile(`\[[^\]]*\]\([^)]*\)`)

// ViewDocument assembles a read-only snapshot of path plus its statistics.
func (r *Registry) ViewDocument(rawPath string) (ViewDocumentResult, *ErrorResponse) {
	addr, err := r.Addresses.Document(rawPath)
	if err != nil {
		e := asErrorResponse(err)
		return ViewDocumentResult{}, &e
	}
	doc, err := r.Manager.GetDocument(addr.Path)
	if err != nil {
		e := asErrorResponse(err)
		return ViewDocumentResult{}, &e
	}
	if doc == nil {
		e := asErrorResponse(notFoundErr(addr.Path))
		return ViewDocumentResult{}, &e
	}

	stats := DocumentStats{
		HeadingCount:     len(doc.Headings),
		TaskCountsByStat: map[string]int{},
		LinkCount:        len(inlineLinkPattern.FindAllIndex(doc.Content, -1)),
		WordCount:        len(strings.Fields(string(doc.Content))),
		SizeHuman:        humanize.Bytes(uint64(doc.Size)),
	}
	for i, h := range doc.Headings {
		if !markdown.IsTask(doc.Headings, i) {
			continue
		}
		status := markdown.ParseTaskStatus(h.Body(doc.Content))
		stats.TaskCountsByStat[string(status)]++
	}

	return ViewDocumentResult{Path: addr.Path, Content: string(doc.Content), Stats: stats}, nil
}

// EditDocumentParams carries edit_document's metadata-only fields:
// changing a title or overview, never section content (that is section's
// job).
type EditDocumentParams struct {
	Path     string
	Title    *string
	Overview *string
}

// EditDocument rewrites path's title and/or overview, returning the
// refreshed document (always re-fetched through the cache, never the
// locally-edited buffer, so the response can't echo stale metadata).
func (r *Registry) EditDocument(p EditDocumentParams) (ViewDocumentResult, *ErrorResponse) {
	addr, err := r.Addresses.Document(p.Path)
	if err != nil {
		e := asErrorResponse(err)
		return ViewDocumentResult{}, &e
	}
	handle, err := r.Manager.EditDocumentMetadata(addr.Path, docmanager.MetadataOptions{Title: p.Title, Overview: p.Overview})
	if err != nil {
		e := asErrorResponse(err)
		return ViewDocumentResult{}, &e
	}
	return r.ViewDocument(handle.Path)
}

// DeleteDocumentResult reports what actually happened — an archive
// address, or a bare confirmation of permanent removal.
type DeleteDocumentResult struct {
	Path        string `json:"path"`
	Archived    bool   `json:"archived"`
	ArchivePath string `json:"archive_path,omitempty"`
}

// DeleteDocument removes path, archiving it first unless archive is false.
func (r *Registry) DeleteDocument(rawPath string, archive bool) (DeleteDocumentResult, *ErrorResponse) {
	addr, err := r.Addresses.Document(rawPath)
	if err != nil {
		e := asErrorResponse(err)
		return DeleteDocumentResult{}, &e
	}
	result, err := r.Manager.DeleteDocument(addr.Path, docmanager.DeleteOptions{Archive: archive})
	if err != nil {
		e := asErrorResponse(err)
		return DeleteDocumentResult{}, &e
	}
	out := DeleteDocumentResult{Path: addr.Path, Archived: archive}
	if result != nil {
		out.ArchivePath = result.ArchivePath
	}
	return out, nil
}

// MoveDocumentResult reports the document's new canonical address.
type MoveDocumentResult struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// MoveDocument renames a whole document.
func (r *Registry) MoveDocument(rawFrom, rawTo string) (MoveDocumentResult, *ErrorResponse) {
	fromAddr, err := r.Addresses.Document(rawFrom)
	if err != nil {
		e := asErrorResponse(err)
		return MoveDocumentResult{}, &e
	}
	toAddr, err := r.Addresses.Document(rawTo)
	if err != nil {
		e := asErrorResponse(err)
		return MoveDocumentResult{}, &e
	}
	if err := r.Manager.MoveDocument(fromAddr.Path, toAddr.Path); err != nil {
		e := asErrorResponse(err)
		return MoveDocumentResult{}, &e
	}
	return MoveDocumentResult{From: fromAddr.Path, To: toAddr.Path}, nil
}

// MoveSectionParams is the "move" tool's parameter set: relocate a section
// from one document/address to a position relative to another.
type MoveSectionParams struct {
	FromDocument string
	FromSection  string
	ToDocument   string
	ToSection    string
	Position     string // "before", "after", "append_child"
}

// MoveSectionResult reports the section's new containing document.
type MoveSectionResult struct {
	FromDocument string `json:"from_document"`
	ToDocument   string `json:"to_document"`
}

// Move relocates a section (the "move" tool, distinct from move_document).
func (r *Registry) Move(p MoveSectionParams) (MoveSectionResult, *ErrorResponse) {
	fromAddr, err := r.Addresses.Document(p.FromDocument)
	if err != nil {
		e := asErrorResponse(err)
		return MoveSectionResult{}, &e
	}
	toAddr, err := r.Addresses.Document(p.ToDocument)
	if err != nil {
		e := asErrorResponse(err)
		return MoveSectionResult{}, &e
	}

	var position markdown.RelativePosition
	switch p.Position {
	case "before":
		position = markdown.PositionBefore
	case "after", "":
		position = markdown.PositionAfter
	case "append_child":
		position = markdown.PositionAppendChild
	default:
		e := asErrorResponse(invalidParam(fmt.Sprintf("unknown move position %q", p.Position)))
		return MoveSectionResult{}, &e
	}

	if err := r.Manager.MoveSection(fromAddr.Path, p.FromSection, toAddr.Path, p.ToSection, position); err != nil {
		e := asErrorResponse(err)
		return MoveSectionResult{}, &e
	}
	return MoveSectionResult{FromDocument: fromAddr.Path, ToDocument: toAddr.Path}, nil
}
