package docmanager

import (
	"time"

	"go.uber.org/zap"

	"github.com/nota-kb/docserver/internal/apperrors"
	"github.com/nota-kb/docserver/internal/fsio"
	"github.com/nota-kb/docserver/internal/markdown"
	"github.com/nota-kb/docserver/internal/template"
)

// CreateOptions carries createDocument's stage-two parameters.
type CreateOptions struct {
	Title     string
	Overview  string
	Template  string
	Overwrite bool
}

// CreateResult is createDocument's outcome: the new document's handle
// plus any non-fatal template compliance findings.
type CreateResult struct {
	Document         DocumentHandle
	TemplateWarnings []template.Warning
}

// CreateDocument validates path, rejects an existing file unless
// Overwrite is set, instantiates content from the selected template, and
// writes it. On success the new document is inserted into the cache.
func (m *Manager) CreateDocument(path string, opts CreateOptions) (CreateResult, error) {
	physical, err := m.io.Resolve(fsio.LogicalPath(path))
	if err != nil {
		return CreateResult{}, err
	}
	var priorMtime time.Time
	if m.io.Exists(physical) {
		if !opts.Overwrite {
			return CreateResult{}, apperrors.Newf(apperrors.CodeInvalidParameterValue, "%s already exists", path)
		}
		snap, err := m.io.ReadSnapshot(physical)
		if err != nil {
			return CreateResult{}, err
		}
		priorMtime = snap.Mtime
	}

	tmpl := template.Lookup(opts.Template)
	content := []byte(tmpl.Render(opts.Title, opts.Overview))

	mtime, err := m.io.WriteIfUnchanged(physical, content, priorMtime)
	if err != nil {
		return CreateResult{}, err
	}

	m.cache.Evict(path) // drop any stale prior entry before repopulating
	doc, err := m.cache.GetDocument(path)
	if err != nil {
		return CreateResult{}, err
	}

	parsed, err := markdown.Parse(path, content)
	if err != nil {
		return CreateResult{}, err
	}
	warnings := template.Check(parsed, content, tmpl)

	return CreateResult{
		Document: DocumentHandle{
			Path: path, Content: doc.Content, Headings: doc.Headings, Mtime: mtime, Size: doc.Size,
		},
		TemplateWarnings: warnings,
	}, nil
}

// GetDocument returns path's handle, or nil if it does not exist; a
// missing file is not itself an error at this layer.
func (m *Manager) GetDocument(path string) (*DocumentHandle, error) {
	doc, err := m.cache.GetDocument(path)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, nil
	}
	return &DocumentHandle{
		Path: doc.Path, Content: doc.Content, Headings: doc.Headings, Mtime: doc.Mtime, Size: doc.Size,
	}, nil
}

// GetSectionContent resolves slugOrPath against path through the cache.
func (m *Manager) GetSectionContent(path, slugOrPath string) ([]byte, error) {
	return m.cache.GetSectionContent(path, slugOrPath)
}

// EditSection applies mode to the section addressed by slugOrPath within
// path: replace/append/prepend rewrite the body in place; insert_before,
// insert_after, and append_child create a new heading relative to it;
// remove deletes it. The write is mtime-checked against the content the
// cache currently holds, and the document is invalidated on success.
func (m *Manager) EditSection(path, slugOrPath string, mode string, newContent, newTitle string) (EditResult, error) {
	doc, err := m.cache.GetDocument(path)
	if err != nil {
		return EditResult{}, err
	}
	if doc == nil {
		return EditResult{}, apperrors.Newf(apperrors.CodeDocumentNotFound, "no such document: %s", path)
	}

	parsed, err := markdown.Parse(path, doc.Content)
	if err != nil {
		return EditResult{}, err
	}
	target, err := parsed.Resolve(slugOrPath)
	if err != nil {
		return EditResult{}, err
	}

	var edited []byte
	var result EditResult

	switch mode {
	case string(markdown.ModeReplace), string(markdown.ModeAppend), string(markdown.ModePrepend):
		edited, err = markdown.ReplaceSectionBody(doc.Content, *target, newContent, markdown.EditMode(mode))
	case "insert_before", "insert_after", "append_child":
		var position markdown.RelativePosition
		switch mode {
		case "insert_before":
			position = markdown.PositionBefore
		case "insert_after":
			position = markdown.PositionAfter
		case "append_child":
			position = markdown.PositionAppendChild
		}
		edited, err = markdown.InsertRelative(doc.Content, *target, newTitle, newContent, position)
		if err == nil {
			depth := target.Depth
			if position == markdown.PositionAppendChild {
				depth++
				if depth > 6 {
					depth = 6
				}
			}
			newParsed, perr := markdown.Parse(path, edited)
			if perr != nil {
				return EditResult{}, perr
			}
			if slug, dup := newParsed.DuplicateAnchorSlug(); dup {
				return EditResult{}, apperrors.Newf(apperrors.CodeDuplicateSlug,
					"inserting %q would collide with an existing anchor slug %q", newTitle, slug)
			}
			for _, h := range newParsed.Headings {
				if h.Depth == depth && h.Title == newTitle {
					result.NewSlug = h.PrimarySlug
				}
			}
		}
	case "remove":
		var removed []byte
		edited, removed = markdown.DeleteSection(doc.Content, *target)
		result.RemovedBytes = removed
	default:
		return EditResult{}, apperrors.Newf(apperrors.CodeInvalidParameterValue, "unknown edit mode %q", mode)
	}
	if err != nil {
		return EditResult{}, err
	}

	physical, err := m.io.Resolve(fsio.LogicalPath(path))
	if err != nil {
		return EditResult{}, err
	}
	newMtime, err := m.io.WriteIfUnchanged(physical, edited, doc.Mtime)
	if err != nil {
		return EditResult{}, err
	}

	newParsed, err := markdown.Parse(path, edited)
	if err != nil {
		return EditResult{}, err
	}
	m.cache.Refresh(path, fsio.Snapshot{Content: edited, Mtime: newMtime, Size: int64(len(edited))}, newParsed)

	result.Content = edited
	result.Mtime = newMtime
	return result, nil
}

// MoveDocument renames from to to: checks source existence and
// destination non-existence, creates parent directories, renames, and
// updates the cache (evicting from, and letting to reload lazily).
func (m *Manager) MoveDocument(from, to string) error {
	fromPhysical, err := m.io.Resolve(fsio.LogicalPath(from))
	if err != nil {
		return err
	}
	toPhysical, err := m.io.Resolve(fsio.LogicalPath(to))
	if err != nil {
		return err
	}
	if err := m.io.Move(fromPhysical, toPhysical); err != nil {
		return err
	}
	m.cache.Evict(from)
	m.cache.Evict(to)
	m.logger.Debug("moved document", zap.String("from", from), zap.String("to", to))
	return nil
}

// MoveSection reads the source section, inserts it at the destination via
// insertRelative, THEN deletes it from the source — in that order, so a
// failure at any step never loses data that was only ever present in one
// place.
func (m *Manager) MoveSection(fromDoc, fromSlug, toDoc, toSlugRef string, position markdown.RelativePosition) error {
	srcCached, err := m.cache.GetDocument(fromDoc)
	if err != nil {
		return err
	}
	if srcCached == nil {
		return apperrors.Newf(apperrors.CodeDocumentNotFound, "no such document: %s", fromDoc)
	}
	srcParsed, err := markdown.Parse(fromDoc, srcCached.Content)
	if err != nil {
		return err
	}
	srcHeading, err := srcParsed.Resolve(fromSlug)
	if err != nil {
		return err
	}
	srcBody := srcHeading.Body(srcCached.Content)

	if fromDoc == toDoc {
		return m.moveSectionWithinDocument(fromDoc, srcCached.Content, srcCached.Mtime, *srcHeading, srcBody, toSlugRef, position)
	}

	destCached, err := m.cache.GetDocument(toDoc)
	if err != nil {
		return err
	}
	if destCached == nil {
		return apperrors.Newf(apperrors.CodeDocumentNotFound, "no such document: %s", toDoc)
	}
	destParsed, err := markdown.Parse(toDoc, destCached.Content)
	if err != nil {
		return err
	}
	destRef, err := destParsed.Resolve(toSlugRef)
	if err != nil {
		return err
	}

	destEdited, err := markdown.InsertRelative(destCached.Content, *destRef, srcHeading.Title, string(srcBody), position)
	if err != nil {
		return err
	}
	destPhysical, err := m.io.Resolve(fsio.LogicalPath(toDoc))
	if err != nil {
		return err
	}
	destMtime, err := m.io.WriteIfUnchanged(destPhysical, destEdited, destCached.Mtime)
	if err != nil {
		return err
	}
	destParsedNew, err := markdown.Parse(toDoc, destEdited)
	if err != nil {
		return err
	}
	m.cache.Refresh(toDoc, fsio.Snapshot{Content: destEdited, Mtime: destMtime, Size: int64(len(destEdited))}, destParsedNew)

	srcEdited, _ := markdown.DeleteSection(srcCached.Content, *srcHeading)
	srcPhysical, err := m.io.Resolve(fsio.LogicalPath(fromDoc))
	if err != nil {
		return err
	}
	srcMtime, err := m.io.WriteIfUnchanged(srcPhysical, srcEdited, srcCached.Mtime)
	if err != nil {
		return err
	}
	srcParsedNew, err := markdown.Parse(fromDoc, srcEdited)
	if err != nil {
		return err
	}
	m.cache.Refresh(fromDoc, fsio.Snapshot{Content: srcEdited, Mtime: srcMtime, Size: int64(len(srcEdited))}, srcParsedNew)

	return nil
}

// moveSectionWithinDocument handles the fromDoc == toDoc case as a single
// read-modify-write: inserting at the destination and deleting the
// source both operate on the same in-memory content before one write, so
// there is only ever one mtime check for an intra-document move.
func (m *Manager) moveSectionWithinDocument(path string, content []byte, mtime time.Time, srcHeading markdown.Heading, srcBody []byte, toSlugRef string, position markdown.RelativePosition) error {
	parsed, err := markdown.Parse(path, content)
	if err != nil {
		return err
	}
	destRef, err := parsed.Resolve(toSlugRef)
	if err != nil {
		return err
	}

	withInsertion, err := markdown.InsertRelative(content, *destRef, srcHeading.Title, string(srcBody), position)
	if err != nil {
		return err
	}

	// Re-resolve the source heading against the post-insertion content:
	// the insertion may have shifted byte offsets ahead of it.
	reparsed, err := markdown.Parse(path, withInsertion)
	if err != nil {
		return err
	}
	srcAgain, err := reparsed.Resolve(srcHeading.HierarchicalPath)
	if err != nil {
		srcAgain, err = reparsed.Resolve(srcHeading.PrimarySlug)
		if err != nil {
			return err
		}
	}
	edited, _ := markdown.DeleteSection(withInsertion, *srcAgain)

	physical, err := m.io.Resolve(fsio.LogicalPath(path))
	if err != nil {
		return err
	}
	newMtime, err := m.io.WriteIfUnchanged(physical, edited, mtime)
	if err != nil {
		return err
	}
	newParsed, err := markdown.Parse(path, edited)
	if err != nil {
		return err
	}
	m.cache.Refresh(path, fsio.Snapshot{Content: edited, Mtime: newMtime, Size: int64(len(edited))}, newParsed)
	return nil
}
