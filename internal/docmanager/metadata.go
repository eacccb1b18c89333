package docmanager

import (
	"github.com/nota-kb/docserver/internal/apperrors"
	"github.com/nota-kb/docserver/internal/fsio"
	"github.com/nota-kb/docserver/internal/markdown"
)

// MetadataOptions carries editDocumentMetadata's optional updates; a nil
// field leaves that part of the document unchanged.
type MetadataOptions struct {
	Title    *string
	Overview *string
}

// EditDocumentMetadata rewrites the first H1 (Title) and/or the content
// between the H1 and the first H2 (Overview). After writing, it
// re-fetches through the cache rather than trusting the in-memory edit,
// so the returned handle can never echo metadata that a concurrent
// invalidation already made stale.
func (m *Manager) EditDocumentMetadata(path string, opts MetadataOptions) (*DocumentHandle, error) {
	doc, err := m.cache.GetDocument(path)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, apperrors.Newf(apperrors.CodeDocumentNotFound, "no such document: %s", path)
	}

	parsed, err := markdown.Parse(path, doc.Content)
	if err != nil {
		return nil, err
	}
	if len(parsed.Headings) == 0 || parsed.Headings[0].Depth != 1 {
		return nil, apperrors.Newf(apperrors.CodeInvalidParameterValue, "%s has no H1 title to edit", path)
	}
	h1 := parsed.Headings[0]

	content := doc.Content
	if opts.Title != nil {
		content = markdown.RenameHeading(content, h1, *opts.Title)
	}

	if opts.Overview != nil {
		reparsed, err := markdown.Parse(path, content)
		if err != nil {
			return nil, err
		}
		h1Again := reparsed.Headings[0]

		// The overview occupies the H1's body up to (but not including)
		// the first H2; everything at H2+ must be preserved untouched.
		firstH2End := h1Again.End
		for _, h := range reparsed.Headings[1:] {
			if h.Depth <= 2 {
				firstH2End = h.LineStart
				break
			}
		}
		overviewRegion := markdown.Heading{
			Depth: h1Again.Depth, LineStart: h1Again.LineStart, LineEnd: h1Again.LineEnd,
			BodyStart: h1Again.BodyStart, End: firstH2End,
		}
		edited, err := markdown.ReplaceSectionBody(content, overviewRegion, *opts.Overview, markdown.ModeReplace)
		if err != nil {
			return nil, err
		}
		content = edited
	}

	content = normalizeTrailingNewline(content)

	physical, err := m.io.Resolve(fsio.LogicalPath(path))
	if err != nil {
		return nil, err
	}
	mtime, err := m.io.WriteIfUnchanged(physical, content, doc.Mtime)
	if err != nil {
		return nil, err
	}
	newParsed, err := markdown.Parse(path, content)
	if err != nil {
		return nil, err
	}
	m.cache.Refresh(path, fsio.Snapshot{Content: content, Mtime: mtime, Size: int64(len(content))}, newParsed)

	return m.GetDocument(path)
}

func normalizeTrailingNewline(content []byte) []byte {
	if len(content) == 0 || content[len(content)-1] != '\n' {
		return append(content, '\n')
	}
	return content
}
