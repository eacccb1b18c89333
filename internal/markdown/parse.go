package markdown

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"

	"github.com/nota-kb/docserver/internal/apperrors"
	"github.com/nota-kb/docserver/internal/slug"
)

// md is the shared goldmark instance: GFM (tables, strikethrough,
// autolinks, task lists) plus attribute parsing so explicit `{#anchor}`
// suffixes on heading lines are recognized.
var md = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithParserOptions(parser.WithAttribute()),
)

// Parse parses content and assigns primary slugs and hierarchical paths to
// every heading, in document order, via a single slug.Slugger instance
// (never one slugger per heading — see internal/slug's doc comment).
func Parse(path string, content []byte) (*Document, error) {
	reader := text.NewReader(content)
	root := md.Parser().Parse(reader)

	var nodes []*ast.Heading
	if err := ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if h, ok := n.(*ast.Heading); ok {
			nodes = append(nodes, h)
		}
		return ast.WalkContinue, nil
	}); err != nil {
		return nil, apperrors.Newf(apperrors.CodeIOError, "walking AST for %s: %v", path, err)
	}

	headings := make([]Heading, len(nodes))
	sluggerTable := slug.NewSlugger()
	refs := make([]slug.HeadingRef, len(nodes))

	for i, n := range nodes {
		title := extractHeadingText(n, content)
		lineStart := lineStartFor(n, content)
		lineEnd := lineEndFor(lineStart, content)

		anchor, titleEndWithinLine := extractAnchor(content, lineStart, lineEnd)

		var primary string
		if anchor != "" {
			primary = slug.TitleToSlug(anchor)
		} else {
			primary = sluggerTable.Slug(title)
		}

		headings[i] = Heading{
			Depth:       n.Level,
			Title:       title,
			PrimarySlug: primary,
			Anchor:      anchor,
			LineStart:   lineStart,
			LineEnd:     lineEnd,
			TitleEnd:    titleEndWithinLine,
			BodyStart:   lineEnd,
		}
		refs[i] = slug.HeadingRef{Depth: n.Level, Slug: primary}
	}

	paths := slug.HierarchicalPaths(refs)
	for i := range headings {
		headings[i].HierarchicalPath = paths[i]
	}

	for i := range headings {
		end := len(content)
		for j := i + 1; j < len(headings); j++ {
			if headings[j].Depth <= headings[i].Depth {
				end = headings[j].LineStart
				break
			}
		}
		headings[i].End = end
	}

	return &Document{Path: path, Content: content, Headings: headings}, nil
}

// extractHeadingText concatenates the bytes of the heading's direct
// *ast.Text children and trims surrounding whitespace.
func extractHeadingText(node *ast.Heading, content []byte) string {
	var b strings.Builder
	for child := node.FirstChild(); child != nil; child = child.NextSibling() {
		if t, ok := child.(*ast.Text); ok {
			b.Write(t.Segment.Value(content))
		}
	}
	return strings.TrimSpace(b.String())
}

// lineStartFor walks back from the heading node's first content segment to
// the start of its physical line, recovering the leading "#"s that
// goldmark's segment does not include.
func lineStartFor(node *ast.Heading, content []byte) int {
	offset := len(content)
	if node.Lines().Len() > 0 {
		offset = node.Lines().At(0).Start
	}
	for offset > 0 && content[offset-1] != '\n' {
		offset--
	}
	return offset
}

func lineEndFor(lineStart int, content []byte) int {
	i := lineStart
	for i < len(content) && content[i] != '\n' {
		i++
	}
	if i < len(content) {
		i++ // include the newline itself in the line
	}
	return i
}

// extractAnchor looks for a trailing `{#anchor-name}` attribute on a
// heading's raw line (e.g. "## Title {#custom-anchor}") and returns the
// anchor value plus the byte offset in content where the title text
// ends. This is plain attribute-syntax scanning, not a
// structural-edit regex: it never decides section boundaries.
func extractAnchor(content []byte, lineStart, lineEnd int) (anchor string, titleEndOffset int) {
	line := content[lineStart:lineEnd]
	trimmed := strings.TrimRight(string(line), "\n\r \t")
	if !strings.HasSuffix(trimmed, "}") {
		return "", lineStart + len(trimmed)
	}
	open := strings.LastIndex(trimmed, "{#")
	if open < 0 {
		return "", lineStart + len(trimmed)
	}
	inner := trimmed[open+2 : len(trimmed)-1]
	if inner == "" || strings.ContainsAny(inner, " \t{}") {
		return "", lineStart + len(trimmed)
	}
	titleEnd := strings.TrimRight(trimmed[:open], " \t")
	return inner, lineStart + len(titleEnd)
}
