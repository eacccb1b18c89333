package reference

import (
	"regexp"
	"strings"
)

// referencePattern matches both reference forms in one pass:
// cross-document "@/path/to/doc.md#optional-section" and within-document
// "@#section". It deliberately excludes markdown link syntax
// ("[text](https://...)") by only ever matching a bare '@' token, never
// one inside a link's URL component.
var referencePattern = regexp.MustCompile(`@(?:(/[^\s#\]\)]+\.md)|())(?:#([a-zA-Z0-9][a-zA-Z0-9/_-]*))?`)

// Extract scans content for `@`-prefixed reference tokens and returns
// them in source order, each carrying its original text and byte offset.
// It does not resolve paths against a context document — that is
// Normalize's job.
func Extract(content string) []Reference {
	matches := referencePattern.FindAllStringSubmatchIndex(content, -1)
	refs := make([]Reference, 0, len(matches))
	for _, m := range matches {
		original := content[m[0]:m[1]]

		var docPath, section string
		if m[2] >= 0 {
			docPath = content[m[2]:m[3]]
		}
		// m[4:6] is the empty second alternative; the section is group 3.
		if m[6] >= 0 && m[7] >= 0 {
			section = content[m[6]:m[7]]
		}
		if docPath == "" && section == "" {
			continue // a bare '@' is neither reference form
		}

		refs = append(refs, Reference{
			Original:       original,
			DocumentPath:   docPath,
			Section:        section,
			SourceOffset:   m[0],
			WithinDocument: docPath == "",
		})
	}
	return refs
}

// Normalize resolves each extracted reference against ctxDocument: a
// within-document reference inherits ctxDocument's path; a cross-document
// reference missing ".md" gets it appended and is lowercased (ctxDocument
// is used as given); every section slug is lowercased.
func Normalize(refs []Reference, ctxDocument string) []Reference {
	out := make([]Reference, len(refs))
	for i, r := range refs {
		if r.WithinDocument {
			r.DocumentPath = ctxDocument
		} else {
			path := r.DocumentPath
			if !strings.HasSuffix(path, ".md") {
				path += ".md"
			}
			r.DocumentPath = strings.ToLower(path)
		}
		r.Section = strings.ToLower(r.Section)
		out[i] = r
	}
	return out
}

// CanonicalKey is the cycle-detection identity for a reference: its
// resolved document path plus section, so "@/a.md#x" and a later visit to
// the same pair are recognized as the same node regardless of how each
// was originally spelled.
func (r Reference) CanonicalKey() string {
	return r.DocumentPath + "#" + r.Section
}
