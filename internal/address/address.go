// Package address parses, normalizes, and caches the three identifier
// kinds a tool call can name: documents, sections, and tasks. It never
// touches the filesystem or the document cache itself — resolving a
// DOCUMENT_NOT_FOUND/SECTION_NOT_FOUND condition is the caller's job,
// using the address this package produces as a pure, hashable key.
package address

import (
	"regexp"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/nota-kb/docserver/internal/apperrors"
	"github.com/nota-kb/docserver/internal/slug"
)

const (
	maxPathComponents  = 20
	maxComponentLength = 200
	cacheCapacity      = 1000
)

// DocumentAddress is the canonical identity of a document: its logical
// path, basename slug, and owning namespace.
type DocumentAddress struct {
	Path      string // "/guides/setup.md"
	Slug      string // "setup"
	Namespace string // "guides", or "root" for top-level documents
	CacheKey  string
}

// SectionAddress identifies a section within a document: the embedded
// DocumentAddress plus the normalized section slug/path and its canonical
// display form.
type SectionAddress struct {
	Document DocumentAddress
	Slug     string // normalized slug-or-path, no leading '#'
	FullPath string // "document.path#slug"
}

// TaskAddress is structurally identical to SectionAddress; Task is a
// discriminator so call sites can't accidentally treat one as the other
// despite the shared shape.
type TaskAddress struct {
	Section SectionAddress
	Task    bool
}

var controlCharPattern = regexp.MustCompile(`[\x00-\x1f]`)

// ParseDocumentAddress normalizes a raw document path: ensures a leading
// '/', collapses repeated '/', rejects "..", appends ".md" if missing,
// lowercases the whole thing.
func ParseDocumentAddress(raw string) (DocumentAddress, error) {
	if raw == "" {
		return DocumentAddress{}, apperrors.New(apperrors.CodeInvalidAddress, "document address must not be empty")
	}
	if strings.Contains(raw, "..") {
		return DocumentAddress{}, apperrors.Newf(apperrors.CodeInvalidAddress, "document address %q must not contain '..'", raw)
	}
	if controlCharPattern.MatchString(raw) {
		return DocumentAddress{}, apperrors.Newf(apperrors.CodeInvalidAddress, "document address %q contains a control character", raw)
	}

	normalized := strings.ToLower(raw)
	if !strings.HasPrefix(normalized, "/") {
		normalized = "/" + normalized
	}
	normalized = collapseSlashes(normalized)
	if !strings.HasSuffix(normalized, ".md") {
		normalized += ".md"
	}

	idx := strings.LastIndex(normalized, "/")
	dir := normalized[:idx]
	base := strings.TrimSuffix(normalized[idx+1:], ".md")
	if base == "" {
		return DocumentAddress{}, apperrors.Newf(apperrors.CodeInvalidAddress, "document address %q has no filename component", raw)
	}

	namespace := strings.Trim(dir, "/")
	if namespace == "" {
		namespace = "root"
	}

	return DocumentAddress{
		Path:      normalized,
		Slug:      base,
		Namespace: namespace,
		CacheKey:  normalized,
	}, nil
}

func collapseSlashes(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	lastSlash := false
	for _, r := range s {
		if r == '/' {
			if lastSlash {
				continue
			}
			lastSlash = true
		} else {
			lastSlash = false
		}
		b.WriteRune(r)
	}
	return b.String()
}

// ParseSectionAddress accepts any of the input forms spelled out in the
// addressing contract:
//
//	"slug"                    - requires ctxDocument
//	"#slug"                   - requires ctxDocument
//	"slug/nested/path"        - hierarchical, requires ctxDocument
//	"/path/to/doc.md#slug"    - fully qualified; ctxDocument is overridden
func ParseSectionAddress(raw string, ctxDocument string) (SectionAddress, error) {
	doc, section, err := splitDocumentAndSection(raw, ctxDocument)
	if err != nil {
		return SectionAddress{}, err
	}

	docAddr, err := ParseDocumentAddress(doc)
	if err != nil {
		return SectionAddress{}, err
	}

	normalizedSlug, err := normalizeSectionSlug(section)
	if err != nil {
		return SectionAddress{}, err
	}

	return SectionAddress{
		Document: docAddr,
		Slug:     normalizedSlug,
		FullPath: docAddr.Path + "#" + normalizedSlug,
	}, nil
}

// ParseTaskAddress mirrors ParseSectionAddress, wrapping the result as a
// TaskAddress.
func ParseTaskAddress(raw string, ctxDocument string) (TaskAddress, error) {
	sec, err := ParseSectionAddress(raw, ctxDocument)
	if err != nil {
		return TaskAddress{}, err
	}
	return TaskAddress{Section: sec, Task: true}, nil
}

// splitDocumentAndSection separates a raw address into its document and
// section halves, falling back to ctxDocument when raw names no document
// of its own.
func splitDocumentAndSection(raw string, ctxDocument string) (doc string, section string, err error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", "", apperrors.New(apperrors.CodeInvalidAddress, "section address must not be empty")
	}

	if idx := strings.Index(raw, "#"); idx >= 0 && strings.Contains(raw[:idx], "/") && raw[:idx] != "" {
		// "/path/to/doc.md#slug" - fully qualified, overrides ctxDocument.
		return raw[:idx], raw[idx+1:], nil
	}

	if strings.HasPrefix(raw, "#") {
		if ctxDocument == "" {
			return "", "", apperrors.New(apperrors.CodeInvalidAddress, "a bare section address requires a context document")
		}
		return ctxDocument, strings.TrimPrefix(raw, "#"), nil
	}

	if idx := strings.Index(raw, "#"); idx >= 0 {
		return ctxDocument, raw[idx+1:], nil
	}

	if ctxDocument == "" {
		return "", "", apperrors.New(apperrors.CodeInvalidAddress, "a bare section address requires a context document")
	}
	return ctxDocument, raw, nil
}

// normalizeSectionSlug strips any leading '#', normalizes via the slug
// engine's path normalizer, and validates component count/length and
// forbidden characters.
func normalizeSectionSlug(section string) (string, error) {
	section = strings.TrimPrefix(strings.TrimSpace(section), "#")
	if section == "" {
		return "", apperrors.New(apperrors.CodeInvalidAddress, "section slug must not be empty")
	}
	if controlCharPattern.MatchString(section) || strings.Contains(section, "\x00") {
		return "", apperrors.Newf(apperrors.CodeInvalidAddress, "section address %q contains a control character", section)
	}
	if strings.Contains(section, "..") {
		return "", apperrors.Newf(apperrors.CodeInvalidAddress, "section address %q must not contain '..'", section)
	}

	normalized := slug.NormalizeSlugPath(section)
	if normalized == "" {
		return "", apperrors.Newf(apperrors.CodeInvalidAddress, "section address %q normalized to nothing", section)
	}

	components := strings.Split(normalized, "/")
	if len(components) > maxPathComponents {
		return "", apperrors.Newf(apperrors.CodeInvalidAddress, "section address has %d components, exceeds the maximum of %d", len(components), maxPathComponents)
	}
	for _, c := range components {
		if c == "" {
			return "", apperrors.Newf(apperrors.CodeInvalidAddress, "section address %q has an empty path component", section)
		}
		if len(c) > maxComponentLength {
			return "", apperrors.Newf(apperrors.CodeInvalidAddress, "section address component %q exceeds %d characters", c, maxComponentLength)
		}
	}

	return normalized, nil
}

// Bundle is the structured, typed result of validating and parsing a full
// tool-parameter bag in one pass.
type Bundle struct {
	Document DocumentAddress
	Section  *SectionAddress
	Task     *TaskAddress
}

// ParseBundle is the single entry point tool handlers call: given a
// document path and optional section/task strings, it produces a fully
// resolved Bundle or a typed error. It performs no filesystem or cache
// lookups — DOCUMENT_NOT_FOUND/SECTION_NOT_FOUND are raised by the caller
// once it has consulted the cache, per the addressing system's contract.
func ParseBundle(document, section, task string) (Bundle, error) {
	docAddr, err := ParseDocumentAddress(document)
	if err != nil {
		return Bundle{}, err
	}
	b := Bundle{Document: docAddr}

	if section != "" {
		secAddr, err := ParseSectionAddress(section, docAddr.Path)
		if err != nil {
			return Bundle{}, err
		}
		b.Section = &secAddr
	}
	if task != "" {
		taskAddr, err := ParseTaskAddress(task, docAddr.Path)
		if err != nil {
			return Bundle{}, err
		}
		b.Task = &taskAddr
	}
	return b, nil
}

// Cache is the addressing system's LRU tier: one cache per address kind,
// keyed by canonical input string. Entries are immutable derivations, so
// no invalidation path is needed — only eviction by recency.
type Cache struct {
	documents *lru.Cache[string, DocumentAddress]
	sections  *lru.Cache[string, SectionAddress]
	tasks     *lru.Cache[string, TaskAddress]
}

// NewCache constructs a Cache with cacheCapacity entries per tier.
func NewCache() (*Cache, error) {
	docs, err := lru.New[string, DocumentAddress](cacheCapacity)
	if err != nil {
		return nil, apperrors.Newf(apperrors.CodeIOError, "constructing document address cache: %v", err)
	}
	sections, err := lru.New[string, SectionAddress](cacheCapacity)
	if err != nil {
		return nil, apperrors.Newf(apperrors.CodeIOError, "constructing section address cache: %v", err)
	}
	tasks, err := lru.New[string, TaskAddress](cacheCapacity)
	if err != nil {
		return nil, apperrors.Newf(apperrors.CodeIOError, "constructing task address cache: %v", err)
	}
	return &Cache{documents: docs, sections: sections, tasks: tasks}, nil
}

// Document parses raw via ParseDocumentAddress, memoizing by raw input.
func (c *Cache) Document(raw string) (DocumentAddress, error) {
	if v, ok := c.documents.Get(raw); ok {
		return v, nil
	}
	addr, err := ParseDocumentAddress(raw)
	if err != nil {
		return DocumentAddress{}, err
	}
	c.documents.Add(raw, addr)
	return addr, nil
}

// Section parses raw (with ctxDocument) via ParseSectionAddress, memoizing
// by the combined (ctxDocument, raw) key.
func (c *Cache) Section(raw, ctxDocument string) (SectionAddress, error) {
	key := ctxDocument + "\x00" + raw
	if v, ok := c.sections.Get(key); ok {
		return v, nil
	}
	addr, err := ParseSectionAddress(raw, ctxDocument)
	if err != nil {
		return SectionAddress{}, err
	}
	c.sections.Add(key, addr)
	return addr, nil
}

// Task parses raw (with ctxDocument) via ParseTaskAddress, memoizing by
// the combined (ctxDocument, raw) key.
func (c *Cache) Task(raw, ctxDocument string) (TaskAddress, error) {
	key := ctxDocument + "\x00" + raw
	if v, ok := c.tasks.Get(key); ok {
		return v, nil
	}
	addr, err := ParseTaskAddress(raw, ctxDocument)
	if err != nil {
		return TaskAddress{}, err
	}
	c.tasks.Add(key, addr)
	return addr, nil
}
