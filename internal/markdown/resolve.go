package markdown

import (
	"regexp"
	"sort"
	"strings"

	"github.com/nota-kb/docserver/internal/apperrors"
)

// trailingOrdinal matches a slugger-appended disambiguation suffix like
// "-2" at the end of a path component, so two section addresses that
// differ only in which duplicate they happened to land on can still be
// compared as "the same human-written path".
var trailingOrdinal = regexp.MustCompile(`-\d+$`)

// debase strips a trailing "-N" disambiguation suffix from a single slug
// component, e.g. "jwt-tokens-2" -> "jwt-tokens". It never strips a
// leading numeral, only a suffix separated by a hyphen.
func debase(component string) string {
	return trailingOrdinal.ReplaceAllString(component, "")
}

// Resolve finds the heading addressed by address, which is either a flat
// slug ("jwt-tokens") or a hierarchical path
// ("api/frontend-authentication/jwt-tokens"). Flat addresses match a
// heading's PrimarySlug exactly: the slugger's invariant that the first
// occurrence of a title keeps the bare slug makes exact matching correct
// here, with no debasing needed. Hierarchical addresses are resolved by
// comparing debased path components, so a human can still address
// "authentication/jwt-tokens" even after the engine disambiguated the
// heading's actual hierarchical path to "authentication-1/jwt-tokens".
func (d *Document) Resolve(address string) (*Heading, error) {
	address = strings.Trim(address, "/")
	if address == "" {
		return nil, apperrors.New(apperrors.CodeInvalidAddress, "section address must not be empty")
	}

	if !strings.Contains(address, "/") {
		for i := range d.Headings {
			if d.Headings[i].PrimarySlug == address {
				return &d.Headings[i], nil
			}
		}
		return nil, d.notFoundError(address)
	}

	wantParts := strings.Split(address, "/")
	wantDebased := make([]string, len(wantParts))
	for i, p := range wantParts {
		wantDebased[i] = debase(p)
	}

	// A hierarchical address need not name every ancestor back to the H1:
	// it matches any heading whose own path, debased, ends with the given
	// components in order. This lets a caller write the shortest prefix
	// that disambiguates, without knowing the document's full root chain.
	var matches []*Heading
	for i := range d.Headings {
		gotParts := strings.Split(d.Headings[i].HierarchicalPath, "/")
		if len(gotParts) < len(wantDebased) {
			continue
		}
		offset := len(gotParts) - len(wantDebased)
		match := true
		for j, want := range wantDebased {
			if debase(gotParts[offset+j]) != want {
				match = false
				break
			}
		}
		if match {
			matches = append(matches, &d.Headings[i])
		}
	}

	switch len(matches) {
	case 0:
		return nil, d.notFoundError(address)
	case 1:
		return matches[0], nil
	default:
		paths := make([]string, len(matches))
		for i, m := range matches {
			paths[i] = m.HierarchicalPath
		}
		return nil, apperrors.Newf(apperrors.CodeAmbiguousHierarchical,
			"%q matches %d sections; use a fully-qualified hierarchical path", address, len(matches)).
			With("candidates", paths)
	}
}

// notFoundError builds a SECTION_NOT_FOUND error carrying the deepest
// valid ancestor prefix (if any) and the full list of available sections,
// so a caller can recover without a second round trip.
func (d *Document) notFoundError(address string) error {
	available := make([]string, len(d.Headings))
	for i, h := range d.Headings {
		available[i] = h.HierarchicalPath
	}
	sort.Strings(available)

	err := apperrors.Newf(apperrors.CodeSectionNotFound, "no section addressed by %q", address).
		With("available_sections", available)

	if parent := d.deepestValidAncestor(address); parent != "" {
		err = err.With("deepest_valid_ancestor", parent)
	}
	return err
}

// DuplicateAnchorSlug reports the first primary slug shared by two
// headings that both carry an explicit {#anchor}. The ordinary
// disambiguation counter never produces this collision on its own — it
// only arises when two authors (or an insert/rename operation) pin the
// same explicit anchor — so any caller that creates or renames a heading
// must check for it and refuse the edit rather than silently aliasing
// two sections.
func (d *Document) DuplicateAnchorSlug() (string, bool) {
	seen := make(map[string]bool)
	for _, h := range d.Headings {
		if h.Anchor == "" {
			continue
		}
		if seen[h.PrimarySlug] {
			return h.PrimarySlug, true
		}
		seen[h.PrimarySlug] = true
	}
	return "", false
}

// deepestValidAncestor walks address's hierarchical components from the
// root, returning the longest proper leading prefix (the address itself
// excluded) that debase-matches some heading's hierarchical path, or "" if
// even the first component doesn't resolve.
func (d *Document) deepestValidAncestor(address string) string {
	parts := strings.Split(strings.Trim(address, "/"), "/")
	best := ""
	for depth := 1; depth < len(parts); depth++ {
		candidate := strings.Join(parts[:depth], "/")
		if h, err := d.Resolve(candidate); err == nil {
			best = h.HierarchicalPath
		} else if apperrors.CodeOf(err) == apperrors.CodeAmbiguousHierarchical {
			best = candidate
		} else {
			break
		}
	}
	return best
}
