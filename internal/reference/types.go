// Package reference implements the `@`-reference extractor, normalizer,
// and the bounded, concurrent loader that assembles a ReferenceTree for a
// section or document.
package reference

// Reference is a parsed `@`-prefixed token from section content.
type Reference struct {
	Original       string // the exact matched token, e.g. "@/guides/setup.md#install"
	DocumentPath   string // resolved absolute document path
	Section        string // optional hierarchical/flat section slug, "" if none
	SourceOffset   int    // byte offset within the scanned content
	WithinDocument bool   // true for "@#slug" forms
}

// Flag values a Node can carry, describing why traversal stopped early
// at that node.
const (
	FlagCycle = "cycle"
	FlagError = "error"
)

// Node is one entry in a ReferenceTree.
type Node struct {
	Reference      Reference
	DocumentInfo   *DocumentInfo
	SectionContent string
	Children       []*Node
	Flags          []string
}

// DocumentInfo is the minimal document metadata a Node surfaces.
type DocumentInfo struct {
	Path     string
	Headings int
}

// Tree is the result of a bounded load: the top-level reference list plus
// a diagnostic flag set when any budget (depth, node count, wall clock)
// was exceeded before traversal completed naturally.
type Tree struct {
	Roots           []*Node
	BudgetExceeded  bool
	TotalNodes      int
}
