// Package markdown is the AST engine: it parses documents with goldmark,
// assigns stable slugs to every heading (via internal/slug), and performs
// structural section edits — read, replace, insert-relative, delete,
// rename — by splicing raw source bytes at offsets derived from the
// parsed AST. No operation here locates a section boundary with a regular
// expression; every boundary comes from a goldmark heading node's
// position.
package markdown

// Heading is a parsed H1-H6 entry, decorated with the slug engine's
// primary slug and hierarchical path.
type Heading struct {
	Depth            int    // 1-6
	Title            string // heading text, anchor syntax stripped
	PrimarySlug      string
	HierarchicalPath string
	Anchor           string // explicit {#anchor} value, "" if none

	LineStart int // byte offset of the start of this heading's own line
	LineEnd   int // byte offset just past this heading's own line (incl. trailing \n)
	TitleEnd  int // byte offset in content where the title text ends (before " {#anchor}" if present)
	BodyStart int // == LineEnd: byte offset where this section's body begins
	End       int // byte offset of the next heading at depth <= this one, or len(content)
}

// Document is a parsed Markdown document: the raw bytes plus the ordered
// heading list the AST walk produced.
type Document struct {
	Path     string
	Content  []byte
	Headings []Heading
}

// Section returns the raw byte range [h.LineStart, h.End) — the heading's
// own line plus its body and all nested subsections, stopping strictly
// before the next heading of equal or lesser depth.
func (h Heading) Section(content []byte) []byte {
	return content[h.LineStart:h.End]
}

// Body returns the raw byte range [h.BodyStart, h.End) — everything under
// the heading, excluding the heading line itself.
func (h Heading) Body(content []byte) []byte {
	return content[h.BodyStart:h.End]
}
