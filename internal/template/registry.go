package template

import (
	"fmt"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Registry is the ordered set of built-in namespace templates, keyed by
// name so lookups are stable but iteration (for a future "list
// templates" surface) stays deterministic.
var Registry = buildRegistry()

func buildRegistry() *orderedmap.OrderedMap[string, Template] {
	m := orderedmap.New[string, Template]()

	m.Set("blank", Template{
		Name: "blank",
		Elements: []Element{
			{Pattern: "", Depth: 1, MinWords: 0},
		},
		Render: func(title, overview string) string {
			return renderDoc(title, []section{{"", 1, overview}})
		},
	})

	m.Set("guide", Template{
		Name: "guide",
		Elements: []Element{
			{Pattern: "", Depth: 1},
			{Pattern: "overview", Depth: 2, MinWords: 5},
			{Pattern: "steps", Depth: 2, MinWords: 5},
		},
		Render: func(title, overview string) string {
			return renderDoc(title, []section{
				{"", 1, overview},
				{"Overview", 2, overview},
				{"Steps", 2, "1. TODO: first step\n2. TODO: next step"},
			})
		},
	})

	m.Set("reference", Template{
		Name: "reference",
		Elements: []Element{
			{Pattern: "", Depth: 1},
			{Pattern: "overview", Depth: 2, MinWords: 5},
			{Pattern: "details", Depth: 2, MinWords: 1},
		},
		Render: func(title, overview string) string {
			return renderDoc(title, []section{
				{"", 1, overview},
				{"Overview", 2, overview},
				{"Details", 2, "TODO: fill in reference details."},
			})
		},
	})

	m.Set("task-list", Template{
		Name: "task-list",
		Elements: []Element{
			{Pattern: "", Depth: 1},
			{Pattern: "overview", Depth: 2, MinWords: 5},
			{Pattern: "tasks", Depth: 2},
		},
		Render: func(title, overview string) string {
			return renderDoc(title, []section{
				{"", 1, overview},
				{"Overview", 2, overview},
				{"Tasks", 2, ""},
			})
		},
	})

	return m
}

// Lookup returns the named template, or "blank" if name is empty or
// unrecognized — an unknown template name is never a hard error, since
// createDocument's template stage is only a convenience for seeding
// structure.
func Lookup(name string) Template {
	if name != "" {
		if t, ok := Registry.Get(name); ok {
			return t
		}
	}
	t, _ := Registry.Get("blank")
	return t
}

type section struct {
	heading string
	depth   int
	body    string
}

// renderDoc renders title as the document's H1 and each section as a
// heading of the given depth, matching the heading-then-blank-line shape
// the markdown AST engine expects.
func renderDoc(title string, sections []section) string {
	var b strings.Builder
	for _, s := range sections {
		heading := s.heading
		if heading == "" {
			heading = title
		}
		fmt.Fprintf(&b, "%s %s\n\n", strings.Repeat("#", s.depth), heading)
		if s.body != "" {
			b.WriteString(s.body)
			b.WriteString("\n\n")
		}
	}
	return strings.TrimRight(b.String(), "\n") + "\n"
}
