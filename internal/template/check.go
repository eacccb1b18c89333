package template

import (
	"fmt"
	"strings"

	"github.com/nota-kb/docserver/internal/markdown"
)

// Check binds tmpl's elements against doc's actual headings in document
// order — the same "find the first unbound match strictly after the
// previous match's position" algorithm a structural document validator
// uses, generalized from matching against a user schema to matching
// against a built-in template. Every finding is a non-fatal Warning;
// Check has no error result.
func Check(doc *markdown.Document, content []byte, tmpl Template) []Warning {
	var warnings []Warning
	lastMatchedIndex := -1

	for _, el := range tmpl.Elements {
		idx := findFirstMatchAfter(doc.Headings, el, lastMatchedIndex)
		if idx < 0 {
			if !el.Optional {
				warnings = append(warnings, Warning{
					Code:    "missing_required_section",
					Message: missingMessage(el),
				})
			}
			continue
		}
		lastMatchedIndex = idx
		warnings = append(warnings, checkElement(doc.Headings[idx], content, el)...)
	}

	return warnings
}

func missingMessage(el Element) string {
	if el.Pattern == "" {
		return fmt.Sprintf("missing required heading at depth %d", el.Depth)
	}
	return fmt.Sprintf("missing required %q section", el.Pattern)
}

// findFirstMatchAfter returns the index of the first heading at el's
// depth whose title matches el's pattern (case-insensitively; an empty
// pattern matches any title), scanning strictly after afterIndex.
func findFirstMatchAfter(headings []markdown.Heading, el Element, afterIndex int) int {
	for i := afterIndex + 1; i < len(headings); i++ {
		h := headings[i]
		if h.Depth != el.Depth {
			continue
		}
		if el.Pattern == "" || strings.EqualFold(h.Title, el.Pattern) {
			return i
		}
	}
	return -1
}

func checkElement(h markdown.Heading, content []byte, el Element) []Warning {
	var warnings []Warning

	body := strings.TrimSpace(string(h.Body(content)))
	if el.MinWords > 0 {
		words := len(strings.Fields(body))
		if words < el.MinWords {
			warnings = append(warnings, Warning{
				Code:    "below_minimum_word_count",
				Message: fmt.Sprintf("section %q has %d words, below the template minimum of %d", h.Title, words, el.MinWords),
			})
		}
	}
	if strings.Contains(strings.ToLower(body), "todo:") {
		warnings = append(warnings, Warning{
			Code:    "placeholder_left",
			Message: fmt.Sprintf("section %q still contains a TODO placeholder", h.Title),
		})
	}

	return warnings
}
