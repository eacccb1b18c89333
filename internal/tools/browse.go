package tools

import (
	"regexp"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// DocumentSummary is one entry in browse_documents' listing.
type DocumentSummary struct {
	Path      string `json:"path"`
	Namespace string `json:"namespace"`
	Title     string `json:"title"`
	Headings  int    `json:"heading_count"`
	SizeHuman string `json:"size"`
}

// BrowseDocuments lists every document under namespace (or the whole
// corpus if namespace is ""), each with a lightweight summary. An
// optional filter expression (expr-lang syntax, evaluated against
// path/namespace/title/headings) further narrows the listing — e.g.
// `headings > 5 && namespace == "guides"`.
func (r *Registry) BrowseDocuments(namespace string) ([]DocumentSummary, *ErrorResponse) {
	return r.BrowseDocumentsFiltered(namespace, "")
}

// BrowseDocumentsFiltered is BrowseDocuments with an additional expr-lang
// filter expression; an empty filter matches everything.
func (r *Registry) BrowseDocumentsFiltered(namespace, filter string) ([]DocumentSummary, *ErrorResponse) {
	var program *vm.Program
	if filter != "" {
		p, err := compileFilter(filter)
		if err != nil {
			e := asErrorResponse(invalidParam("invalid filter expression: " + err.Error()))
			return nil, &e
		}
		program = p
	}

	handles, err := r.Manager.ListDocuments()
	if err != nil {
		e := asErrorResponse(err)
		return nil, &e
	}

	summaries := make([]DocumentSummary, 0, len(handles))
	for _, h := range handles {
		ns := namespaceOf(h.Path)
		if namespace != "" && ns != namespace {
			continue
		}
		title := h.Path
		if len(h.Headings) > 0 {
			title = h.Headings[0].Title
		}
		env := filterEnv{Path: h.Path, Namespace: ns, Title: title, Headings: len(h.Headings)}
		if program != nil && !matchesFilter(program, env) {
			continue
		}
		summaries = append(summaries, DocumentSummary{
			Path: h.Path, Namespace: ns, Title: title, Headings: len(h.Headings),
			SizeHuman: humanize.Bytes(uint64(h.Size)),
		})
	}
	return summaries, nil
}

// filterEnv is the expression environment browse/search filters evaluate
// against.
type filterEnv struct {
	Path      string `expr:"path"`
	Namespace string `expr:"namespace"`
	Title     string `expr:"title"`
	Headings  int    `expr:"headings"`
}

func compileFilter(filter string) (*vm.Program, error) {
	return expr.Compile(filter, expr.Env(filterEnv{}), expr.AsBool())
}

func matchesFilter(program *vm.Program, env filterEnv) bool {
	result, err := expr.Run(program, env)
	if err != nil {
		return false
	}
	matched, _ := result.(bool)
	return matched
}

// SearchParams carries search_documents' parameters: case-insensitive by
// default, with optional regex matching and configurable context lines
// around each hit.
type SearchParams struct {
	Query        string
	Regex        bool
	ContextLines int
	Namespace    string
	Filter       string // optional expr-lang expression over path/namespace/title/headings
}

// SearchMatch is one hit within one document: the matched line plus
// surrounding context, and whether it landed in a heading title or body.
type SearchMatch struct {
	LineNumber int    `json:"line_number"`
	Line       string `json:"line"`
	Context    string `json:"context"`
	InHeading  bool   `json:"in_heading"`
}

// SearchResult is one document's search hits, scored by term frequency
// weighted toward heading/title matches.
type SearchResult struct {
	Path    string        `json:"path"`
	Score   float64       `json:"score"`
	Matches []SearchMatch `json:"matches"`
}

// headingLinePattern recognizes a line as an ATX heading for the purpose
// of weighting a match, independent of the parsed AST (a linear scan over
// raw lines, not a second goldmark parse).
var headingLinePattern = regexp.MustCompile(`^#{1,6}\s`)

// SearchDocuments performs a case-insensitive (or regex) linear scan for
// query across every document, returning per-document scored matches.
func (r *Registry) SearchDocuments(p SearchParams) ([]SearchResult, *ErrorResponse) {
	if p.Query == "" {
		e := asErrorResponse(invalidParam("search query must not be empty"))
		return nil, &e
	}

	var matcher func(line string) bool
	if p.Regex {
		re, err := regexp.Compile("(?i)" + p.Query)
		if err != nil {
			e := asErrorResponse(invalidParam("invalid regex: " + err.Error()))
			return nil, &e
		}
		matcher = re.MatchString
	} else {
		lowerQuery := strings.ToLower(p.Query)
		matcher = func(line string) bool { return strings.Contains(strings.ToLower(line), lowerQuery) }
	}

	contextLines := p.ContextLines
	if contextLines < 0 {
		contextLines = 0
	}

	var filterProgram *vm.Program
	if p.Filter != "" {
		fp, ferr := compileFilter(p.Filter)
		if ferr != nil {
			e := asErrorResponse(invalidParam("invalid filter expression: " + ferr.Error()))
			return nil, &e
		}
		filterProgram = fp
	}

	handles, err := r.Manager.ListDocuments()
	if err != nil {
		e := asErrorResponse(err)
		return nil, &e
	}

	var results []SearchResult
	for _, h := range handles {
		ns := namespaceOf(h.Path)
		if p.Namespace != "" && ns != p.Namespace {
			continue
		}
		title := h.Path
		if len(h.Headings) > 0 {
			title = h.Headings[0].Title
		}
		if filterProgram != nil && !matchesFilter(filterProgram, filterEnv{Path: h.Path, Namespace: ns, Title: title, Headings: len(h.Headings)}) {
			continue
		}
		lines := strings.Split(string(h.Content), "\n")
		var matches []SearchMatch
		var score float64
		titleMatched := len(h.Headings) > 0 && matcher(h.Headings[0].Title)

		for i, line := range lines {
			if !matcher(line) {
				continue
			}
			inHeading := headingLinePattern.MatchString(line)
			weight := 1.0
			if inHeading {
				weight = 3.0
			}
			score += weight
			matches = append(matches, SearchMatch{
				LineNumber: i + 1,
				Line:       line,
				Context:    contextWindow(lines, i, contextLines),
				InHeading:  inHeading,
			})
		}
		if titleMatched {
			score += 5.0
		}
		if len(matches) == 0 {
			continue
		}
		results = append(results, SearchResult{Path: h.Path, Score: score, Matches: matches})
	}

	sortResultsByScoreDesc(results)
	return results, nil
}

func contextWindow(lines []string, i, contextLines int) string {
	start := i - contextLines
	if start < 0 {
		start = 0
	}
	end := i + contextLines + 1
	if end > len(lines) {
		end = len(lines)
	}
	return strings.Join(lines[start:end], "\n")
}

func sortResultsByScoreDesc(results []SearchResult) {
	for i := 1; i < len(results); i++ {
		for j := i; j > 0 && results[j].Score > results[j-1].Score; j-- {
			results[j], results[j-1] = results[j-1], results[j]
		}
	}
}
