package reference

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nota-kb/docserver/internal/apperrors"
	"github.com/nota-kb/docserver/internal/markdown"
)

// DocumentFetcher is the subset of docmanager.Manager the loader needs:
// enough to resolve a reference to its backing content and heading count
// without the reference package importing docmanager directly (docmanager
// is the higher-level facade; it depends downward on this package, not the
// other way around).
type DocumentFetcher interface {
	GetDocument(path string) (*FetchedDocument, error)
	GetSectionContent(path, slugOrPath string) ([]byte, error)
}

// FetchedDocument is the minimal document shape the loader consumes.
type FetchedDocument struct {
	Content  []byte
	Headings []markdown.Heading
}

// Loader assembles bounded ReferenceTrees, loading each node's references
// concurrently (bounded per node via errgroup) and stopping at whichever of
// three budgets is hit first — max depth, max total nodes, or wall-clock
// time. The traversal is not level-ordered: each loaded node descends into
// its own references before its siblings' subtrees finish, so when two
// branches reach the same referent, whichever claims it first in the
// shared visited set expands it and the other records a cycle leaf.
type Loader struct {
	fetcher     DocumentFetcher
	maxDepth    int
	maxNodes    int
	budget      time.Duration
	concurrency int
}

// NewLoader constructs a Loader. maxDepth is clamped to 1-5 (default 3),
// maxNodes defaults to 1000, and budget defaults to 30s, matching the
// config package's stated defaults.
func NewLoader(fetcher DocumentFetcher, maxDepth, maxNodes int, budget time.Duration) *Loader {
	if maxDepth < 1 {
		maxDepth = 3
	}
	if maxDepth > 5 {
		maxDepth = 5
	}
	if maxNodes <= 0 {
		maxNodes = 1000
	}
	if budget <= 0 {
		budget = 30 * time.Second
	}
	return &Loader{fetcher: fetcher, maxDepth: maxDepth, maxNodes: maxNodes, budget: budget, concurrency: 8}
}

// loadState is the mutable state shared across one Load call's goroutines.
type loadState struct {
	mu         sync.Mutex
	visited    map[string]bool
	totalNodes int
	budgetHit  bool
}

// Load reads content for sourcePath (a section if sourceSlug is non-empty,
// else the whole document), extracts and normalizes its `@`-references,
// and recursively loads each referent up to the loader's budgets. The
// references found in one piece of content are loaded concurrently, each
// descending into its own references as soon as it has loaded.
func (l *Loader) Load(ctx context.Context, sourcePath, sourceSlug string) (Tree, error) {
	ctx, cancel := context.WithTimeout(ctx, l.budget)
	defer cancel()

	state := &loadState{visited: make(map[string]bool)}

	content, err := l.sectionOrDocumentContent(sourcePath, sourceSlug)
	if err != nil {
		return Tree{}, err
	}

	rootKey := sourcePath + "#" + sourceSlug
	state.visited[rootKey] = true

	refs := Normalize(Extract(string(content)), sourcePath)
	roots, err := l.loadChildren(ctx, state, refs, 1)
	if err != nil && len(roots) == 0 {
		return Tree{}, err
	}

	return Tree{Roots: roots, BudgetExceeded: state.budgetHit, TotalNodes: state.totalNodes}, nil
}

// loadChildren loads refs concurrently (bounded by l.concurrency) and
// returns their resulting Nodes in input order. A reference whose own load
// fails is downgraded to a leaf node carrying FlagError rather than
// aborting its siblings.
func (l *Loader) loadChildren(ctx context.Context, state *loadState, refs []Reference, depth int) ([]*Node, error) {
	nodes := make([]*Node, len(refs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.concurrency)

	for i, ref := range refs {
		i, ref := i, ref
		g.Go(func() error {
			nodes[i] = l.loadOne(gctx, state, ref, depth)
			return nil
		})
	}
	// Errors from individual loads never propagate as a group error — each
	// is captured on its own Node and every goroutine returns nil — so
	// g.Wait reports no error here; the wall-clock budget is detected per
	// node in loadOne.
	if err := g.Wait(); err != nil {
		state.mu.Lock()
		state.budgetHit = true
		state.mu.Unlock()
	}

	out := make([]*Node, 0, len(nodes))
	for _, n := range nodes {
		if n != nil {
			out = append(out, n)
		}
	}
	return out, nil
}

// loadOne resolves a single reference into a Node, recursing into its own
// children if depth and node-count budgets allow.
func (l *Loader) loadOne(ctx context.Context, state *loadState, ref Reference, depth int) *Node {
	select {
	case <-ctx.Done():
		state.mu.Lock()
		state.budgetHit = true
		state.mu.Unlock()
		return &Node{Reference: ref, Flags: []string{FlagError}}
	default:
	}

	state.mu.Lock()
	if state.totalNodes >= l.maxNodes {
		state.budgetHit = true
		state.mu.Unlock()
		return &Node{Reference: ref, Flags: []string{FlagError}}
	}
	key := ref.CanonicalKey()
	if state.visited[key] {
		state.mu.Unlock()
		return &Node{Reference: ref, Flags: []string{FlagCycle}}
	}
	state.visited[key] = true
	state.totalNodes++
	state.mu.Unlock()

	content, err := l.sectionOrDocumentContent(ref.DocumentPath, ref.Section)
	if err != nil {
		return &Node{Reference: ref, Flags: []string{FlagError}}
	}

	doc, err := l.fetcher.GetDocument(ref.DocumentPath)
	if err != nil || doc == nil {
		return &Node{Reference: ref, Flags: []string{FlagError}}
	}

	node := &Node{
		Reference:      ref,
		DocumentInfo:   &DocumentInfo{Path: ref.DocumentPath, Headings: len(doc.Headings)},
		SectionContent: string(content),
	}

	if depth >= l.maxDepth {
		if len(Extract(string(content))) > 0 {
			state.mu.Lock()
			state.budgetHit = true
			state.mu.Unlock()
		}
		return node
	}

	childRefs := Normalize(Extract(string(content)), ref.DocumentPath)
	if len(childRefs) == 0 {
		return node
	}
	children, _ := l.loadChildren(ctx, state, childRefs, depth+1)
	node.Children = children
	return node
}

// sectionOrDocumentContent returns the whole document's content when slug
// is empty, or just the addressed section's content otherwise.
func (l *Loader) sectionOrDocumentContent(path, slug string) ([]byte, error) {
	if slug == "" {
		doc, err := l.fetcher.GetDocument(path)
		if err != nil {
			return nil, err
		}
		if doc == nil {
			return nil, apperrors.Newf(apperrors.CodeDocumentNotFound, "no such document: %s", path)
		}
		return doc.Content, nil
	}
	return l.fetcher.GetSectionContent(path, slug)
}
