// Package cache is the document-wide, process-singleton cache: an LRU of
// parsed documents, each carrying a lazily-populated section tier whose
// keys observe the dual-addressing atomicity invariant — a hierarchical
// key and its terminal flat-slug key, once either is loaded, always point
// to the very same entry object.
package cache

import (
	"sync"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/nota-kb/docserver/internal/apperrors"
	"github.com/nota-kb/docserver/internal/fsio"
	"github.com/nota-kb/docserver/internal/markdown"
)

// CachedSectionEntry is the value half of the section tier: content plus
// the document generation it was produced under. Two map keys that
// resolve to the same section share a pointer to the same entry, never a
// copy — that sharing is what the atomicity invariant depends on.
type CachedSectionEntry struct {
	Content    []byte
	Generation uint64
}

// CachedDocument is the document tier's value: the last-read content,
// parsed heading list, and the document's lazily-populated section tier.
type CachedDocument struct {
	Path     string
	Content  []byte
	Headings []markdown.Heading
	Mtime    time.Time
	Size     int64

	mu         sync.Mutex
	generation uint64
	sections   map[string]*CachedSectionEntry
}

func newCachedDocument(path string, snap fsio.Snapshot, doc *markdown.Document) *CachedDocument {
	return &CachedDocument{
		Path:     path,
		Content:  snap.Content,
		Headings: doc.Headings,
		Mtime:    snap.Mtime,
		Size:     snap.Size,
		sections: make(map[string]*CachedSectionEntry),
	}
}

// Generation returns the document's current mutation counter.
func (c *CachedDocument) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation
}

// Cache is the process-wide document cache. Construct one with New at
// startup and share it across every tool invocation.
type Cache struct {
	io     *fsio.IO
	logger *zap.Logger

	maxHeadings   int64
	totalHeadings atomic.Int64

	docs  *lru.Cache[string, *CachedDocument]
	group singleflight.Group

	watcherFactory func() (Watcher, error)
	watchersMu     sync.Mutex
	watchers       map[string]Watcher
	pollInterval   time.Duration
	consecutiveErr atomic.Int32
}

// Option customizes cache construction, primarily for tests that need an
// injected watcher factory instead of a real fsnotify backend.
type Option func(*Cache)

// WithWatcherFactory overrides how the cache constructs a filesystem
// watcher. Tests pass a factory returning a no-op Watcher so cache
// behavior can be exercised against afero.NewMemMapFs() without a real
// inotify/kqueue backend.
func WithWatcherFactory(f func() (Watcher, error)) Option {
	return func(c *Cache) { c.watcherFactory = f }
}

// New constructs a Cache bounded to maxDocuments entries and maxHeadings
// total headings across all cached documents.
func New(io *fsio.IO, logger *zap.Logger, maxDocuments, maxHeadings int, opts ...Option) (*Cache, error) {
	c := &Cache{
		io:             io,
		logger:         logger,
		maxHeadings:    int64(maxHeadings),
		watchers:       make(map[string]Watcher),
		watcherFactory: newFSNotifyWatcher,
		pollInterval:   30 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}

	docs, err := lru.NewWithEvict[string, *CachedDocument](maxDocuments, c.onEvict)
	if err != nil {
		return nil, apperrors.Newf(apperrors.CodeIOError, "constructing document cache: %v", err)
	}
	c.docs = docs
	return c, nil
}

func (c *Cache) onEvict(path string, doc *CachedDocument) {
	c.totalHeadings.Add(-int64(len(doc.Headings)))
	c.stopWatching(path)
	c.logger.Debug("evicted document from cache", zap.String("path", path))
}

// GetDocument returns the cached document at path, loading and parsing it
// on a miss. A non-existent file returns (nil, nil) — a missing file is
// not itself an error at this layer.
func (c *Cache) GetDocument(path string) (*CachedDocument, error) {
	if doc, ok := c.docs.Get(path); ok {
		return doc, nil
	}

	physical, err := c.io.Resolve(fsio.LogicalPath(path))
	if err != nil {
		return nil, err
	}
	if !c.io.Exists(physical) {
		return nil, nil
	}

	snap, err := c.io.ReadSnapshot(physical)
	if err != nil {
		if apperrors.CodeOf(err) == apperrors.CodeDocumentNotFound {
			return nil, nil
		}
		return nil, err
	}
	parsed, err := markdown.Parse(path, snap.Content)
	if err != nil {
		return nil, err
	}

	doc := newCachedDocument(path, snap, parsed)
	c.evictHeadingsIfNeeded(int64(len(doc.Headings)))
	c.totalHeadings.Add(int64(len(doc.Headings)))
	c.docs.Add(path, doc)
	c.startWatching(path, physical)

	c.logger.Debug("loaded document into cache", zap.String("path", path), zap.Int("headings", len(doc.Headings)))
	return doc, nil
}

// evictHeadingsIfNeeded drops least-recently-used documents until adding
// incoming headings would keep the global heading cap satisfied.
func (c *Cache) evictHeadingsIfNeeded(incoming int64) {
	if c.maxHeadings <= 0 {
		return
	}
	for c.totalHeadings.Load()+incoming > c.maxHeadings {
		if _, _, ok := c.docs.RemoveOldest(); !ok {
			return
		}
	}
}

// GetSectionContent resolves slugOrPath against path's parsed document and
// returns the serialized section content, populating the section tier
// under both the requested key and, when the request was hierarchical,
// the terminal flat slug — both keys pointing at the same entry object.
// Concurrent callers racing on the same (path, slugOrPath) pair are
// deduplicated via singleflight so only one parse+serialize happens.
func (c *Cache) GetSectionContent(path, slugOrPath string) ([]byte, error) {
	doc, err := c.GetDocument(path)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, apperrors.Newf(apperrors.CodeDocumentNotFound, "no such document: %s", path)
	}

	doc.mu.Lock()
	if entry, ok := doc.sections[slugOrPath]; ok {
		doc.mu.Unlock()
		return entry.Content, nil
	}
	doc.mu.Unlock()

	key := path + "\x00" + slugOrPath
	v, err, _ := c.group.Do(key, func() (any, error) {
		return c.loadSection(doc, slugOrPath)
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

func (c *Cache) loadSection(doc *CachedDocument, slugOrPath string) ([]byte, error) {
	doc.mu.Lock()
	if entry, ok := doc.sections[slugOrPath]; ok {
		doc.mu.Unlock()
		return entry.Content, nil
	}
	generation := doc.generation
	doc.mu.Unlock()

	parsed, err := markdown.Parse(doc.Path, doc.Content)
	if err != nil {
		return nil, err
	}
	heading, err := parsed.Resolve(slugOrPath)
	if err != nil {
		return nil, err
	}
	content := heading.Section(doc.Content)
	entry := &CachedSectionEntry{Content: content, Generation: generation}

	doc.mu.Lock()
	doc.sections[slugOrPath] = entry
	doc.sections[heading.PrimarySlug] = entry
	doc.mu.Unlock()

	return content, nil
}

// Invalidate drops path's entire section tier and bumps its generation,
// forcing the next GetSectionContent call to re-resolve from fresh
// content. Callers (the document manager, after a write) are expected to
// have already updated doc.Content/Headings/Mtime via Refresh, or to let
// the next GetDocument miss reload from disk.
func (c *Cache) Invalidate(path string) {
	doc, ok := c.docs.Get(path)
	if !ok {
		return
	}
	doc.mu.Lock()
	doc.sections = make(map[string]*CachedSectionEntry)
	doc.generation++
	doc.mu.Unlock()
	c.logger.Debug("invalidated section tier", zap.String("path", path))
}

// Evict removes path from the document tier entirely (used by
// moveDocument/deleteDocument), releasing its watcher.
func (c *Cache) Evict(path string) {
	c.docs.Remove(path)
}

// Refresh replaces doc's content, headings, and mtime in place after a
// successful write, without requiring a full cache miss round trip.
func (c *Cache) Refresh(path string, snap fsio.Snapshot, parsed *markdown.Document) {
	doc, ok := c.docs.Get(path)
	if !ok {
		return
	}
	doc.mu.Lock()
	c.totalHeadings.Add(int64(len(parsed.Headings) - len(doc.Headings)))
	doc.Content = snap.Content
	doc.Headings = parsed.Headings
	doc.Mtime = snap.Mtime
	doc.Size = snap.Size
	doc.sections = make(map[string]*CachedSectionEntry)
	doc.generation++
	doc.mu.Unlock()
}

// Close releases every registered watcher. Call once at shutdown.
func (c *Cache) Close() {
	c.watchersMu.Lock()
	defer c.watchersMu.Unlock()
	for path, w := range c.watchers {
		_ = w.Close()
		delete(c.watchers, path)
	}
}
