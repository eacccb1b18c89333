// Package docmanager is the CRUD facade: every tool
// operation that reads or mutates a document routes through here. It
// composes the filesystem layer, the markdown AST engine, and the
// document cache, and owns the ordering guarantees the tool layer relies on —
// moveSection reads-then-inserts-then-deletes so a failure never
// destroys data, archiveDocument always reports the addresses it actually
// used rather than a caller-predicted one, and editDocumentMetadata
// re-fetches through the cache after a write so the response never
// echoes stale metadata.
package docmanager

import (
	"time"

	"go.uber.org/zap"

	"github.com/nota-kb/docserver/internal/cache"
	"github.com/nota-kb/docserver/internal/fsio"
	"github.com/nota-kb/docserver/internal/markdown"
)

// Manager is the CRUD facade. Construct one per process, sharing the same
// fsio.IO and cache.Cache the rest of the core uses.
type Manager struct {
	io     *fsio.IO
	cache  *cache.Cache
	logger *zap.Logger
}

// New constructs a Manager over the given filesystem layer and cache.
func New(io *fsio.IO, c *cache.Cache, logger *zap.Logger) *Manager {
	return &Manager{io: io, cache: c, logger: logger}
}

// DocumentHandle is what createDocument/getDocument return: a document's
// identity plus its currently-known content and parsed headings.
type DocumentHandle struct {
	Path     string
	Content  []byte
	Headings []markdown.Heading
	Mtime    time.Time
	Size     int64
}

// EditResult describes what an editSection call actually did, so the
// response can truthfully report insertions (new slug) and deletions
// (removed content) rather than echoing the caller's request back.
type EditResult struct {
	Content      []byte
	NewSlug      string // set for insert_before/insert_after/append_child
	RemovedBytes []byte // set for remove
	Mtime        time.Time
}
