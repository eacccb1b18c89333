package cache

import (
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/nota-kb/docserver/internal/fsio"
	"github.com/nota-kb/docserver/internal/markdown"
)

// maxConsecutiveWatcherErrors is how many watcher errors in a row push a
// document onto polling instead of fsnotify.
const maxConsecutiveWatcherErrors = 3

func (c *Cache) startWatching(logicalPath string, physical fsio.PhysicalPath) {
	w, err := c.watcherFactory()
	if err != nil {
		c.logger.Warn("constructing filesystem watcher failed, falling back to polling",
			zap.String("path", logicalPath), zap.Error(err))
		go c.pollDocument(logicalPath, physical)
		return
	}
	if err := w.Add(string(physical)); err != nil {
		c.logger.Warn("registering filesystem watch failed, falling back to polling",
			zap.String("path", logicalPath), zap.Error(err))
		_ = w.Close()
		go c.pollDocument(logicalPath, physical)
		return
	}

	c.watchersMu.Lock()
	c.watchers[logicalPath] = w
	c.watchersMu.Unlock()

	go c.watchLoop(logicalPath, physical, w)
}

func (c *Cache) stopWatching(logicalPath string) {
	c.watchersMu.Lock()
	w, ok := c.watchers[logicalPath]
	if ok {
		delete(c.watchers, logicalPath)
	}
	c.watchersMu.Unlock()
	if ok {
		_ = w.Close()
	}
}

// watchLoop translates fsnotify events for one document into cheap,
// correct invalidation via reconcile. It never tries to interpret the
// event finely — a write, a rename, or a remove are all treated as
// "re-examine this file".
func (c *Cache) watchLoop(logicalPath string, physical fsio.PhysicalPath, w Watcher) {
	errCount := 0
	for {
		select {
		case evt, ok := <-w.Events():
			if !ok {
				return
			}
			if evt.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) != 0 {
				c.reconcile(logicalPath, physical)
			}
			errCount = 0
		case err, ok := <-w.Errors():
			if !ok {
				return
			}
			c.logger.Warn("watcher error", zap.String("path", logicalPath), zap.Error(err))
			errCount++
			if errCount >= maxConsecutiveWatcherErrors {
				c.logger.Warn("too many consecutive watcher errors, falling back to polling",
					zap.String("path", logicalPath))
				c.stopWatching(logicalPath)
				go c.pollDocument(logicalPath, physical)
				return
			}
		}
	}
}

// reconcile re-stats the physical file; if its mtime has moved since the
// cached copy was loaded, the document is fully refreshed — content,
// headings, and section tier all reparsed together via Refresh, so a
// heading-list consumer (ViewDocument, browse/search, listTasks) never
// disagrees with the freshly-read content. A file that no longer parses,
// or vanished between the stat and the read, is evicted outright so the
// next GetDocument reloads it from scratch.
func (c *Cache) reconcile(logicalPath string, physical fsio.PhysicalPath) {
	doc, ok := c.docs.Get(logicalPath)
	if !ok {
		return
	}
	snap, err := c.io.ReadSnapshot(physical)
	if err != nil {
		c.Evict(logicalPath)
		return
	}
	doc.mu.Lock()
	changed := !snap.Mtime.Equal(doc.Mtime)
	doc.mu.Unlock()
	if !changed {
		return
	}
	parsed, err := markdown.Parse(logicalPath, snap.Content)
	if err != nil {
		c.Evict(logicalPath)
		return
	}
	c.Refresh(logicalPath, snap, parsed)
}

// pollDocument is the degraded-mode watcher: on a fixed interval, re-stat
// the file and reconcile. Used when fsnotify setup fails outright, or
// after too many consecutive watcher errors.
func (c *Cache) pollDocument(logicalPath string, physical fsio.PhysicalPath) {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()
	for range ticker.C {
		if _, ok := c.docs.Get(logicalPath); !ok {
			return
		}
		c.reconcile(logicalPath, physical)
	}
}
