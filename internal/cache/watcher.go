package cache

import (
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Watcher abstracts filesystem change notification so the cache can be
// exercised against an in-memory filesystem in tests without a real
// fsnotify backend, and so watcher construction failures degrade to
// polling instead of aborting startup.
type Watcher interface {
	Add(path string) error
	Close() error
	Events() <-chan fsnotify.Event
	Errors() <-chan error
}

type fsNotifyWatcher struct {
	*fsnotify.Watcher
}

func (w *fsNotifyWatcher) Events() <-chan fsnotify.Event { return w.Watcher.Events }
func (w *fsNotifyWatcher) Errors() <-chan error          { return w.Watcher.Errors }

func newFSNotifyWatcher() (Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &fsNotifyWatcher{Watcher: w}, nil
}

// noopWatcher satisfies the Watcher interface without ever delivering
// events, for in-memory filesystems (tests, or a watcher-construction
// failure that has already been logged and downgraded). Close closes
// both channels so a watchLoop goroutine selecting on them unblocks and
// exits, same as a real fsnotify.Watcher shutting down.
type noopWatcher struct {
	closeOnce sync.Once
	events    chan fsnotify.Event
	errs      chan error
}

func newNoopWatcher() Watcher {
	return &noopWatcher{events: make(chan fsnotify.Event), errs: make(chan error)}
}

func (w *noopWatcher) Add(string) error { return nil }

func (w *noopWatcher) Close() error {
	w.closeOnce.Do(func() {
		close(w.events)
		close(w.errs)
	})
	return nil
}

func (w *noopWatcher) Events() <-chan fsnotify.Event { return w.events }
func (w *noopWatcher) Errors() <-chan error          { return w.errs }
