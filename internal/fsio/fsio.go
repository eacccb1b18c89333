// Package fsio is the filesystem I/O layer: atomic read snapshots,
// mtime-checked writes, and path validation. It is built on afero.Fs so
// production wires the real OS filesystem while tests exercise an
// in-memory one without touching disk.
package fsio

import (
	"errors"
	"io/fs"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/nota-kb/docserver/internal/apperrors"
)

// MaxReadBytes is the default per-file read size cap.
const MaxReadBytes int64 = 10 * 1024 * 1024

// Snapshot is the content+mtime+size triple a read returns, and the
// precondition a later WriteIfUnchanged checks against.
type Snapshot struct {
	Content []byte
	Mtime   time.Time
	Size    int64
}

// IO resolves logical paths against a configured root and performs
// validated, atomic filesystem operations.
type IO struct {
	fs           afero.Fs
	root         string
	maxReadBytes int64
}

// New constructs an IO layer rooted at root using the given afero
// filesystem (afero.NewOsFs() in production, afero.NewMemMapFs() in
// tests).
func New(afs afero.Fs, root string, maxReadBytes int64) *IO {
	if maxReadBytes <= 0 {
		maxReadBytes = MaxReadBytes
	}
	return &IO{fs: afs, root: filepath.Clean(root), maxReadBytes: maxReadBytes}
}

// Resolve validates logical and joins it with the configured root. Every
// path originating from a tool parameter must go through Resolve.
func (io *IO) Resolve(logical LogicalPath) (PhysicalPath, error) {
	if err := ValidateLogical(logical); err != nil {
		return "", err
	}
	return io.resolveUnchecked(logical), nil
}

// ResolveTrusted joins logical with the root without re-validating it, for
// call sites that already validated the path through the addressing
// system as a performance optimization for internal callers.
func (io *IO) ResolveTrusted(logical LogicalPath) PhysicalPath {
	return io.resolveUnchecked(logical)
}

func (io *IO) resolveUnchecked(logical LogicalPath) PhysicalPath {
	cleaned := path.Clean("/" + strings.TrimPrefix(string(logical), "/"))
	joined := filepath.Join(io.root, filepath.FromSlash(cleaned))
	return PhysicalPath(joined)
}

// contained reports whether p is lexically within the configured root,
// the last line of defense against traversal even if ValidateLogical was
// bypassed.
func (io *IO) contained(p PhysicalPath) bool {
	rel, err := filepath.Rel(io.root, string(p))
	if err != nil {
		return false
	}
	return rel == "." || !strings.HasPrefix(rel, "..")
}

// ReadSnapshot reads the full content of p, rejecting files over the
// configured size cap.
func (io *IO) ReadSnapshot(p PhysicalPath) (Snapshot, error) {
	if !io.contained(p) {
		return Snapshot{}, apperrors.Newf(apperrors.CodePathTraversal, "path %q escapes the document root", p)
	}

	info, err := io.fs.Stat(string(p))
	if err != nil {
		if fserrIsNotExist(err) {
			return Snapshot{}, apperrors.Newf(apperrors.CodeDocumentNotFound, "no such file: %s", p)
		}
		return Snapshot{}, apperrors.Newf(apperrors.CodeIOError, "stat %s: %v", p, err)
	}
	if info.Size() > io.maxReadBytes {
		return Snapshot{}, apperrors.Newf(apperrors.CodeFileTooLarge, "%s is %d bytes, exceeds the %d byte cap", p, info.Size(), io.maxReadBytes)
	}

	content, err := afero.ReadFile(io.fs, string(p))
	if err != nil {
		return Snapshot{}, apperrors.Newf(apperrors.CodeIOError, "reading %s: %v", p, err)
	}

	return Snapshot{Content: content, Mtime: info.ModTime(), Size: info.Size()}, nil
}

// WriteIfUnchanged re-stats p; if its mtime no longer matches priorMtime,
// it fails with CONCURRENT_MODIFICATION and performs no write. Otherwise
// it writes atomically (sibling temp file + rename) and returns the new
// mtime.
func (io *IO) WriteIfUnchanged(p PhysicalPath, content []byte, priorMtime time.Time) (time.Time, error) {
	if !io.contained(p) {
		return time.Time{}, apperrors.Newf(apperrors.CodePathTraversal, "path %q escapes the document root", p)
	}

	if info, err := io.fs.Stat(string(p)); err == nil {
		if !info.ModTime().Equal(priorMtime) {
			return time.Time{}, apperrors.Newf(apperrors.CodeConcurrentModification, "%s changed on disk since it was read", p).
				With("on_disk_mtime", info.ModTime()).With("expected_mtime", priorMtime)
		}
	} else if !fserrIsNotExist(err) {
		return time.Time{}, apperrors.Newf(apperrors.CodeIOError, "stat %s: %v", p, err)
	} else if !priorMtime.IsZero() {
		// priorMtime was non-zero but the file is now gone: still a
		// concurrent change, not a fresh create.
		return time.Time{}, apperrors.Newf(apperrors.CodeConcurrentModification, "%s was removed since it was read", p)
	}

	if err := io.fs.MkdirAll(filepath.Dir(string(p)), 0o755); err != nil {
		return time.Time{}, apperrors.Newf(apperrors.CodeIOError, "creating parent directories for %s: %v", p, err)
	}

	tmp := string(p) + ".tmp-" + uuid.NewString()
	if err := afero.WriteFile(io.fs, tmp, content, 0o644); err != nil {
		return time.Time{}, apperrors.Newf(apperrors.CodeIOError, "writing temp file for %s: %v", p, err)
	}
	if err := io.fs.Rename(tmp, string(p)); err != nil {
		_ = io.fs.Remove(tmp)
		return time.Time{}, apperrors.Newf(apperrors.CodeIOError, "renaming temp file into place for %s: %v", p, err)
	}

	info, err := io.fs.Stat(string(p))
	if err != nil {
		return time.Time{}, apperrors.Newf(apperrors.CodeIOError, "stat after write %s: %v", p, err)
	}
	return info.ModTime(), nil
}

// Move renames from to to, creating to's parent directories first. Fails
// if to already exists.
func (io *IO) Move(from, to PhysicalPath) error {
	if !io.contained(from) || !io.contained(to) {
		return apperrors.Newf(apperrors.CodePathTraversal, "move path escapes the document root")
	}
	if _, err := io.fs.Stat(string(from)); err != nil {
		if fserrIsNotExist(err) {
			return apperrors.Newf(apperrors.CodeDocumentNotFound, "no such file: %s", from)
		}
		return apperrors.Newf(apperrors.CodeIOError, "stat %s: %v", from, err)
	}
	if _, err := io.fs.Stat(string(to)); err == nil {
		return apperrors.Newf(apperrors.CodeIOError, "destination %s already exists", to)
	}
	if err := io.fs.MkdirAll(filepath.Dir(string(to)), 0o755); err != nil {
		return apperrors.Newf(apperrors.CodeIOError, "creating parent directories for %s: %v", to, err)
	}
	if err := io.fs.Rename(string(from), string(to)); err != nil {
		return apperrors.Newf(apperrors.CodeIOError, "renaming %s to %s: %v", from, to, err)
	}
	return nil
}

// Remove permanently deletes p.
func (io *IO) Remove(p PhysicalPath) error {
	if !io.contained(p) {
		return apperrors.Newf(apperrors.CodePathTraversal, "path %q escapes the document root", p)
	}
	if err := io.fs.Remove(string(p)); err != nil {
		if fserrIsNotExist(err) {
			return apperrors.Newf(apperrors.CodeDocumentNotFound, "no such file: %s", p)
		}
		return apperrors.Newf(apperrors.CodeIOError, "removing %s: %v", p, err)
	}
	return nil
}

// Exists reports whether p exists.
func (io *IO) Exists(p PhysicalPath) bool {
	_, err := io.fs.Stat(string(p))
	return err == nil
}

// FS exposes the underlying afero.Fs for components (the cache's
// watcher) that need lower-level access.
func (io *IO) FS() afero.Fs { return io.fs }

// Root returns the configured physical root directory.
func (io *IO) Root() string { return io.root }

func fserrIsNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
