package docmanager

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nota-kb/docserver/internal/apperrors"
	"github.com/nota-kb/docserver/internal/fsio"
)

// ArchiveResult reports the actual paths archiveDocument used, so a
// response never echoes a caller-predicted path that might not match
// what was really written.
type ArchiveResult struct {
	ArchivePath string
	AuditPath   string
}

// auditRecord is the JSON sidecar written alongside an archived document.
type auditRecord struct {
	OriginalPath string `json:"original_path"`
	ArchivePath  string `json:"archive_path"`
	Timestamp    string `json:"timestamp"`
	Operation    string `json:"operation"`
	Actor        string `json:"actor,omitempty"`
}

// nowFunc is overridable in tests so archive path generation is
// deterministic; production uses time.Now.
var nowFunc = time.Now

// ArchiveDocument computes an archive path under
// /archived/<timestamp>-<original-path>, moves the file there, writes a
// JSON audit record alongside it, and invalidates the original.
func (m *Manager) ArchiveDocument(path string) (ArchiveResult, error) {
	timestamp := nowFunc().UTC().Format("20060102T150405Z")
	trimmed := strings.TrimPrefix(path, "/")
	archivePath := fmt.Sprintf("/archived/%s-%s", timestamp, trimmed)

	if err := m.MoveDocument(path, archivePath); err != nil {
		return ArchiveResult{}, err
	}

	auditPath := archivePath + ".audit"
	record := auditRecord{
		OriginalPath: path,
		ArchivePath:  archivePath,
		Timestamp:    timestamp,
		Operation:    "archive",
	}
	payload, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return ArchiveResult{}, apperrors.Newf(apperrors.CodeIOError, "encoding audit record: %v", err)
	}

	auditPhysical, err := m.io.Resolve(fsio.LogicalPath(auditPath))
	if err != nil {
		return ArchiveResult{}, err
	}
	if _, err := m.io.WriteIfUnchanged(auditPhysical, payload, time.Time{}); err != nil {
		return ArchiveResult{}, err
	}

	return ArchiveResult{ArchivePath: archivePath, AuditPath: auditPath}, nil
}

// DeleteOptions controls deleteDocument's behavior.
type DeleteOptions struct {
	Archive bool
}

// DeleteDocument archives path (if requested) or permanently removes it
// after evicting it from the cache.
func (m *Manager) DeleteDocument(path string, opts DeleteOptions) (*ArchiveResult, error) {
	if opts.Archive {
		result, err := m.ArchiveDocument(path)
		if err != nil {
			return nil, err
		}
		return &result, nil
	}

	physical, err := m.io.Resolve(fsio.LogicalPath(path))
	if err != nil {
		return nil, err
	}
	m.cache.Evict(path)
	if err := m.io.Remove(physical); err != nil {
		return nil, err
	}
	return nil, nil
}
