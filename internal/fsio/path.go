package fsio

import (
	"strings"

	"github.com/nota-kb/docserver/internal/apperrors"
)

// LogicalPath is a document-root-relative identifier: absolute, '/'
// separated, as supplied by or returned to a tool caller. PhysicalPath is
// its resolution against the configured document root. Keeping these as
// distinct types makes the resolution boundary explicit and prevents a
// double-join bug (both the manager and the FS layer prepending the root).
type LogicalPath string

// PhysicalPath is an OS-addressable path, already joined with the document
// root. Trusted internal call sites may construct one directly via
// ResolveTrusted, bypassing validation; every PhysicalPath that reaches
// the filesystem from a tool parameter must instead come from Resolve.
type PhysicalPath string

const (
	maxPathLength    = 4096
	maxPathComponent = 255
)

// ValidateLogical checks containment, forbidden characters, and length,
// without touching the filesystem.
func ValidateLogical(p LogicalPath) error {
	s := string(p)
	if s == "" || !strings.HasPrefix(s, "/") {
		return apperrors.Newf(apperrors.CodeInvalidAddress, "logical path %q must be absolute", s)
	}
	if len(s) > maxPathLength {
		return apperrors.Newf(apperrors.CodePathTraversal, "logical path exceeds maximum length of %d", maxPathLength)
	}
	for _, r := range s {
		if r == 0 || (r < 0x20 && r != '\n' && r != '\t') {
			return apperrors.Newf(apperrors.CodePathTraversal, "logical path contains a control character")
		}
	}
	for _, component := range strings.Split(s, "/") {
		switch component {
		case "", ".":
			continue
		case "..":
			return apperrors.Newf(apperrors.CodePathTraversal, "logical path %q escapes the document root", s)
		}
		if len(component) > maxPathComponent {
			return apperrors.Newf(apperrors.CodePathTraversal, "path component %q exceeds %d characters", component, maxPathComponent)
		}
	}
	return nil
}
