package fsio

import (
	"os"
	"path"
	"strings"

	"github.com/spf13/afero"

	"github.com/nota-kb/docserver/internal/apperrors"
)

// WalkMarkdown walks the entire documents root and returns the logical
// path of every ".md" file found, skipping permission errors rather than
// aborting the whole scan.
func (io *IO) WalkMarkdown() ([]LogicalPath, error) {
	var paths []LogicalPath
	err := afero.Walk(io.fs, io.root, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsPermission(err) {
				return nil
			}
			return err
		}
		if info.IsDir() {
			return nil
		}
		if !strings.HasSuffix(strings.ToLower(info.Name()), ".md") {
			return nil
		}
		rel := strings.TrimPrefix(p, io.root)
		rel = path.Clean("/" + strings.ReplaceAll(rel, "\\", "/"))
		paths = append(paths, LogicalPath(rel))
		return nil
	})
	if err != nil {
		return nil, apperrors.Newf(apperrors.CodeIOError, "walking documents root: %v", err)
	}
	return paths, nil
}
