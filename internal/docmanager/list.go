package docmanager

import "sort"

// ListDocuments walks the documents root and returns a handle for every
// Markdown document found, sorted by logical path. Used by browse_documents
// and search_documents, which both need to enumerate the whole corpus.
func (m *Manager) ListDocuments() ([]DocumentHandle, error) {
	paths, err := m.io.WalkMarkdown()
	if err != nil {
		return nil, err
	}

	handles := make([]DocumentHandle, 0, len(paths))
	for _, p := range paths {
		doc, err := m.GetDocument(string(p))
		if err != nil || doc == nil {
			continue
		}
		handles = append(handles, *doc)
	}
	sort.Slice(handles, func(i, j int) bool { return handles[i].Path < handles[j].Path })
	return handles, nil
}
