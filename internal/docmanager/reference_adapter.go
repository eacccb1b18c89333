package docmanager

import "github.com/nota-kb/docserver/internal/reference"

// ForReferenceLoader adapts Manager to reference.DocumentFetcher, so the
// reference loader can resolve `@`-tokens through the same cache and
// filesystem layer every other operation uses, without the reference
// package importing docmanager (the dependency runs the other way).
func (m *Manager) ForReferenceLoader() reference.DocumentFetcher {
	return (*referenceFetcher)(m)
}

type referenceFetcher Manager

func (f *referenceFetcher) GetDocument(path string) (*reference.FetchedDocument, error) {
	doc, err := (*Manager)(f).GetDocument(path)
	if err != nil || doc == nil {
		return nil, err
	}
	return &reference.FetchedDocument{Content: doc.Content, Headings: doc.Headings}, nil
}

func (f *referenceFetcher) GetSectionContent(path, slugOrPath string) ([]byte, error) {
	return (*Manager)(f).GetSectionContent(path, slugOrPath)
}
