// Package workflow loads the prompt directory for workflow and guide
// prompts: at
// startup, every Markdown file under workflows/ and guides/ with a YAML
// front matter block (title, description, whenToUse) becomes a named
// prompt record, indexed by filename stem. The index is read-only after
// startup — no runtime reload — and the MCP transport consults it by
// name, logging (not failing) on an unknown reference.
package workflow

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
	"github.com/spf13/afero"
	"github.com/yuin/goldmark"
	meta "github.com/yuin/goldmark-meta"
	"github.com/yuin/goldmark/parser"
	"go.uber.org/zap"
)

// Prompt is one workflow or guide document's front matter plus its body.
type Prompt struct {
	Name        string // filename stem, the lookup key
	Title       string
	Description string
	WhenToUse   string
	Body        string
	SourcePath  string
}

// Directory is the read-only, startup-loaded index of every prompt found
// under the configured directories.
type Directory struct {
	prompts *orderedmap.OrderedMap[string, Prompt]
}

var md = goldmark.New(goldmark.WithExtensions(meta.Meta))

// Load scans dirs (typically "workflows" and "guides", relative to fsRoot)
// for Markdown files with YAML front matter, building the prompt index.
// A file that parses but lacks usable front matter is skipped with a
// warning, never a fatal error — a malformed prompt must not prevent the
// rest of the directory from loading.
func Load(afs afero.Fs, fsRoot string, dirs []string, logger *zap.Logger) (*Directory, error) {
	d := &Directory{prompts: orderedmap.New[string, Prompt]()}

	for _, dir := range dirs {
		root := filepath.Join(fsRoot, dir)
		exists, err := afero.DirExists(afs, root)
		if err != nil {
			return nil, fmt.Errorf("workflow: checking %s: %w", root, err)
		}
		if !exists {
			continue
		}

		files, err := afero.ReadDir(afs, root)
		if err != nil {
			return nil, fmt.Errorf("workflow: reading %s: %w", root, err)
		}
		for _, f := range files {
			if f.IsDir() || !strings.HasSuffix(strings.ToLower(f.Name()), ".md") {
				continue
			}
			path := filepath.Join(root, f.Name())
			content, err := afero.ReadFile(afs, path)
			if err != nil {
				logger.Warn("workflow: failed to read prompt file", zap.String("path", path), zap.Error(err))
				continue
			}
			prompt, ok := parsePrompt(path, f.Name(), content)
			if !ok {
				logger.Warn("workflow: prompt file has no usable front matter, skipping", zap.String("path", path))
				continue
			}
			d.prompts.Set(prompt.Name, prompt)
		}
	}

	return d, nil
}

// parsePrompt extracts a Prompt's front matter and body from content.
func parsePrompt(fullPath, fileName string, content []byte) (Prompt, bool) {
	ctx := parser.NewContext()
	var buf bytes.Buffer
	if err := md.Convert(content, &buf, parser.WithContext(ctx)); err != nil {
		return Prompt{}, false
	}

	data := meta.Get(ctx)
	if data == nil {
		return Prompt{}, false
	}

	title, _ := data["title"].(string)
	description, _ := data["description"].(string)
	whenToUse, _ := data["whenToUse"].(string)
	if title == "" && description == "" {
		return Prompt{}, false
	}

	stem := strings.TrimSuffix(fileName, filepath.Ext(fileName))
	body := stripFrontMatter(content)

	return Prompt{
		Name: stem, Title: title, Description: description, WhenToUse: whenToUse,
		Body: body, SourcePath: fullPath,
	}, true
}

// stripFrontMatter returns content with a leading "---"-delimited YAML
// block removed, so Body never repeats the metadata already surfaced on
// the Prompt struct.
func stripFrontMatter(content []byte) string {
	s := string(content)
	if !strings.HasPrefix(s, "---\n") && !strings.HasPrefix(s, "---\r\n") {
		return s
	}
	rest := s[4:]
	idx := strings.Index(rest, "\n---\n")
	if idx == -1 {
		idx = strings.Index(rest, "\n---\r\n")
	}
	if idx == -1 {
		return s
	}
	end := idx + len("\n---\n")
	if end > len(rest) {
		end = len(rest)
	}
	return strings.TrimLeft(rest[end:], "\n")
}

// Get returns the prompt named name, and whether it was found. A missing
// prompt is never an error at this layer — callers log and omit injection.
func (d *Directory) Get(name string) (Prompt, bool) {
	return d.prompts.Get(name)
}

// Len reports how many prompts were loaded.
func (d *Directory) Len() int {
	return d.prompts.Len()
}

// Names returns every loaded prompt's name, in load order.
func (d *Directory) Names() []string {
	names := make([]string, 0, d.prompts.Len())
	for pair := d.prompts.Oldest(); pair != nil; pair = pair.Next() {
		names = append(names, pair.Key)
	}
	return names
}
