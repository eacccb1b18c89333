// Package config loads and generates the process-wide configuration:
// documents root, reference extraction depth, log level, plus the cache
// sizing knobs that bound resource usage. Defaults are written with inline
// comments via yaml-comment so `docserver init` produces a config a human
// can read without cross-referencing anything else.
package config

import (
	"fmt"
	"os"

	yamlcomment "github.com/zijiren233/yaml-comment"
	"gopkg.in/yaml.v3"
)

// Config is the process-wide, read-at-startup configuration.
type Config struct {
	// DocumentsRoot is the absolute directory all logical paths resolve
	// against. Required.
	DocumentsRoot string `yaml:"documents_root" comment:"absolute directory all logical document paths resolve against (required)"`

	// ReferenceDepth bounds how many hops the reference loader follows.
	ReferenceDepth int `yaml:"reference_depth" comment:"max reference-tree traversal depth, 1-5"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" comment:"debug, info, warn, or error"`

	// MaxCachedDocuments bounds the document-tier LRU.
	MaxCachedDocuments int `yaml:"max_cached_documents" comment:"document-tier LRU capacity"`

	// MaxCachedHeadings is the global cap on headings across all cached
	// documents before LRU eviction kicks in.
	MaxCachedHeadings int `yaml:"max_cached_headings" comment:"global cap on headings across all cached documents"`

	// MaxReferenceNodes caps the total size of any single reference tree.
	MaxReferenceNodes int `yaml:"max_reference_nodes" comment:"hard cap on total nodes in a single reference tree"`

	// ReferenceBudgetSeconds is the wall-clock budget for one reference load.
	ReferenceBudgetSeconds int `yaml:"reference_budget_seconds" comment:"wall-clock budget, in seconds, for one reference-tree load"`

	// MaxFileBytes is the per-file read size cap.
	MaxFileBytes int64 `yaml:"max_file_bytes" comment:"reject reads of files larger than this many bytes"`
}

// Default returns the configuration's stated defaults:
// reference depth 3, info logging, 100 cached documents, ~100,000 cached
// headings, 1000-node/30s reference trees, 10 MiB file cap.
func Default(documentsRoot string) Config {
	return Config{
		DocumentsRoot:          documentsRoot,
		ReferenceDepth:         3,
		LogLevel:               "info",
		MaxCachedDocuments:     100,
		MaxCachedHeadings:      100_000,
		MaxReferenceNodes:      1000,
		ReferenceBudgetSeconds: 30,
		MaxFileBytes:           10 * 1024 * 1024,
	}
}

// Validate rejects configurations that can never work.
func (c Config) Validate() error {
	if c.DocumentsRoot == "" {
		return fmt.Errorf("config: documents_root is required")
	}
	if c.ReferenceDepth < 1 || c.ReferenceDepth > 5 {
		return fmt.Errorf("config: reference_depth must be 1-5, got %d", c.ReferenceDepth)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: log_level must be debug, info, warn, or error, got %q", c.LogLevel)
	}
	return nil
}

// Load reads and validates a YAML config file.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: reading %s: %w", path, err)
	}
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Config{}, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// WriteDefault renders a fully commented default config to path, failing
// if the file already exists rather than clobbering it.
func WriteDefault(path, documentsRoot string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config: %s already exists", path)
	}

	data, err := yamlcomment.Marshal(Default(documentsRoot))
	if err != nil {
		return fmt.Errorf("config: rendering default config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
