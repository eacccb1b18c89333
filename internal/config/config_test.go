package config

import (
	"path/filepath"
	"testing"
)

func TestDefaultValidates(t *testing.T) {
	c := Default("/docs")
	if err := c.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestValidateRejectsBadDepth(t *testing.T) {
	c := Default("/docs")
	c.ReferenceDepth = 6
	if err := c.Validate(); err == nil {
		t.Fatal("expected validation error for out-of-range reference depth")
	}
}

func TestValidateRequiresRoot(t *testing.T) {
	c := Default("")
	if err := c.Validate(); err == nil {
		t.Fatal("expected validation error for missing documents_root")
	}
}

func TestWriteDefaultThenLoad(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "docserver.yml")

	if err := WriteDefault(cfgPath, dir); err != nil {
		t.Fatalf("WriteDefault: %v", err)
	}

	loaded, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.DocumentsRoot != dir {
		t.Errorf("DocumentsRoot = %q, want %q", loaded.DocumentsRoot, dir)
	}
	if loaded.ReferenceDepth != 3 {
		t.Errorf("ReferenceDepth = %d, want 3", loaded.ReferenceDepth)
	}

	if err := WriteDefault(cfgPath, dir); err == nil {
		t.Fatal("expected WriteDefault to refuse to overwrite an existing file")
	}
}
