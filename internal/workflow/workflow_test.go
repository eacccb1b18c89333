package workflow

import (
	"strings"
	"testing"

	"github.com/spf13/afero"

	"github.com/nota-kb/docserver/internal/applog"
)

const sampleWorkflow = `---
title: Deploy Safely
description: Walks through a safe production deploy.
whenToUse: When shipping a change that touches the deploy pipeline.
---

## Steps

1. Run the test suite.
2. Cut a release branch.
`

func TestLoadIndexesPromptsByFilenameStem(t *testing.T) {
	afs := afero.NewMemMapFs()
	if err := afero.WriteFile(afs, "/root/workflows/deploy.md", []byte(sampleWorkflow), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := afero.WriteFile(afs, "/root/guides/no-frontmatter.md", []byte("# Just a guide\n\nNo metadata here.\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	dir, err := Load(afs, "/root", []string{"workflows", "guides"}, applog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	if dir.Len() != 1 {
		t.Fatalf("expected exactly 1 loaded prompt (the frontmatter-less guide should be skipped), got %d", dir.Len())
	}

	prompt, ok := dir.Get("deploy")
	if !ok {
		t.Fatal("expected a prompt keyed \"deploy\"")
	}
	if prompt.Title != "Deploy Safely" {
		t.Fatalf("unexpected title: %q", prompt.Title)
	}
	if prompt.WhenToUse == "" {
		t.Fatal("expected whenToUse to be populated")
	}
	if strings.Contains(prompt.Body, "title:") {
		t.Fatalf("expected front matter stripped from body, got %q", prompt.Body)
	}
	if !strings.Contains(prompt.Body, "Run the test suite") {
		t.Fatalf("expected body content preserved, got %q", prompt.Body)
	}
}

func TestGetReturnsFalseForUnknownPrompt(t *testing.T) {
	afs := afero.NewMemMapFs()
	dir, err := Load(afs, "/root", []string{"workflows"}, applog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := dir.Get("nonexistent"); ok {
		t.Fatal("expected lookup of an unknown prompt to report false")
	}
}
