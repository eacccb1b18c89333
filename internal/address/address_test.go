package address

import (
	"testing"

	"github.com/nota-kb/docserver/internal/apperrors"
)

func TestParseDocumentAddressNormalizes(t *testing.T) {
	cases := []struct {
		raw       string
		wantPath  string
		wantSlug  string
		wantNS    string
	}{
		{"guides/Setup", "/guides/setup.md", "setup", "guides"},
		{"/README", "/readme.md", "readme", "root"},
		{"//a//b.md", "/a/b.md", "b", "a"},
	}
	for _, c := range cases {
		addr, err := ParseDocumentAddress(c.raw)
		if err != nil {
			t.Fatalf("ParseDocumentAddress(%q): %v", c.raw, err)
		}
		if addr.Path != c.wantPath || addr.Slug != c.wantSlug || addr.Namespace != c.wantNS {
			t.Fatalf("ParseDocumentAddress(%q) = %+v, want path=%s slug=%s ns=%s", c.raw, addr, c.wantPath, c.wantSlug, c.wantNS)
		}
	}
}

func TestParseDocumentAddressRejectsTraversal(t *testing.T) {
	if _, err := ParseDocumentAddress("/a/../b.md"); apperrors.CodeOf(err) != apperrors.CodeInvalidAddress {
		t.Fatalf("expected INVALID_ADDRESS, got %v", err)
	}
}

func TestParseSectionAddressForms(t *testing.T) {
	ctx := "/guides/setup.md"

	bare, err := ParseSectionAddress("Install-Step", ctx)
	if err != nil {
		t.Fatalf("bare: %v", err)
	}
	if bare.Slug != "install-step" || bare.Document.Path != ctx {
		t.Fatalf("bare = %+v", bare)
	}

	hashed, err := ParseSectionAddress("#install-step", ctx)
	if err != nil {
		t.Fatalf("hashed: %v", err)
	}
	if hashed.Slug != "install-step" {
		t.Fatalf("hashed = %+v", hashed)
	}

	hierarchical, err := ParseSectionAddress("prereqs/install-step", ctx)
	if err != nil {
		t.Fatalf("hierarchical: %v", err)
	}
	if hierarchical.Slug != "prereqs/install-step" {
		t.Fatalf("hierarchical = %+v", hierarchical)
	}

	qualified, err := ParseSectionAddress("/other/doc.md#install-step", "")
	if err != nil {
		t.Fatalf("qualified: %v", err)
	}
	if qualified.Document.Path != "/other/doc.md" || qualified.Slug != "install-step" {
		t.Fatalf("qualified = %+v", qualified)
	}
}

func TestParseSectionAddressRequiresContextForBareForm(t *testing.T) {
	if _, err := ParseSectionAddress("install-step", ""); apperrors.CodeOf(err) != apperrors.CodeInvalidAddress {
		t.Fatalf("expected INVALID_ADDRESS without context, got %v", err)
	}
}

func TestParseSectionAddressRejectsTooManyComponents(t *testing.T) {
	raw := ""
	for i := 0; i < 25; i++ {
		raw += "a/"
	}
	raw += "final"
	if _, err := ParseSectionAddress(raw, "/doc.md"); apperrors.CodeOf(err) != apperrors.CodeInvalidAddress {
		t.Fatalf("expected INVALID_ADDRESS for oversized path, got %v", err)
	}
}

func TestCacheMemoizesDocumentAddresses(t *testing.T) {
	c, err := NewCache()
	if err != nil {
		t.Fatal(err)
	}
	a1, err := c.Document("/guides/setup.md")
	if err != nil {
		t.Fatal(err)
	}
	a2, err := c.Document("/guides/setup.md")
	if err != nil {
		t.Fatal(err)
	}
	if a1 != a2 {
		t.Fatalf("expected identical cached address, got %+v vs %+v", a1, a2)
	}
}

func TestParseBundleResolvesDocumentSectionAndTask(t *testing.T) {
	b, err := ParseBundle("/guides/setup.md", "install-step", "first-task")
	if err != nil {
		t.Fatal(err)
	}
	if b.Document.Path != "/guides/setup.md" {
		t.Fatalf("document = %+v", b.Document)
	}
	if b.Section == nil || b.Section.Slug != "install-step" {
		t.Fatalf("section = %+v", b.Section)
	}
	if b.Task == nil || !b.Task.Task || b.Task.Section.Slug != "first-task" {
		t.Fatalf("task = %+v", b.Task)
	}
}
