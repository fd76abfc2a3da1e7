package sources_test

import (
	"os"
	"path/filepath"
	"testing"

	"phare/internal/domain"
	"phare/internal/sources"
)

const registryYAML = `
sources:
  - name: Julia Evans
    url: https://jvns.ca/atom.xml
    category: Dev
  - name: "  Simon Willison "
    url: https://simonwillison.net/atom/everything/
    category: AI
colors:
  AI: "#000000"
`

func TestDefaultRegistryCategoriesHaveColors(t *testing.T) {
	reg := sources.Default()

	if got := len(reg.Sources); got != 14 {
		t.Fatalf("expected 14 default sources, got %d", got)
	}

	for _, src := range reg.Sources {
		if _, ok := reg.Colors[src.Category]; !ok {
			t.Errorf("source %q has category %q without color", src.Name, src.Category)
		}
	}

	if got := reg.Colors.Color(sources.CategoryHN); got != "#ff8c00" {
		t.Errorf("unexpected HN color: %q", got)
	}
}

func TestDefaultSourcesReturnsCopy(t *testing.T) {
	first := sources.DefaultSources()
	first[0].Name = "changed"

	if second := sources.DefaultSources(); second[0].Name != "Alex Ellis" {
		t.Fatalf("expected default registry to be immutable, got %q", second[0].Name)
	}
}

func TestParsePreservesOrderAndMergesColors(t *testing.T) {
	reg, err := sources.Parse([]byte(registryYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []domain.Source{
		{Name: "Julia Evans", URL: "https://jvns.ca/atom.xml", Category: "Dev"},
		{Name: "Simon Willison", URL: "https://simonwillison.net/atom/everything/", Category: "AI"},
	}

	if len(reg.Sources) != len(want) {
		t.Fatalf("expected %d sources, got %d", len(want), len(reg.Sources))
	}

	for i := range want {
		if reg.Sources[i] != want[i] {
			t.Errorf("source %d: got %+v want %+v", i, reg.Sources[i], want[i])
		}
	}

	if got := reg.Colors.Color("AI"); got != "#000000" {
		t.Errorf("expected overridden AI color, got %q", got)
	}

	if got := reg.Colors.Color("EM"); got != "#0066cc" {
		t.Errorf("expected default EM color, got %q", got)
	}
}

func TestParseRejectsInvalidRegistries(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"empty", "sources: []"},
		{"missing url", "sources:\n  - name: A\n"},
		{"duplicate name", "sources:\n  - {name: A, url: https://a}\n  - {name: A, url: https://b}\n"},
		{"not yaml", "sources: ["},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if _, err := sources.Parse([]byte(test.doc)); err == nil {
				t.Fatalf("expected error for %q", test.doc)
			}
		})
	}
}

func TestLoadReadsExplicitPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sources.yaml")
	if err := os.WriteFile(path, []byte(registryYAML), 0o600); err != nil {
		t.Fatalf("write registry: %v", err)
	}

	reg, loadedFrom, err := sources.Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if loadedFrom != path {
		t.Errorf("expected registry path %q, got %q", path, loadedFrom)
	}

	if len(reg.Sources) != 2 {
		t.Errorf("expected 2 sources, got %d", len(reg.Sources))
	}
}

func TestLoadMissingExplicitPath(t *testing.T) {
	if _, _, err := sources.Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing registry file")
	}
}
