package sources

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"phare/internal/domain"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

const (
	CategoryEM  = "EM"
	CategoryAI  = "AI"
	CategoryDev = "Dev"
	CategoryOps = "Ops"
	CategoryHN  = "HN"

	defaultRegistryRelPath = "phare/sources.yaml"
)

// Registry is the set of feeds and colors a run reads from.
type Registry struct {
	Sources []domain.Source
	Colors  domain.CategoryColors
}

type fileSource struct {
	Name     string `yaml:"name"`
	URL      string `yaml:"url"`
	Category string `yaml:"category"`
}

type fileRegistry struct {
	Sources []fileSource      `yaml:"sources"`
	Colors  map[string]string `yaml:"colors"`
}

func DefaultColors() domain.CategoryColors {
	return domain.CategoryColors{
		CategoryEM:  "#0066cc",
		CategoryAI:  "#f4b400",
		CategoryDev: "#333333",
		CategoryOps: "#dc3545",
		CategoryHN:  "#ff8c00",
	}
}

func DefaultSources() []domain.Source {
	return []domain.Source{
		{Name: "Alex Ellis", URL: "https://blog.alexellis.io/rss/", Category: CategoryOps},
		{Name: "Julia Evans", URL: "https://jvns.ca/atom.xml", Category: CategoryDev},
		{Name: "Dan Luu", URL: "https://danluu.com/atom.xml", Category: CategoryEM},
		{Name: "Will Larson", URL: "https://lethain.com/feeds/", Category: CategoryEM},
		{Name: "Hamel Husain", URL: "https://hamel.dev/feed.xml", Category: CategoryAI},
		{Name: "Vicki Boykis", URL: "https://vickiboykis.com/feed/", Category: CategoryDev},
		{Name: "Camille Fournier", URL: "https://www.elidedbranches.com/feeds/posts/default", Category: CategoryEM},
		{Name: "Charity Majors", URL: "https://charity.wtf/feed/", Category: CategoryEM},
		{Name: "Pragmatic Engineer", URL: "https://blog.pragmaticengineer.com/rss/", Category: CategoryOps},
		{Name: "Martin Fowler", URL: "https://martinfowler.com/feed.atom", Category: CategoryDev},
		{Name: "Chip Huyen", URL: "https://huyenchip.com/feed.xml", Category: CategoryAI},
		{Name: "Eugene Yan", URL: "https://eugeneyan.com/feed.xml", Category: CategoryAI},
		{Name: "Simon Willison", URL: "https://simonwillison.net/atom/everything/", Category: CategoryAI},
		{Name: "Stéphane Robert", URL: "https://blog.stephane-robert.info/index.xml", Category: CategoryOps},
	}
}

func Default() Registry {
	return Registry{
		Sources: DefaultSources(),
		Colors:  DefaultColors(),
	}
}

// Load returns the registry from path. An empty path falls back to the XDG
// config file when it exists and to the compiled-in registry otherwise.
func Load(path string) (Registry, string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		candidate := filepath.Join(xdg.ConfigHome, defaultRegistryRelPath)
		if _, err := os.Stat(candidate); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return Default(), "", nil
			}

			return Registry{}, candidate, fmt.Errorf("stat registry file: %w", err)
		}

		path = candidate
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Registry{}, path, fmt.Errorf("read registry file: %w", err)
	}

	reg, err := Parse(data)
	if err != nil {
		return Registry{}, path, fmt.Errorf("parse registry file (path = %s): %w", path, err)
	}

	return reg, path, nil
}

// Parse decodes a YAML registry. Colors missing from the document keep their
// defaults.
func Parse(data []byte) (Registry, error) {
	var raw fileRegistry
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Registry{}, fmt.Errorf("decode YAML: %w", err)
	}

	if len(raw.Sources) == 0 {
		return Registry{}, errors.New("registry has no sources")
	}

	reg := Registry{
		Sources: make([]domain.Source, 0, len(raw.Sources)),
		Colors:  DefaultColors(),
	}

	seen := make(map[string]struct{}, len(raw.Sources))
	var errs []error

	for i, s := range raw.Sources {
		src := domain.Source{
			Name:     strings.TrimSpace(s.Name),
			URL:      strings.TrimSpace(s.URL),
			Category: strings.TrimSpace(s.Category),
		}

		if src.Name == "" || src.URL == "" {
			errs = append(errs, fmt.Errorf("source #%d: name and url are required", i+1))
			continue
		}

		if _, ok := seen[src.Name]; ok {
			errs = append(errs, fmt.Errorf("source #%d: duplicate name %q", i+1, src.Name))
			continue
		}
		seen[src.Name] = struct{}{}

		reg.Sources = append(reg.Sources, src)
	}

	for category, color := range raw.Colors {
		category = strings.TrimSpace(category)
		color = strings.TrimSpace(color)
		if category == "" || color == "" {
			continue
		}

		reg.Colors[category] = color
	}

	if err := errors.Join(errs...); err != nil {
		return Registry{}, err
	}

	return reg, nil
}
