// Package catalog serves organization-independent reference data about the
// supported extraction backends.
package catalog

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"docextract/internal/domain"
	"docextract/internal/port"
)

//go:embed providers.yaml
var embedded []byte

type file struct {
	Providers []domain.ProviderInfo `yaml:"providers"`
}

// Catalog is an immutable, ordered list of provider entries.
type Catalog struct {
	entries []domain.ProviderInfo
	byName  map[string]int
}

var _ port.ProviderCatalog = (*Catalog)(nil)

// Load parses the embedded catalog.
func Load() (*Catalog, error) {
	return Parse(embedded)
}

// Parse decodes a catalog document. Every entry must name a known provider
// kind exactly once.
func Parse(data []byte) (*Catalog, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decoding provider catalog: %w", err)
	}

	c := &Catalog{byName: make(map[string]int, len(f.Providers))}
	for _, p := range f.Providers {
		kind, ok := domain.ParseProviderKind(p.Name)
		if !ok {
			return nil, fmt.Errorf("provider catalog: %q: %w", p.Name, domain.ErrUnknownProvider)
		}
		p.Name = string(kind)
		if _, dup := c.byName[p.Name]; dup {
			return nil, fmt.Errorf("provider catalog: duplicate entry %q", p.Name)
		}
		c.byName[p.Name] = len(c.entries)
		c.entries = append(c.entries, p)
	}
	return c, nil
}

// List returns a copy of every entry in file order.
func (c *Catalog) List() []domain.ProviderInfo {
	out := make([]domain.ProviderInfo, len(c.entries))
	for i, e := range c.entries {
		e.DocumentTypes = append([]string(nil), e.DocumentTypes...)
		out[i] = e
	}
	return out
}

// Get looks up an entry by provider name, case-insensitively.
func (c *Catalog) Get(name string) (domain.ProviderInfo, bool) {
	i, ok := c.byName[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return domain.ProviderInfo{}, false
	}
	e := c.entries[i]
	e.DocumentTypes = append([]string(nil), e.DocumentTypes...)
	return e, true
}
