package runconfig

import (
	_ "embed"
	"fmt"

	"github.com/BurntSushi/toml"
)

//go:embed standards.toml
var standardsTOML []byte

// Standard is one registry entry.
type Standard struct {
	ID          string `toml:"id" json:"id"`
	Label       string `toml:"label" json:"label"`
	Name        string `toml:"name" json:"name"`
	Description string `toml:"description" json:"description"`
	Default     bool   `toml:"default" json:"default"`
}

// Registry maps caller-facing standard ids to engine labels.
type Registry struct {
	standards []Standard
	byID      map[string]Standard
}

type registryFile struct {
	Standards []Standard `toml:"standard"`
}

// ParseRegistry decodes a TOML registry.
func ParseRegistry(data []byte) (*Registry, error) {
	var f registryFile
	if _, err := toml.Decode(string(data), &f); err != nil {
		return nil, fmt.Errorf("failed to parse standards registry: %w", err)
	}

	r := &Registry{byID: make(map[string]Standard, len(f.Standards))}
	for _, s := range f.Standards {
		if s.ID == "" || s.Label == "" {
			return nil, fmt.Errorf("standard entry needs both id and label: %+v", s)
		}
		if _, dup := r.byID[s.ID]; dup {
			return nil, fmt.Errorf("duplicate standard id %q", s.ID)
		}
		r.byID[s.ID] = s
		r.standards = append(r.standards, s)
	}
	return r, nil
}

// DefaultRegistry returns the built-in registry.
func DefaultRegistry() *Registry {
	r, err := ParseRegistry(standardsTOML)
	if err != nil {
		panic(err) // embedded file is part of the build
	}
	return r
}

// Lookup returns the entry for id.
func (r *Registry) Lookup(id string) (Standard, bool) {
	s, ok := r.byID[id]
	return s, ok
}

// All returns every entry in declaration order.
func (r *Registry) All() []Standard {
	return append([]Standard(nil), r.standards...)
}

// Defaults returns the ids flagged as default.
func (r *Registry) Defaults() []string {
	var ids []string
	for _, s := range r.standards {
		if s.Default {
			ids = append(ids, s.ID)
		}
	}
	return ids
}

// Labels maps ids to engine labels in the given order. Unknown ids are
// returned separately; a label is never repeated.
func (r *Registry) Labels(ids []string) (labels []string, unknown []string) {
	seen := make(map[string]bool)
	for _, id := range ids {
		s, ok := r.byID[id]
		if !ok {
			unknown = append(unknown, id)
			continue
		}
		if seen[s.Label] {
			continue
		}
		seen[s.Label] = true
		labels = append(labels, s.Label)
	}
	return labels, unknown
}
