package metadata

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed tags.yaml
var defaultTagsYAML []byte

// TagLists are the two taxonomy allow-lists.
type TagLists struct {
	Subject []string `yaml:"subject_tags"`
	Allowed []string `yaml:"allowed_tags"`

	subject map[string]bool
	allowed map[string]bool
}

// NewTagLists builds lists from explicit slices. Entries are case-folded.
func NewTagLists(subject, allowed []string) *TagLists {
	t := &TagLists{Subject: subject, Allowed: allowed}
	t.index()
	return t
}

func (t *TagLists) index() {
	t.subject = make(map[string]bool, len(t.Subject))
	for _, s := range t.Subject {
		t.subject[strings.ToLower(s)] = true
	}
	t.allowed = make(map[string]bool, len(t.Allowed))
	for _, s := range t.Allowed {
		t.allowed[strings.ToLower(s)] = true
	}
}

// IsSubject reports whether tag is a subject tag.
func (t *TagLists) IsSubject(tag string) bool { return t.subject[tag] }

// IsAllowed reports whether tag is in the general allow-list.
func (t *TagLists) IsAllowed(tag string) bool { return t.allowed[tag] }

// ParseTagLists decodes YAML tag lists.
func ParseTagLists(data []byte) (*TagLists, error) {
	var t TagLists
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to parse tag lists: %w", err)
	}
	if len(t.Subject) == 0 && len(t.Allowed) == 0 {
		return nil, fmt.Errorf("tag lists are empty")
	}
	t.index()
	return &t, nil
}

// DefaultTagLists returns the built-in taxonomy.
func DefaultTagLists() *TagLists {
	t, err := ParseTagLists(defaultTagsYAML)
	if err != nil {
		panic(err) // embedded file is part of the build
	}
	return t
}

// LoadTagLists reads lists from path, or returns the defaults when path is
// empty.
func LoadTagLists(path string) (*TagLists, error) {
	if path == "" {
		return DefaultTagLists(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tag lists: %w", err)
	}
	return ParseTagLists(data)
}
