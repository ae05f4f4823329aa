// Package runconfig builds the immutable configuration of a single run from
// caller flags and signals found in the selected files.
package runconfig

import (
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"

	"themesniff/internal/config"
	"themesniff/internal/errors"
	"themesniff/internal/selector"
)

// DefaultMinPHPVersion is the language floor when the caller gives none.
const DefaultMinPHPVersion = "5.6"

// DefaultParallelism is the engine worker count when the caller gives none.
const DefaultParallelism = 8

// Flags are the caller-supplied run options.
type Flags struct {
	ThemeRoot         string
	ThemeSlug         string
	Standards         []string // registry ids
	Prefixes          string
	MinPHPVersion     string
	HideWarnings      bool
	IgnoreAnnotations bool
	Raw               bool
	Parallelism       int
	IgnoredPatterns   []string
}

// RunConfiguration is built once per run and never modified afterwards.
// Components receive it by pointer and must treat it as read-only.
type RunConfiguration struct {
	ThemeRoot string
	ThemeSlug string

	// Standards holds engine labels, never empty.
	Standards []string

	// TextDomains starts with the theme slug; framework domains follow.
	TextDomains []string

	Prefixes             string
	MinPHPVersion        string
	ShowWarnings         bool
	IgnoreAnnotations    bool
	ExcludedPathPatterns []string
	Parallelism          int
	Raw                  bool

	ignore []*regexp.Regexp
}

// ThemeDir is the absolute theme directory.
func (c *RunConfiguration) ThemeDir() string {
	return filepath.Join(c.ThemeRoot, c.ThemeSlug)
}

// VersionFloor is the engine's testVersion argument ("5.6-").
func (c *RunConfiguration) VersionFloor() string {
	return c.MinPHPVersion + "-"
}

// Resolver turns flags into a RunConfiguration.
type Resolver struct {
	registry  *Registry
	detectors []Detector
	logger    *slog.Logger
}

// NewResolver creates a resolver. Nil arguments fall back to the built-in
// registry and detectors.
func NewResolver(registry *Registry, detectors []Detector, logger *slog.Logger) *Resolver {
	if registry == nil {
		registry = DefaultRegistry()
	}
	if detectors == nil {
		detectors = DefaultDetectors()
	}
	return &Resolver{registry: registry, detectors: detectors, logger: logger}
}

// Registry returns the standards registry in use.
func (r *Resolver) Registry() *Registry {
	return r.registry
}

// Resolve builds the run configuration. Unknown standard ids are returned so
// the caller can report them; they only fail the run when nothing else is
// left.
func (r *Resolver) Resolve(flags Flags, files []selector.ThemeFile) (*RunConfiguration, []string, error) {
	slug := strings.TrimSpace(flags.ThemeSlug)
	if slug == "" {
		return nil, nil, errors.Newf(errors.ConfigError, "Theme is not selected.")
	}
	if len(flags.Standards) == 0 {
		return nil, nil, errors.Newf(errors.ConfigError, "Please select at least one standard.")
	}

	labels, unknown := r.registry.Labels(flags.Standards)
	for _, id := range unknown {
		r.logger.Warn("Unknown standard ignored", "standard", id)
	}
	if len(labels) == 0 {
		return nil, unknown, errors.Newf(errors.ConfigError,
			"None of the selected standards are known: %s", strings.Join(unknown, ", ")).
			WithDetails(unknown)
	}

	minPHP := strings.TrimSpace(flags.MinPHPVersion)
	if minPHP == "" {
		minPHP = DefaultMinPHPVersion
	}

	parallelism := flags.Parallelism
	if parallelism < 1 {
		parallelism = DefaultParallelism
	}

	patterns := flags.IgnoredPatterns
	if patterns == nil {
		patterns = config.DefaultIgnoredPatterns()
	}

	ignore, err := compileIgnorePatterns(patterns)
	if err != nil {
		return nil, unknown, errors.New(errors.ConfigError, "An ignore pattern is not a valid regular expression.", err)
	}

	rc := &RunConfiguration{
		ThemeRoot:            flags.ThemeRoot,
		ThemeSlug:            slug,
		Standards:            labels,
		TextDomains:          r.textDomains(slug, files),
		Prefixes:             strings.TrimSpace(flags.Prefixes),
		MinPHPVersion:        minPHP,
		ShowWarnings:         !flags.HideWarnings,
		IgnoreAnnotations:    flags.IgnoreAnnotations,
		ExcludedPathPatterns: append([]string(nil), patterns...),
		Parallelism:          parallelism,
		Raw:                  flags.Raw,
		ignore:               ignore,
	}

	r.logger.Debug("Run configuration resolved",
		"standards", rc.Standards,
		"textDomains", rc.TextDomains,
		"minPHP", rc.MinPHPVersion)

	return rc, unknown, nil
}

func (r *Resolver) textDomains(slug string, files []selector.ThemeFile) []string {
	domains := []string{slug}
	seen := map[string]bool{slug: true}
	for _, d := range r.detectors {
		for _, domain := range d.Detect(files) {
			if seen[domain] {
				continue
			}
			seen[domain] = true
			domains = append(domains, domain)
			r.logger.Debug("Framework detected", "textDomain", domain)
		}
	}
	return domains
}
