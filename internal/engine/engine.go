// Package engine drives the static rule engine and normalises its output into
// per-file diagnostics.
package engine

import (
	"context"
	"strings"

	"themesniff/internal/diagnostics"
	"themesniff/internal/runconfig"
)

// Options are handed to the engine alongside standards and files.
type Options struct {
	IgnoreAnnotations bool
	VersionFloor      string
	TextDomains       []string
	Prefixes          string
	Parallelism       int
	ShowWarnings      bool
	// IgnoredPatterns are anchored to the theme directory.
	IgnoredPatterns   []string
	Extensions        []string

	// Raw asks for the engine's own human report instead of parsed results.
	Raw bool
}

// OptionsFrom derives engine options from a run configuration.
func OptionsFrom(rc *runconfig.RunConfiguration, extensions []string) Options {
	return Options{
		IgnoreAnnotations: rc.IgnoreAnnotations,
		VersionFloor:      rc.VersionFloor(),
		TextDomains:       append([]string(nil), rc.TextDomains...),
		Prefixes:          rc.Prefixes,
		Parallelism:       rc.Parallelism,
		ShowWarnings:      rc.ShowWarnings,
		IgnoredPatterns:   rc.EngineIgnorePatterns(),
		Extensions:        append([]string(nil), extensions...),
		Raw:               rc.Raw,
	}
}

// Fingerprint identifies everything besides file content that can change an
// engine's verdict on a file.
func (o Options) Fingerprint(engineName string, standards []string) string {
	var b strings.Builder
	b.WriteString(engineName)
	b.WriteString("|s=")
	b.WriteString(strings.Join(standards, ","))
	b.WriteString("|v=")
	b.WriteString(o.VersionFloor)
	b.WriteString("|td=")
	b.WriteString(strings.Join(o.TextDomains, ","))
	b.WriteString("|p=")
	b.WriteString(o.Prefixes)
	if o.IgnoreAnnotations {
		b.WriteString("|ia")
	}
	if o.ShowWarnings {
		b.WriteString("|w")
	}
	return b.String()
}

// Output is a single engine run.
type Output struct {
	Totals diagnostics.Totals
	Files  map[string]diagnostics.FileDiagnostics

	// Raw is set instead of Files when Options.Raw was requested.
	Raw []byte
}

// Engine runs rule standards over files. A problem with one file must be
// reported as a diagnostic on that file; an error return means the engine
// itself could not run.
type Engine interface {
	Name() string
	Run(ctx context.Context, standards []string, files []string, opts Options) (*Output, error)
}
