// Package aggregate merges validator results into the final report.
package aggregate

import (
	"log/slog"
	"strings"

	"themesniff/internal/diagnostics"
)

// Source names a result producer.
type Source string

const (
	SourceSelector      Source = "selector"
	SourceAsset         Source = "asset"
	SourceDocumentation Source = "documentation"
	SourceEngine        Source = "engine"
	SourceMetadata      Source = "metadata"
)

// Priority decides key collisions: the higher source wins.
func (s Source) Priority() int {
	switch s {
	case SourceMetadata:
		return 4
	case SourceEngine:
		return 3
	case SourceDocumentation:
		return 2
	case SourceAsset:
		return 1
	default:
		return 0
	}
}

// Input is one source's result.
type Input struct {
	Source Source
	Result *diagnostics.Result
}

// Report is the merged, filtered result.
type Report struct {
	Totals diagnostics.Totals            `json:"totals"`
	Files  []diagnostics.FileDiagnostics `json:"files"`
}

// DefaultPassThroughExtensions are retained even when clean.
var DefaultPassThroughExtensions = []string{".js"}

// Aggregator merges inputs. It has no state beyond its options and may be
// reused.
type Aggregator struct {
	passThrough []string
	logger      *slog.Logger
}

// New creates an aggregator with the default pass-through extensions.
func New(logger *slog.Logger) *Aggregator {
	return &Aggregator{passThrough: DefaultPassThroughExtensions, logger: logger}
}

// WithPassThrough returns a copy using the given extensions.
func (a *Aggregator) WithPassThrough(exts ...string) *Aggregator {
	return &Aggregator{passThrough: exts, logger: a.logger}
}

type slot struct {
	source Source
	file   diagnostics.FileDiagnostics
}

// Merge folds inputs in the order given. Totals count every merged entry
// before the retention filter, so dropping clean files never changes them.
// Fixable is the sum of what each source reported.
func (a *Aggregator) Merge(inputs ...Input) *Report {
	var order []string
	slots := make(map[string]*slot)

	var fixable int
	var reported diagnostics.Totals

	for _, in := range inputs {
		if in.Result == nil {
			continue
		}
		fixable += in.Result.Totals.Fixable
		reported = reported.Add(in.Result.Totals)

		for _, fd := range in.Result.Files {
			existing, ok := slots[fd.Path]
			if !ok {
				order = append(order, fd.Path)
				slots[fd.Path] = &slot{source: in.Source, file: fd.Clone()}
				continue
			}

			winner := existing.source
			if in.Source.Priority() >= existing.source.Priority() {
				winner = in.Source
				existing.source = in.Source
				existing.file = fd.Clone()
			}
			a.logger.Warn("Result collision",
				"path", fd.Path,
				"source", in.Source,
				"kept", winner)
		}
	}

	report := &Report{Files: make([]diagnostics.FileDiagnostics, 0, len(order))}
	for _, path := range order {
		s := slots[path]
		report.Totals.Errors += s.file.ErrorCount
		report.Totals.Warnings += s.file.WarningCount
	}
	report.Totals.Fixable = fixable

	if reported.Errors != report.Totals.Errors || reported.Warnings != report.Totals.Warnings {
		a.logger.Debug("Source totals differ from merged entries",
			"reportedErrors", reported.Errors,
			"reportedWarnings", reported.Warnings,
			"errors", report.Totals.Errors,
			"warnings", report.Totals.Warnings)
	}

	for _, path := range order {
		fd := slots[path].file
		if !a.retain(fd) {
			continue
		}
		report.Files = append(report.Files, fd)
	}

	a.logger.Debug("Results merged",
		"entries", len(order),
		"retained", len(report.Files),
		"errors", report.Totals.Errors,
		"warnings", report.Totals.Warnings)

	return report
}

// retain keeps entries with findings and entries with a pass-through
// extension.
func (a *Aggregator) retain(fd diagnostics.FileDiagnostics) bool {
	if !fd.Clean() {
		return true
	}
	lower := strings.ToLower(fd.Path)
	for _, ext := range a.passThrough {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}
