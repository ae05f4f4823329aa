package engine

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"themesniff/internal/diagnostics"
	"themesniff/internal/errors"
	"themesniff/internal/runconfig"
	"themesniff/internal/storage"
)

// ResultCache is the subset of storage.ResultCache the adapter needs.
type ResultCache interface {
	Get(ctx context.Context, key string) (*storage.Entry, error)
	PutAll(ctx context.Context, engine string, entries map[string]storage.Entry) error
}

// Adapter invokes an Engine once per run and turns its output into an
// ordered, count-consistent result.
type Adapter struct {
	engine Engine
	cache  ResultCache
	logger *slog.Logger
}

// NewAdapter creates an adapter. cache may be nil.
func NewAdapter(e Engine, cache ResultCache, logger *slog.Logger) *Adapter {
	return &Adapter{engine: e, cache: cache, logger: logger}
}

// Engine returns the wrapped engine.
func (a *Adapter) Engine() Engine {
	return a.engine
}

// Run analyses files and returns one entry per file the engine reported on,
// in input order. Any error is an EngineFatal SniffError.
func (a *Adapter) Run(ctx context.Context, rc *runconfig.RunConfiguration, files []string, extensions []string) (*diagnostics.Result, error) {
	if len(files) == 0 {
		a.logger.Debug("No files to analyse, skipping engine")
		return diagnostics.Empty(), nil
	}

	opts := OptionsFrom(rc, extensions)
	opts.Raw = false

	hits, misses, keys := a.lookup(ctx, rc.Standards, files, opts)

	byPath := make(map[string]diagnostics.FileDiagnostics, len(files))
	fixable := 0
	for path, e := range hits {
		fd := e.File.Clone()
		fd.Path = path
		byPath[path] = fd
		fixable += e.Fixable
	}

	if len(misses) > 0 {
		out, err := a.engine.Run(ctx, rc.Standards, misses, opts)
		if err != nil {
			return nil, asEngineFatal(err)
		}

		aliases := realPathAliases(misses)
		fresh := make(map[string]storage.Entry, len(out.Files))
		for path, fd := range out.Files {
			if input, ok := aliases[path]; ok {
				path = input
			}
			norm := a.normalise(path, fd)
			byPath[path] = norm
			if key, ok := keys[path]; ok {
				fresh[key] = storage.Entry{File: norm, Fixable: norm.FixableCount()}
			}
		}
		fixable += out.Totals.Fixable

		a.store(ctx, fresh)
	}

	a.logger.Info("Engine analysis complete",
		"engine", a.engine.Name(),
		"files", len(files),
		"cached", len(hits),
		"analysed", len(misses))

	return diagnostics.NewResult(fixable, orderByInput(files, byPath)...), nil
}

// RunRaw returns the engine's own report verbatim. The cache is bypassed.
func (a *Adapter) RunRaw(ctx context.Context, rc *runconfig.RunConfiguration, files []string, extensions []string) ([]byte, error) {
	if len(files) == 0 {
		return []byte{}, nil
	}

	opts := OptionsFrom(rc, extensions)
	opts.Raw = true

	out, err := a.engine.Run(ctx, rc.Standards, files, opts)
	if err != nil {
		return nil, asEngineFatal(err)
	}
	if out.Raw == nil {
		return []byte{}, nil
	}
	return out.Raw, nil
}

// lookup splits files into cache hits and misses. Without a cache every file
// is a miss. keys maps a path to its cache key.
func (a *Adapter) lookup(ctx context.Context, standards, files []string, opts Options) (map[string]*storage.Entry, []string, map[string]string) {
	hits := make(map[string]*storage.Entry)
	keys := make(map[string]string)
	if a.cache == nil {
		return hits, files, keys
	}

	fingerprint := opts.Fingerprint(a.engine.Name(), standards)
	var misses []string

	for _, path := range files {
		content, err := os.ReadFile(path)
		if err != nil {
			// The engine reports unreadable files itself.
			misses = append(misses, path)
			continue
		}
		key := storage.Key(path, content, fingerprint)
		keys[path] = key

		entry, err := a.cache.Get(ctx, key)
		if err != nil {
			a.logger.Warn("Cache lookup failed", "file", path, "error", err)
		}
		if entry == nil {
			misses = append(misses, path)
			continue
		}
		hits[path] = entry
	}
	return hits, misses, keys
}

func (a *Adapter) store(ctx context.Context, entries map[string]storage.Entry) {
	if a.cache == nil || len(entries) == 0 {
		return
	}
	if err := a.cache.PutAll(ctx, a.engine.Name(), entries); err != nil {
		a.logger.Warn("Failed to store engine results", "error", err)
	}
}

// normalise rebuilds the entry so its counts match its messages.
func (a *Adapter) normalise(path string, fd diagnostics.FileDiagnostics) diagnostics.FileDiagnostics {
	norm := diagnostics.NewFileDiagnostics(path, fd.Messages...)
	if norm.ErrorCount != fd.ErrorCount || norm.WarningCount != fd.WarningCount {
		a.logger.Debug("Engine counts disagree with messages",
			"file", path,
			"reportedErrors", fd.ErrorCount,
			"reportedWarnings", fd.WarningCount,
			"errors", norm.ErrorCount,
			"warnings", norm.WarningCount)
	}
	return norm
}

// orderByInput returns entries for files in input order, followed by any
// paths the engine reported that were not in the input, sorted.
func orderByInput(files []string, byPath map[string]diagnostics.FileDiagnostics) []diagnostics.FileDiagnostics {
	out := make([]diagnostics.FileDiagnostics, 0, len(byPath))
	used := make(map[string]bool, len(byPath))

	for _, path := range files {
		fd, ok := byPath[path]
		if !ok || used[path] {
			continue
		}
		used[path] = true
		out = append(out, fd)
	}

	var extra []string
	for path := range byPath {
		if !used[path] {
			extra = append(extra, path)
		}
	}
	sort.Strings(extra)
	for _, path := range extra {
		out = append(out, byPath[path])
	}
	return out
}

// realPathAliases maps the resolved form of every input path that goes
// through a symlink back to the input path. Engines such as phpcs report
// files by their real path.
func realPathAliases(files []string) map[string]string {
	aliases := make(map[string]string)
	for _, path := range files {
		resolved, err := filepath.EvalSymlinks(path)
		if err != nil || resolved == path {
			continue
		}
		aliases[resolved] = path
	}
	return aliases
}

func asEngineFatal(err error) error {
	if errors.IsCode(err, errors.EngineFatal) {
		return err
	}
	return errors.New(errors.EngineFatal, "rule engine failed", err)
}
