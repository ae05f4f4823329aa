// Package sniffer runs a complete theme check: file selection, run
// configuration, the validators in parallel, and aggregation.
package sniffer

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"themesniff/internal/aggregate"
	"themesniff/internal/diagnostics"
	"themesniff/internal/engine"
	"themesniff/internal/errors"
	"themesniff/internal/paths"
	"themesniff/internal/runconfig"
	"themesniff/internal/selector"
)

// Validator produces per-file diagnostics for a resolved run. An error
// return never fails the run. It is reported as one error on the file the
// validator checks.
type Validator interface {
	Name() string
	Validate(ctx context.Context, rc *runconfig.RunConfiguration) (*diagnostics.Result, error)
}

// Registered binds a validator to its aggregation source. File is the
// theme-relative name a validator error is reported on.
type Registered struct {
	Source    aggregate.Source
	Validator Validator
	File      string
}

// Request is a single run.
type Request = runconfig.Flags

// ListerFunc returns a lister rooted at a theme directory.
type ListerFunc func(themeDir string) selector.Lister

// Deps are the collaborators of a Sniffer.
type Deps struct {
	Selector   *selector.Selector
	Resolver   *runconfig.Resolver
	Adapter    *engine.Adapter
	Validators []Registered
	Aggregator *aggregate.Aggregator
	Extensions []string
	NewLister  ListerFunc
	Logger     *slog.Logger
}

// Sniffer orchestrates runs. It holds no per-run state and is safe for
// concurrent use.
type Sniffer struct {
	deps Deps
}

// New creates a sniffer. A nil NewLister lists the filesystem.
func New(deps Deps) *Sniffer {
	if deps.NewLister == nil {
		deps.NewLister = func(dir string) selector.Lister { return selector.NewDirLister(dir) }
	}
	if len(deps.Extensions) == 0 {
		deps.Extensions = []string{"php"}
	}
	return &Sniffer{deps: deps}
}

// Run performs a check. Operation-level failures come back as an
// unsuccessful Response, never as a partial report.
func (s *Sniffer) Run(ctx context.Context, req Request) *Response {
	runID := uuid.NewString()
	logger := s.deps.Logger.With("run_id", runID, "theme", req.ThemeSlug)
	logger.Info("Run started", "standards", req.Standards, "raw", req.Raw)

	resp, err := s.run(ctx, req, logger)
	if err != nil {
		logger.Error("Run failed", "code", errors.CodeOf(err), "error", err)
		return Failure(err)
	}

	logger.Info("Run complete",
		"errors", resp.Totals.Errors,
		"warnings", resp.Totals.Warnings,
		"files", len(resp.Files))
	return resp
}

func (s *Sniffer) run(ctx context.Context, req Request, logger *slog.Logger) (*Response, error) {
	root, themeDir, err := s.preflight(req)
	if err != nil {
		return nil, err
	}
	req.ThemeRoot = root

	lister := s.deps.NewLister(themeDir)
	if ex, ok := lister.(interface{ Exists() bool }); ok && !ex.Exists() {
		return nil, errors.Newf(errors.ConfigError, "The theme %q was not found in %s.", req.ThemeSlug, root)
	}
	listed, err := lister.List(s.deps.Extensions, -1, false)
	if err != nil {
		return nil, errors.New(errors.ConfigError, "The theme files could not be listed.", err)
	}

	sel := s.deps.Selector.Select(listed)

	rc, unknown, err := s.deps.Resolver.Resolve(req, sel.Files)
	if err != nil {
		return nil, err
	}
	sel.Ignore(rc.Ignored)
	warnings := unknownStandardWarnings(unknown)

	if rc.Raw {
		data, err := s.deps.Adapter.RunRaw(ctx, rc, sel.Paths(), s.deps.Extensions)
		if err != nil {
			return nil, err
		}
		return &Response{Success: true, Raw: true, Data: string(data), Warnings: warnings, Excluded: sel.Excluded}, nil
	}

	inputs, err := s.fanOut(ctx, rc, sel, logger)
	if err != nil {
		return nil, err
	}

	report := s.deps.Aggregator.Merge(inputs...)
	return &Response{
		Success:  true,
		Totals:   report.Totals,
		Files:    report.Files,
		Warnings: warnings,
		Excluded: sel.Excluded,
	}, nil
}

// preflight rejects requests that cannot name a theme directory and returns
// the absolute root and theme directory. Symlinks in the root are resolved
// so file paths match the real paths engines report.
func (s *Sniffer) preflight(req Request) (string, string, error) {
	slug := strings.TrimSpace(req.ThemeSlug)
	if slug == "" {
		return "", "", errors.Newf(errors.ConfigError, "Theme is not selected.")
	}
	if len(req.Standards) == 0 {
		return "", "", errors.Newf(errors.ConfigError, "Please select at least one standard.")
	}

	root, err := filepath.Abs(req.ThemeRoot)
	if err != nil {
		return "", "", errors.New(errors.ConfigError, "The theme root is invalid.", err)
	}
	if resolved, err := filepath.EvalSymlinks(root); err == nil {
		root = resolved
	}
	themeDir := filepath.Join(root, slug)
	if themeDir == root || !paths.IsWithin(themeDir, root) {
		return "", "", errors.Newf(errors.ConfigError, "The theme %q is not inside %s.", slug, root)
	}
	return root, themeDir, nil
}

// fanOut runs the engine and every validator concurrently. Each task writes
// only its own slot. Only an engine failure aborts the run.
func (s *Sniffer) fanOut(ctx context.Context, rc *runconfig.RunConfiguration, sel *selector.Selection, logger *slog.Logger) ([]aggregate.Input, error) {
	validated := make([]*diagnostics.Result, len(s.deps.Validators))
	var engineResult *diagnostics.Result

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		res, err := s.deps.Adapter.Run(gctx, rc, sel.Paths(), s.deps.Extensions)
		if err != nil {
			return err
		}
		engineResult = res
		return nil
	})

	for i, reg := range s.deps.Validators {
		g.Go(func() error {
			res, err := reg.Validator.Validate(gctx, rc)
			if err != nil {
				logger.Warn("Validator failed", "validator", reg.Validator.Name(), "error", err)
				validated[i] = validatorFailure(rc, reg, err)
				return nil
			}
			validated[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	inputs := make([]aggregate.Input, 0, len(s.deps.Validators)+2)
	inputs = append(inputs,
		aggregate.Input{Source: aggregate.SourceEngine, Result: engineResult},
		aggregate.Input{Source: aggregate.SourceSelector, Result: diagnostics.NewResult(0, sel.Diagnostics...)},
	)
	for i, reg := range s.deps.Validators {
		inputs = append(inputs, aggregate.Input{Source: reg.Source, Result: validated[i]})
	}
	return inputs, nil
}

// validatorFailure reports a validator error as a diagnostic on the file it
// checks.
func validatorFailure(rc *runconfig.RunConfiguration, reg Registered, err error) *diagnostics.Result {
	path := rc.ThemeDir()
	if reg.File != "" {
		path = filepath.Join(path, filepath.FromSlash(reg.File))
	}
	return diagnostics.NewResult(0, diagnostics.NewFileDiagnostics(path,
		diagnostics.Error(fmt.Sprintf("The %s check could not be completed: %v", reg.Validator.Name(), err))))
}

func unknownStandardWarnings(unknown []string) []string {
	if len(unknown) == 0 {
		return nil
	}
	out := make([]string, len(unknown))
	for i, id := range unknown {
		out[i] = fmt.Sprintf("Unknown standard %q was ignored.", id)
	}
	return out
}
