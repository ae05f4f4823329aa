//go:build cgo

package engine

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/css"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/php"
	"golang.org/x/sync/errgroup"

	"themesniff/internal/diagnostics"
)

// SyntaxSource is the rule id attached to parse failures.
const SyntaxSource = "Themesniff.Syntax.ParseError"

// maxSyntaxErrorsPerFile caps the messages for a badly broken file.
const maxSyntaxErrorsPerFile = 20

// Syntax is a built-in engine that parses PHP, JavaScript and CSS with
// tree-sitter and reports every parse error. It knows no coding standards;
// the selected standards are accepted and ignored.
type Syntax struct {
	logger *slog.Logger
}

// NewSyntax creates the built-in engine.
func NewSyntax(logger *slog.Logger) *Syntax {
	return &Syntax{logger: logger}
}

// Name implements Engine.
func (s *Syntax) Name() string { return "builtin" }

// SyntaxAvailable reports whether the built-in engine can run.
func SyntaxAvailable() bool { return true }

func languageFor(path string) *sitter.Language {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".php", ".inc":
		return php.GetLanguage()
	case ".js", ".mjs":
		return javascript.GetLanguage()
	case ".css":
		return css.GetLanguage()
	default:
		return nil
	}
}

// Run implements Engine. Files are parsed by a bounded worker pool; each
// worker writes only its own slot.
func (s *Syntax) Run(ctx context.Context, standards []string, files []string, opts Options) (*Output, error) {
	workers := opts.Parallelism
	if workers < 1 {
		workers = 8
	}

	results := make([]diagnostics.FileDiagnostics, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, path := range files {
		g.Go(func() error {
			results[i] = s.checkFile(gctx, path, opts.ShowWarnings)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := &Output{Files: make(map[string]diagnostics.FileDiagnostics, len(files))}
	for _, fd := range results {
		out.Files[fd.Path] = fd
		out.Totals.Errors += fd.ErrorCount
		out.Totals.Warnings += fd.WarningCount
	}

	if opts.Raw {
		out.Raw = renderRaw(files, out)
		out.Files = nil
	}

	s.logger.Debug("Syntax check complete", "files", len(files), "errors", out.Totals.Errors)
	return out, nil
}

func (s *Syntax) checkFile(ctx context.Context, path string, showWarnings bool) diagnostics.FileDiagnostics {
	fd := diagnostics.NewFileDiagnostics(path)

	lang := languageFor(path)
	if lang == nil {
		return fd
	}

	source, err := os.ReadFile(path)
	if err != nil {
		fd.Add(diagnostics.Error(fmt.Sprintf("The file could not be read: %v", err)))
		return fd
	}

	parser := sitter.NewParser()
	parser.SetLanguage(lang)

	tree, err := parser.ParseCtx(ctx, nil, source)
	if err != nil {
		fd.Add(diagnostics.Error(fmt.Sprintf("The file could not be parsed: %v", err)))
		return fd
	}

	root := tree.RootNode()
	if !root.HasError() {
		return fd
	}

	collectErrors(root, &fd)

	if showWarnings && len(fd.Messages) >= maxSyntaxErrorsPerFile {
		fd.Add(diagnostics.Warning(fmt.Sprintf("Stopped after %d syntax errors.", maxSyntaxErrorsPerFile)))
	}
	return fd
}

func collectErrors(n *sitter.Node, fd *diagnostics.FileDiagnostics) {
	if fd.ErrorCount >= maxSyntaxErrorsPerFile {
		return
	}

	if n.Type() == "ERROR" || n.IsMissing() {
		text := "Syntax error, unexpected input."
		if n.IsMissing() {
			text = fmt.Sprintf("Syntax error, missing %q.", n.Type())
		}
		pos := n.StartPoint()
		msg := diagnostics.Error(text)
		msg.Line = int(pos.Row) + 1
		msg.Column = int(pos.Column) + 1
		msg.Source = SyntaxSource
		fd.Add(msg)
		return
	}

	if !n.HasError() {
		return
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		collectErrors(n.Child(i), fd)
	}
}
