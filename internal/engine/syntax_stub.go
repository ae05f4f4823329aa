//go:build !cgo

package engine

import (
	"context"
	stderrors "errors"
	"log/slog"

	"themesniff/internal/errors"
)

// ErrNoCGO is returned when the built-in engine is unavailable due to missing CGO.
var ErrNoCGO = stderrors.New("the builtin engine requires CGO (tree-sitter)")

// Syntax is a stub for non-CGO builds.
type Syntax struct {
	logger *slog.Logger
}

// NewSyntax creates the stub engine.
func NewSyntax(logger *slog.Logger) *Syntax {
	return &Syntax{logger: logger}
}

// Name implements Engine.
func (s *Syntax) Name() string { return "builtin" }

// SyntaxAvailable returns false when CGO is disabled.
func SyntaxAvailable() bool { return false }

// Run always fails: the engine cannot start.
func (s *Syntax) Run(ctx context.Context, standards []string, files []string, opts Options) (*Output, error) {
	return nil, errors.New(errors.EngineFatal, "builtin engine unavailable", ErrNoCGO)
}
