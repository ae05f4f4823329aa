// Package screenshot validates the theme screenshot asset.
package screenshot

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg" // register decoder
	_ "image/png"  // register decoder
	"log/slog"
	"os"
	"path/filepath"

	"themesniff/internal/diagnostics"
	"themesniff/internal/runconfig"
)

// Size limits for the screenshot.
const (
	MaxWidth  = 1200
	MaxHeight = 900
)

// Candidates are checked in order; the first that exists is validated.
var Candidates = []string{"screenshot.png", "screenshot.jpg", "screenshot.jpeg"}

// Validator checks the screenshot.
type Validator struct {
	logger *slog.Logger
}

// NewValidator creates a screenshot validator.
func NewValidator(logger *slog.Logger) *Validator {
	return &Validator{logger: logger}
}

// Name identifies the validator in logs.
func (v *Validator) Name() string { return "screenshot" }

// Validate implements the validator contract for a resolved run.
func (v *Validator) Validate(ctx context.Context, rc *runconfig.RunConfiguration) (*diagnostics.Result, error) {
	return v.Results(rc.ThemeDir(), rc.ShowWarnings)
}

// Results checks the screenshot in themeDir. A missing screenshot is one
// error keyed by the preferred name.
func (v *Validator) Results(themeDir string, showWarnings bool) (*diagnostics.Result, error) {
	path := find(themeDir)
	if path == "" {
		fd := diagnostics.NewFileDiagnostics(filepath.Join(themeDir, Candidates[0]),
			diagnostics.Error("The theme is missing a screenshot. Add a screenshot.png or screenshot.jpg file to the theme root."))
		return diagnostics.NewResult(0, fd), nil
	}

	fd := diagnostics.NewFileDiagnostics(path, v.check(path, showWarnings)...)
	v.logger.Debug("Screenshot checked", "path", path, "errors", fd.ErrorCount, "warnings", fd.WarningCount)
	return diagnostics.NewResult(0, fd), nil
}

func find(themeDir string) string {
	for _, name := range Candidates {
		p := filepath.Join(themeDir, name)
		if info, err := os.Stat(p); err == nil && info.Mode().IsRegular() {
			return p
		}
	}
	return ""
}

func (v *Validator) check(path string, showWarnings bool) []diagnostics.Message {
	f, err := os.Open(path)
	if err != nil {
		return []diagnostics.Message{diagnostics.Error(
			fmt.Sprintf("The screenshot could not be read: %v", err))}
	}
	defer f.Close()

	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		return []diagnostics.Message{diagnostics.Error(
			fmt.Sprintf("The screenshot is not a valid PNG or JPEG image: %v", err))}
	}

	return CheckDimensions(format, cfg.Width, cfg.Height, showWarnings)
}

// CheckDimensions applies the size and aspect-ratio rules.
func CheckDimensions(format string, width, height int, showWarnings bool) []diagnostics.Message {
	var msgs []diagnostics.Message

	if format != "png" && format != "jpeg" {
		msgs = append(msgs, diagnostics.Error(
			fmt.Sprintf("The screenshot must be a PNG or JPEG image, found %s.", format)))
	}

	if width > MaxWidth || height > MaxHeight {
		msgs = append(msgs, diagnostics.Error(fmt.Sprintf(
			"The screenshot is %dx%d pixels. It should not be larger than %dx%d.",
			width, height, MaxWidth, MaxHeight)))
	}

	if showWarnings && width*3 != height*4 {
		msgs = append(msgs, diagnostics.Warning(fmt.Sprintf(
			"The screenshot is %dx%d pixels. It should have a 4:3 aspect ratio, for example %dx%d.",
			width, height, MaxWidth, MaxHeight)))
	}

	return msgs
}
