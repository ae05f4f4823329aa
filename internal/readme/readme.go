// Package readme validates a theme's readme.txt.
package readme

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"themesniff/internal/diagnostics"
	"themesniff/internal/runconfig"
)

// FileName is the documentation file checked.
const FileName = "readme.txt"

// RequiredFields must appear in the readme header block.
var RequiredFields = []string{
	"Requires at least",
	"Tested up to",
	"Requires PHP",
	"License",
	"License URI",
}

// versionFields must hold a dotted numeric version.
var versionFields = map[string]bool{
	"Requires at least": true,
	"Tested up to":      true,
	"Requires PHP":      true,
}

var (
	titleLine   = regexp.MustCompile(`^===\s*(.+?)\s*===$`)
	sectionLine = regexp.MustCompile(`^==\s*[^=].*==$`)
	fieldLine   = regexp.MustCompile(`^([A-Za-z][A-Za-z ]*?)\s*:\s*(.*)$`)
	versionLike = regexp.MustCompile(`^\d+(\.\d+)*$`)
)

// Readme is the parsed header block.
type Readme struct {
	Title  string
	Fields map[string]string
}

// Parse reads the title line and the fields before the first section.
func Parse(r io.Reader) (*Readme, error) {
	rd := &Readme{Fields: make(map[string]string)}

	scanner := bufio.NewScanner(r)
	first := true
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if first {
			first = false
			if m := titleLine.FindStringSubmatch(line); m != nil {
				rd.Title = m[1]
				continue
			}
		}
		if sectionLine.MatchString(line) {
			break
		}
		if m := fieldLine.FindStringSubmatch(line); m != nil {
			key := strings.TrimSpace(m[1])
			if _, seen := rd.Fields[key]; !seen {
				rd.Fields[key] = strings.TrimSpace(m[2])
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return rd, nil
}

// Validator checks readme.txt.
type Validator struct {
	logger *slog.Logger
}

// NewValidator creates a readme validator.
func NewValidator(logger *slog.Logger) *Validator {
	return &Validator{logger: logger}
}

// Name identifies the validator in logs.
func (v *Validator) Name() string { return "readme" }

// Validate implements the validator contract for a resolved run.
func (v *Validator) Validate(ctx context.Context, rc *runconfig.RunConfiguration) (*diagnostics.Result, error) {
	return v.Results(rc.ThemeDir(), rc.ShowWarnings)
}

// Results checks <themeDir>/readme.txt. A missing file is one error on the
// expected path.
func (v *Validator) Results(themeDir string, showWarnings bool) (*diagnostics.Result, error) {
	path := filepath.Join(themeDir, FileName)

	f, err := os.Open(path)
	if err != nil {
		msg := fmt.Sprintf("The %s file could not be read: %v", FileName, err)
		if os.IsNotExist(err) {
			msg = fmt.Sprintf("The theme is missing a %s file.", FileName)
		}
		return diagnostics.NewResult(0, diagnostics.NewFileDiagnostics(path, diagnostics.Error(msg))), nil
	}
	defer f.Close()

	rd, err := Parse(f)
	if err != nil {
		return diagnostics.NewResult(0, diagnostics.NewFileDiagnostics(path,
			diagnostics.Error(fmt.Sprintf("The %s file could not be read: %v", FileName, err)))), nil
	}

	fd := diagnostics.NewFileDiagnostics(path, v.Check(rd, showWarnings)...)
	v.logger.Debug("Readme checked", "errors", fd.ErrorCount, "warnings", fd.WarningCount)
	return diagnostics.NewResult(0, fd), nil
}

// Check runs the readme rules.
func (v *Validator) Check(rd *Readme, showWarnings bool) []diagnostics.Message {
	var msgs []diagnostics.Message

	if rd.Title == "" {
		msgs = append(msgs, diagnostics.Error(
			"The readme.txt must start with the theme name, formatted as: === Theme Name ==="))
	}

	for _, field := range RequiredFields {
		val := rd.Fields[field]
		if val == "" {
			msgs = append(msgs, diagnostics.Error(
				fmt.Sprintf("The %s field is missing from the readme.txt header.", field)))
			continue
		}
		if versionFields[field] && !versionLike.MatchString(val) && showWarnings {
			msgs = append(msgs, diagnostics.Warning(
				fmt.Sprintf("The %s value %q in readme.txt should be a version number such as 6.4.", field, val)))
		}
	}

	return msgs
}
