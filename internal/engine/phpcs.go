package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"

	"themesniff/internal/diagnostics"
	"themesniff/internal/errors"
)

// PHPCS runs PHP_CodeSniffer as an external process.
type PHPCS struct {
	Binary string
	logger *slog.Logger
}

// NewPHPCS creates an engine for the given phpcs binary.
func NewPHPCS(binary string, logger *slog.Logger) *PHPCS {
	if binary == "" {
		binary = "phpcs"
	}
	return &PHPCS{Binary: binary, logger: logger}
}

// Name implements Engine.
func (p *PHPCS) Name() string { return "phpcs" }

// IsAvailable reports whether the binary can be found on PATH.
func (p *PHPCS) IsAvailable() bool {
	_, err := exec.LookPath(p.Binary)
	return err == nil
}

// Args builds the phpcs command line.
func (p *PHPCS) Args(standards []string, files []string, opts Options) []string {
	report := "json"
	if opts.Raw {
		report = "full"
	}

	args := []string{
		"--report=" + report,
		"--standard=" + strings.Join(standards, ","),
		"--no-cache",
		"--no-colors",
		"-s",
		"--runtime-set", "ignore_warnings_on_exit", "1",
	}

	if len(opts.Extensions) > 0 {
		exts := make([]string, len(opts.Extensions))
		for i, e := range opts.Extensions {
			e = strings.TrimPrefix(e, ".")
			exts[i] = e + "/PHP"
		}
		args = append(args, "--extensions="+strings.Join(exts, ","))
	}
	if opts.Parallelism > 1 {
		args = append(args, "--parallel="+strconv.Itoa(opts.Parallelism))
	}
	if opts.VersionFloor != "" {
		args = append(args, "--runtime-set", "testVersion", opts.VersionFloor)
	}
	if len(opts.TextDomains) > 0 {
		args = append(args, "--runtime-set", "text_domain", strings.Join(opts.TextDomains, ","))
	}
	if opts.Prefixes != "" {
		args = append(args, "--runtime-set", "prefixes", opts.Prefixes)
	}
	if !opts.ShowWarnings {
		args = append(args, "-n")
	}
	if opts.IgnoreAnnotations {
		args = append(args, "--ignore-annotations")
	}
	if len(opts.IgnoredPatterns) > 0 {
		args = append(args, "--ignore="+strings.Join(opts.IgnoredPatterns, ","))
	}

	return append(args, files...)
}

// Run implements Engine. Exit codes 0, 1 and 2 mean phpcs completed (no
// violations, violations, fixable violations); anything else is fatal.
func (p *PHPCS) Run(ctx context.Context, standards []string, files []string, opts Options) (*Output, error) {
	args := p.Args(standards, files, opts)
	p.logger.Debug("Running phpcs", "binary", p.Binary, "files", len(files), "standards", standards)

	cmd := exec.CommandContext(ctx, p.Binary, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		exitErr, ok := err.(*exec.ExitError)
		if !ok {
			return nil, errors.New(errors.EngineFatal, "phpcs could not be started", err)
		}
		if code := exitErr.ExitCode(); code > 2 || code < 0 {
			return nil, errors.New(errors.EngineFatal,
				fmt.Sprintf("phpcs failed with exit code %d: %s", code, firstLine(stderr.String(), stdout.String())), err)
		}
	}

	if opts.Raw {
		return &Output{Raw: stdout.Bytes()}, nil
	}

	out, err := ParsePHPCSReport(stdout.Bytes())
	if err != nil {
		return nil, errors.New(errors.EngineFatal, "phpcs produced an unreadable report", err)
	}
	return out, nil
}

type phpcsReport struct {
	Totals struct {
		Errors   int `json:"errors"`
		Warnings int `json:"warnings"`
		Fixable  int `json:"fixable"`
	} `json:"totals"`
	Files map[string]phpcsFile `json:"files"`
}

type phpcsFile struct {
	Errors   int            `json:"errors"`
	Warnings int            `json:"warnings"`
	Messages []phpcsMessage `json:"messages"`
}

type phpcsMessage struct {
	Message  string `json:"message"`
	Source   string `json:"source"`
	Severity int    `json:"severity"`
	Fixable  bool   `json:"fixable"`
	Type     string `json:"type"`
	Line     int    `json:"line"`
	Column   int    `json:"column"`
}

// ParsePHPCSReport converts a phpcs JSON report into engine output. The
// severity of each message is taken from its type.
func ParsePHPCSReport(data []byte) (*Output, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("empty report")
	}

	var report phpcsReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("failed to parse phpcs report: %w", err)
	}

	out := &Output{
		Totals: diagnostics.Totals{
			Errors:   report.Totals.Errors,
			Warnings: report.Totals.Warnings,
			Fixable:  report.Totals.Fixable,
		},
		Files: make(map[string]diagnostics.FileDiagnostics, len(report.Files)),
	}

	for path, f := range report.Files {
		fd := diagnostics.NewFileDiagnostics(path)
		for _, m := range f.Messages {
			sev := diagnostics.SeverityError
			if strings.EqualFold(m.Type, "warning") {
				sev = diagnostics.SeverityWarning
			}
			msg := diagnostics.NewMessage(m.Message, sev, m.Fixable)
			msg.Line = m.Line
			msg.Column = m.Column
			msg.Source = m.Source
			fd.Add(msg)
		}
		out.Files[path] = fd
	}

	return out, nil
}

func firstLine(candidates ...string) string {
	for _, c := range candidates {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		if i := strings.IndexByte(c, '\n'); i >= 0 {
			return c[:i]
		}
		return c
	}
	return "no output"
}
