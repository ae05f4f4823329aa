package main

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fatih/color"

	"themesniff/internal/diagnostics"
	"themesniff/internal/runconfig"
	"themesniff/internal/sniffer"
	"themesniff/internal/version"
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	FormatJSON  OutputFormat = "json"
	FormatHuman OutputFormat = "human"
	FormatSARIF OutputFormat = "sarif"
)

var (
	errorColor   = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow)
	headerColor  = color.New(color.Bold)
	okColor      = color.New(color.FgGreen)
)

// FormatResponse formats a run response. themeDir shortens paths in human
// and SARIF output.
func FormatResponse(resp *sniffer.Response, format OutputFormat, themeDir string) (string, error) {
	switch format {
	case FormatJSON:
		return formatJSON(resp)
	case FormatHuman:
		return formatResponseHuman(resp, themeDir), nil
	case FormatSARIF:
		return FormatResponseAsSARIF(resp, themeDir, version.Version)
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}

// FormatStandards formats the standards registry.
func FormatStandards(standards []runconfig.Standard, format OutputFormat) (string, error) {
	switch format {
	case FormatJSON:
		return formatJSON(standards)
	case FormatHuman:
		return formatStandardsHuman(standards), nil
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}

// formatJSON formats the response as JSON
func formatJSON(resp interface{}) (string, error) {
	data, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return string(data), nil
}

func formatResponseHuman(resp *sniffer.Response, themeDir string) string {
	var b strings.Builder

	if !resp.Success {
		b.WriteString(errorColor.Sprint("Check failed"))
		b.WriteString(fmt.Sprintf(" [%s]: %s", resp.Code, resp.Message))
		return b.String()
	}

	for _, w := range resp.Warnings {
		b.WriteString(warningColor.Sprint("Warning: ") + w + "\n")
	}

	if resp.Raw {
		b.WriteString(resp.Data)
		return strings.TrimRight(b.String(), "\n")
	}

	for _, f := range resp.Files {
		b.WriteString("\n")
		b.WriteString(headerColor.Sprint(relPath(f.Path, themeDir)))
		b.WriteString(fmt.Sprintf(" (%d errors, %d warnings)\n", f.ErrorCount, f.WarningCount))
		for _, m := range f.Messages {
			b.WriteString("  " + formatMessageHuman(m) + "\n")
		}
	}

	if len(resp.Excluded) > 0 {
		b.WriteString(fmt.Sprintf("\nExcluded %d files:\n", len(resp.Excluded)))
		for _, e := range resp.Excluded {
			b.WriteString(fmt.Sprintf("  %s (%s)\n", e.Name, e.Reason))
		}
	}

	b.WriteString("\n")
	summary := fmt.Sprintf("%d errors, %d warnings, %d fixable",
		resp.Totals.Errors, resp.Totals.Warnings, resp.Totals.Fixable)
	switch {
	case resp.Totals.Errors > 0:
		b.WriteString(errorColor.Sprint(summary))
	case resp.Totals.Warnings > 0:
		b.WriteString(warningColor.Sprint(summary))
	default:
		b.WriteString(okColor.Sprint(summary))
	}
	return b.String()
}

func formatMessageHuman(m diagnostics.Message) string {
	var b strings.Builder
	if m.Line > 0 {
		b.WriteString(fmt.Sprintf("%4d:%-3d ", m.Line, m.Column))
	}
	label := m.Severity.Category()
	if m.Severity == diagnostics.SeverityError {
		b.WriteString(errorColor.Sprintf("%-7s", label))
	} else {
		b.WriteString(warningColor.Sprintf("%-7s", label))
	}
	if m.Fixable {
		b.WriteString(" [x]")
	}
	b.WriteString(" " + m.Text)
	if m.Source != "" {
		b.WriteString(" (" + m.Source + ")")
	}
	return b.String()
}

func formatStandardsHuman(standards []runconfig.Standard) string {
	var b strings.Builder
	b.WriteString(headerColor.Sprint("Standards") + "\n")
	b.WriteString(strings.Repeat("=", 60) + "\n")
	for _, s := range standards {
		marker := " "
		if s.Default {
			marker = "*"
		}
		b.WriteString(fmt.Sprintf("%s %-18s %-16s %s\n", marker, s.ID, s.Label, s.Name))
		if s.Description != "" {
			b.WriteString(fmt.Sprintf("    %s\n", s.Description))
		}
	}
	b.WriteString("\n* applied by default")
	return b.String()
}

// relPath shortens path relative to base, falling back to path.
func relPath(path, base string) string {
	if base == "" {
		return path
	}
	rel, err := filepath.Rel(base, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return filepath.ToSlash(rel)
}
