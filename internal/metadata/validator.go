package metadata

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"

	"themesniff/internal/diagnostics"
	"themesniff/internal/runconfig"
)

// StyleFile is the file carrying the header.
const StyleFile = "style.css"

// AccessibilityReadyTag triggers a review notice.
const AccessibilityReadyTag = "accessibility-ready"

// MaxSubjectTags is the subject tag limit.
const MaxSubjectTags = 3

// RequiredFields must be present and non-empty.
var RequiredFields = []string{
	FieldName, FieldDescription, FieldAuthor, FieldVersion,
	FieldLicense, FieldLicenseURI, FieldTextDomain,
}

// DefaultReservedTerms may not appear in a theme name.
var DefaultReservedTerms = []string{"WordPress", "wordpress", "Theme", "theme"}

var invalidVersionChars = regexp.MustCompile(`[^\d.]`)

// Validator checks a theme's style.css header.
type Validator struct {
	tags     *TagLists
	reserved []string
	logger   *slog.Logger
}

// NewValidator creates a validator. Nil tags or reserved terms fall back to
// the defaults.
func NewValidator(tags *TagLists, reserved []string, logger *slog.Logger) *Validator {
	if tags == nil {
		tags = DefaultTagLists()
	}
	if reserved == nil {
		reserved = DefaultReservedTerms
	}
	return &Validator{tags: tags, reserved: reserved, logger: logger}
}

// Name identifies the validator in logs.
func (v *Validator) Name() string { return "metadata" }

// Validate reads <theme>/style.css and returns one entry keyed by that path.
// Header findings are never fixable.
func (v *Validator) Validate(ctx context.Context, rc *runconfig.RunConfiguration) (*diagnostics.Result, error) {
	path := filepath.Join(rc.ThemeDir(), StyleFile)

	h, err := ReadHeader(path)
	if err != nil {
		v.logger.Warn("Could not read theme header", "path", path, "error", err)
		fd := diagnostics.NewFileDiagnostics(path,
			diagnostics.Error(fmt.Sprintf("The file %s could not be read: %v", StyleFile, err)))
		return diagnostics.NewResult(0, fd), nil
	}

	fd := diagnostics.NewFileDiagnostics(path, v.Check(h, rc.ThemeSlug, rc.ShowWarnings)...)
	v.logger.Debug("Header checked", "errors", fd.ErrorCount, "warnings", fd.WarningCount)
	return diagnostics.NewResult(0, fd), nil
}

// Check runs every header rule against h.
func (v *Validator) Check(h *Header, slug string, showWarnings bool) []diagnostics.Message {
	var msgs []diagnostics.Message

	for _, field := range RequiredFields {
		if h.Get(field) != "" {
			continue
		}
		msgs = append(msgs, diagnostics.Error(
			fmt.Sprintf("The %s is not defined in the style.css header.", field)))
	}

	if v.hasReservedTerm(h.Name) {
		msgs = append(msgs, diagnostics.Error(
			"The theme name cannot contain WordPress or Theme as a part of its name."))
	}

	if invalidVersionChars.MatchString(h.Version) {
		msgs = append(msgs, diagnostics.Error(
			"Version strings can only contain numeric and period characters (e.g. 1.2)."))
	}

	themeURI := strings.Trim(h.ThemeURI, `/\`)
	authorURI := strings.Trim(h.AuthorURI, `/\`)
	if themeURI != "" && themeURI == authorURI {
		msgs = append(msgs, diagnostics.Error(
			"Duplicate theme and author URLs. A theme URL is a page/site that provides details about this specific theme. An author URL is a page/site that provides information about the author of the theme. The theme and author URL are optional."))
	}

	if h.TextDomain != "" && h.TextDomain != slug {
		msgs = append(msgs, diagnostics.Error(
			fmt.Sprintf("The text domain %q must match the theme slug %q.", h.TextDomain, slug)))
	}

	return append(msgs, v.checkTags(h.Tags, showWarnings)...)
}

// hasReservedTerm is a case-sensitive found/not-found substring test, so a
// term at the very start of the name counts.
func (v *Validator) hasReservedTerm(name string) bool {
	for _, term := range v.reserved {
		if term != "" && strings.Contains(name, term) {
			return true
		}
	}
	return false
}

func (v *Validator) checkTags(tags []string, showWarnings bool) []diagnostics.Message {
	var msgs []diagnostics.Message

	counts := make(map[string]int, len(tags))
	var distinct []string
	for _, t := range tags {
		if counts[t] == 0 {
			distinct = append(distinct, t)
		}
		counts[t]++
	}

	var subjects []string
	for _, t := range distinct {
		if counts[t] > 1 {
			msgs = append(msgs, diagnostics.Error(
				fmt.Sprintf("The tag %q is being used more than once, please remove the duplicate.", t)))
		}

		if v.tags.IsSubject(t) {
			subjects = append(subjects, t)
			continue
		}

		if !v.tags.IsAllowed(t) {
			msgs = append(msgs, diagnostics.Error(
				fmt.Sprintf("Please remove %q as it is not a standard tag.", t)))
			continue
		}

		if t == AccessibilityReadyTag && showWarnings {
			msgs = append(msgs, diagnostics.Warning(
				`Themes that use the "accessibility-ready" tag will need to undergo an accessibility review.`))
		}
	}

	if len(subjects) > MaxSubjectTags {
		msgs = append(msgs, diagnostics.Error(fmt.Sprintf(
			"A maximum of %d subject tags are allowed. The theme has %d subjects tags [%s]. Please remove the subject tags, which do not directly apply to the theme.",
			MaxSubjectTags, len(subjects), strings.Join(subjects, ","))))
	}

	return msgs
}
