// Package metadata validates the declarative header block at the top of a
// theme's style.css.
package metadata

import (
	"io"
	"os"
	"regexp"
	"strings"
)

// headerReadLimit is how much of style.css is searched for header fields.
const headerReadLimit = 8 * 1024

// Header field names as they appear in style.css.
const (
	FieldName            = "Theme Name"
	FieldThemeURI        = "Theme URI"
	FieldDescription     = "Description"
	FieldAuthor          = "Author"
	FieldAuthorURI       = "Author URI"
	FieldVersion         = "Version"
	FieldLicense         = "License"
	FieldLicenseURI      = "License URI"
	FieldTextDomain      = "Text Domain"
	FieldTags            = "Tags"
	FieldTemplate        = "Template"
	FieldRequiresAtLeast = "Requires at least"
	FieldTestedUpTo      = "Tested up to"
	FieldRequiresPHP     = "Requires PHP"
)

var headerFields = []string{
	FieldName, FieldThemeURI, FieldDescription, FieldAuthor, FieldAuthorURI,
	FieldVersion, FieldLicense, FieldLicenseURI, FieldTextDomain, FieldTags,
	FieldTemplate, FieldRequiresAtLeast, FieldTestedUpTo, FieldRequiresPHP,
}

var headerPatterns = func() map[string]*regexp.Regexp {
	m := make(map[string]*regexp.Regexp, len(headerFields))
	for _, f := range headerFields {
		m[f] = regexp.MustCompile(`(?mi)^[ \t/*#@]*` + regexp.QuoteMeta(f) + `:(.*)$`)
	}
	return m
}()

var closingComment = regexp.MustCompile(`\s*(?:\*/|\?>).*`)

// Header is the parsed style.css header.
type Header struct {
	Name            string
	ThemeURI        string
	Description     string
	Author          string
	AuthorURI       string
	Version         string
	License         string
	LicenseURI      string
	TextDomain      string
	Tags            []string
	Template        string
	RequiresAtLeast string
	TestedUpTo      string
	RequiresPHP     string
}

// Get returns a field by its header name. Tags are comma-joined.
func (h *Header) Get(field string) string {
	switch field {
	case FieldName:
		return h.Name
	case FieldThemeURI:
		return h.ThemeURI
	case FieldDescription:
		return h.Description
	case FieldAuthor:
		return h.Author
	case FieldAuthorURI:
		return h.AuthorURI
	case FieldVersion:
		return h.Version
	case FieldLicense:
		return h.License
	case FieldLicenseURI:
		return h.LicenseURI
	case FieldTextDomain:
		return h.TextDomain
	case FieldTags:
		return strings.Join(h.Tags, ", ")
	case FieldTemplate:
		return h.Template
	case FieldRequiresAtLeast:
		return h.RequiresAtLeast
	case FieldTestedUpTo:
		return h.TestedUpTo
	case FieldRequiresPHP:
		return h.RequiresPHP
	}
	return ""
}

// ParseHeader reads header fields from the first 8 KiB of r.
func ParseHeader(r io.Reader) (*Header, error) {
	buf, err := io.ReadAll(io.LimitReader(r, headerReadLimit))
	if err != nil {
		return nil, err
	}
	text := strings.ReplaceAll(string(buf), "\r", "\n")

	values := make(map[string]string, len(headerFields))
	for _, f := range headerFields {
		match := headerPatterns[f].FindStringSubmatch(text)
		if match == nil {
			continue
		}
		values[f] = cleanValue(match[1])
	}

	h := &Header{
		Name:            values[FieldName],
		ThemeURI:        values[FieldThemeURI],
		Description:     values[FieldDescription],
		Author:          values[FieldAuthor],
		AuthorURI:       values[FieldAuthorURI],
		Version:         values[FieldVersion],
		License:         values[FieldLicense],
		LicenseURI:      values[FieldLicenseURI],
		TextDomain:      values[FieldTextDomain],
		Template:        values[FieldTemplate],
		RequiresAtLeast: values[FieldRequiresAtLeast],
		TestedUpTo:      values[FieldTestedUpTo],
		RequiresPHP:     values[FieldRequiresPHP],
		Tags:            splitTags(values[FieldTags]),
	}
	return h, nil
}

// ReadHeader parses the header of the file at path.
func ReadHeader(path string) (*Header, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseHeader(f)
}

func cleanValue(v string) string {
	v = closingComment.ReplaceAllString(v, "")
	return strings.TrimSpace(v)
}

// splitTags splits on commas and case-folds. Empty items are dropped;
// duplicates are kept so they can be reported.
func splitTags(v string) []string {
	if v == "" {
		return nil
	}
	var tags []string
	for _, t := range strings.Split(v, ",") {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
