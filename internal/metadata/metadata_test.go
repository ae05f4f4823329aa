package metadata

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"themesniff/internal/diagnostics"
	"themesniff/internal/runconfig"
	"themesniff/internal/slogutil"
)

const validStyle = `/*
Theme Name: Aurora
Theme URI: https://example.com/aurora/
Author: Example Studio
Author URI: https://example.com/
Description: A calm theme for writers.
Version: 1.2.3
Requires at least: 6.0
Requires PHP: 7.4
License: GNU General Public License v2 or later
License URI: http://www.gnu.org/licenses/gpl-2.0.html
Text Domain: aurora
Tags: Blog, one-column, custom-logo
*/

body { margin: 0; }
`

func validHeader() *Header {
	h, err := ParseHeader(strings.NewReader(validStyle))
	if err != nil {
		panic(err)
	}
	return h
}

func newTestValidator(tags *TagLists) *Validator {
	return NewValidator(tags, nil, slogutil.NewDiscardLogger())
}

func texts(msgs []diagnostics.Message) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.Text
	}
	return out
}

func TestParseHeader(t *testing.T) {
	h := validHeader()

	if h.Name != "Aurora" || h.Author != "Example Studio" || h.Version != "1.2.3" {
		t.Errorf("header = %+v", h)
	}
	if h.AuthorURI != "https://example.com/" || h.ThemeURI != "https://example.com/aurora/" {
		t.Errorf("URIs = %q, %q", h.ThemeURI, h.AuthorURI)
	}
	if h.License != "GNU General Public License v2 or later" || h.LicenseURI == "" {
		t.Errorf("license = %q, %q", h.License, h.LicenseURI)
	}
	if !reflect.DeepEqual(h.Tags, []string{"blog", "one-column", "custom-logo"}) {
		t.Errorf("Tags = %v", h.Tags)
	}
	if h.RequiresPHP != "7.4" || h.TestedUpTo != "" {
		t.Errorf("RequiresPHP = %q, TestedUpTo = %q", h.RequiresPHP, h.TestedUpTo)
	}
}

func TestParseHeader_CommentStylesAndCRLF(t *testing.T) {
	src := "/**\r\n * Theme Name: Starlight */\r\n * Version: 2.0\r\n"
	h, err := ParseHeader(strings.NewReader(src))
	if err != nil {
		t.Fatal(err)
	}
	if h.Name != "Starlight" || h.Version != "2.0" {
		t.Errorf("Name = %q, Version = %q", h.Name, h.Version)
	}
}

func TestParseHeader_OnlyFirst8K(t *testing.T) {
	src := strings.Repeat(" ", headerReadLimit) + "\nTheme Name: Late\n"
	h, err := ParseHeader(strings.NewReader(src))
	if err != nil {
		t.Fatal(err)
	}
	if h.Name != "" {
		t.Errorf("Name = %q, want empty (beyond read limit)", h.Name)
	}
}

func TestCheck_ValidHeaderIsClean(t *testing.T) {
	msgs := newTestValidator(nil).Check(validHeader(), "aurora", true)
	if len(msgs) != 0 {
		t.Errorf("unexpected messages: %v", texts(msgs))
	}
}

func TestCheck_MissingFields(t *testing.T) {
	msgs := newTestValidator(nil).Check(&Header{}, "aurora", true)

	if len(msgs) != len(RequiredFields) {
		t.Fatalf("messages = %v, want one per required field", texts(msgs))
	}
	if msgs[0].Text != "The Theme Name is not defined in the style.css header." {
		t.Errorf("first message = %q", msgs[0].Text)
	}
	for _, m := range msgs {
		if m.Severity != diagnostics.SeverityError || m.Fixable {
			t.Errorf("message %+v should be a non-fixable error", m)
		}
	}
}

func TestCheck_TextDomainMismatch(t *testing.T) {
	h := validHeader()
	h.TextDomain = "theme-y"

	msgs := newTestValidator(nil).Check(h, "theme-x", true)
	if len(msgs) != 1 {
		t.Fatalf("messages = %v, want exactly one", texts(msgs))
	}
	if !strings.Contains(msgs[0].Text, "theme-x") || !strings.Contains(msgs[0].Text, "theme-y") {
		t.Errorf("message should reference both values: %q", msgs[0].Text)
	}
}

func TestCheck_ReservedTerms(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"WordPress Starter", true}, // match at index 0
		{"Starter WordPress", true},
		{"theme", true},
		{"Aurora Theme", true},
		{"Aurora", false},
		{"WORDPRESS", false}, // case-sensitive
	}

	v := newTestValidator(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := validHeader()
			h.Name = tt.name
			msgs := v.Check(h, "aurora", true)
			got := len(msgs) == 1 && strings.Contains(msgs[0].Text, "cannot contain WordPress or Theme")
			if got != tt.want {
				t.Errorf("reserved(%q) = %v, want %v (messages %v)", tt.name, got, tt.want, texts(msgs))
			}
		})
	}
}

func TestCheck_Version(t *testing.T) {
	tests := []struct {
		version string
		errors  int
	}{
		{"1.2.3", 0},
		{"1.2.3-beta", 1},
		{"v1.0", 1},
		{"10", 0},
	}

	v := newTestValidator(nil)
	for _, tt := range tests {
		h := validHeader()
		h.Version = tt.version
		msgs := v.Check(h, "aurora", true)
		if len(msgs) != tt.errors {
			t.Errorf("Version %q: messages = %v, want %d", tt.version, texts(msgs), tt.errors)
		}
	}
}

func TestCheck_DuplicateURIs(t *testing.T) {
	v := newTestValidator(nil)

	h := validHeader()
	h.ThemeURI = "https://example.com/"
	h.AuthorURI = "https://example.com"
	if msgs := v.Check(h, "aurora", true); len(msgs) != 1 || !strings.HasPrefix(msgs[0].Text, "Duplicate theme and author URLs.") {
		t.Errorf("messages = %v, want duplicate-URL error", texts(msgs))
	}

	h.ThemeURI, h.AuthorURI = "", "/"
	if msgs := v.Check(h, "aurora", true); len(msgs) != 0 {
		t.Errorf("empty URIs should not be duplicates: %v", texts(msgs))
	}
}

func TestCheck_Tags(t *testing.T) {
	tags := NewTagLists(
		[]string{"photography", "minimal", "seasonal", "e-commerce"},
		[]string{"blog", "one-column"},
	)
	h := validHeader()
	h.Tags = []string{"blog", "blog", "photography", "minimal", "seasonal", "e-commerce"}

	msgs := newTestValidator(tags).Check(h, "aurora", true)
	if len(msgs) != 2 {
		t.Fatalf("messages = %v, want 2", texts(msgs))
	}
	if msgs[0].Text != `The tag "blog" is being used more than once, please remove the duplicate.` {
		t.Errorf("duplicate message = %q", msgs[0].Text)
	}
	want := "The theme has 4 subjects tags [photography,minimal,seasonal,e-commerce]."
	if !strings.Contains(msgs[1].Text, want) {
		t.Errorf("subject message = %q, want it to contain %q", msgs[1].Text, want)
	}
}

func TestCheck_NonStandardAndAccessibility(t *testing.T) {
	v := newTestValidator(nil)
	h := validHeader()
	h.Tags = []string{"blog", "sparkly", "accessibility-ready"}

	msgs := v.Check(h, "aurora", true)
	if len(msgs) != 2 {
		t.Fatalf("messages = %v, want 2", texts(msgs))
	}
	if msgs[0].Text != `Please remove "sparkly" as it is not a standard tag.` {
		t.Errorf("first = %q", msgs[0].Text)
	}
	if msgs[1].Severity != diagnostics.SeverityWarning || msgs[1].Category != "WARNING" {
		t.Errorf("accessibility notice should be a warning: %+v", msgs[1])
	}

	// Hidden warnings suppress the notice.
	if msgs := v.Check(h, "aurora", false); len(msgs) != 1 {
		t.Errorf("with warnings hidden: %v", texts(msgs))
	}
}

func TestLoadTagLists(t *testing.T) {
	def, err := LoadTagLists("")
	if err != nil {
		t.Fatal(err)
	}
	if !def.IsSubject("blog") || !def.IsAllowed("accessibility-ready") || def.IsAllowed("blog") {
		t.Error("default tag lists are wrong")
	}

	path := filepath.Join(t.TempDir(), "tags.yaml")
	if err := os.WriteFile(path, []byte("subject_tags: [Travel]\nallowed_tags: [dark-mode]\n"), 0644); err != nil {
		t.Fatal(err)
	}
	custom, err := LoadTagLists(path)
	if err != nil {
		t.Fatal(err)
	}
	if !custom.IsSubject("travel") || !custom.IsAllowed("dark-mode") {
		t.Errorf("custom lists = %+v", custom)
	}

	if _, err := LoadTagLists(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
	if _, err := ParseTagLists([]byte("{}")); err == nil {
		t.Error("expected error for empty lists")
	}
}

func TestValidate(t *testing.T) {
	root := t.TempDir()
	themeDir := filepath.Join(root, "aurora")
	if err := os.MkdirAll(themeDir, 0755); err != nil {
		t.Fatal(err)
	}
	style := strings.Replace(validStyle, "Version: 1.2.3", "Version: 1.2.3-beta", 1)
	if err := os.WriteFile(filepath.Join(themeDir, "style.css"), []byte(style), 0644); err != nil {
		t.Fatal(err)
	}

	rc := &runconfig.RunConfiguration{ThemeRoot: root, ThemeSlug: "aurora", ShowWarnings: true}
	res, err := newTestValidator(nil).Validate(context.Background(), rc)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	if len(res.Files) != 1 || res.Files[0].Path != filepath.Join(themeDir, "style.css") {
		t.Fatalf("Files = %+v", res.Files)
	}
	if res.Totals != (diagnostics.Totals{Errors: 1}) {
		t.Errorf("Totals = %+v, want 1 error and fixable 0", res.Totals)
	}
}

func TestValidate_MissingStyle(t *testing.T) {
	rc := &runconfig.RunConfiguration{ThemeRoot: t.TempDir(), ThemeSlug: "ghost", ShowWarnings: true}
	res, err := newTestValidator(nil).Validate(context.Background(), rc)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if res.Totals.Errors != 1 || !strings.Contains(res.Files[0].Messages[0].Text, "could not be read") {
		t.Errorf("result = %+v", res)
	}
}
