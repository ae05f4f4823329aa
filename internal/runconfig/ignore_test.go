package runconfig

import (
	"reflect"
	"testing"

	"themesniff/internal/errors"
)

func resolveWithPatterns(t *testing.T, root string, patterns []string) *RunConfiguration {
	t.Helper()
	rc, _, err := newTestResolver().Resolve(Flags{
		ThemeRoot:       root,
		ThemeSlug:       "t",
		Standards:       []string{"wordpress-core"},
		IgnoredPatterns: patterns,
	}, nil)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	return rc
}

func TestIgnored_DefaultPatternsAreThemeRelative(t *testing.T) {
	// The theme lives under directories named like ignored ones.
	rc := resolveWithPatterns(t, "/opt/build/tests/themes", nil)

	tests := []struct {
		name string
		want bool
	}{
		{"functions.php", false},
		{"inc/template-tags.php", false},
		{"build/app.php", true},
		{"assets/build/app.php", true},
		{"inc/Tests/helper.php", true},
		{"node_modules/pkg/index.php", true},
		{"bin/install.php", true},
		{"rebuild/app.php", false},
		{"inc/testing.php", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := rc.Ignored(tt.name); got != tt.want {
				t.Errorf("Ignored(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestIgnored_RootAnchoredPattern(t *testing.T) {
	rc := resolveWithPatterns(t, "/themes", []string{"inc/legacy/.*"})
	if !rc.Ignored("inc/legacy/old.php") {
		t.Error("inc/legacy/old.php should be ignored")
	}
	if rc.Ignored("lib/inc/legacy/old.php") {
		t.Error("a pattern without a leading .*/ applies from the theme root only")
	}
}

func TestResolve_InvalidIgnorePattern(t *testing.T) {
	_, _, err := newTestResolver().Resolve(Flags{
		ThemeSlug:       "t",
		Standards:       []string{"wordpress-core"},
		IgnoredPatterns: []string{"*.php"},
	}, nil)
	if !errors.IsCode(err, errors.ConfigError) {
		t.Errorf("err = %v, want CONFIG_ERROR", err)
	}
}

func TestEngineIgnorePatterns(t *testing.T) {
	rc := resolveWithPatterns(t, "/opt/build,x/themes", []string{".*/build/.*", "inc/legacy/.*"})

	want := []string{
		`^/opt/build\,x/themes/t/(.*/)?build/.*`,
		`^/opt/build\,x/themes/t/inc/legacy/.*`,
	}
	if got := rc.EngineIgnorePatterns(); !reflect.DeepEqual(got, want) {
		t.Errorf("EngineIgnorePatterns() = %v, want %v", got, want)
	}

	empty := resolveWithPatterns(t, "/themes", []string{})
	if got := empty.EngineIgnorePatterns(); got != nil {
		t.Errorf("EngineIgnorePatterns() = %v, want nil", got)
	}
}

func TestQuoteForPHPCS(t *testing.T) {
	if got := quoteForPHPCS("/srv/a.b*c"); got != `/srv/a\.b\x2ac` {
		t.Errorf("quoteForPHPCS() = %q", got)
	}
}
