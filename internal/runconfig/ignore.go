package runconfig

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// Ignore patterns are regular expressions over theme-relative paths with
// forward slashes. A leading ".*/" means "at any depth, including the theme
// root", so ".*/build/.*" matches both "build/a.php" and "inc/build/a.php"
// but never a directory above the theme.

// themeRelative rewrites a leading ".*/" so the pattern also matches at the
// theme root.
func themeRelative(pattern string) string {
	if rest, ok := strings.CutPrefix(pattern, ".*/"); ok {
		return "(.*/)?" + rest
	}
	return strings.TrimPrefix(pattern, "^")
}

func compileIgnorePatterns(patterns []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile("(?i)^(?:" + themeRelative(p) + ")")
		if err != nil {
			return nil, fmt.Errorf("invalid ignore pattern %q: %w", p, err)
		}
		out = append(out, re)
	}
	return out, nil
}

// Ignored reports whether a theme-relative name matches an ignore pattern.
// Matching is case-insensitive, as in phpcs.
func (c *RunConfiguration) Ignored(name string) bool {
	name = strings.TrimPrefix(filepath.ToSlash(name), "/")
	for _, re := range c.ignore {
		if re.MatchString(name) {
			return true
		}
	}
	return false
}

// EngineIgnorePatterns returns the ignore patterns anchored to the theme
// directory, in the form phpcs --ignore expects. phpcs matches them against
// absolute paths, so an unanchored pattern would also match directories
// above the theme.
func (c *RunConfiguration) EngineIgnorePatterns() []string {
	if len(c.ExcludedPathPatterns) == 0 {
		return nil
	}
	prefix := "^" + quoteForPHPCS(filepath.ToSlash(c.ThemeDir())) + "/"
	out := make([]string, len(c.ExcludedPathPatterns))
	for i, p := range c.ExcludedPathPatterns {
		out[i] = prefix + themeRelative(p)
	}
	return out
}

// quoteForPHPCS escapes a literal path for a phpcs ignore pattern. phpcs
// splits the list on unescaped commas and rewrites every "*" to ".*", so
// commas are escaped and a literal star becomes \x2a.
func quoteForPHPCS(s string) string {
	q := regexp.QuoteMeta(s)
	q = strings.ReplaceAll(q, `\*`, `\x2a`)
	q = strings.ReplaceAll(q, ",", `\,`)
	return strings.ReplaceAll(q, "`", "\\`")
}
