package paths

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	// DataDirName is the per-theme directory holding config, cache and logs.
	DataDirName = ".themesniff"
	// CacheFileName is the engine result cache database.
	CacheFileName = "cache.db"
	// LogsDirName holds optional log files.
	LogsDirName = "logs"
)

// GetDataDir returns <themeDir>/.themesniff
func GetDataDir(themeDir string) string {
	return filepath.Join(themeDir, DataDirName)
}

// EnsureDataDir creates <themeDir>/.themesniff if needed and returns it.
func EnsureDataDir(themeDir string) (string, error) {
	dir := GetDataDir(themeDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return dir, nil
}

// GetCachePath returns the default cache database path for a theme.
func GetCachePath(themeDir string) string {
	return filepath.Join(GetDataDir(themeDir), CacheFileName)
}

// GetLogPath resolves a log file name relative to <themeDir>/.themesniff/logs.
// Absolute names are returned unchanged.
func GetLogPath(themeDir, name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(GetDataDir(themeDir), LogsDirName, name)
}

// CanonicalizePath converts an absolute path to a theme-relative canonical path
// - Resolves symlinks to real paths
// - Makes path relative to the theme root
// - Returns the relative path with forward slashes
func CanonicalizePath(absolutePath string, root string) (string, error) {
	resolved, err := filepath.EvalSymlinks(absolutePath)
	if err != nil {
		if os.IsNotExist(err) {
			resolved = absolutePath
		} else {
			return "", err
		}
	}

	rootResolved, err := filepath.EvalSymlinks(root)
	if err != nil {
		if os.IsNotExist(err) {
			rootResolved = root
		} else {
			return "", err
		}
	}

	rel, err := filepath.Rel(rootResolved, resolved)
	if err != nil {
		return "", err
	}

	return filepath.ToSlash(rel), nil
}

// IsWithin checks if a path is within root
func IsWithin(path string, root string) bool {
	canonical, err := CanonicalizePath(path, root)
	if err != nil {
		return false
	}
	return canonical != ".." && !strings.HasPrefix(canonical, "../")
}

// NormalizePath converts backslashes to forward slashes
func NormalizePath(path string) string {
	return strings.ReplaceAll(path, "\\", "/")
}

// Segments splits a normalised path into its non-empty segments.
func Segments(path string) []string {
	parts := strings.Split(NormalizePath(path), "/")
	out := parts[:0]
	for _, p := range parts {
		if p != "" && p != "." {
			out = append(out, p)
		}
	}
	return out
}
