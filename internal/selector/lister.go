package selector

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ThemeFile is one enumerated file: Name is the theme-relative logical name
// (forward slashes), Path the absolute path on disk.
type ThemeFile struct {
	Name string
	Path string
}

// Lister enumerates theme files.
//
// extensions filters by file extension (without dot, case-insensitive).
// depth limits directory recursion (-1 means unlimited, 0 means the theme root
// only). flatten makes Name the base name instead of the relative path.
type Lister interface {
	List(extensions []string, depth int, flatten bool) ([]ThemeFile, error)
}

// DirLister lists files under a theme directory on disk. Results are sorted
// by Name so enumeration order never depends on the filesystem.
type DirLister struct {
	Root string
}

// NewDirLister creates a lister rooted at a theme directory.
func NewDirLister(root string) *DirLister {
	return &DirLister{Root: root}
}

// List implements Lister.
func (l *DirLister) List(extensions []string, depth int, flatten bool) ([]ThemeFile, error) {
	exts := make(map[string]bool, len(extensions))
	for _, e := range extensions {
		exts[strings.ToLower(strings.TrimPrefix(e, "."))] = true
	}

	root, err := filepath.Abs(l.Root)
	if err != nil {
		return nil, err
	}

	var files []ThemeFile
	seen := make(map[string]bool)

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil //nolint:nilerr // skip inaccessible
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if rel == "." {
				return nil
			}
			// Dot directories (.git, .themesniff) are never theme content.
			if strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			if depth >= 0 && strings.Count(rel, "/")+1 > depth {
				return filepath.SkipDir
			}
			return nil
		}

		if !d.Type().IsRegular() {
			return nil
		}

		ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
		if len(exts) > 0 && !exts[ext] {
			return nil
		}

		name := rel
		if flatten {
			name = d.Name()
			// First file wins when flattening collides.
			if seen[name] {
				return nil
			}
			seen[name] = true
		}

		files = append(files, ThemeFile{Name: name, Path: path})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(files, func(i, j int) bool {
		return files[i].Name < files[j].Name
	})

	return files, nil
}

// Exists reports whether the lister's root is an existing directory.
func (l *DirLister) Exists() bool {
	info, err := os.Stat(l.Root)
	return err == nil && info.IsDir()
}
