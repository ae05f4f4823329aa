// Package selector enumerates theme files and decides which of them are
// handed to the validators.
package selector

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"unicode/utf8"

	"themesniff/internal/diagnostics"
	"themesniff/internal/paths"
)

// Reason explains why a file was excluded.
type Reason string

const (
	ReasonDisallowedDir Reason = "disallowed-directory"
	ReasonMinified      Reason = "minified"
	ReasonLongLine      Reason = "long-line"
	ReasonUnreadable    Reason = "unreadable"
	ReasonIgnored       Reason = "ignored-pattern"
)

// Exclusion records one excluded file.
type Exclusion struct {
	Name   string `json:"name"`
	Path   string `json:"path"`
	Reason Reason `json:"reason"`
}

// Selection is the outcome of Select. Diagnostics holds one entry per file
// whose long-line probe could not read it.
type Selection struct {
	Files       []ThemeFile
	Excluded    []Exclusion
	Diagnostics []diagnostics.FileDiagnostics
}

// Paths returns the absolute paths of the selected files, in order.
func (s *Selection) Paths() []string {
	out := make([]string, len(s.Files))
	for i, f := range s.Files {
		out[i] = f.Path
	}
	return out
}

// Ignore moves every selected file whose name matches into Excluded.
func (s *Selection) Ignore(match func(name string) bool) {
	kept := s.Files[:0]
	for _, f := range s.Files {
		if match(f.Name) {
			s.Excluded = append(s.Excluded, Exclusion{Name: f.Name, Path: f.Path, Reason: ReasonIgnored})
			continue
		}
		kept = append(kept, f)
	}
	s.Files = kept
}

// Names returns the logical names of the selected files, in order.
func (s *Selection) Names() []string {
	out := make([]string, len(s.Files))
	for i, f := range s.Files {
		out[i] = f.Name
	}
	return out
}

// Options tune the exclusion heuristics.
type Options struct {
	DisallowedSegments []string
	MinifiedSuffixes   []string
	ProbeLines         int
	MaxLineLength      int
}

// DefaultOptions returns the standard heuristics.
func DefaultOptions() Options {
	return Options{
		DisallowedSegments: []string{"node_modules", "vendor", "test", "tests"},
		MinifiedSuffixes:   []string{".min.js", ".min.css"},
		ProbeLines:         10,
		MaxLineLength:      1000,
	}
}

// Selector filters enumerated files.
type Selector struct {
	opts       Options
	disallowed map[string]bool
	logger     *slog.Logger
}

// New creates a selector.
func New(opts Options, logger *slog.Logger) *Selector {
	d := make(map[string]bool, len(opts.DisallowedSegments))
	for _, s := range opts.DisallowedSegments {
		d[s] = true
	}
	return &Selector{opts: opts, disallowed: d, logger: logger}
}

// Select applies the exclusion rules to every file independently. An empty
// result is valid.
func (s *Selector) Select(files []ThemeFile) *Selection {
	sel := &Selection{
		Files:       make([]ThemeFile, 0, len(files)),
		Excluded:    []Exclusion{},
		Diagnostics: []diagnostics.FileDiagnostics{},
	}

	for _, f := range files {
		reason, readErr := s.check(f)
		if reason == "" {
			sel.Files = append(sel.Files, f)
			continue
		}

		sel.Excluded = append(sel.Excluded, Exclusion{Name: f.Name, Path: f.Path, Reason: reason})
		if readErr != nil {
			s.logger.Warn("Could not probe file, excluding it", "file", f.Name, "error", readErr)
			sel.Diagnostics = append(sel.Diagnostics, diagnostics.NewFileDiagnostics(f.Path,
				diagnostics.Error(fmt.Sprintf("The file %s could not be read: %v", f.Name, readErr)),
			))
			continue
		}
		s.logger.Debug("Excluded file", "file", f.Name, "reason", reason)
	}

	s.logger.Info("File selection complete",
		"selected", len(sel.Files),
		"excluded", len(sel.Excluded))

	return sel
}

// check returns the exclusion reason for f, or "" when f is kept.
func (s *Selector) check(f ThemeFile) (Reason, error) {
	if s.inDisallowedDir(f.Name) {
		return ReasonDisallowedDir, nil
	}
	if s.isMinified(f.Name) {
		return ReasonMinified, nil
	}

	long, err := s.hasLongLine(f.Path)
	if err != nil {
		return ReasonUnreadable, err
	}
	if long {
		return ReasonLongLine, nil
	}
	return "", nil
}

func (s *Selector) inDisallowedDir(name string) bool {
	for _, seg := range paths.Segments(name) {
		if s.disallowed[seg] {
			return true
		}
	}
	return false
}

func (s *Selector) isMinified(name string) bool {
	lower := strings.ToLower(name)
	for _, suffix := range s.opts.MinifiedSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return true
		}
	}
	return false
}

func (s *Selector) hasLongLine(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	return HasLongLine(f, s.opts.ProbeLines, s.opts.MaxLineLength)
}

// HasLongLine reports whether any of the first maxLines lines of r is longer
// than maxLen characters (line terminators excluded). Characters are UTF-8
// code points; a stray byte counts as one. It stops reading as soon as the
// answer is known.
func HasLongLine(r io.Reader, maxLines, maxLen int) (bool, error) {
	br := bufio.NewReaderSize(r, 4096)

	for line := 0; line < maxLines; line++ {
		n := 0
		for {
			chunk, err := br.ReadSlice('\n')
			n += charCount(chunk)

			if errors.Is(err, bufio.ErrBufferFull) {
				if n > maxLen {
					return true, nil
				}
				continue
			}
			if errors.Is(err, io.EOF) {
				if lineLength(chunk, n) > maxLen {
					return true, nil
				}
				return false, nil
			}
			if err != nil {
				return false, err
			}

			if lineLength(chunk, n) > maxLen {
				return true, nil
			}
			break
		}
	}

	return false, nil
}

// charCount counts the bytes of b that start a character. A code point
// split across two reads is counted once.
func charCount(b []byte) int {
	n := 0
	for _, c := range b {
		if !utf8.RuneStart(c) {
			continue
		}
		n++
	}
	return n
}

// lineLength strips the terminator counted in n from the final chunk.
func lineLength(last []byte, n int) int {
	if bytes.HasSuffix(last, []byte("\r\n")) {
		return n - 2
	}
	if bytes.HasSuffix(last, []byte("\n")) {
		return n - 1
	}
	return n
}
