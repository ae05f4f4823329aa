// Package slogutil provides the slog handler and level helpers used by themesniff.
package slogutil

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Attribute keys with special rendering.
const (
	KeyRunID = "run_id"
	KeyTheme = "theme"
)

// pathKeys name attributes whose values are file paths.
var pathKeys = map[string]bool{"path": true, "file": true}

// runIDLen is how much of a run id the line tag shows.
const runIDLen = 8

// HandlerOptions configure a Handler.
type HandlerOptions struct {
	Level slog.Leveler

	// ThemeDir shortens path values under it to theme-relative names.
	ThemeDir string
}

// Handler formats records as:
//
//	TIMESTAMP [level] <theme run> Message | key=value key="two words"
//
// The theme and run_id attributes are shown as a tag in front of the
// message so interleaved runs stay readable.
type Handler struct {
	w        io.Writer
	level    slog.Leveler
	themeDir string
	theme    string
	runID    string
	attrs    []slog.Attr
	groups   []string
	mu       *sync.Mutex
}

// NewHandler creates a new log handler writing to w.
func NewHandler(w io.Writer, opts *HandlerOptions) *Handler {
	h := &Handler{w: w, level: slog.LevelInfo, mu: &sync.Mutex{}}
	if opts != nil {
		if opts.Level != nil {
			h.level = opts.Level
		}
		h.themeDir = opts.ThemeDir
	}
	return h
}

// Enabled reports whether the handler handles records at the given level.
func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle formats and writes the log record.
func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	theme, runID := h.theme, h.runID
	attrs := make([]slog.Attr, 0, len(h.attrs)+r.NumAttrs())
	attrs = append(attrs, h.attrs...)
	r.Attrs(func(a slog.Attr) bool {
		switch {
		case len(h.groups) == 0 && a.Key == KeyTheme:
			theme = a.Value.String()
		case len(h.groups) == 0 && a.Key == KeyRunID:
			runID = a.Value.String()
		default:
			attrs = append(attrs, h.resolveAttr(a))
		}
		return true
	})

	var buf bytes.Buffer
	buf.WriteString(r.Time.UTC().Format(time.RFC3339))
	buf.WriteString(" [")
	buf.WriteString(levelString(r.Level))
	buf.WriteString("] ")
	if tag := runTag(theme, runID); tag != "" {
		buf.WriteString(tag)
		buf.WriteByte(' ')
	}
	buf.WriteString(r.Message)

	if len(attrs) > 0 {
		buf.WriteString(" |")
		for _, a := range attrs {
			if a.Key == "" {
				continue
			}
			buf.WriteString(" ")
			buf.WriteString(a.Key)
			buf.WriteString("=")
			buf.WriteString(h.formatValue(a))
		}
	}

	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.w.Write(buf.Bytes())
	return err
}

// WithAttrs returns a new handler with the given attributes added.
func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = make([]slog.Attr, len(h.attrs), len(h.attrs)+len(attrs))
	copy(clone.attrs, h.attrs)
	for _, a := range attrs {
		switch {
		case len(h.groups) == 0 && a.Key == KeyTheme:
			clone.theme = a.Value.String()
		case len(h.groups) == 0 && a.Key == KeyRunID:
			clone.runID = a.Value.String()
		default:
			clone.attrs = append(clone.attrs, h.resolveAttr(a))
		}
	}
	return &clone
}

// WithGroup returns a new handler with the given group name added.
func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.groups = make([]string, len(h.groups)+1)
	copy(clone.groups, h.groups)
	clone.groups[len(h.groups)] = name
	return &clone
}

// resolveAttr applies group prefixes to attribute keys.
func (h *Handler) resolveAttr(a slog.Attr) slog.Attr {
	if len(h.groups) == 0 {
		return a
	}
	key := a.Key
	for i := len(h.groups) - 1; i >= 0; i-- {
		key = h.groups[i] + "." + key
	}
	return slog.Attr{Key: key, Value: a.Value}
}

func (h *Handler) formatValue(a slog.Attr) string {
	v := a.Value.Resolve()
	switch v.Kind() {
	case slog.KindString:
		s := v.String()
		if pathKeys[baseKey(a.Key)] {
			s = shortenPath(h.themeDir, s)
		}
		return quoteIfNeeded(s)
	case slog.KindTime:
		return v.Time().Format(time.RFC3339)
	case slog.KindDuration:
		return v.Duration().String()
	}
	switch x := v.Any().(type) {
	case []string:
		return quoteIfNeeded(strings.Join(x, ","))
	case error:
		return quoteIfNeeded(x.Error())
	default:
		return quoteIfNeeded(fmt.Sprint(x))
	}
}

// runTag renders "<theme run>" from whichever parts are known.
func runTag(theme, runID string) string {
	if len(runID) > runIDLen {
		runID = runID[:runIDLen]
	}
	switch {
	case theme == "" && runID == "":
		return ""
	case runID == "":
		return "<" + theme + ">"
	case theme == "":
		return "<" + runID + ">"
	default:
		return "<" + theme + " " + runID + ">"
	}
}

// shortenPath makes path relative to themeDir when it lies inside it.
func shortenPath(themeDir, path string) string {
	if themeDir == "" || !filepath.IsAbs(path) {
		return path
	}
	rel, err := filepath.Rel(themeDir, path)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return path
	}
	return filepath.ToSlash(rel)
}

func baseKey(key string) string {
	if i := strings.LastIndexByte(key, '.'); i >= 0 {
		return key[i+1:]
	}
	return key
}

func quoteIfNeeded(s string) string {
	if s == "" || strings.ContainsAny(s, " \t\n\"=") {
		return strconv.Quote(s)
	}
	return s
}

func levelString(level slog.Level) string {
	switch {
	case level < slog.LevelInfo:
		return "debug"
	case level < slog.LevelWarn:
		return "info"
	case level < slog.LevelError:
		return "warn"
	default:
		return "error"
	}
}
