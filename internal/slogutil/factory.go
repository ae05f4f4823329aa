package slogutil

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"themesniff/internal/config"
	"themesniff/internal/paths"
)

// LoggerFactory builds the run logger from CLI flags and tool config.
// Precedence: CLI flags > config > default (warn).
type LoggerFactory struct {
	themeDir string
	config   *config.Config
	cliLevel *slog.Level
	closers  []io.Closer
}

// NewLoggerFactory creates a new logger factory. cliLevel is nil when no
// verbosity flag was given.
func NewLoggerFactory(themeDir string, cfg *config.Config, cliLevel *slog.Level) *LoggerFactory {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &LoggerFactory{
		themeDir: themeDir,
		config:   cfg,
		cliLevel: cliLevel,
	}
}

// Logger returns a logger writing to w and, when logging.file is set, also
// to that file under <theme>/.themesniff/logs. File errors degrade to w only.
func (f *LoggerFactory) Logger(w io.Writer) *slog.Logger {
	level := f.effectiveLevel()
	format := Format(f.config.Logging.Format)

	primary := NewFormatLogger(w, level, format, f.themeDir).Handler()
	if f.config.Logging.File == "" || f.themeDir == "" {
		return slog.New(primary)
	}

	logPath := paths.GetLogPath(f.themeDir, f.config.Logging.File)
	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		return slog.New(primary)
	}
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return slog.New(primary)
	}
	f.closers = append(f.closers, file)

	// The file always gets debug detail.
	fileHandler := NewHandler(file, &HandlerOptions{Level: slog.LevelDebug, ThemeDir: f.themeDir})
	return slog.New(NewTeeHandler(primary, fileHandler))
}

func (f *LoggerFactory) effectiveLevel() slog.Level {
	if f.cliLevel != nil {
		return *f.cliLevel
	}
	if f.config.Logging.Level != "" {
		return LevelFromString(f.config.Logging.Level)
	}
	return slog.LevelWarn
}

// Close closes all open log files.
func (f *LoggerFactory) Close() error {
	var firstErr error
	for _, c := range f.closers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	f.closers = nil
	return firstErr
}
