// Package diagnostics defines the per-file findings shared by every validator
// and the aggregated report built from them.
package diagnostics

import "strings"

// Severity of a single message.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Category returns the upper-cased form of the severity ("ERROR", "WARNING").
func (s Severity) Category() string {
	return strings.ToUpper(string(s))
}

// Valid reports whether s is one of the known severities.
func (s Severity) Valid() bool {
	return s == SeverityError || s == SeverityWarning
}

// Message is a single finding attached to a file.
type Message struct {
	Text     string   `json:"message"`
	Severity Severity `json:"severity"`
	Fixable  bool     `json:"fixable"`
	Category string   `json:"type"`

	// Location and rule id, populated by the rule engine only.
	Line   int    `json:"line,omitempty"`
	Column int    `json:"column,omitempty"`
	Source string `json:"source,omitempty"`
}

// NewMessage builds a message whose category matches its severity.
func NewMessage(text string, severity Severity, fixable bool) Message {
	return Message{
		Text:     text,
		Severity: severity,
		Fixable:  fixable,
		Category: severity.Category(),
	}
}

// Error is shorthand for a non-fixable error message.
func Error(text string) Message {
	return NewMessage(text, SeverityError, false)
}

// Warning is shorthand for a non-fixable warning message.
func Warning(text string) Message {
	return NewMessage(text, SeverityWarning, false)
}

// FileDiagnostics holds the messages for one real or virtual file.
// ErrorCount and WarningCount always match the messages; use Add to append.
type FileDiagnostics struct {
	Path         string    `json:"filePath"`
	ErrorCount   int       `json:"errors"`
	WarningCount int       `json:"warnings"`
	Messages     []Message `json:"messages"`
}

// NewFileDiagnostics creates an entry for path from the given messages.
func NewFileDiagnostics(path string, messages ...Message) FileDiagnostics {
	fd := FileDiagnostics{Path: path, Messages: make([]Message, 0, len(messages))}
	for _, m := range messages {
		fd.Add(m)
	}
	return fd
}

// Add appends a message and updates the counts. The category is normalised
// to the severity.
func (fd *FileDiagnostics) Add(m Message) {
	m.Category = m.Severity.Category()
	switch m.Severity {
	case SeverityError:
		fd.ErrorCount++
	case SeverityWarning:
		fd.WarningCount++
	}
	fd.Messages = append(fd.Messages, m)
}

// Clean reports whether the entry carries no errors and no warnings.
func (fd FileDiagnostics) Clean() bool {
	return fd.ErrorCount == 0 && fd.WarningCount == 0
}

// FixableCount counts fixable messages.
func (fd FileDiagnostics) FixableCount() int {
	n := 0
	for _, m := range fd.Messages {
		if m.Fixable {
			n++
		}
	}
	return n
}

// Clone returns a deep copy so the receiver can be handed off without sharing
// the message slice.
func (fd FileDiagnostics) Clone() FileDiagnostics {
	out := fd
	out.Messages = append([]Message(nil), fd.Messages...)
	if out.Messages == nil {
		out.Messages = []Message{}
	}
	return out
}

// Totals are report-level counters.
type Totals struct {
	Errors   int `json:"errors"`
	Warnings int `json:"warnings"`
	Fixable  int `json:"fixable"`
}

// Add returns the element-wise sum.
func (t Totals) Add(o Totals) Totals {
	return Totals{
		Errors:   t.Errors + o.Errors,
		Warnings: t.Warnings + o.Warnings,
		Fixable:  t.Fixable + o.Fixable,
	}
}
