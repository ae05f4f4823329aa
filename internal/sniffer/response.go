package sniffer

import (
	"encoding/json"
	stderrors "errors"

	"themesniff/internal/diagnostics"
	"themesniff/internal/errors"
	"themesniff/internal/selector"
)

// Response is what a run returns to its caller.
//
// A failed run carries Code and Message and nothing else. A raw run carries
// Data. Otherwise Totals and Files hold the report.
type Response struct {
	Success bool
	Code    errors.ErrorCode
	Message string

	Totals diagnostics.Totals
	Files  []diagnostics.FileDiagnostics

	Raw  bool
	Data string

	// Warnings lists non-fatal run-level notices, such as ignored standards.
	Warnings []string

	// Excluded is reported in logs and human output only.
	Excluded []selector.Exclusion
}

// Failure builds an unsuccessful response from err.
func Failure(err error) *Response {
	msg := err.Error()
	var se *errors.SniffError
	if stderrors.As(err, &se) {
		msg = se.Message
	}
	return &Response{Success: false, Code: errors.CodeOf(err), Message: msg}
}

// HasErrors reports whether the report contains at least one error.
func (r *Response) HasErrors() bool {
	return r.Success && r.Totals.Errors > 0
}

type failureJSON struct {
	Success bool             `json:"success"`
	Code    errors.ErrorCode `json:"code"`
	Message string           `json:"message"`
}

type rawJSON struct {
	Success  bool     `json:"success"`
	Data     string   `json:"data"`
	Warnings []string `json:"warnings,omitempty"`
}

type reportJSON struct {
	Success  bool                          `json:"success"`
	Totals   diagnostics.Totals            `json:"totals"`
	Files    []diagnostics.FileDiagnostics `json:"files"`
	Warnings []string                      `json:"warnings,omitempty"`
}

// MarshalJSON emits the caller-visible shape for the kind of response.
func (r *Response) MarshalJSON() ([]byte, error) {
	switch {
	case !r.Success:
		return json.Marshal(failureJSON{Success: false, Code: r.Code, Message: r.Message})
	case r.Raw:
		return json.Marshal(rawJSON{Success: true, Data: r.Data, Warnings: r.Warnings})
	default:
		files := r.Files
		if files == nil {
			files = []diagnostics.FileDiagnostics{}
		}
		return json.Marshal(reportJSON{Success: true, Totals: r.Totals, Files: files, Warnings: r.Warnings})
	}
}
