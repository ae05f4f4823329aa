package diagnostics

// Result is what a single validator hands to the aggregator: its own totals
// plus the per-file entries in a stable order. Fixable is reported by the
// source and is never derived from messages.
type Result struct {
	Totals Totals
	Files  []FileDiagnostics
}

// NewResult builds a result whose error and warning totals are summed from
// files. fixable is taken as given.
func NewResult(fixable int, files ...FileDiagnostics) *Result {
	r := &Result{Files: make([]FileDiagnostics, 0, len(files))}
	for _, f := range files {
		r.Files = append(r.Files, f)
		r.Totals.Errors += f.ErrorCount
		r.Totals.Warnings += f.WarningCount
	}
	r.Totals.Fixable = fixable
	return r
}

// Empty returns a result with no files.
func Empty() *Result {
	return &Result{Files: []FileDiagnostics{}}
}

// Lookup returns the entry for path, if present.
func (r *Result) Lookup(path string) (FileDiagnostics, bool) {
	if r == nil {
		return FileDiagnostics{}, false
	}
	for _, f := range r.Files {
		if f.Path == path {
			return f, true
		}
	}
	return FileDiagnostics{}, false
}

// FileTotals sums error and warning counts over the entries. Fixable is left
// at zero.
func (r *Result) FileTotals() Totals {
	var t Totals
	if r == nil {
		return t
	}
	for _, f := range r.Files {
		t.Errors += f.ErrorCount
		t.Warnings += f.WarningCount
	}
	return t
}
