package engine

import (
	"bytes"
	"fmt"
	"strings"

	"themesniff/internal/diagnostics"
)

// renderRaw formats output the way phpcs' "full" report does, for engines
// that have no report format of their own.
func renderRaw(files []string, out *Output) []byte {
	var b bytes.Buffer
	for _, path := range files {
		fd, ok := out.Files[path]
		if !ok || fd.Clean() {
			continue
		}

		fmt.Fprintf(&b, "\nFILE: %s\n", path)
		rule := strings.Repeat("-", 80)
		fmt.Fprintln(&b, rule)
		fmt.Fprintf(&b, "FOUND %d ERRORS AND %d WARNINGS\n", fd.ErrorCount, fd.WarningCount)
		fmt.Fprintln(&b, rule)
		for _, m := range fd.Messages {
			sev := "ERROR"
			if m.Severity == diagnostics.SeverityWarning {
				sev = "WARNING"
			}
			fmt.Fprintf(&b, " %4d | %-7s | %s\n", m.Line, sev, m.Text)
		}
		fmt.Fprintln(&b, rule)
	}
	return b.Bytes()
}
