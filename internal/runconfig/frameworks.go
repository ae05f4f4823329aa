package runconfig

import (
	_ "embed"
	"fmt"
	"path"
	"strings"

	toml "github.com/pelletier/go-toml/v2"

	"themesniff/internal/selector"
)

//go:embed frameworks.toml
var frameworksTOML []byte

// Detector finds bundled frameworks in the selected file set and returns the
// text domains they contribute.
type Detector interface {
	Detect(files []selector.ThemeFile) []string
}

// SignatureDetector matches a file-name substring. It is a heuristic: a theme
// file merely named like the framework entry point also matches.
type SignatureDetector struct {
	TextDomain string `toml:"text_domain"`
	Signature  string `toml:"signature"`
}

// Detect implements Detector.
func (d SignatureDetector) Detect(files []selector.ThemeFile) []string {
	for _, f := range files {
		if strings.Contains(path.Base(f.Name), d.Signature) {
			return []string{d.TextDomain}
		}
	}
	return nil
}

type frameworksFile struct {
	Frameworks []SignatureDetector `toml:"framework"`
}

// ParseFrameworks decodes a TOML list of framework signatures.
func ParseFrameworks(data []byte) ([]Detector, error) {
	var f frameworksFile
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse framework signatures: %w", err)
	}

	detectors := make([]Detector, 0, len(f.Frameworks))
	for _, fw := range f.Frameworks {
		if fw.TextDomain == "" || fw.Signature == "" {
			return nil, fmt.Errorf("framework entry needs text_domain and signature: %+v", fw)
		}
		detectors = append(detectors, fw)
	}
	return detectors, nil
}

// DefaultDetectors returns the built-in framework signatures.
func DefaultDetectors() []Detector {
	d, err := ParseFrameworks(frameworksTOML)
	if err != nil {
		panic(err) // embedded file is part of the build
	}
	return d
}
