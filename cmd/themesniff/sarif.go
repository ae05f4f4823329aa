package main

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"runtime"

	"themesniff/internal/diagnostics"
	"themesniff/internal/sniffer"
)

// SARIF 2.1.0 schema types
// See: https://docs.oasis-open.org/sarif/sarif/v2.1.0/sarif-v2.1.0.html

// SARIFReport is the top-level SARIF document.
type SARIFReport struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []SARIFRun `json:"runs"`
}

// SARIFRun represents a single analysis run.
type SARIFRun struct {
	Tool        SARIFTool         `json:"tool"`
	Results     []SARIFResult     `json:"results"`
	Invocations []SARIFInvocation `json:"invocations,omitempty"`
}

// SARIFTool describes the analysis tool.
type SARIFTool struct {
	Driver SARIFDriver `json:"driver"`
}

// SARIFDriver describes the primary analysis component.
type SARIFDriver struct {
	Name            string      `json:"name"`
	Version         string      `json:"version,omitempty"`
	InformationURI  string      `json:"informationUri,omitempty"`
	Rules           []SARIFRule `json:"rules,omitempty"`
	SemanticVersion string      `json:"semanticVersion,omitempty"`
}

// SARIFRule describes a rule that detected an issue.
type SARIFRule struct {
	ID                   string                  `json:"id"`
	Name                 string                  `json:"name,omitempty"`
	ShortDescription     *SARIFMessage           `json:"shortDescription,omitempty"`
	DefaultConfiguration *SARIFRuleConfiguration `json:"defaultConfiguration,omitempty"`
}

// SARIFRuleConfiguration describes the default configuration for a rule.
type SARIFRuleConfiguration struct {
	Level string `json:"level,omitempty"` // error, warning, note, none
}

// SARIFResult represents a single finding.
type SARIFResult struct {
	RuleID       string                 `json:"ruleId"`
	RuleIndex    int                    `json:"ruleIndex"`
	Level        string                 `json:"level,omitempty"`
	Message      SARIFMessage           `json:"message"`
	Locations    []SARIFLocation        `json:"locations,omitempty"`
	Fingerprints map[string]string      `json:"fingerprints,omitempty"`
	Properties   map[string]interface{} `json:"properties,omitempty"`
}

// SARIFMessage contains text in various formats.
type SARIFMessage struct {
	Text string `json:"text,omitempty"`
}

// SARIFLocation describes where a result was found.
type SARIFLocation struct {
	PhysicalLocation *SARIFPhysicalLocation `json:"physicalLocation,omitempty"`
}

// SARIFPhysicalLocation identifies a file and region.
type SARIFPhysicalLocation struct {
	ArtifactLocation *SARIFArtifactLocation `json:"artifactLocation,omitempty"`
	Region           *SARIFRegion           `json:"region,omitempty"`
}

// SARIFArtifactLocation identifies a file.
type SARIFArtifactLocation struct {
	URI       string `json:"uri,omitempty"`
	URIBaseID string `json:"uriBaseId,omitempty"`
}

// SARIFRegion identifies a region within a file.
type SARIFRegion struct {
	StartLine   int `json:"startLine,omitempty"`
	StartColumn int `json:"startColumn,omitempty"`
}

// SARIFInvocation describes a single invocation of the tool.
type SARIFInvocation struct {
	ExecutionSuccessful bool                   `json:"executionSuccessful"`
	WorkingDirectory    *SARIFArtifactLocation `json:"workingDirectory,omitempty"`
	Machine             string                 `json:"machine,omitempty"`
	ToolExecutionNotes  []SARIFNotification    `json:"toolExecutionNotifications,omitempty"`
}

// SARIFNotification is a run-level notice.
type SARIFNotification struct {
	Level   string       `json:"level"`
	Message SARIFMessage `json:"message"`
}

// FormatResponseAsSARIF converts a run response to SARIF. Raw responses have
// no structured findings and are rejected.
func FormatResponseAsSARIF(resp *sniffer.Response, themeDir, version string) (string, error) {
	if resp.Success && resp.Raw {
		return "", fmt.Errorf("raw output cannot be converted to SARIF")
	}

	var rules []SARIFRule
	ruleIndex := make(map[string]int)
	results := []SARIFResult{}

	for _, f := range resp.Files {
		uri := relPath(f.Path, themeDir)
		for _, m := range f.Messages {
			ruleID := sarifRuleID(m)
			if _, ok := ruleIndex[ruleID]; !ok {
				ruleIndex[ruleID] = len(rules)
				rules = append(rules, SARIFRule{
					ID:                   ruleID,
					Name:                 ruleID,
					ShortDescription:     &SARIFMessage{Text: ruleID},
					DefaultConfiguration: &SARIFRuleConfiguration{Level: severityToSARIFLevel(m.Severity)},
				})
			}

			result := SARIFResult{
				RuleID:    ruleID,
				RuleIndex: ruleIndex[ruleID],
				Level:     severityToSARIFLevel(m.Severity),
				Message:   SARIFMessage{Text: m.Text},
				Locations: []SARIFLocation{{
					PhysicalLocation: &SARIFPhysicalLocation{
						ArtifactLocation: &SARIFArtifactLocation{URI: uri, URIBaseID: "%SRCROOT%"},
						Region:           sarifRegion(m),
					},
				}},
				Fingerprints: map[string]string{
					"themesniff/v1": generateFingerprint(uri, m),
				},
			}
			if m.Fixable {
				result.Properties = map[string]interface{}{"fixable": true}
			}
			results = append(results, result)
		}
	}

	invocation := SARIFInvocation{
		ExecutionSuccessful: resp.Success,
		WorkingDirectory:    &SARIFArtifactLocation{URI: themeDir},
		Machine:             runtime.GOOS + "/" + runtime.GOARCH,
	}
	if !resp.Success {
		invocation.ToolExecutionNotes = append(invocation.ToolExecutionNotes,
			SARIFNotification{Level: "error", Message: SARIFMessage{Text: resp.Message}})
	}
	for _, w := range resp.Warnings {
		invocation.ToolExecutionNotes = append(invocation.ToolExecutionNotes,
			SARIFNotification{Level: "warning", Message: SARIFMessage{Text: w}})
	}

	report := SARIFReport{
		Schema:  "https://raw.githubusercontent.com/oasis-tcs/sarif-spec/master/Schemata/sarif-schema-2.1.0.json",
		Version: "2.1.0",
		Runs: []SARIFRun{
			{
				Tool: SARIFTool{
					Driver: SARIFDriver{
						Name:            "themesniff",
						Version:         version,
						SemanticVersion: version,
						Rules:           rules,
					},
				},
				Results:     results,
				Invocations: []SARIFInvocation{invocation},
			},
		},
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal SARIF: %w", err)
	}
	return string(data), nil
}

// sarifRuleID uses the engine rule id when there is one.
func sarifRuleID(m diagnostics.Message) string {
	if m.Source != "" {
		return m.Source
	}
	return "themesniff/" + string(m.Severity)
}

func sarifRegion(m diagnostics.Message) *SARIFRegion {
	if m.Line <= 0 {
		return nil
	}
	return &SARIFRegion{StartLine: m.Line, StartColumn: m.Column}
}

func severityToSARIFLevel(s diagnostics.Severity) string {
	if s == diagnostics.SeverityError {
		return "error"
	}
	return "warning"
}

// generateFingerprint creates a stable fingerprint for deduplication.
func generateFingerprint(uri string, m diagnostics.Message) string {
	data := fmt.Sprintf("%s:%d:%s:%s", uri, m.Line, sarifRuleID(m), m.Text)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])[:16]
}
