package main

import (
	"encoding/json"
	"strings"
	"testing"

	"themesniff/internal/errors"
	"themesniff/internal/sniffer"
)

func TestFormatResponseAsSARIF(t *testing.T) {
	output, err := FormatResponseAsSARIF(sampleResponse(), "/themes/t", "1.0.0")
	if err != nil {
		t.Fatalf("FormatResponseAsSARIF failed: %v", err)
	}

	var sarif SARIFReport
	if err := json.Unmarshal([]byte(output), &sarif); err != nil {
		t.Fatalf("Failed to parse SARIF output: %v", err)
	}

	if sarif.Version != "2.1.0" {
		t.Errorf("SARIF version = %q, want 2.1.0", sarif.Version)
	}
	if !strings.Contains(sarif.Schema, "sarif-schema-2.1.0") {
		t.Errorf("SARIF schema should reference 2.1.0, got %q", sarif.Schema)
	}
	if len(sarif.Runs) != 1 {
		t.Fatalf("Expected 1 run, got %d", len(sarif.Runs))
	}
	run := sarif.Runs[0]

	if run.Tool.Driver.Name != "themesniff" || run.Tool.Driver.Version != "1.0.0" {
		t.Errorf("driver = %+v", run.Tool.Driver)
	}

	// Engine rule, generic warning and generic error.
	wantRules := []string{
		"WordPress.Security.EscapeOutput.OutputNotEscaped",
		"themesniff/warning",
		"themesniff/error",
	}
	if len(run.Tool.Driver.Rules) != len(wantRules) {
		t.Fatalf("rules = %+v", run.Tool.Driver.Rules)
	}
	for i, id := range wantRules {
		if run.Tool.Driver.Rules[i].ID != id {
			t.Errorf("rule[%d] = %q, want %q", i, run.Tool.Driver.Rules[i].ID, id)
		}
	}

	if len(run.Results) != 3 {
		t.Fatalf("Expected 3 results, got %d", len(run.Results))
	}

	first := run.Results[0]
	if first.Level != "error" || first.RuleIndex != 0 {
		t.Errorf("first result = %+v", first)
	}
	loc := first.Locations[0].PhysicalLocation
	if loc.ArtifactLocation.URI != "functions.php" {
		t.Errorf("URI = %q, want functions.php", loc.ArtifactLocation.URI)
	}
	if loc.Region == nil || loc.Region.StartLine != 12 || loc.Region.StartColumn != 5 {
		t.Errorf("region = %+v", loc.Region)
	}
	if first.Properties["fixable"] != true {
		t.Errorf("properties = %v", first.Properties)
	}

	third := run.Results[2]
	if third.Locations[0].PhysicalLocation.Region != nil {
		t.Error("header findings have no line and should have no region")
	}
	if third.RuleIndex != 2 {
		t.Errorf("third rule index = %d, want 2", third.RuleIndex)
	}

	if len(run.Invocations) != 1 || !run.Invocations[0].ExecutionSuccessful {
		t.Errorf("invocations = %+v", run.Invocations)
	}
	if notes := run.Invocations[0].ToolExecutionNotes; len(notes) != 1 || notes[0].Level != "warning" {
		t.Errorf("notifications = %+v", notes)
	}
}

func TestFormatResponseAsSARIF_Fingerprints(t *testing.T) {
	a, _ := FormatResponseAsSARIF(sampleResponse(), "/themes/t", "1.0.0")
	b, _ := FormatResponseAsSARIF(sampleResponse(), "/themes/t", "1.0.0")
	if a != b {
		t.Error("SARIF output is not deterministic")
	}

	var sarif SARIFReport
	if err := json.Unmarshal([]byte(a), &sarif); err != nil {
		t.Fatal(err)
	}
	seen := make(map[string]bool)
	for _, r := range sarif.Runs[0].Results {
		fp := r.Fingerprints["themesniff/v1"]
		if len(fp) != 16 {
			t.Errorf("fingerprint %q should be 16 hex chars", fp)
		}
		if seen[fp] {
			t.Errorf("duplicate fingerprint %q", fp)
		}
		seen[fp] = true
	}
}

func TestFormatResponseAsSARIF_Failure(t *testing.T) {
	resp := sniffer.Failure(errors.Newf(errors.ConfigError, "Theme is not selected."))
	output, err := FormatResponseAsSARIF(resp, "", "1.0.0")
	if err != nil {
		t.Fatal(err)
	}

	var sarif SARIFReport
	if err := json.Unmarshal([]byte(output), &sarif); err != nil {
		t.Fatal(err)
	}
	inv := sarif.Runs[0].Invocations[0]
	if inv.ExecutionSuccessful {
		t.Error("failed run reported as successful")
	}
	if len(inv.ToolExecutionNotes) != 1 || inv.ToolExecutionNotes[0].Message.Text != "Theme is not selected." {
		t.Errorf("notifications = %+v", inv.ToolExecutionNotes)
	}
	if sarif.Runs[0].Results == nil || len(sarif.Runs[0].Results) != 0 {
		t.Errorf("results = %+v, want empty", sarif.Runs[0].Results)
	}
}

func TestFormatResponseAsSARIF_RawRejected(t *testing.T) {
	if _, err := FormatResponseAsSARIF(&sniffer.Response{Success: true, Raw: true}, "", "1.0.0"); err == nil {
		t.Error("expected an error for raw output")
	}
}
