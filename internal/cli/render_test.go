package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/neatgraph/neatgraph/pkg/pipeline"
)

func TestBasePath(t *testing.T) {
	tests := []struct {
		name   string
		output string
		input  string
		want   string
	}{
		{"empty output strips input ext", "", "diagram.json", "diagram"},
		{"empty output with path", "", "out/diagram.json", "out/diagram"},
		{"output with svg ext", "result.svg", "diagram.json", "result"},
		{"output with png ext", "result.png", "diagram.json", "result"},
		{"output without ext", "artifacts/result", "diagram.json", "artifacts/result"},
		{"output with unknown ext", "result.txt", "diagram.json", "result.txt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := basePath(tt.output, tt.input)
			if got != tt.want {
				t.Errorf("basePath(%q, %q) = %q, want %q", tt.output, tt.input, got, tt.want)
			}
		})
	}
}

func TestValidateFormats(t *testing.T) {
	tests := []struct {
		name    string
		formats []string
		wantErr bool
	}{
		{"valid svg", []string{"svg"}, false},
		{"valid png", []string{"png"}, false},
		{"valid dot", []string{"dot"}, false},
		{"valid json", []string{"json"}, false},
		{"valid multiple", []string{"svg", "png", "dot", "json"}, false},
		{"invalid format", []string{"tiff"}, true},
		{"pdf unsupported", []string{"pdf"}, true},
		{"mixed valid invalid", []string{"svg", "tiff"}, true},
		{"empty slice", []string{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := pipeline.ValidateFormats(tt.formats)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateFormats(%v) error = %v, wantErr %v", tt.formats, err, tt.wantErr)
			}
		})
	}
}

func TestValidFormatsMap(t *testing.T) {
	expected := map[string]bool{
		"svg":  true,
		"png":  true,
		"dot":  true,
		"json": true,
	}

	for k, v := range expected {
		if pipeline.ValidFormats[k] != v {
			t.Errorf("ValidFormats[%q] = %v, want %v", k, pipeline.ValidFormats[k], v)
		}
	}

	if pipeline.ValidFormats["pdf"] {
		t.Error("ValidFormats[pdf] should be false")
	}
}

func TestWriteArtifactsSingle(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "diagram.json")

	err := writeArtifacts(artifactWriteParams{
		artifacts: map[string][]byte{"svg": []byte("<svg/>")},
		formats:   []string{"svg"},
		input:     input,
		nodes:     3,
		edges:     2,
	})
	if err != nil {
		t.Fatalf("writeArtifacts() error: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "diagram.svg"))
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if string(data) != "<svg/>" {
		t.Errorf("output = %q, want %q", data, "<svg/>")
	}
}

func TestWriteArtifactsExplicitOutput(t *testing.T) {
	dir := t.TempDir()
	output := filepath.Join(dir, "custom.svg")

	err := writeArtifacts(artifactWriteParams{
		artifacts: map[string][]byte{"svg": []byte("<svg/>")},
		formats:   []string{"svg"},
		input:     "diagram.json",
		output:    output,
	})
	if err != nil {
		t.Fatalf("writeArtifacts() error: %v", err)
	}

	if _, err := os.Stat(output); err != nil {
		t.Errorf("expected output at %s: %v", output, err)
	}
}

func TestWriteArtifactsMultiple(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "diagram.json")

	err := writeArtifacts(artifactWriteParams{
		artifacts: map[string][]byte{
			"svg": []byte("<svg/>"),
			"dot": []byte("digraph{}"),
		},
		formats: []string{"svg", "dot"},
		input:   input,
	})
	if err != nil {
		t.Fatalf("writeArtifacts() error: %v", err)
	}

	for _, want := range []string{"diagram.svg", "diagram.dot"} {
		if _, err := os.Stat(filepath.Join(dir, want)); err != nil {
			t.Errorf("expected output %s: %v", want, err)
		}
	}
}

func TestWriteArtifactsMissingFormat(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "diagram.json")

	// A format with no artifact is reported, not written.
	err := writeArtifacts(artifactWriteParams{
		artifacts: map[string][]byte{"json": []byte("{}")},
		formats:   []string{"json", "svg"},
		input:     input,
	})
	if err != nil {
		t.Fatalf("writeArtifacts() error: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "diagram.json.svg")); err == nil {
		t.Error("svg output should not exist")
	}
	if _, err := os.Stat(filepath.Join(dir, "diagram.svg")); err == nil {
		t.Error("svg output should not exist")
	}
	if _, err := os.Stat(filepath.Join(dir, "diagram.json")); err != nil {
		t.Errorf("json output should exist: %v", err)
	}
}
