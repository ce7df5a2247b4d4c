package errors

import (
	"strings"
	"testing"
)

func TestValidateNodeID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "parent", false},
		{"dotted", "rmt_dags.group.task", false},
		{"with spaces", "my node", false},
		{"unicode", "knoten-ä", false},

		{"empty", "", true},
		{"too long", strings.Repeat("a", MaxNodeIDLength+1), true},
		{"null byte", "foo\x00bar", true},
		{"newline", "foo\nbar", true},
		{"control char", "foo\x01bar", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateNodeID(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateNodeID(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidInput) {
				t.Errorf("ValidateNodeID(%q) code = %v, want %v", tt.input, GetCode(err), ErrCodeInvalidInput)
			}
		})
	}
}

func TestValidateDocumentFilename(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantCode Code
	}{
		{"json", "graph.json", ""},
		{"yaml", "graph.yaml", ""},
		{"yml upper", "dir/GRAPH.YML", ""},
		{"empty", "", ErrCodeInvalidInput},
		{"no extension", "graph", ErrCodeInvalidFormat},
		{"toml", "graph.toml", ErrCodeInvalidFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDocumentFilename(tt.input)
			if got := GetCode(err); got != tt.wantCode {
				t.Errorf("ValidateDocumentFilename(%q) code = %q, want %q", tt.input, got, tt.wantCode)
			}
		})
	}
}

func TestValidatePath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple file", "graph.json", false},
		{"nested path", "testdata/graphs/nested.yaml", false},

		{"empty", "", true},
		{"absolute path", "/etc/passwd", true},
		{"path traversal", "../../../etc/passwd", true},
		{"path traversal middle", "foo/../bar", true},
		{"backslash", "foo\\bar", true},
		{"null byte", "foo\x00bar", true},
		{"too long", strings.Repeat("a", 600), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePath(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePath(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateOneOf(t *testing.T) {
	if err := ValidateOneOf("engine", "layered", "layered", "graphviz"); err != nil {
		t.Errorf("ValidateOneOf() unexpected error: %v", err)
	}

	err := ValidateOneOf("engine", "elk", "layered", "graphviz")
	if err == nil {
		t.Fatal("ValidateOneOf() expected error")
	}
	if !strings.Contains(err.Error(), "layered, graphviz") {
		t.Errorf("error should list allowed values: %v", err)
	}
}
