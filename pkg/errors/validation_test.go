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
		{"valid simple", "n1", false},
		{"valid uuid-like", "4f1c-22ab", false},
		{"valid with spaces inside", "db pool 3", false},
		{"valid unicode", "ノード", false},

		{"empty", "", true},
		{"too long", strings.Repeat("a", 257), true},
		{"null byte", "foo\x00bar", true},
		{"newline", "foo\nbar", true},
		{"leading space", " n1", true},
		{"trailing tab", "n1\t", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateNodeID(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateNodeID(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidNode) {
				t.Errorf("ValidateNodeID(%q) code = %v, want %v", tt.input, GetCode(err), ErrCodeInvalidNode)
			}
		})
	}
}

func TestValidateSessionID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid", "0b5f0b6e-8c9e-4f6a-9d2c-3b1f7c2f4e11", false},

		{"empty", "", true},
		{"not a uuid", "session-1", true},
		{"uppercase", "0B5F0B6E-8C9E-4F6A-9D2C-3B1F7C2F4E11", true},
		{"braced", "{0b5f0b6e-8c9e-4f6a-9d2c-3b1f7c2f4e11}", true},
		{"traversal", "../../etc/passwd", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSessionID(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateSessionID(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
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
		{"relative", "logs/nodes.json", false},
		{"absolute", "/var/log/nodes.jsonl", false},
		{"stdin", "-", false},

		{"empty", "", true},
		{"null byte", "nodes\x00.json", true},
		{"control char", "nodes\x01.json", true},
		{"too long", strings.Repeat("a", 4097), true},
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
