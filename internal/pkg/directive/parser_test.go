package directive

import (
	"errors"
	"testing"
)

func TestParserValidate(t *testing.T) {
	p := NewParser()

	tests := []struct {
		name    string
		d       Directive
		wantErr error
	}{
		{
			name: "valid routable",
			d:    Directive{ID: Rebuttal, Name: "rebuttal", Version: "v1", Description: "d", RoutingHint: "h", SystemPrompt: "p"},
		},
		{
			name: "valid non routable without hint",
			d:    Directive{ID: Grader, Name: "grader", Description: "d", SystemPrompt: "p"},
		},
		{
			name:    "unknown id",
			d:       Directive{ID: 77, Name: "x", Description: "d", SystemPrompt: "p"},
			wantErr: ErrInvalidDirective,
		},
		{
			name:    "empty name",
			d:       Directive{ID: Rebuttal, Description: "d", RoutingHint: "h", SystemPrompt: "p"},
			wantErr: ErrInvalidName,
		},
		{
			name:    "uppercase name",
			d:       Directive{ID: Rebuttal, Name: "Rebuttal", Description: "d", RoutingHint: "h", SystemPrompt: "p"},
			wantErr: ErrInvalidName,
		},
		{
			name:    "name bound to other id",
			d:       Directive{ID: Rebuttal, Name: "grader", Description: "d", RoutingHint: "h", SystemPrompt: "p"},
			wantErr: ErrInvalidName,
		},
		{
			name:    "bad version",
			d:       Directive{ID: Rebuttal, Name: "rebuttal", Version: "1.0", Description: "d", RoutingHint: "h", SystemPrompt: "p"},
			wantErr: ErrInvalidDirective,
		},
		{
			name:    "missing prompt",
			d:       Directive{ID: Rebuttal, Name: "rebuttal", Description: "d", RoutingHint: "h", SystemPrompt: "  "},
			wantErr: ErrInvalidDirective,
		},
		{
			name:    "routable without hint",
			d:       Directive{ID: UserClarification, Name: "user-clarification", Description: "d", SystemPrompt: "p"},
			wantErr: ErrInvalidDirective,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := p.Validate(&tt.d)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestParseInvalidYAML(t *testing.T) {
	_, err := NewParser().Parse([]byte("id: [unclosed"))
	if !errors.Is(err, ErrInvalidDirective) {
		t.Fatalf("expected ErrInvalidDirective, got %v", err)
	}
}

func TestIsValidName(t *testing.T) {
	cases := map[string]bool{
		"rebuttal":           true,
		"user-clarification": true,
		"-lead":              false,
		"trail-":             false,
		"double--dash":       false,
		"has space":          false,
		"":                   false,
	}
	for name, want := range cases {
		if got := isValidName(name); got != want {
			t.Errorf("isValidName(%q) = %v, want %v", name, got, want)
		}
	}
}
