package outreach

import (
	"errors"
	"testing"
)

func TestValidate(t *testing.T) {
	tests := map[string]struct {
		input  Candidate
		expect error
	}{
		"name and phone": {
			input: Candidate{Name: "PT Maju", Phone: "0812"},
		},
		"name and email": {
			input: Candidate{Name: "PT Maju", Email: "pr@maju.co.id"},
		},
		"blank name": {
			input:  Candidate{Name: "   ", Email: "pr@maju.co.id"},
			expect: ErrMissingName,
		},
		"name checked before contact": {
			input:  Candidate{},
			expect: ErrMissingName,
		},
		"whitespace contacts": {
			input:  Candidate{Name: "PT Maju", Email: " ", Phone: "\t"},
			expect: ErrMissingContact,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			err := Validate(tt.input)
			if tt.expect == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.expect) {
				t.Fatalf("expected %v, got %v", tt.expect, err)
			}
			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("expected ValidationError, got %T", err)
			}
		})
	}
}

func TestValidationErrorIsDistinct(t *testing.T) {
	if errors.Is(ErrMissingName, ErrMissingContact) {
		t.Fatalf("reasons must not match each other")
	}
	if errors.Is(errors.New("missing_name"), ErrMissingName) {
		t.Fatalf("plain errors must not match validation errors")
	}
}
