package duration

import (
	"errors"
	"testing"
)

func TestParseMinutes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want int64
	}{
		{"10", 600},
		{"-10", -600},
		{"+10", 600},
		{"2.5", 150},
		{"-1", -60},
		{"0", 0},
		{"-0", 0},
		{"0.5", 30},
		{"-2.5", -150},
		{"1.25", 75},
		// Truncation, never rounding: 0.016 min = 0.96 s.
		{"0.016", 0},
		{"0.999", 59},
		{"15.0", 900},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()

			got, err := ParseMinutes(tt.in)
			if err != nil {
				t.Fatalf("ParseMinutes(%q) unexpected error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseMinutes(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseMinutes_Invalid(t *testing.T) {
	t.Parallel()

	for _, in := range []string{
		"", "--10", "++1", "10_", "abc", "1.2.3", ".5", "1.", "-", "+", "10 ", " 10",
	} {
		in := in
		t.Run(in, func(t *testing.T) {
			t.Parallel()

			if _, err := ParseMinutes(in); !errors.Is(err, ErrFormat) {
				t.Errorf("ParseMinutes(%q) error = %v, want ErrFormat", in, err)
			}
		})
	}
}
