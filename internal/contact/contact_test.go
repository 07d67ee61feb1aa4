package contact

import (
	"errors"
	"testing"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"LocalFormat", "08012345678", "+2348012345678"},
		{"Canonical", "+2348012345678", "+2348012345678"},
		{"CountryCodeWithoutPlus", "2348012345678", "+2348012345678"},
		{"Spaced", " 0801 234 5678 ", "+2348012345678"},
		{"Dashed", "0801-234-5678", "+2348012345678"},
		{"Parenthesised", "+234 (801) 234-5678", "+2348012345678"},
		{"StrayPlus", "0801+234+5678", "+2348012345678"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizePhone(tt.in)
			if err != nil {
				t.Fatalf("NormalizePhone(%q) returned error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("NormalizePhone(%q) = %q, want %q", tt.in, got, tt.want)
			}

			again, err := NormalizePhone(got)
			if err != nil || again != got {
				t.Errorf("normalization not idempotent: %q -> %q (%v)", got, again, err)
			}
		})
	}
}

func TestNormalizePhoneRejects(t *testing.T) {
	for _, in := range []string{
		"",
		"8012345678",
		"080123456",
		"080123456789",
		"+2358012345678",
		"not a phone",
	} {
		if got, err := NormalizePhone(in); !errors.Is(err, ErrInvalidPhoneFormat) {
			t.Errorf("NormalizePhone(%q) = %q, %v; want ErrInvalidPhoneFormat", in, got, err)
		}
	}
}

func TestNormalizeEmail(t *testing.T) {
	if got := NormalizeEmail("  Ada@Example.COM "); got != "ada@example.com" {
		t.Errorf("unexpected email %q", got)
	}
}

func TestMasking(t *testing.T) {
	if got := MaskEmail("ada@example.com"); got != "a**@example.com" {
		t.Errorf("MaskEmail = %q", got)
	}
	if got := MaskEmail("x"); got != "*" {
		t.Errorf("MaskEmail short = %q", got)
	}
	if got := MaskPhone("+2348012345678"); got != "+234*******678" {
		t.Errorf("MaskPhone = %q", got)
	}
	if got := MaskPhone(""); got != "" {
		t.Errorf("MaskPhone empty = %q", got)
	}
}
