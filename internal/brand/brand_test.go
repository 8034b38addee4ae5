package brand

import (
	"errors"
	"testing"
)

func TestLookupByCode(t *testing.T) {
	tests := []struct {
		in       string
		wantCode string
		wantName string
	}{
		{"BNQ", "BNQ", "BenQ"},
		{"bnq", "BNQ", "BenQ"},
		{"DEL", "DEL", "Dell"},
		{"gsm", "GSM", "LG"},
	}

	for _, tt := range tests {
		code, name, err := Lookup(tt.in)
		if err != nil {
			t.Errorf("Lookup(%q) returned error: %v", tt.in, err)
			continue
		}
		if code != tt.wantCode || name != tt.wantName {
			t.Errorf("Lookup(%q) = (%q, %q), want (%q, %q)", tt.in, code, name, tt.wantCode, tt.wantName)
		}
	}
}

func TestLookupByName(t *testing.T) {
	code, name, err := Lookup("benq")
	if err != nil {
		t.Fatalf("Lookup(benq) returned error: %v", err)
	}
	if code != "BNQ" || name != "BenQ" {
		t.Errorf("Lookup(benq) = (%q, %q), want (BNQ, BenQ)", code, name)
	}
}

func TestLookupNameDeterministic(t *testing.T) {
	// HP has two codes (HPN, HWP); the lexically smallest must win every time.
	for range 20 {
		code, _, err := Lookup("HP")
		if err != nil {
			t.Fatalf("Lookup(HP) returned error: %v", err)
		}
		if code != "HPN" {
			t.Fatalf("Lookup(HP) code = %q, want HPN", code)
		}
	}
}

func TestLookupUnknown(t *testing.T) {
	for _, in := range []string{"ZZZ", "Nonexistent Displays Inc", ""} {
		if _, _, err := Lookup(in); !errors.Is(err, ErrUnknownBrand) {
			t.Errorf("Lookup(%q) error = %v, want ErrUnknownBrand", in, err)
		}
	}
}
