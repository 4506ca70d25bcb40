package core

import "testing"

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"1", "1", true},
		{"1.0", "1", true},
		{"1.23", "1.23", true},
		{"1,23", "1.23", true},
		{"12,5", "12.5", true},
		{"1,000", "", false}, // thousands or decimal separator, can't tell
		{"12,3456", "12.3456", true},
		{"0.01", "0.01", true},
		{"1.005", "1.005", true}, // no rounding
		{" 2.50 ", "2.5", true},
		{"-1", "", false},
		{"0", "", false},
		{"abc", "", false},
		{"1.2.3", "", false},
		{"", "", false},
		{"NaN", "", false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || got.String() != tc.out {
				t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}

func TestMoneyValidate(t *testing.T) {
	if err := MustMoney("0.01").Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := Zero.Validate(); err == nil {
		t.Fatalf("expected error for zero")
	}
}

func TestMoneyExactSums(t *testing.T) {
	// 0.1 + 0.2 drifts in binary floating point.
	sum := MustMoney("0.1").Add(MustMoney("0.2"))
	if !sum.Equal(MustMoney("0.3")) {
		t.Fatalf("expected exact 0.3, got %s", sum)
	}
}

func TestMoneyFormat(t *testing.T) {
	if got := MustMoney("1234.5").Format("EUR"); got != "€1,234.50" {
		t.Fatalf("EUR format: %q", got)
	}
	if got := MustMoney("3").Format("XXX-unknown"); got != "3.00 XXX-unknown" {
		t.Fatalf("unknown currency format: %q", got)
	}
}

func TestMoneyText(t *testing.T) {
	var m Money
	if err := m.UnmarshalText([]byte("12.340")); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	b, _ := m.MarshalText()
	if string(b) != "12.34" {
		t.Fatalf("marshal: %s", b)
	}
	if err := m.UnmarshalText([]byte("x")); err == nil {
		t.Fatalf("expected error")
	}
}
