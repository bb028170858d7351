package phonenumber

import "testing"

func TestNormalize(t *testing.T) {
	cases := []struct {
		in   string
		want Number
	}{
		{"702-555-1234", "17025551234"},
		{"(702) 555-1234", "17025551234"},
		{"17025551234", "17025551234"},
		{"+1 702 555 1234", "17025551234"},
		{"", ""},
	}
	for _, c := range cases {
		if got := Normalize(c.in); got != c.want {
			t.Errorf("Normalize(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{"702-555-1234", "17025551234", "", "1 (800) 555-0000"}
	for _, in := range inputs {
		once := Normalize(in)
		twice := Normalize(string(once))
		if once != twice {
			t.Errorf("Normalize not idempotent for %q: %q vs %q", in, once, twice)
		}
	}
}

func TestEqual(t *testing.T) {
	if !Equal("702-555-1234", "17025551234") {
		t.Error("expected equal")
	}
	if Equal("702-555-1234", "702-555-1235") {
		t.Error("expected not equal")
	}
}
