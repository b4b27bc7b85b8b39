package align

import "testing"

func TestNormalizeIdentifier(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{"PRB-123", "123"},
		{"prb 123", "123"},
		{"PRB_00042", "00042"},
		{"PRB#77", "77"},
		{"HIIM-67890", "67890"},
		{"hiim67890", "67890"},
		{"  123  ", "123"},
		{"12 34", "1234"},
		{"INC-9", "INC-9"},
		{"", ""},
		{"   ", ""},
	}
	for _, tc := range cases {
		if got := NormalizeIdentifier(tc.raw); got != tc.want {
			t.Errorf("NormalizeIdentifier(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}

func TestSameIdentifierEmptyNeverMatches(t *testing.T) {
	if sameIdentifier("", "") {
		t.Error("two empty identifiers must not match")
	}
	if sameIdentifier("PRB-", "") {
		t.Error("prefix-only identifier must not match empty")
	}
	if !sameIdentifier("PRB-123", "123") {
		t.Error("PRB-123 should match bare 123")
	}
	if !sameIdentifier("hiim 500", "HIIM-500") {
		t.Error("separator and case must not affect identity")
	}
}
