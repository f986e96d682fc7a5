package core

import "testing"

func TestParseDay(t *testing.T) {
	cases := []struct {
		in string
		ok bool
	}{
		{"2024-01-01", true},
		{"2024-12-31", true},
		{"", false},
		{"   ", false},
		{"2024-1-2", false},  // not zero-padded
		{"01/02/2024", false},
		{"2024-02-30", false},
	}
	for i, tc := range cases {
		_, err := ParseDay(tc.in)
		if tc.ok && err != nil {
			t.Fatalf("case %d (%q) expected ok, got %v", i, tc.in, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d (%q) expected error", i, tc.in)
		}
	}
}

func TestEntryValidate(t *testing.T) {
	good := Entry{Date: "2024-03-05", Type: Goofing, Description: "silly hats"}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []Entry{
		{Date: "", Type: Goofing},
		{Date: "2024-03-05", Type: "napping"},
		{Date: "2024-3-5", Type: Goofing},
	}
	for i, e := range bads {
		if err := e.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestDelightTypeIsValid(t *testing.T) {
	if len(Delights) != 9 {
		t.Fatalf("expected 9 delights, got %d", len(Delights))
	}
	for _, d := range Delights {
		if !d.Type.IsValid() {
			t.Fatalf("%q should be valid", d.Type)
		}
	}
	if DelightType("napping").IsValid() {
		t.Fatal("unknown type should be invalid")
	}
}

func TestDisplayName(t *testing.T) {
	cases := []struct {
		e    Entry
		want string
	}{
		{Entry{Type: Fellowship}, "Fellowship"},
		{Entry{Type: Wildcard, WildcardName: "stargazing"}, "Wildcard: stargazing"},
		{Entry{Type: Wildcard}, "Wildcard"},
		// WildcardName on a non-wildcard entry is ignored.
		{Entry{Type: Decadence, WildcardName: "stargazing"}, "Decadence"},
	}
	for i, tc := range cases {
		if got := tc.e.DisplayName(); got != tc.want {
			t.Fatalf("case %d: got %q, want %q", i, got, tc.want)
		}
	}
}
