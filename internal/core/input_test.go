package core

import "testing"

func TestParseAction(t *testing.T) {
	tests := []struct {
		name     string
		expected Action
		ok       bool
	}{
		{"run", ActionRun, true},
		{" Step ", ActionStep, true},
		{"RESET", ActionReset, true},
		{"none", ActionNone, false},
		{"jump", ActionNone, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ParseAction(tc.name)
			if got != tc.expected || ok != tc.ok {
				t.Errorf("ParseAction(%q) = %v, %v, expected %v, %v", tc.name, got, ok, tc.expected, tc.ok)
			}
		})
	}
}

func TestActionStringRoundTrip(t *testing.T) {
	for a := ActionRun; a <= ActionQuit; a++ {
		got, ok := ParseAction(a.String())
		if !ok || got != a {
			t.Errorf("ParseAction(%q) = %v, expected %v", a.String(), got, a)
		}
	}
	if Action(99).String() != "unknown" {
		t.Errorf("Action(99).String() = %q", Action(99).String())
	}
}
