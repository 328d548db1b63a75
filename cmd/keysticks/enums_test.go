package main

import "testing"

func TestEnumString_UnknownFallsBackToNumber(t *testing.T) {
	tests := []struct {
		got, want string
	}{
		{ActionMaximiseWindow.String(), "maximise_window"},
		{ActionType(999).String(), "999"},
		{EventReason(-3).String(), "-3"},
		{GridType(42).String(), "42"},
	}
	for _, tc := range tests {
		if tc.got != tc.want {
			t.Errorf("got %q, want %q", tc.got, tc.want)
		}
	}
}

func TestParseEnum_Normalises(t *testing.T) {
	for _, name := range []string{"maximise_window", "Maximise-Window", " maximise window "} {
		v, ok := parseEnum(actionTypeNames, name)
		if !ok || v != ActionMaximiseWindow {
			t.Errorf("parseEnum(%q) = %v, %v", name, v, ok)
		}
	}
	if _, ok := parseEnum(actionTypeNames, "fly"); ok {
		t.Error("unknown name accepted")
	}
}
