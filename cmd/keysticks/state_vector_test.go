package main

import (
	"slices"
	"testing"
)

func TestParseStateVector(t *testing.T) {
	tests := []struct {
		in      string
		want    StateVector
		wantErr bool
	}{
		{in: "1,2,104", want: StateVector{1, 2, 104}},
		{in: "1, next ,any", want: StateVector{1, NextID, DefaultID}},
		{in: "same,prev,none", want: StateVector{NoneID, PreviousID, NoneID}},
		{in: "2", want: StateVector{2, DefaultID, DefaultID}},
		{in: "", wantErr: true},
		{in: "1,2,3,4", wantErr: true},
		{in: "1,x", wantErr: true},
	}
	for _, tc := range tests {
		got, err := ParseStateVector(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("%q: expected an error, got %v", tc.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("%q: %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("%q: expected %v, got %v", tc.in, tc.want, got)
		}
	}

	s := StateVector{1, NoneID, NextID}
	if got := s.String(); got != "1,same,next" {
		t.Errorf("String: got %q", got)
	}
	var back StateVector
	if err := back.UnmarshalText([]byte(s.String())); err != nil || back != s {
		t.Errorf("text round trip: got %v, %v", back, err)
	}
}

func TestStateVector_Predicates(t *testing.T) {
	if (StateVector{1, DefaultID, DefaultID}).IsRelative() {
		t.Errorf("any axes are not relative")
	}
	if !(StateVector{1, NoneID, DefaultID}).IsRelative() {
		t.Errorf("same axis should be relative")
	}
	if !(StateVector{1, 2, 3}).IsSpecific() || (StateVector{1, DefaultID, 3}).IsSpecific() {
		t.Errorf("IsSpecific mismatch")
	}

	if !RootState().Contains(StateVector{4, 5, 6}) {
		t.Errorf("root should contain every state")
	}
	if !(StateVector{1, DefaultID, DefaultID}).Contains(StateVector{1, 2, 104}) {
		t.Errorf("control set should contain its cells")
	}
	if (StateVector{1, DefaultID, DefaultID}).Contains(StateVector{2, 2, 104}) {
		t.Errorf("control set should not contain another set's cells")
	}
}

func TestStateVector_ParentStates(t *testing.T) {
	tests := []struct {
		in   StateVector
		want []StateVector
	}{
		{StateVector{1, 2, 104}, []StateVector{{1, DefaultID, 104}, {1, 2, DefaultID}}},
		{StateVector{1, DefaultID, 104}, []StateVector{{1, DefaultID, DefaultID}}},
		{StateVector{1, 2, DefaultID}, []StateVector{{1, DefaultID, DefaultID}}},
		{StateVector{1, DefaultID, DefaultID}, []StateVector{RootState()}},
		{RootState(), nil},
	}
	for _, tc := range tests {
		if got := tc.in.ParentStates(); !slices.Equal(got, tc.want) {
			t.Errorf("%v: expected %v, got %v", tc.in, tc.want, got)
		}
	}
}

func testStateTree() *StateTree {
	return &StateTree{ControlSets: []*ControlSetDef{
		{ID: 1, Grid: GridSquare8x4, Pages: []*PageDef{{ID: 1}, {ID: 2}}},
		{ID: 2, Grid: GridActionStrip, Pages: []*PageDef{{ID: 1, Cells: []int{2, 3}}}},
	}}
}

func TestStateTree_RelativeToAbsolute(t *testing.T) {
	tree := testStateTree()
	tests := []struct {
		name     string
		rel, ref StateVector
		want     StateVector
	}{
		{"absolute unchanged", StateVector{2, 1, 3}, StateVector{1, 1, 104}, StateVector{2, 1, 3}},
		{"next page", StateVector{NoneID, NextID, NoneID}, StateVector{1, 1, 104}, StateVector{1, 2, 104}},
		{"next page wraps", StateVector{NoneID, NextID, NoneID}, StateVector{1, 2, 104}, StateVector{1, 1, 104}},
		{"next set stops at missing page", StateVector{NextID, NoneID, NoneID}, StateVector{1, 2, 104}, StateVector{2, DefaultID, DefaultID}},
		{"previous cell wraps", StateVector{NoneID, NoneID, PreviousID}, StateVector{2, 1, 2}, StateVector{2, 1, 3}},
		{"same cell outside page", StateVector{2, 1, NoneID}, StateVector{1, 1, 104}, StateVector{2, 1, DefaultID}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tree.RelativeToAbsolute(tc.rel, tc.ref); got != tc.want {
				t.Errorf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestStateTree_MakeSpecific(t *testing.T) {
	tree := testStateTree()
	tests := []struct {
		in   StateVector
		want StateVector
	}{
		{StateVector{1, DefaultID, DefaultID}, StateVector{1, 1, CentreCellID}},
		{StateVector{2, 1, DefaultID}, StateVector{2, 1, 2}},
		{StateVector{1, 2, 100}, StateVector{1, 2, 100}},
		{StateVector{3, DefaultID, DefaultID}, RootState()},
		{StateVector{1, 5, 104}, StateVector{1, 5, 104}},
		{StateVector{1, 5, DefaultID}, StateVector{1, DefaultID, DefaultID}},
		{RootState(), StateVector{1, 1, CentreCellID}},
	}
	for _, tc := range tests {
		if got := tree.MakeSpecific(tc.in); got != tc.want {
			t.Errorf("%v: expected %v, got %v", tc.in, tc.want, got)
		}
	}

	if got := tree.InitialState(); got != (StateVector{1, DefaultID, DefaultID}) {
		t.Errorf("initial state: got %v", got)
	}
}
