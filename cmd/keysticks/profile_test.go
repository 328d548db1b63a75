package main

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const typingProfileYAML = `
sources:
  - id: 1
    name: pad
    controls:
      - {type: button, id: 1, code: 304}
      - {type: dpad, id: 1, up: 544, down: 545, left: 546, right: 547}
    control_sets:
      - id: 1
        grid: square8x4
        pages:
          - id: 1
          - {id: 2, cells: [100, 101]}
    initial_state: "1,1,104"
    action_sets:
      - state: "1,any,any"
        control: {type: button, id: 1}
        lists:
          - reason: pressed
            actions:
              - {type: type_key, key: A, modifiers: [shift]}
      - state: "1,1,any"
        control: {type: dpad, id: 1, direction: right}
        lists:
          - reason: directed
            actions:
              - {type: navigate_cells, direction: right}
`

func TestLoadProfileFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "typing.yaml")
	if err := os.WriteFile(path, []byte(typingProfileYAML), 0o644); err != nil {
		t.Fatal(err)
	}

	p, err := LoadProfileFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if p.Name != "typing" {
		t.Errorf("expected name from file, got %q", p.Name)
	}
	src := p.Sources[0]
	if len(src.Controls) != 2 || src.Controls[0].Code != BTN_SOUTH || src.Controls[1].Right != BTN_DPAD_RIGHT {
		t.Errorf("unexpected controls %+v", src.Controls)
	}
	if got := src.initialState(); got != (StateVector{1, 1, CentreCellID}) {
		t.Errorf("initial state: got %v", got)
	}
	if cs := src.controlSet(1); cs == nil || cs.Grid != GridSquare8x4 || len(cs.page(2).Cells) != 2 {
		t.Errorf("unexpected control set %+v", cs)
	}
	set := src.ActionSets[1]
	if set.Control != (ControlID{Type: ControlDPad, ID: 1, Direction: LRUDRight}) {
		t.Errorf("unexpected directed control %v", set.Control)
	}
	if a := src.ActionSets[0].Lists[0].Actions[0]; a.Type != ActionTypeKey || a.Key != KeyA {
		t.Errorf("unexpected action %+v", a)
	}
	if !p.HasActionsOfType(ActionNavigateCells) || p.HasActionsOfType(ActionWordPrediction) {
		t.Errorf("HasActionsOfType mismatch")
	}
	if p.HasAutoActivations() {
		t.Errorf("profile has no auto activations")
	}
}

func TestDecodeProfile_Rejects(t *testing.T) {
	docs := map[string]string{
		"unknown field":  "name: x\ncolour: blue\n",
		"unknown enum":   "sources:\n  - id: 1\n    controls:\n      - {type: wheel, id: 1}\n",
		"bad state":      "sources:\n  - id: 1\n    initial_state: \"1,x\"\n",
		"second profile": "name: a\n---\nname: b\n",
	}
	for name, doc := range docs {
		if _, err := decodeProfile([]byte(doc)); err == nil {
			t.Errorf("%s: expected an error", name)
		}
	}
}

func TestProfileValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Profile)
		want   string
	}{
		{"no sources", func(p *Profile) { p.Sources = nil }, "sources must not be empty"},
		{"duplicate source", func(p *Profile) { p.Sources = append(p.Sources, p.Sources[0]) }, "duplicated"},
		{"duplicate control", func(p *Profile) {
			p.Sources[0].Controls = append(p.Sources[0].Controls, &ControlDef{Type: ControlButton, ID: 1})
		}, "duplicate control"},
		{"bad cell", func(p *Profile) {
			p.Sources[0].ControlSets[0].Pages[0].Cells = []int{7}
		}, "is not a square8x4 cell"},
		{"relative action set", func(p *Profile) {
			p.Sources[0].ActionSets[0].State = StateVector{NoneID, DefaultID, DefaultID}
		}, "must not be relative"},
		{"unknown control", func(p *Profile) {
			p.Sources[0].ActionSets[0].Control = ControlID{Type: ControlStick, ID: 1}
		}, "unknown control"},
		{"missing key", func(p *Profile) {
			p.Sources[0].ActionSets[2].Lists[0].Actions[0].Key = KeyNone
		}, "key must be set"},
		{"bad modifier", func(p *Profile) {
			p.Sources[0].ActionSets[2].Lists[0].Actions[0].Modifiers = []string{"hyper"}
		}, "unknown modifier"},
		{"auto activation", func(p *Profile) {
			p.Sources[0].AutoActivations = []*AutoActivation{{State: StateVector{1, 1, 104}}}
		}, "must set process or title"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := squareGridProfile()
			tc.mutate(p)
			err := p.Validate()
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Errorf("expected error containing %q, got %v", tc.want, err)
			}
		})
	}

	if err := squareGridProfile().Validate(); err != nil {
		t.Errorf("fixture profile should be valid: %v", err)
	}
	var nilProfile *Profile
	if err := nilProfile.Validate(); !errors.Is(err, errProfileNotSet) {
		t.Errorf("expected errProfileNotSet, got %v", err)
	}
}

func TestProfileValidate_NullEntries(t *testing.T) {
	insert := func(before, entry string) string {
		if !strings.Contains(typingProfileYAML, before) {
			t.Fatalf("fixture has no %q", before)
		}
		return strings.Replace(typingProfileYAML, before, entry+before, 1)
	}
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"source", insert("  - id: 1\n    name: pad", "  - ~\n"), "sources[0] is empty"},
		{"control", insert("      - {type: button", "      - ~\n"), "sources[0].controls[0] is empty"},
		{"control set", insert("      - id: 1\n        grid", "      - ~\n"), "sources[0].control_sets[0] is empty"},
		{"page", insert("          - id: 1\n", "          - ~\n"), "sources[0].control_sets[0].pages[0] is empty"},
		{"action set", insert("      - state: \"1,any,any\"", "      - ~\n"), "sources[0].action_sets[0] is empty"},
		{"list", insert("          - reason: pressed", "          - ~\n"), "sources[0].action_sets[0].lists[0] is empty"},
		{"action", insert("              - {type: type_key", "              - ~\n"), "sources[0].action_sets[0].lists[0].actions[0] is empty"},
		{"auto activation", insert("    action_sets:", "    auto_activations: [~]\n"), "sources[0].auto_activations[0] is empty"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p, err := decodeProfile([]byte(tc.doc))
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			err = p.Validate()
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Errorf("expected error containing %q, got %v", tc.want, err)
			}
		})
	}
}

func TestProfileClone_Independent(t *testing.T) {
	orig := squareGridProfile()
	orig.Sources[0].ActionSets[2].Lists[0].Actions[0].Modifiers = []string{"ctrl"}

	c := orig.Clone()
	c.Name = "copy"
	c.Sources[0].Controls[0].Code = 1
	c.Sources[0].ControlSets[0].Pages[0].Cells = append(c.Sources[0].ControlSets[0].Pages[0].Cells, 100)
	c.Sources[0].ActionSets[2].Lists[0].Actions[0].Modifiers[0] = "alt"
	*c.Sources[0].InitialState = StateVector{2, 2, 2}

	if orig.Name == "copy" || orig.Sources[0].Controls[0].Code == 1 {
		t.Errorf("clone shares top-level data with the original")
	}
	if len(orig.Sources[0].ControlSets[0].Pages[0].Cells) != 0 {
		t.Errorf("clone shares page cells")
	}
	if orig.Sources[0].ActionSets[2].Lists[0].Actions[0].Modifiers[0] != "ctrl" {
		t.Errorf("clone shares action modifiers")
	}
	if *orig.Sources[0].InitialState == (StateVector{2, 2, 2}) {
		t.Errorf("clone shares the initial state")
	}

	var nilProfile *Profile
	if nilProfile.Clone() != nil {
		t.Errorf("clone of nil should be nil")
	}
}

func TestResolveProfilePath(t *testing.T) {
	tests := []struct {
		in, dir, want string
	}{
		{"typing", "/etc/keysticks", "/etc/keysticks/typing.yaml"},
		{"typing.yml", "/etc/keysticks", "/etc/keysticks/typing.yml"},
		{"/opt/p/typing.yaml", "/etc/keysticks", "/opt/p/typing.yaml"},
		{"./local", "/etc/keysticks", "./local"},
	}
	for _, tc := range tests {
		if got := resolveProfilePath(tc.in, tc.dir); got != tc.want {
			t.Errorf("resolveProfilePath(%q, %q) = %q, want %q", tc.in, tc.dir, got, tc.want)
		}
	}
}
