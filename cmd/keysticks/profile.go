package main

import (
	"errors"
	"fmt"
	"slices"
)

var errProfileNotSet = errors.New("profile not set")

// ============================================================================
// Profile Model
// ============================================================================
// A Profile is the immutable description of what every player's controls do.
// It is published to the engine as a snapshot: the orchestrator stores a
// clone, and the engine builds its own runtime controls and actions from
// another clone, so nothing built from a profile is shared between loops.
// ============================================================================

type Profile struct {
	Name    string       `yaml:"name"`
	Sources []*SourceDef `yaml:"sources"`
}

// SourceDef is one player: the virtual controls it exposes, the devices that
// drive them, its state tree and its action mappings.
type SourceDef struct {
	ID       int           `yaml:"id"`
	Name     string        `yaml:"name,omitempty"`
	Devices  []string      `yaml:"devices,omitempty"`
	Controls []*ControlDef `yaml:"controls"`

	StateTree `yaml:",inline"`

	InitialState    *StateVector      `yaml:"initial_state,omitempty"`
	DefaultState    *StateVector      `yaml:"default_state,omitempty"`
	AutoActivations []*AutoActivation `yaml:"auto_activations,omitempty"`
	ActionSets      []*ActionSetDef   `yaml:"action_sets,omitempty"`
}

// ControlSetDef is the top level of a state tree. Grid is the cell topology
// used by NavigateCells while the control set is current.
type ControlSetDef struct {
	ID    int        `yaml:"id"`
	Name  string     `yaml:"name,omitempty"`
	Grid  GridType   `yaml:"grid,omitempty"`
	Pages []*PageDef `yaml:"pages,omitempty"`
}

func (cs *ControlSetDef) page(id int) *PageDef {
	for _, p := range cs.Pages {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// PageDef is one page of a control set. Cells is only set for pages that use
// a subset of the grid, such as action strips.
type PageDef struct {
	ID    int    `yaml:"id"`
	Name  string `yaml:"name,omitempty"`
	Cells []int  `yaml:"cells,omitempty"`
}

// AutoActivation switches a player's state while a matching window has focus.
// Process and Title match case-insensitively; an empty field matches anything.
type AutoActivation struct {
	Process string      `yaml:"process,omitempty"`
	Title   string      `yaml:"title,omitempty"`
	State   StateVector `yaml:"state"`
}

// ControlDef binds a virtual control to physical device codes. Which fields
// apply depends on Type:
//
//	button          Code
//	trigger         Axis
//	stick           AxisX, AxisY and optionally Code for the click
//	dpad            AxisX/AxisY hat axes, or Up/Down/Left/Right buttons
//	button_diamond  Up/Down/Left/Right buttons
type ControlDef struct {
	Type ControlType `yaml:"type"`
	ID   int         `yaml:"id"`
	Name string      `yaml:"name,omitempty"`

	Code  uint16 `yaml:"code,omitempty"`
	Axis  uint16 `yaml:"axis,omitempty"`
	AxisX uint16 `yaml:"axis_x,omitempty"`
	AxisY uint16 `yaml:"axis_y,omitempty"`
	Up    uint16 `yaml:"up,omitempty"`
	Down  uint16 `yaml:"down,omitempty"`
	Left  uint16 `yaml:"left,omitempty"`
	Right uint16 `yaml:"right,omitempty"`

	// HatAxes selects hat axis input for a dpad.
	HatAxes  bool    `yaml:"hat_axes,omitempty"`
	DeadZone float64 `yaml:"dead_zone,omitempty"`
	InvertY  bool    `yaml:"invert_y,omitempty"`
}

// ControlID returns the undirected ID action sets use to address the control.
func (c *ControlDef) ControlID() ControlID {
	return ControlID{Type: c.Type, ID: c.ID}
}

// ActionSetDef maps event reasons of one control, in one state, to lists of
// actions.
type ActionSetDef struct {
	State   StateVector      `yaml:"state"`
	Control ControlID        `yaml:"control"`
	Lists   []*ActionListDef `yaml:"lists"`
}

type ActionListDef struct {
	Reason  EventReason  `yaml:"reason"`
	Actions []*ActionDef `yaml:"actions"`
}

// ActionDef is a tagged action description. Type selects the action; only the
// fields that action reads need to be set.
type ActionDef struct {
	Type ActionType `yaml:"type"`

	Key       KeyboardKey  `yaml:"key,omitempty"`
	Modifiers []string     `yaml:"modifiers,omitempty"`
	Text      string       `yaml:"text,omitempty"`
	Button    MouseButtons `yaml:"button,omitempty"`

	State     *StateVector `yaml:"state,omitempty"`
	Direction LRUDState    `yaml:"direction,omitempty"`
	Wrap      bool         `yaml:"wrap,omitempty"`

	DurationMS int      `yaml:"duration_ms,omitempty"`
	Program    string   `yaml:"program,omitempty"`
	Args       []string `yaml:"args,omitempty"`
	Profile    string   `yaml:"profile,omitempty"`
	Window     string   `yaml:"window,omitempty"`

	DirectionMode    DirectionMode       `yaml:"direction_mode,omitempty"`
	HoldTimeMS       int                 `yaml:"hold_time_ms,omitempty"`
	RepeatIntervalMS int                 `yaml:"repeat_interval_ms,omitempty"`
	Prediction       PredictionEventType `yaml:"prediction,omitempty"`

	// X and Y are the pixel offset for move_the_pointer.
	X     int     `yaml:"x,omitempty"`
	Y     int     `yaml:"y,omitempty"`
	Speed float64 `yaml:"speed,omitempty"`
}

// ----------------------------------------------------------------------------
// Queries
// ----------------------------------------------------------------------------

// HasAutoActivations reports whether any player switches state by window.
func (p *Profile) HasAutoActivations() bool {
	for _, s := range p.Sources {
		if s != nil && len(s.AutoActivations) > 0 {
			return true
		}
	}
	return false
}

// HasActionsOfType reports whether any action list uses an action of type t.
func (p *Profile) HasActionsOfType(t ActionType) bool {
	for _, s := range p.Sources {
		if s == nil {
			continue
		}
		for _, set := range s.ActionSets {
			if set == nil {
				continue
			}
			for _, l := range set.Lists {
				if l == nil {
					continue
				}
				for _, a := range l.Actions {
					if a != nil && a.Type == t {
						return true
					}
				}
			}
		}
	}
	return false
}

func (s *SourceDef) control(id ControlID) *ControlDef {
	for _, c := range s.Controls {
		if c != nil && c.Type == id.Type && c.ID == id.ID {
			return c
		}
	}
	return nil
}

// initialState is the configured initial state, or the tree's first control set.
func (s *SourceDef) initialState() StateVector {
	if s.InitialState != nil {
		return *s.InitialState
	}
	return s.StateTree.InitialState()
}

// ----------------------------------------------------------------------------
// Validation
// ----------------------------------------------------------------------------

// Validate checks the profile's references and returns a field-path error.
func (p *Profile) Validate() error {
	if p == nil {
		return errProfileNotSet
	}
	if len(p.Sources) == 0 {
		return errors.New("sources must not be empty")
	}

	seen := make(map[int]bool)
	for i, s := range p.Sources {
		if s == nil {
			return fmt.Errorf("sources[%d] is empty", i)
		}
		if s.ID <= 0 {
			return fmt.Errorf("sources[%d].id must be > 0", i)
		}
		if seen[s.ID] {
			return fmt.Errorf("sources[%d].id %d is duplicated", i, s.ID)
		}
		seen[s.ID] = true
		if err := s.validate(fmt.Sprintf("sources[%d]", i)); err != nil {
			return err
		}
	}
	return nil
}

func (s *SourceDef) validate(path string) error {
	controls := make(map[ControlID]bool)
	for i, c := range s.Controls {
		if c == nil {
			return fmt.Errorf("%s.controls[%d] is empty", path, i)
		}
		if c.ID <= 0 {
			return fmt.Errorf("%s.controls[%d].id must be > 0", path, i)
		}
		if controls[c.ControlID()] {
			return fmt.Errorf("%s.controls[%d]: duplicate control %s", path, i, c.ControlID())
		}
		controls[c.ControlID()] = true
		if c.DeadZone < 0 || c.DeadZone >= 1 {
			return fmt.Errorf("%s.controls[%d].dead_zone must be in [0, 1)", path, i)
		}
	}

	csIDs := make(map[int]bool)
	for i, cs := range s.ControlSets {
		if cs == nil {
			return fmt.Errorf("%s.control_sets[%d] is empty", path, i)
		}
		if cs.ID <= 0 {
			return fmt.Errorf("%s.control_sets[%d].id must be > 0", path, i)
		}
		if csIDs[cs.ID] {
			return fmt.Errorf("%s.control_sets[%d].id %d is duplicated", path, i, cs.ID)
		}
		csIDs[cs.ID] = true
		for j, pg := range cs.Pages {
			if pg == nil {
				return fmt.Errorf("%s.control_sets[%d].pages[%d] is empty", path, i, j)
			}
			if pg.ID <= 0 {
				return fmt.Errorf("%s.control_sets[%d].pages[%d].id must be > 0", path, i, j)
			}
			for k, cell := range pg.Cells {
				if !isGridCell(cell, cs.Grid) {
					return fmt.Errorf("%s.control_sets[%d].pages[%d].cells[%d]: %d is not a %s cell", path, i, j, k, cell, cs.Grid)
				}
			}
		}
	}

	for i, set := range s.ActionSets {
		if set == nil {
			return fmt.Errorf("%s.action_sets[%d] is empty", path, i)
		}
		if set.State.IsRelative() {
			return fmt.Errorf("%s.action_sets[%d].state must not be relative", path, i)
		}
		ctrl := set.Control
		ctrl.Direction = LRUDNone
		ctrl.Setting = SettingNone
		if !controls[ctrl] {
			return fmt.Errorf("%s.action_sets[%d].control: unknown control %s", path, i, set.Control)
		}
		for j, l := range set.Lists {
			if l == nil {
				return fmt.Errorf("%s.action_sets[%d].lists[%d] is empty", path, i, j)
			}
			for k, a := range l.Actions {
				if a == nil {
					return fmt.Errorf("%s.action_sets[%d].lists[%d].actions[%d] is empty", path, i, j, k)
				}
				if err := a.validate(); err != nil {
					return fmt.Errorf("%s.action_sets[%d].lists[%d].actions[%d]: %w", path, i, j, k, err)
				}
			}
		}
	}

	for i, aa := range s.AutoActivations {
		if aa == nil {
			return fmt.Errorf("%s.auto_activations[%d] is empty", path, i)
		}
		if aa.Process == "" && aa.Title == "" {
			return fmt.Errorf("%s.auto_activations[%d] must set process or title", path, i)
		}
	}
	return nil
}

func (a *ActionDef) validate() error {
	if _, err := parseModifiers(a.Modifiers); err != nil {
		return err
	}
	switch a.Type {
	case ActionTypeKey, ActionPressDownKey, ActionReleaseKey, ActionToggleKey:
		if a.Key == KeyNone {
			return errors.New("key must be set")
		}
	case ActionTypeText:
		if a.Text == "" {
			return errors.New("text must be set")
		}
	case ActionClickMouseButton, ActionDoubleClickMouseButton, ActionPressDownMouseButton,
		ActionReleaseMouseButton, ActionToggleMouseButton:
		if a.Button == 0 {
			return errors.New("button must be set")
		}
	case ActionChangeControlSet:
		if a.State == nil {
			return errors.New("state must be set")
		}
	case ActionStartProgram:
		if a.Program == "" {
			return errors.New("program must be set")
		}
	case ActionLoadProfile:
		if a.Profile == "" {
			return errors.New("profile must be set")
		}
	case ActionSetDirectionMode:
		if a.DirectionMode == DirModeNone {
			return errors.New("direction_mode must be set")
		}
	case ActionSetDwellAndAutorepeat:
		if a.HoldTimeMS <= 0 || a.RepeatIntervalMS <= 0 {
			return errors.New("hold_time_ms and repeat_interval_ms must be > 0")
		}
	case ActionWait:
		if a.DurationMS < 0 {
			return errors.New("duration_ms must be >= 0")
		}
	}
	return nil
}

// ----------------------------------------------------------------------------
// Cloning
// ----------------------------------------------------------------------------

// Clone returns a deep copy of the profile.
func (p *Profile) Clone() *Profile {
	if p == nil {
		return nil
	}
	out := &Profile{Name: p.Name, Sources: make([]*SourceDef, len(p.Sources))}
	for i, s := range p.Sources {
		out.Sources[i] = s.clone()
	}
	return out
}

func (s *SourceDef) clone() *SourceDef {
	out := &SourceDef{
		ID:           s.ID,
		Name:         s.Name,
		Devices:      slices.Clone(s.Devices),
		InitialState: clonePtr(s.InitialState),
		DefaultState: clonePtr(s.DefaultState),
	}
	for _, c := range s.Controls {
		out.Controls = append(out.Controls, clonePtr(c))
	}
	for _, cs := range s.ControlSets {
		ncs := &ControlSetDef{ID: cs.ID, Name: cs.Name, Grid: cs.Grid}
		for _, pg := range cs.Pages {
			ncs.Pages = append(ncs.Pages, &PageDef{ID: pg.ID, Name: pg.Name, Cells: slices.Clone(pg.Cells)})
		}
		out.ControlSets = append(out.ControlSets, ncs)
	}
	for _, aa := range s.AutoActivations {
		out.AutoActivations = append(out.AutoActivations, clonePtr(aa))
	}
	for _, set := range s.ActionSets {
		nset := &ActionSetDef{State: set.State, Control: set.Control}
		for _, l := range set.Lists {
			nl := &ActionListDef{Reason: l.Reason}
			for _, a := range l.Actions {
				na := clonePtr(a)
				na.Modifiers = slices.Clone(a.Modifiers)
				na.Args = slices.Clone(a.Args)
				na.State = clonePtr(a.State)
				nl.Actions = append(nl.Actions, na)
			}
			nset.Lists = append(nset.Lists, nl)
		}
		out.ActionSets = append(out.ActionSets, nset)
	}
	return out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
