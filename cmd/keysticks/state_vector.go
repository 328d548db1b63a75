package main

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// ============================================================================
// Logical State
// ============================================================================
// A player's logical state is a (control set, page, cell) triple. Axis values
// are positive IDs, or one of the special IDs:
//   DefaultID  "any" / unspecified
//   NoneID     no change (relative states only)
//   NextID     next sibling (relative states only)
//   PreviousID previous sibling (relative states only)
// ============================================================================

type StateVector struct {
	ControlSet int
	Page       int
	Cell       int
}

const numStateAxes = 3

func NewStateVector(controlSet, page, cell int) StateVector {
	return StateVector{ControlSet: controlSet, Page: page, Cell: cell}
}

// RootState is the state that contains every other state.
func RootState() StateVector {
	return StateVector{DefaultID, DefaultID, DefaultID}
}

func (s StateVector) axis(i int) int {
	switch i {
	case 0:
		return s.ControlSet
	case 1:
		return s.Page
	default:
		return s.Cell
	}
}

func (s *StateVector) setAxis(i, v int) {
	switch i {
	case 0:
		s.ControlSet = v
	case 1:
		s.Page = v
	default:
		s.Cell = v
	}
}

// IsRelative reports whether any axis is a no-change, next or previous marker.
func (s StateVector) IsRelative() bool {
	for i := 0; i < numStateAxes; i++ {
		if v := s.axis(i); v < 1 && v != DefaultID {
			return true
		}
	}
	return false
}

// IsSpecific reports whether every axis names a concrete ID.
func (s StateVector) IsSpecific() bool {
	return s.ControlSet > 0 && s.Page > 0 && s.Cell > 0
}

// Contains reports whether other falls within s. Non-positive axes of s match
// anything.
func (s StateVector) Contains(other StateVector) bool {
	for i := 0; i < numStateAxes; i++ {
		if v := s.axis(i); v > 0 && v != other.axis(i) {
			return false
		}
	}
	return true
}

// ParentStates returns the states whose action mappings apply when s has no
// mapping of its own, nearest first.
func (s StateVector) ParentStates() []StateVector {
	switch {
	case s.Cell != DefaultID:
		parents := make([]StateVector, 0, 2)
		if s.Page != DefaultID {
			parents = append(parents, StateVector{s.ControlSet, DefaultID, s.Cell})
		}
		return append(parents, StateVector{s.ControlSet, s.Page, DefaultID})
	case s.Page != DefaultID:
		return []StateVector{{s.ControlSet, DefaultID, DefaultID}}
	case s.ControlSet != DefaultID:
		return []StateVector{RootState()}
	}
	return nil
}

func (s StateVector) String() string {
	return fmt.Sprintf("%s,%s,%s", axisString(s.ControlSet), axisString(s.Page), axisString(s.Cell))
}

func axisString(v int) string {
	switch v {
	case NoneID:
		return "same"
	case NextID:
		return "next"
	case PreviousID:
		return "previous"
	case DefaultID:
		return "any"
	}
	return strconv.Itoa(v)
}

// ParseStateVector parses "controlset,page,cell". Each axis is a number or one
// of any, same, next, previous. Missing trailing axes are "any".
func ParseStateVector(s string) (StateVector, error) {
	parts := strings.Split(s, ",")
	if len(parts) > numStateAxes || strings.TrimSpace(s) == "" {
		return StateVector{}, fmt.Errorf("state %q: expected controlset,page,cell", s)
	}

	st := RootState()
	for i, p := range parts {
		p = strings.ToLower(strings.TrimSpace(p))
		var v int
		switch p {
		case "any", "default", "":
			v = DefaultID
		case "same", "none":
			v = NoneID
		case "next":
			v = NextID
		case "previous", "prev":
			v = PreviousID
		default:
			n, err := strconv.Atoi(p)
			if err != nil {
				return StateVector{}, fmt.Errorf("state %q axis %d: %w", s, i, err)
			}
			v = n
		}
		st.setAxis(i, v)
	}
	return st, nil
}

func (s StateVector) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *StateVector) UnmarshalText(b []byte) error {
	v, err := ParseStateVector(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// ============================================================================
// State Tree
// ============================================================================
// StateTree resolves states against a source's control sets. A control set
// has pages; a page either lists its cells or accepts every cell of the
// control set's grid. DefaultID is accepted at every level, but below a
// DefaultID only DefaultID is.
// ============================================================================

type StateTree struct {
	ControlSets []*ControlSetDef `yaml:"control_sets"`
}

func (t *StateTree) controlSet(id int) *ControlSetDef {
	for _, cs := range t.ControlSets {
		if cs.ID == id {
			return cs
		}
	}
	return nil
}

// ids returns the IDs available on axis i below the prefix of s.
func (t *StateTree) ids(s StateVector, i int) []int {
	switch i {
	case 0:
		ids := make([]int, 0, len(t.ControlSets))
		for _, cs := range t.ControlSets {
			ids = append(ids, cs.ID)
		}
		return ids
	case 1:
		cs := t.controlSet(s.ControlSet)
		if cs == nil {
			return nil
		}
		ids := make([]int, 0, len(cs.Pages))
		for _, p := range cs.Pages {
			ids = append(ids, p.ID)
		}
		return ids
	default:
		cs := t.controlSet(s.ControlSet)
		if cs == nil {
			return nil
		}
		if p := cs.page(s.Page); p != nil && len(p.Cells) > 0 {
			return slices.Clone(p.Cells)
		}
		return gridCells(cs.Grid)
	}
}

// has reports whether v is a valid value for axis i below the prefix of s.
func (t *StateTree) has(s StateVector, i, v int) bool {
	if v == DefaultID {
		return true
	}
	switch i {
	case 0:
		return t.controlSet(v) != nil
	case 1:
		cs := t.controlSet(s.ControlSet)
		return cs != nil && cs.page(v) != nil
	default:
		cs := t.controlSet(s.ControlSet)
		if cs == nil {
			return false
		}
		if p := cs.page(s.Page); p != nil && len(p.Cells) > 0 {
			return slices.Contains(p.Cells, v)
		}
		return isGridCell(v, cs.Grid)
	}
}

// RelativeToAbsolute resolves the relative axes of rel against ref. Resolution
// walks down the tree and stops at the first value the tree does not have,
// leaving the remaining axes at DefaultID.
func (t *StateTree) RelativeToAbsolute(rel, ref StateVector) StateVector {
	if !rel.IsRelative() {
		return rel
	}

	out := RootState()
	for i := 0; i < numStateAxes; i++ {
		v := rel.axis(i)
		switch v {
		case NoneID:
			v = ref.axis(i)
		case NextID:
			v = findNextID(t.ids(out, i), ref.axis(i))
		case PreviousID:
			v = findPreviousID(t.ids(out, i), ref.axis(i))
		}
		if !t.has(out, i, v) {
			break
		}
		out.setAxis(i, v)
	}
	return out
}

// MakeSpecific replaces unspecified axes with the first control set or page,
// or the grid's starting cell. An axis value the tree does not have resets it
// and every axis below it to DefaultID.
func (t *StateTree) MakeSpecific(s StateVector) StateVector {
	if s.IsSpecific() {
		return s
	}

	for i := 0; i < numStateAxes; i++ {
		v := s.axis(i)
		if v == DefaultID {
			if i == 2 {
				if cs := t.controlSet(s.ControlSet); cs != nil {
					v = defaultGridCell(cs.Grid)
					if p := cs.page(s.Page); p != nil && len(p.Cells) > 0 && !slices.Contains(p.Cells, v) {
						v = firstPositive(p.Cells)
					}
				}
			} else {
				v = firstPositive(t.ids(s, i))
			}
			s.setAxis(i, v)
		}

		if !t.has(s, i, v) {
			for ; i < numStateAxes; i++ {
				s.setAxis(i, DefaultID)
			}
			break
		}
	}
	return s
}

// InitialState is the first control set's state, or the root state.
func (t *StateTree) InitialState() StateVector {
	for _, cs := range t.ControlSets {
		if cs.ID != DefaultID {
			return StateVector{cs.ID, DefaultID, DefaultID}
		}
	}
	return RootState()
}

func firstPositive(ids []int) int {
	for _, id := range ids {
		if id > 0 {
			return id
		}
	}
	return DefaultID
}

// findNextID returns the ID after current, wrapping to the first. If current
// is not in the list the first ID is returned.
func findNextID(ids []int, current int) int {
	idx := slices.Index(ids, current)
	for n := 1; n <= len(ids); n++ {
		if id := ids[(idx+n+len(ids))%len(ids)]; id > 0 {
			return id
		}
	}
	return DefaultID
}

// findPreviousID returns the ID before current, wrapping to the last.
func findPreviousID(ids []int, current int) int {
	idx := slices.Index(ids, current)
	if idx < 0 {
		idx = 0
	}
	for n := 1; n <= len(ids); n++ {
		if id := ids[((idx-n)%len(ids)+len(ids))%len(ids)]; id > 0 {
			return id
		}
	}
	return DefaultID
}

// gridCells lists every cell of a grid in navigation order.
func gridCells(grid GridType) []int {
	var cells []int
	switch grid {
	case GridKeyboard:
		for k := KeyEscape; k < numKeyboardKeys; k++ {
			cells = append(cells, int(k))
		}
	case GridActionStrip:
		for c := 1; c <= ActionStripMaxCells; c++ {
			cells = append(cells, c)
		}
	case GridSquare4x4:
		cells = []int{TopCentreCellID, CentreLeftCellID, CentreCellID, CentreRightCellID, BottomCentreCellID}
	case GridSquare8x4:
		for c := TopLeftCellID; c <= BottomRightCellID; c++ {
			cells = append(cells, c)
		}
	}
	return cells
}
