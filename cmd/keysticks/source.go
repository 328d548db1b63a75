package main

import (
	"log/slog"
	"strings"
)

// ============================================================================
// Input Source
// ============================================================================
// A Source is one player. It owns the player's virtual controls and current
// logical state, and dispatches the controls' events to the action sets that
// are active in that state.
//
// Entering a state activates the action sets of its mapping table and of the
// parent tables it falls back to; leaving it deactivates whatever the new
// state no longer contains. Sets shared by both states stay active, so held
// settings (direction modes, hold times) survive moves between cells.
// ============================================================================

// sourceHost is the engine as seen by a source.
type sourceHost interface {
	AddOngoing(src *Source, list *ActionList)
	SubmitUI(ev Event)
	LoggingLevel() LoggingLevel
}

type Source struct {
	def    *SourceDef
	logger *slog.Logger
	host   sourceHost
	ctx    *ActionContext

	controls []*Control
	tables   *mappingTables
	inputs   []physicalInput

	current       StateVector
	stateSet      bool
	mappings      *ActionMappingTable
	autoActivated bool
}

func newSource(def *SourceDef, clock Clock, logger *slog.Logger) *Source {
	s := &Source{
		def:    def,
		logger: logger.With("player", def.ID),
		tables: newMappingTables(def.ActionSets),
	}
	for _, cd := range def.Controls {
		dz := defaultStickDeadZoneFraction
		if cd.Type == ControlTrigger {
			dz = defaultTriggerDeadZoneFraction
		}
		s.controls = append(s.controls, newControl(cd, def.ID, clock, dz, s.HandleInputEvent))
	}
	return s
}

func (s *Source) ID() int { return s.def.ID }

func (s *Source) Def() *SourceDef { return s.def }

func (s *Source) Tree() *StateTree { return &s.def.StateTree }

func (s *Source) CurrentState() StateVector { return s.current }

// InitialState is the state the source starts in.
func (s *Source) InitialState() StateVector { return s.def.initialState() }

// SetEngine attaches the source to the engine that runs its actions.
func (s *Source) SetEngine(host sourceHost, ctx *ActionContext) {
	s.host = host
	s.ctx = ctx
	ctx.Source = s
}

// SetAppConfig applies the engine-wide dead zones.
func (s *Source) SetAppConfig(cfg *AppConfig) {
	stick := cfg.FloatVal(cfgStickDeadZone, defaultStickDeadZoneFraction)
	trigger := cfg.FloatVal(cfgTriggerDeadZone, defaultTriggerDeadZoneFraction)
	for _, c := range s.controls {
		if c.def.Type == ControlTrigger {
			c.SetDeadZone(trigger)
		} else {
			c.SetDeadZone(stick)
		}
	}
}

// SetInputs binds the physical devices that drive the source's controls.
func (s *Source) SetInputs(inputs []physicalInput) { s.inputs = inputs }

// Control returns the control id addresses, ignoring its direction and setting.
func (s *Source) Control(id ControlID) *Control {
	for _, c := range s.controls {
		if c.id.Type == id.Type && c.id.ID == id.ID {
			return c
		}
	}
	return nil
}

// UpdateState reads the bound devices into the controls. It reports false
// when any bound device has disconnected.
func (s *Source) UpdateState() bool {
	ok := true
	for _, in := range s.inputs {
		if !in.Connected() {
			ok = false
		}
	}
	merged := mergedInput(s.inputs)
	for _, c := range s.controls {
		c.Update(merged)
	}
	return ok
}

// RaiseEvents raises the controls' events for this tick.
func (s *Source) RaiseEvents() {
	for _, c := range s.controls {
		c.RaiseEvents()
	}
}

// ----------------------------------------------------------------------------
// Events
// ----------------------------------------------------------------------------

// HandleInputEvent runs the action list bound to ev in the current state.
// A list that is still running from an earlier event is cancelled and
// restarted with the new one.
func (s *Source) HandleInputEvent(c *Control, ev *SourceEvent) {
	if s.host == nil {
		return
	}
	if s.host.LoggingLevel() >= LoggingInfo {
		switch ev.Reason {
		case ReasonDirected, ReasonUndirected, ReasonPressed, ReasonReleased:
			s.host.SubmitUI(ControlEvent{
				Player:    ev.Player,
				Control:   ev.Control,
				Reason:    ev.Reason,
				Direction: ev.Direction,
			})
		}
	}

	if s.mappings == nil {
		return
	}
	id := ev.Control
	id.Direction = ev.Direction
	set := s.mappings.GetActions(id, true)
	if set == nil || !set.IsActive() {
		return
	}
	list := set.ActionsFor(ev.Reason)
	if list == nil {
		return
	}

	wasOngoing := list.IsOngoing()
	if wasOngoing {
		list.Cancel(s.ctx)
		list.releaseEvent()
	}
	list.Start(s.ctx, ev)
	switch {
	case list.IsOngoing() && !wasOngoing:
		s.host.AddOngoing(s, list)
	case !list.IsOngoing() && !wasOngoing:
		list.releaseEvent()
	}
}

// ----------------------------------------------------------------------------
// State
// ----------------------------------------------------------------------------

// SetCurrentState moves the source to rel, resolved against the current
// state and made specific.
func (s *Source) SetCurrentState(rel StateVector) {
	tree := s.Tree()
	old := s.current
	next := tree.MakeSpecific(tree.RelativeToAbsolute(rel, old))
	if s.stateSet && next == old {
		return
	}

	if s.mappings != nil {
		s.deactivateControls(s.mappings, &next)
	}
	var prev *StateVector
	if s.stateSet {
		prev = &old
	}
	s.current = next
	s.stateSet = true
	s.logger.Debug("state changed", "from", old, "to", next)
	if s.host != nil {
		s.host.SubmitUI(StateChangeEvent{Player: s.def.ID, State: next})
	}

	s.mappings = s.tables.ForState(next, true)
	s.activateControls(s.mappings, prev)
}

// activateControls activates the sets of table and its parents, unless the
// previous state was already within the table's state.
func (s *Source) activateControls(table *ActionMappingTable, prev *StateVector) {
	if prev != nil && table.State.Contains(*prev) {
		return
	}
	for _, p := range table.Parents {
		s.activateControls(p, prev)
	}
	for _, set := range table.Sets {
		if set.IsActive() {
			continue
		}
		set.Activate(s.ctx, newSourceEvent(s.def.ID, set.Control, ReasonNone, LRUDNone))
		if c := s.Control(set.Control); c != nil {
			c.EnableInputEvents(set, true)
		}
	}
}

// deactivateControls deactivates the sets of table and its parents that the
// new state is not within, innermost first. A nil next deactivates them all.
func (s *Source) deactivateControls(table *ActionMappingTable, next *StateVector) {
	if next != nil && table.State.Contains(*next) {
		return
	}
	for _, set := range table.Sets {
		if !set.IsActive() {
			continue
		}
		set.Deactivate(s.ctx, newSourceEvent(s.def.ID, set.Control, ReasonNone, LRUDNone))
		if c := s.Control(set.Control); c != nil {
			c.EnableInputEvents(set, false)
		}
	}
	for i := len(table.Parents) - 1; i >= 0; i-- {
		s.deactivateControls(table.Parents[i], next)
	}
}

// Deactivate switches off every active set, leaving nothing held.
func (s *Source) Deactivate() {
	if s.mappings != nil {
		s.deactivateControls(s.mappings, nil)
	}
	s.mappings = nil
	s.stateSet = false
}

// SetCurrentWindow applies the first auto-activation rule matching the
// foreground window. When nothing matches, a state a rule switched to is
// replaced by the default state.
func (s *Source) SetCurrentWindow(process, title string) {
	for _, rule := range s.def.AutoActivations {
		if rule.matches(process, title) {
			s.SetCurrentState(rule.State)
			s.autoActivated = true
			return
		}
	}
	if s.autoActivated && s.def.DefaultState != nil {
		s.SetCurrentState(*s.def.DefaultState)
		s.autoActivated = false
	}
}

func (a *AutoActivation) matches(process, title string) bool {
	if a.Process == "" && a.Title == "" {
		return false
	}
	if a.Process != "" && !strings.EqualFold(a.Process, process) {
		return false
	}
	if a.Title != "" && !strings.Contains(strings.ToLower(title), strings.ToLower(a.Title)) {
		return false
	}
	return true
}
