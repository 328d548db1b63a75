package main

// ============================================================================
// Action Lists, Sets and Mapping Tables
// ============================================================================
// ActionList    the actions run for one event reason, in order
// ActionSet     the lists bound to one control in one state
// ActionMappingTable
//               every set that applies in one state, with parent tables
//               consulted for controls the state does not map itself
// ============================================================================

// ActionList runs its actions in order. Start runs actions until one is
// ongoing; Continue advances that action and then starts the following ones.
// While ongoing the list holds its triggering event.
type ActionList struct {
	Reason  EventReason
	Actions []Action

	index   int
	ongoing bool
	event   *SourceEvent
}

func newActionList(def *ActionListDef) *ActionList {
	l := &ActionList{Reason: def.Reason, Actions: make([]Action, 0, len(def.Actions))}
	for _, a := range def.Actions {
		l.Actions = append(l.Actions, newAction(a))
	}
	return l
}

func (l *ActionList) IsOngoing() bool { return l.ongoing }

// Event returns the event the list was last started with.
func (l *ActionList) Event() *SourceEvent { return l.event }

func (l *ActionList) Start(ctx *ActionContext, ev *SourceEvent) {
	l.event = ev
	l.runFrom(ctx, 0)
}

func (l *ActionList) Continue(ctx *ActionContext) {
	if !l.ongoing {
		return
	}
	a := l.Actions[l.index]
	a.Continue(ctx, l.event)
	if a.IsOngoing() {
		return
	}
	l.runFrom(ctx, l.index+1)
}

func (l *ActionList) runFrom(ctx *ActionContext, i int) {
	for ; i < len(l.Actions); i++ {
		a := l.Actions[i]
		a.Start(ctx, l.event)
		if a.IsOngoing() {
			l.index = i
			l.ongoing = true
			return
		}
	}
	l.index = len(l.Actions)
	l.ongoing = false
}

// Cancel deactivates the current ongoing action, if any, and completes the
// list without running the rest.
func (l *ActionList) Cancel(ctx *ActionContext) {
	if l.ongoing {
		l.Actions[l.index].Deactivate(ctx, l.event)
	}
	l.ongoing = false
}

// releaseEvent lets go of the triggering event.
func (l *ActionList) releaseEvent() {
	if l.event != nil {
		l.event.release()
		l.event = nil
	}
}

func (l *ActionList) Activate(ctx *ActionContext, ev *SourceEvent) {
	l.ongoing = false
	for _, a := range l.Actions {
		a.Activate(ctx, ev)
	}
}

func (l *ActionList) Deactivate(ctx *ActionContext, ev *SourceEvent) {
	l.ongoing = false
	for _, a := range l.Actions {
		a.Deactivate(ctx, ev)
	}
}

// ActionSet is the action lists bound to one control in one state. Only an
// active set responds to events.
type ActionSet struct {
	Control ControlID
	State   StateVector
	Lists   []*ActionList

	active bool
}

func newActionSet(def *ActionSetDef) *ActionSet {
	set := &ActionSet{Control: def.Control, State: def.State}
	for _, l := range def.Lists {
		set.Lists = append(set.Lists, newActionList(l))
	}
	return set
}

func (s *ActionSet) IsActive() bool { return s.active }

// ActionsFor returns the list for reason, or nil.
func (s *ActionSet) ActionsFor(reason EventReason) *ActionList {
	for _, l := range s.Lists {
		if l.Reason == reason {
			return l
		}
	}
	return nil
}

func (s *ActionSet) Activate(ctx *ActionContext, ev *SourceEvent) {
	for _, l := range s.Lists {
		l.Activate(ctx, ev)
	}
	s.active = true
}

func (s *ActionSet) Deactivate(ctx *ActionContext, ev *SourceEvent) {
	for _, l := range s.Lists {
		l.Deactivate(ctx, ev)
	}
	s.active = false
}

// ActionMappingTable holds the action sets of one state, keyed by control.
type ActionMappingTable struct {
	State   StateVector
	Parents []*ActionMappingTable
	Sets    map[ControlID]*ActionSet
}

// GetActions returns the set bound to id. If this state has none, the parent
// tables are searched: with includeDefaults each parent is asked for its own
// binding only, otherwise each parent is asked including its defaults.
func (t *ActionMappingTable) GetActions(id ControlID, includeDefaults bool) *ActionSet {
	if set, ok := t.Sets[id]; ok {
		return set
	}
	for _, p := range t.Parents {
		if set := p.GetActions(id, !includeDefaults); set != nil {
			return set
		}
	}
	return nil
}

// mappingTables builds and caches mapping tables per state, so the action
// sets (and their active flags) of a state are the same objects each time
// the state is entered.
type mappingTables struct {
	sets   []*ActionSet
	tables map[mappingKey]*ActionMappingTable
}

type mappingKey struct {
	state           StateVector
	includeDefaults bool
}

func newMappingTables(defs []*ActionSetDef) *mappingTables {
	m := &mappingTables{tables: make(map[mappingKey]*ActionMappingTable)}
	for _, d := range defs {
		m.sets = append(m.sets, newActionSet(d))
	}
	return m
}

// ForState returns the table for state. With includeDefaults the table links
// the parent states' tables: the nearest parent with its own defaults, the
// others without.
func (m *mappingTables) ForState(state StateVector, includeDefaults bool) *ActionMappingTable {
	key := mappingKey{state, includeDefaults}
	if t, ok := m.tables[key]; ok {
		return t
	}

	t := &ActionMappingTable{State: state, Sets: make(map[ControlID]*ActionSet)}
	for _, set := range m.sets {
		if set.State == state {
			t.Sets[set.Control] = set
		}
	}
	m.tables[key] = t

	if includeDefaults {
		for i, parent := range state.ParentStates() {
			t.Parents = append(t.Parents, m.ForState(parent, i == 0))
		}
	}
	return t
}
