package main

import (
	"math"
	"time"
)

// ============================================================================
// Actions
// ============================================================================
// An Action is one step of an action list. Start runs when its list reaches
// it; an action that reports IsOngoing afterwards is continued every engine
// tick until it completes. Activate and Deactivate run when the owning action
// set is switched on or off by a state change, and must leave nothing held.
//
// Actions carry runtime state (press times, accumulated pointer motion), so
// they are built per engine binding from the profile's ActionDefs and never
// shared.
// ============================================================================

type Action interface {
	Type() ActionType
	Activate(ctx *ActionContext, ev *SourceEvent)
	Start(ctx *ActionContext, ev *SourceEvent)
	Continue(ctx *ActionContext, ev *SourceEvent)
	Deactivate(ctx *ActionContext, ev *SourceEvent)
	IsOngoing() bool
}

// windowController performs window management requests.
type windowController interface {
	Activate(program, title string) error
	Maximise() error
	Minimise() error
}

// ActionContext is what actions act on. The engine builds one per source.
type ActionContext struct {
	Clock      Clock
	Keys       *KeyPressManager
	Mouse      *MouseManager
	Windows    windowController
	Prediction *WordPredictionManager
	Source     *Source

	// PollInterval is the engine's current tick interval.
	PollInterval time.Duration

	SubmitUI   func(Event)
	HandleText func(string)
}

func (c *ActionContext) submitUI(ev Event) {
	if c.SubmitUI != nil {
		c.SubmitUI(ev)
	}
}

// baseAction supplies the do-nothing behaviour shared by most actions.
type baseAction struct {
	def     *ActionDef
	ongoing bool
}

func (a *baseAction) Type() ActionType { return a.def.Type }
func (a *baseAction) IsOngoing() bool { return a.ongoing }
func (a *baseAction) Activate(*ActionContext, *SourceEvent) { a.ongoing = false }
func (a *baseAction) Deactivate(*ActionContext, *SourceEvent) { a.ongoing = false }
func (a *baseAction) Start(*ActionContext, *SourceEvent) { a.ongoing = false }
func (a *baseAction) Continue(*ActionContext, *SourceEvent) { a.ongoing = false }

// newAction builds the runtime action for def.
func newAction(def *ActionDef) Action {
	base := baseAction{def: def}
	switch def.Type {
	case ActionTypeKey:
		mods, _ := parseModifiers(def.Modifiers)
		return &typeKeyAction{baseAction: base, mods: mods}
	case ActionPressDownKey, ActionReleaseKey, ActionToggleKey:
		return &keyStateAction{baseAction: base}
	case ActionTypeText:
		return &typeTextAction{baseAction: base}
	case ActionClickMouseButton, ActionDoubleClickMouseButton, ActionPressDownMouseButton,
		ActionReleaseMouseButton, ActionToggleMouseButton:
		a := &mouseButtonAction{baseAction: base, pressesRequired: 1}
		if def.Type == ActionDoubleClickMouseButton {
			a.pressesRequired = 2
		}
		return a
	case ActionMouseWheelUp, ActionMouseWheelDown:
		return &mouseWheelAction{baseAction: base}
	case ActionMoveThePointer:
		return &moveThePointerAction{baseAction: base}
	case ActionControlThePointer:
		return &controlThePointerAction{baseAction: base}
	case ActionChangeControlSet:
		return &changeStateAction{baseAction: base}
	case ActionNavigateCells:
		return &navigateCellsAction{baseAction: base}
	case ActionWordPrediction:
		return &wordPredictionAction{baseAction: base}
	case ActionLoadProfile, ActionStartProgram, ActionToggleControlsWindow:
		return &uiRequestAction{baseAction: base}
	case ActionActivateWindow, ActionMaximiseWindow, ActionMinimiseWindow:
		return &windowAction{baseAction: base}
	case ActionSetDirectionMode, ActionSetDwellAndAutorepeat:
		return &controlSettingAction{baseAction: base}
	case ActionWait:
		return &waitAction{baseAction: base}
	}
	return &base
}

// ----------------------------------------------------------------------------
// Keyboard
// ----------------------------------------------------------------------------

// typeKeyAction strokes a key with modifiers. The key is held for the key
// stroke length, then released along with the modifiers.
type typeKeyAction struct {
	baseAction
	mods      ModifierKeys
	pressedAt time.Time
}

func (a *typeKeyAction) Start(ctx *ActionContext, _ *SourceEvent) {
	ctx.Keys.SetModifiers(a.mods, true)
	ctx.Keys.SetKeyState(a.def.Key, true)
	a.pressedAt = ctx.Clock.Now()
	a.ongoing = true
}

func (a *typeKeyAction) Continue(ctx *ActionContext, _ *SourceEvent) {
	if ctx.Clock.Now().Sub(a.pressedAt) > ctx.Keys.KeyStrokeLength() {
		a.release(ctx)
	}
}

func (a *typeKeyAction) Deactivate(ctx *ActionContext, _ *SourceEvent) {
	if a.ongoing {
		a.release(ctx)
	}
}

func (a *typeKeyAction) release(ctx *ActionContext) {
	ctx.Keys.SetKeyState(a.def.Key, false)
	ctx.Keys.SetModifiers(a.mods, false)
	a.ongoing = false
}

// keyStateAction presses, releases or toggles a key and leaves it there.
type keyStateAction struct {
	baseAction
}

func (a *keyStateAction) Start(ctx *ActionContext, _ *SourceEvent) {
	switch a.def.Type {
	case ActionPressDownKey:
		ctx.Keys.SetKeyState(a.def.Key, true)
	case ActionReleaseKey:
		ctx.Keys.SetKeyState(a.def.Key, false)
	case ActionToggleKey:
		ctx.Keys.ToggleKeyState(a.def.Key)
	}
	a.ongoing = false
}

type typeTextAction struct {
	baseAction
}

func (a *typeTextAction) Start(ctx *ActionContext, _ *SourceEvent) {
	if ctx.HandleText != nil {
		ctx.HandleText(a.def.Text)
	}
	a.ongoing = false
}

// ----------------------------------------------------------------------------
// Mouse
// ----------------------------------------------------------------------------

// mouseButtonAction covers click, double click, press, release and toggle.
// Clicks alternate press and release every mouse click length.
type mouseButtonAction struct {
	baseAction
	pressesRequired int
	pressCount      int
	pressed         bool
	lastChange      time.Time
}

func (a *mouseButtonAction) Start(ctx *ActionContext, _ *SourceEvent) {
	switch a.def.Type {
	case ActionClickMouseButton, ActionDoubleClickMouseButton, ActionPressDownMouseButton:
		ctx.Mouse.SetButtonState(a.def.Button, true)
		a.pressed = true
		a.pressCount = 1
		a.lastChange = ctx.Clock.Now()
		a.ongoing = a.def.Type != ActionPressDownMouseButton
	case ActionReleaseMouseButton:
		ctx.Mouse.SetButtonState(a.def.Button, false)
		a.ongoing = false
	case ActionToggleMouseButton:
		ctx.Mouse.ToggleButtonState(a.def.Button)
		a.ongoing = false
	}
	if ctx.Prediction != nil {
		ctx.Prediction.PredictionReset()
	}
}

func (a *mouseButtonAction) Continue(ctx *ActionContext, _ *SourceEvent) {
	now := ctx.Clock.Now()
	if now.Sub(a.lastChange) <= ctx.Mouse.ClickLength() {
		return
	}
	if a.pressed {
		ctx.Mouse.SetButtonState(a.def.Button, false)
		if a.pressCount >= a.pressesRequired {
			a.ongoing = false
		}
	} else {
		ctx.Mouse.SetButtonState(a.def.Button, true)
		a.pressCount++
	}
	a.pressed = !a.pressed
	a.lastChange = now
}

func (a *mouseButtonAction) Deactivate(ctx *ActionContext, _ *SourceEvent) {
	if !a.ongoing {
		return
	}
	if a.pressed {
		ctx.Mouse.SetButtonState(a.def.Button, false)
		a.pressed = false
	}
	a.ongoing = false
}

type mouseWheelAction struct {
	baseAction
}

func (a *mouseWheelAction) Start(ctx *ActionContext, _ *SourceEvent) {
	ctx.Mouse.Wheel(a.def.Type == ActionMouseWheelUp)
	a.ongoing = false
}

// moveThePointerAction moves the pointer by a fixed offset.
type moveThePointerAction struct {
	baseAction
}

func (a *moveThePointerAction) Start(ctx *ActionContext, _ *SourceEvent) {
	ctx.Mouse.Move(a.def.X, a.def.Y)
	a.ongoing = false
}

// controlThePointerAction drives the pointer at a speed set by a continuous
// stick's position. Each Moved event restarts it with the new position; it
// keeps moving the pointer every tick while the stick is held off centre.
type controlThePointerAction struct {
	baseAction
	xSpeed, ySpeed float64
	xTotal, yTotal float64
	lastUpdate     time.Time
}

func (a *controlThePointerAction) Start(ctx *ActionContext, ev *SourceEvent) {
	// Event Y is positive up; screen Y is positive down.
	x, y := ev.X, -ev.Y
	if math.Abs(x) <= 1e-4 && math.Abs(y) <= 1e-4 {
		a.xTotal, a.yTotal = 0, 0
		a.ongoing = false
		return
	}

	radius := math.Hypot(x, y)
	accel := ctx.Mouse.PointerAcceleration()
	mult := ctx.Mouse.PointerSpeed() * (1 + accel*radius) / (1 + accel)
	if a.def.Speed > 0 {
		mult *= a.def.Speed
	}
	a.xSpeed, a.ySpeed = x*mult, y*mult
	a.update(ctx)
	a.ongoing = true
}

func (a *controlThePointerAction) Continue(ctx *ActionContext, _ *SourceEvent) {
	a.update(ctx)
}

// update accumulates speed * elapsed ms and moves by the whole pixels.
func (a *controlThePointerAction) update(ctx *ActionContext) {
	now := ctx.Clock.Now()
	elapsed := float64(ctx.PollInterval) / float64(time.Millisecond)
	if a.ongoing {
		elapsed = float64(now.Sub(a.lastUpdate)) / float64(time.Millisecond)
	}
	a.xTotal += a.xSpeed * elapsed
	a.yTotal += a.ySpeed * elapsed

	dx, dy := int(a.xTotal), int(a.yTotal)
	if dx != 0 || dy != 0 {
		ctx.Mouse.Move(dx, dy)
		a.xTotal -= float64(dx)
		a.yTotal -= float64(dy)
	}
	a.lastUpdate = now
}

// ----------------------------------------------------------------------------
// State
// ----------------------------------------------------------------------------

type changeStateAction struct {
	baseAction
}

func (a *changeStateAction) Start(ctx *ActionContext, _ *SourceEvent) {
	if a.def.State != nil && ctx.Source != nil {
		ctx.Source.SetCurrentState(*a.def.State)
	}
	a.ongoing = false
}

// navigateCellsAction moves the current cell across the control set's grid.
// The direction is the action's own, or the triggering event's if unset.
type navigateCellsAction struct {
	baseAction
}

func (a *navigateCellsAction) Start(ctx *ActionContext, ev *SourceEvent) {
	a.ongoing = false
	src := ctx.Source
	if src == nil {
		return
	}

	cur := src.CurrentState()
	if cur.Cell <= 0 {
		return
	}
	cs := src.Tree().controlSet(cur.ControlSet)
	if cs == nil || cs.Grid == GridNone {
		return
	}

	dir := a.def.Direction
	if dir == LRUDNone && ev != nil {
		dir = ev.Direction
	}

	var cell int
	if pg := cs.page(cur.Page); cs.Grid == GridActionStrip && pg != nil && len(pg.Cells) > 0 {
		cell = ResolveInStrip(cur.Cell, dir, a.def.Wrap, len(pg.Cells))
	} else {
		cell = Resolve(cur.Cell, dir, cs.Grid, a.def.Wrap)
	}
	if cell == NoneID {
		return
	}

	next := cur
	next.Cell = cell
	src.SetCurrentState(next)
}

// ----------------------------------------------------------------------------
// Prediction, UI requests and windows
// ----------------------------------------------------------------------------

type wordPredictionAction struct {
	baseAction
}

func (a *wordPredictionAction) Start(ctx *ActionContext, _ *SourceEvent) {
	if a.def.Prediction == PredictionCancelSuggestions {
		if ctx.Prediction != nil {
			ctx.Prediction.CancelSuggestions()
		}
	} else {
		ctx.submitUI(PredictionEvent{Kind: a.def.Prediction})
	}
	a.ongoing = false
}

// uiRequestAction hands a request to the UI loop.
type uiRequestAction struct {
	baseAction
}

func (a *uiRequestAction) Start(ctx *ActionContext, _ *SourceEvent) {
	switch a.def.Type {
	case ActionLoadProfile:
		ctx.submitUI(LoadProfileEvent{Name: a.def.Profile})
	case ActionStartProgram:
		ctx.submitUI(StartProgramEvent{Program: a.def.Program, Args: a.def.Args})
	case ActionToggleControlsWindow:
		ctx.submitUI(ToggleControlsEvent{})
	}
	a.ongoing = false
}

type windowAction struct {
	baseAction
}

func (a *windowAction) Start(ctx *ActionContext, _ *SourceEvent) {
	a.ongoing = false
	if ctx.Windows == nil {
		return
	}

	var err error
	switch a.def.Type {
	case ActionActivateWindow:
		err = ctx.Windows.Activate(a.def.Program, a.def.Window)
	case ActionMaximiseWindow:
		err = ctx.Windows.Maximise()
	case ActionMinimiseWindow:
		err = ctx.Windows.Minimise()
	}
	if err != nil {
		ctx.submitUI(newErrorEvent("window action "+a.def.Type.String()+" failed", err))
	}
}

// ----------------------------------------------------------------------------
// Control settings
// ----------------------------------------------------------------------------

// controlSettingAction applies a direction mode or dwell and auto-repeat
// times to the triggering control while its action set is active.
type controlSettingAction struct {
	baseAction
}

func (a *controlSettingAction) Activate(ctx *ActionContext, ev *SourceEvent) {
	a.apply(ctx, ev, true)
}

func (a *controlSettingAction) Deactivate(ctx *ActionContext, ev *SourceEvent) {
	a.apply(ctx, ev, false)
}

func (a *controlSettingAction) apply(ctx *ActionContext, ev *SourceEvent, enable bool) {
	a.ongoing = false
	if ctx.Source == nil || ev == nil {
		return
	}
	c := ctx.Source.Control(ev.Control)
	if c == nil {
		return
	}
	switch a.def.Type {
	case ActionSetDirectionMode:
		c.ApplyDirectionMode(a.def.DirectionMode, enable)
	case ActionSetDwellAndAutorepeat:
		c.ApplyHoldTime(a.def.HoldTimeMS, enable)
		c.ApplyAutoRepeatInterval(a.def.RepeatIntervalMS, enable)
	}
}

// ----------------------------------------------------------------------------
// Timing
// ----------------------------------------------------------------------------

type waitAction struct {
	baseAction
	startedAt time.Time
}

func (a *waitAction) Start(ctx *ActionContext, _ *SourceEvent) {
	a.startedAt = ctx.Clock.Now()
	a.ongoing = true
}

func (a *waitAction) Continue(ctx *ActionContext, _ *SourceEvent) {
	wait := time.Duration(a.def.DurationMS) * time.Millisecond
	if a.def.DurationMS == 0 {
		wait = defaultWaitTimeMS * time.Millisecond
	}
	if ctx.Clock.Now().Sub(a.startedAt) > wait {
		a.ongoing = false
	}
}
