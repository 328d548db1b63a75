package main

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"
)

// ============================================================================
// Input State Engine
// ============================================================================
// The engine loop owns the sources, the output managers and the list of
// ongoing action lists. Each tick runs, in order:
//
//  1. continue ongoing action lists, dropping those that completed
//  2. drain the state channel (repeat keys, text, prediction, state changes)
//  3. read the devices and raise control events for every source
//  4. if the devices just disconnected, rescan and rebind
//  5. every 500ms: take new config/profile snapshots, check the keyboard
//     layout and the active window, rescan while disconnected
//  6. sleep for the poll interval
//
// A panic while handling one event or action is recovered and reported to
// the UI; the loop carries on with the next one.
// ============================================================================

// engineHost is the orchestrator as seen by the engine loop.
type engineHost interface {
	ContinueEngine() bool
	ReceiveStateManagerConfig(r stateReceiver)
	ReceiveStateEvents() []Event
	SubmitUIEvent(ev Event)
	SubmitPredictionEvent(ev Event)
}

// inputBackend is the device layer.
type inputBackend interface {
	SetProfile(sources []*Source)
	RefreshConnectedDeviceList(addAll bool) bool
	BindProfile() bool
	UpdateState() bool
	Close() error
}

// windowMonitor reads the foreground window and performs window actions.
type windowMonitor interface {
	windowController
	ActiveWindow(ctx context.Context) (windowInfo, error)
}

type ongoingAction struct {
	source *Source
	list   *ActionList
}

// EngineDeps are the engine's collaborators. Windows and ReadLayout may be
// nil.
type EngineDeps struct {
	Clock      Clock
	Input      inputBackend
	Output     outputDevice
	Windows    windowMonitor
	ReadLayout func(ctx context.Context) (string, error)
}

type Engine struct {
	host   engineHost
	logger *slog.Logger
	deps   EngineDeps

	keys       *KeyPressManager
	mouse      *MouseManager
	prediction *WordPredictionManager

	profile *Profile
	sources []*Source
	ongoing []*ongoingAction

	cfg          *AppConfig
	pollInterval time.Duration
	loggingLevel LoggingLevel

	connected             bool
	processMonitoringReqd bool
	keyboard              KeyboardContext
	defaultLayout         string
	lastWindow            windowInfo
	lastSystemCheck       time.Time
}

func NewEngine(host engineHost, deps EngineDeps, logger *slog.Logger) *Engine {
	if deps.Clock == nil {
		deps.Clock = systemClock{}
	}
	e := &Engine{
		host:          host,
		logger:        logger,
		deps:          deps,
		cfg:           NewAppConfig(),
		pollInterval:  defaultInputPollingIntervalMS * time.Millisecond,
		loggingLevel:  defaultMessageLoggingLevel,
		defaultLayout: "gb",
	}
	e.keys = NewKeyPressManager(deps.Output, logger)
	e.keys.onKey = e.HandleKeyEvent
	e.keys.submitUI = e.SubmitUI
	e.mouse = NewMouseManager(deps.Output, logger)
	e.mouse.submitUI = e.SubmitUI
	e.prediction = NewWordPredictionManager(e.keys.Modifiers, host.SubmitPredictionEvent, host.SubmitUIEvent)
	return e
}

// Run polls until the orchestrator stops the loop, then restores the
// neutral state and closes the device layer.
func (e *Engine) Run() {
	e.logger.Info("engine loop started")
	defer e.logger.Info("engine loop stopped")
	defer e.shutdown()

	e.receiveConfig()
	e.lastSystemCheck = e.deps.Clock.Now()
	for e.host.ContinueEngine() {
		e.tick()
		time.Sleep(e.pollInterval)
	}
}

func (e *Engine) tick() {
	e.continueActions()

	for _, ev := range e.host.ReceiveStateEvents() {
		e.safely("handle "+ev.EventType().String()+" event", func() { e.handleStateEvent(ev) })
	}

	if e.profile != nil {
		ok := e.deps.Input.UpdateState()
		for _, src := range e.sources {
			if !src.UpdateState() {
				ok = false
			}
			e.safely("raise events", src.RaiseEvents)
		}
		if e.connected && !ok {
			e.connected = false
			e.logger.Warn("input devices disconnected")
			if e.deps.Input.RefreshConnectedDeviceList(false) {
				e.connected = e.deps.Input.BindProfile()
			}
		}
	}

	now := e.deps.Clock.Now()
	if now.Sub(e.lastSystemCheck) >= systemPollingIntervalMS*time.Millisecond {
		e.lastSystemCheck = now
		e.systemTick()
	}
}

// receiveConfig applies pending config and profile snapshots. A snapshot
// that panics is reported and dropped.
func (e *Engine) receiveConfig() {
	e.safely("apply configuration", func() { e.host.ReceiveStateManagerConfig(e) })
}

func (e *Engine) systemTick() {
	e.receiveConfig()
	e.checkKeyboardLayout()
	if e.processMonitoringReqd {
		e.checkActiveWindow()
	}
	if !e.connected && e.profile != nil {
		if e.deps.Input.RefreshConnectedDeviceList(false) && e.deps.Input.BindProfile() {
			e.connected = true
			e.logger.Info("input devices connected")
		}
	}
}

// safely runs fn, converting a panic into a UI error. It reports whether fn
// returned normally.
func (e *Engine) safely(what string, fn func()) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("engine panic recovered", "while", what, "panic", r)
			e.SubmitUI(newErrorEvent("error while trying to "+what, fmt.Errorf("%v", r)))
			ok = false
		}
	}()
	fn()
	return true
}

// continueActions continues every ongoing list and removes the ones that
// completed, releasing their events.
func (e *Engine) continueActions() {
	for i := 0; i < len(e.ongoing); {
		oa := e.ongoing[i]
		if !e.safely("continue actions", func() { oa.list.Continue(oa.source.ctx) }) {
			oa.list.Cancel(oa.source.ctx)
		}
		if !oa.list.IsOngoing() {
			oa.list.releaseEvent()
			e.ongoing = slices.Delete(e.ongoing, i, i+1)
			continue
		}
		i++
	}
}

// AddOngoing registers a list that is still running after Start.
func (e *Engine) AddOngoing(src *Source, list *ActionList) {
	for _, oa := range e.ongoing {
		if oa.list == list {
			return
		}
	}
	e.ongoing = append(e.ongoing, &ongoingAction{source: src, list: list})
}

func (e *Engine) SubmitUI(ev Event) { e.host.SubmitUIEvent(ev) }

func (e *Engine) LoggingLevel() LoggingLevel { return e.loggingLevel }

func (e *Engine) handleStateEvent(ev Event) {
	switch ev := ev.(type) {
	case RepeatKeyEvent:
		e.HandleRepeatKey(ev)
	case TextEvent:
		e.HandleText(ev.Text)
	case PredictionEvent:
		e.prediction.HandlePredictionEvent(ev)
	case StateChangeEvent:
		if src := e.source(ev.Player); src != nil {
			src.SetCurrentState(ev.State)
		}
	default:
		e.logger.Debug("state event ignored", "type", ev.EventType())
	}
}

func (e *Engine) source(player int) *Source {
	for _, src := range e.sources {
		if src.ID() == player {
			return src
		}
	}
	return nil
}

// ----------------------------------------------------------------------------
// Key and text output
// ----------------------------------------------------------------------------

// HandleKeyEvent receives the key presses and releases the engine makes.
func (e *Engine) HandleKeyEvent(ev KeyEvent) {
	e.prediction.HandleKeyEvent(ev)
	if e.loggingLevel >= LoggingInfo {
		e.SubmitUI(ev)
	}
}

func (e *Engine) HandleRepeatKey(ev RepeatKeyEvent) {
	e.keys.RepeatKey(ev.Key, ev.Count)
	e.prediction.HandleRepeatKey(ev)
	if e.loggingLevel >= LoggingInfo {
		e.SubmitUI(ev)
	}
}

func (e *Engine) HandleText(text string) {
	e.keys.TypeString(text)
	e.prediction.HandleText(text)
	if e.loggingLevel >= LoggingInfo {
		e.SubmitUI(TextEvent{Text: text})
	}
}

// ----------------------------------------------------------------------------
// Configuration
// ----------------------------------------------------------------------------

// SetAppConfig applies engine settings, then each source's.
func (e *Engine) SetAppConfig(cfg *AppConfig) {
	e.cfg = cfg
	if ms := cfg.IntVal(cfgInputPollingInterval, defaultInputPollingIntervalMS); ms >= minInputPollingIntervalMS {
		e.pollInterval = time.Duration(ms) * time.Millisecond
	}
	e.loggingLevel = parseLoggingLevel(cfg.StringVal(cfgLoggingLevel, ""), defaultMessageLoggingLevel)

	e.keys.SetUseScanCodes(cfg.BoolVal(cfgUseScanCodes, defaultUseScanCodes))
	e.keys.SetKeyStrokeLength(time.Duration(cfg.IntVal(cfgKeyStrokeLength, defaultKeyStrokeLengthMS)) * time.Millisecond)
	e.keys.SetDisallowShiftDelete(cfg.BoolVal(cfgDisallowShiftDelete, defaultDisallowShiftDelete))
	e.mouse.SetClickLength(time.Duration(cfg.IntVal(cfgMouseClickLength, defaultMouseClickLengthMS)) * time.Millisecond)
	e.mouse.SetPointerSpeed(cfg.FloatVal(cfgPointerSpeed, defaultMousePointerSpeed))
	e.mouse.SetPointerAcceleration(cfg.FloatVal(cfgPointerAcceleration, defaultMousePointerAcceleration))
	e.defaultLayout = cfg.StringVal(cfgKeyboardLayout, e.defaultLayout)

	for _, src := range e.sources {
		src.SetAppConfig(cfg)
		src.ctx.PollInterval = e.pollInterval
	}
}

// SetProfile replaces the running profile. A profile that fails validation
// is reported and the previous one stays.
func (e *Engine) SetProfile(p *Profile) {
	if err := p.Validate(); err != nil {
		var name string
		if p != nil {
			name = p.Name
		}
		e.logger.Error("profile rejected", "profile", name, "error", err)
		e.SubmitUI(newErrorEvent("could not load profile "+name, err))
		return
	}
	if e.profile != nil {
		e.RestoreNeutralState()
	}

	e.profile = p.Clone()
	if e.keyboard.ID == 0 {
		e.checkKeyboardLayout()
	}
	e.processMonitoringReqd = e.profile.HasAutoActivations() || e.profile.HasActionsOfType(ActionMoveThePointer)
	e.lastWindow = windowInfo{}

	e.sources = e.sources[:0]
	for _, def := range e.profile.Sources {
		src := newSource(def, e.deps.Clock, e.logger)
		src.SetEngine(e, &ActionContext{
			Clock:        e.deps.Clock,
			Keys:         e.keys,
			Mouse:        e.mouse,
			Windows:      e.deps.Windows,
			Prediction:   e.prediction,
			PollInterval: e.pollInterval,
			SubmitUI:     e.SubmitUI,
			HandleText:   e.HandleText,
		})
		e.sources = append(e.sources, src)
	}
	for _, src := range e.sources {
		src.SetAppConfig(e.cfg)
		src.SetCurrentState(src.InitialState())
	}

	e.deps.Input.SetProfile(e.sources)
	e.deps.Input.RefreshConnectedDeviceList(false)
	e.connected = e.deps.Input.BindProfile()
	e.logger.Info("profile loaded", "profile", e.profile.Name, "sources", len(e.sources), "connected", e.connected)
}

// RestoreNeutralState stops every ongoing action and releases everything
// held.
func (e *Engine) RestoreNeutralState() {
	for _, oa := range e.ongoing {
		oa.list.Cancel(oa.source.ctx)
		oa.list.releaseEvent()
	}
	e.ongoing = e.ongoing[:0]
	for _, src := range e.sources {
		src.Deactivate()
	}
	e.keys.ReleaseAll()
	e.mouse.ReleaseAll()
}

func (e *Engine) shutdown() {
	e.RestoreNeutralState()
	if err := e.deps.Input.Close(); err != nil {
		e.logger.Warn("input close failed", "error", err)
	}
}

// ----------------------------------------------------------------------------
// System monitoring
// ----------------------------------------------------------------------------

func (e *Engine) checkKeyboardLayout() {
	layout := e.defaultLayout
	if e.deps.ReadLayout != nil {
		if l, err := e.deps.ReadLayout(context.Background()); err == nil {
			layout = l
		} else if e.keyboard.ID == 0 {
			e.logger.Debug("keyboard layout not read; using configured layout", "layout", layout, "error", err)
		}
	}
	e.setKeyboardLayout(layout)
}

func (e *Engine) setKeyboardLayout(name string) {
	next := newKeyboardContext(name)
	if next.ID == e.keyboard.ID {
		return
	}
	prevID := e.keyboard.ID
	e.keyboard = next

	l := layoutFor(name)
	e.keys.SetLayout(l)
	e.prediction.KeyboardLayoutChanged(l)
	if prevID != 0 {
		e.logger.Info("keyboard layout changed", "layout", name)
		e.SubmitUI(KeyboardLayoutChangeEvent{Layout: next.Layout, ID: next.ID})
	}
}

func (e *Engine) checkActiveWindow() {
	if e.deps.Windows == nil {
		return
	}
	win, err := e.deps.Windows.ActiveWindow(context.Background())
	if err != nil {
		e.logger.Debug("active window not read", "error", err)
		return
	}
	if win == e.lastWindow {
		return
	}
	e.lastWindow = win
	e.logger.Debug("active window changed", "process", win.Process, "title", win.Title)
	for _, src := range e.sources {
		src.SetCurrentWindow(win.Process, win.Title)
	}
}
