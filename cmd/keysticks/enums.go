package main

import (
	"fmt"
	"strconv"
	"strings"
)

// ============================================================================
// Enumerations shared by the profile model, controls and events
// ============================================================================
// Every enum carries a snake_case name table. Names are what appear in profile
// files, IPC payloads and the UI event stream.
// ============================================================================

// LRUDState is a left/right/up/down direction bit set. Centre is an explicit
// value so that "no direction" and "direction unknown" differ.
type LRUDState int

const (
	LRUDNone   LRUDState = 0
	LRUDCentre LRUDState = 1
	LRUDLeft   LRUDState = 2
	LRUDRight  LRUDState = 4
	LRUDUp     LRUDState = 8
	LRUDDown   LRUDState = 16

	LRUDUpLeft    = LRUDUp | LRUDLeft
	LRUDUpRight   = LRUDUp | LRUDRight
	LRUDDownLeft  = LRUDDown | LRUDLeft
	LRUDDownRight = LRUDDown | LRUDRight
)

var lrudNames = map[LRUDState]string{
	LRUDNone:      "none",
	LRUDCentre:    "centre",
	LRUDLeft:      "left",
	LRUDRight:     "right",
	LRUDUp:        "up",
	LRUDDown:      "down",
	LRUDUpLeft:    "up_left",
	LRUDUpRight:   "up_right",
	LRUDDownLeft:  "down_left",
	LRUDDownRight: "down_right",
}

func (s LRUDState) String() string { return enumName(lrudNames, s) }

// IsDiagonal reports whether s has both a vertical and a horizontal component.
func (s LRUDState) IsDiagonal() bool {
	return s&(LRUDLeft|LRUDRight) != 0 && s&(LRUDUp|LRUDDown) != 0
}

// Horizontal returns the left/right component of s, or LRUDNone.
func (s LRUDState) Horizontal() LRUDState { return s & (LRUDLeft | LRUDRight) }

// Vertical returns the up/down component of s, or LRUDNone.
func (s LRUDState) Vertical() LRUDState { return s & (LRUDUp | LRUDDown) }

// EventReason is why a control raised an event. Action lists are keyed by it.
type EventReason int

const (
	ReasonNone EventReason = iota
	ReasonDirected
	ReasonDirectedLong
	ReasonDirectionRepeated
	ReasonDirectedShort
	ReasonUndirected
	ReasonMoved
	ReasonPressed
	ReasonPressedLong
	ReasonPressRepeated
	ReasonPressedShort
	ReasonReleased
	ReasonActivated

	numEventReasons
)

var reasonNames = map[EventReason]string{
	ReasonNone:              "none",
	ReasonDirected:          "directed",
	ReasonDirectedLong:      "directed_long",
	ReasonDirectionRepeated: "direction_repeated",
	ReasonDirectedShort:     "directed_short",
	ReasonUndirected:        "undirected",
	ReasonMoved:             "moved",
	ReasonPressed:           "pressed",
	ReasonPressedLong:       "pressed_long",
	ReasonPressRepeated:     "press_repeated",
	ReasonPressedShort:      "pressed_short",
	ReasonReleased:          "released",
	ReasonActivated:         "activated",
}

func (r EventReason) String() string { return enumName(reasonNames, r) }

// DirectionMode controls how a directional control quantises its position.
type DirectionMode int

const (
	DirModeNone           DirectionMode = 0
	DirModeNonDirectional DirectionMode = 1
	DirModeTwoWay         DirectionMode = 2
	DirModeFourWay        DirectionMode = 4
	DirModeEightWay       DirectionMode = 8
	DirModeAxisStyle      DirectionMode = 16
	DirModeContinuous     DirectionMode = 32
)

var dirModeNames = map[DirectionMode]string{
	DirModeNone:           "none",
	DirModeNonDirectional: "non_directional",
	DirModeTwoWay:         "two_way",
	DirModeFourWay:        "four_way",
	DirModeEightWay:       "eight_way",
	DirModeAxisStyle:      "axis_style",
	DirModeContinuous:     "continuous",
}

func (m DirectionMode) String() string { return enumName(dirModeNames, m) }

// ActionType identifies an action implementation.
type ActionType int

const (
	ActionTypeKey ActionType = iota
	ActionPressDownKey
	ActionReleaseKey
	ActionToggleKey
	ActionTypeText
	ActionClickMouseButton
	ActionDoubleClickMouseButton
	ActionPressDownMouseButton
	ActionReleaseMouseButton
	ActionToggleMouseButton
	ActionMouseWheelUp
	ActionMouseWheelDown
	ActionMoveThePointer
	ActionControlThePointer
	ActionChangeControlSet
	ActionNavigateCells
	ActionWordPrediction
	ActionLoadProfile
	ActionStartProgram
	ActionActivateWindow
	ActionMaximiseWindow
	ActionMinimiseWindow
	ActionToggleControlsWindow
	ActionSetDirectionMode
	ActionSetDwellAndAutorepeat
	ActionWait
	ActionDoNothing
)

var actionTypeNames = map[ActionType]string{
	ActionTypeKey:                "type_key",
	ActionPressDownKey:           "press_down_key",
	ActionReleaseKey:             "release_key",
	ActionToggleKey:              "toggle_key",
	ActionTypeText:               "type_text",
	ActionClickMouseButton:       "click_mouse_button",
	ActionDoubleClickMouseButton: "double_click_mouse_button",
	ActionPressDownMouseButton:   "press_down_mouse_button",
	ActionReleaseMouseButton:     "release_mouse_button",
	ActionToggleMouseButton:      "toggle_mouse_button",
	ActionMouseWheelUp:           "mouse_wheel_up",
	ActionMouseWheelDown:         "mouse_wheel_down",
	ActionMoveThePointer:         "move_the_pointer",
	ActionControlThePointer:      "control_the_pointer",
	ActionChangeControlSet:       "change_control_set",
	ActionNavigateCells:          "navigate_cells",
	ActionWordPrediction:         "word_prediction",
	ActionLoadProfile:            "load_profile",
	ActionStartProgram:           "start_program",
	ActionActivateWindow:         "activate_window",
	ActionMaximiseWindow:         "maximise_window",
	ActionMinimiseWindow:         "minimise_window",
	ActionToggleControlsWindow:   "toggle_controls_window",
	ActionSetDirectionMode:       "set_direction_mode",
	ActionSetDwellAndAutorepeat:  "set_dwell_and_autorepeat",
	ActionWait:                   "wait",
	ActionDoNothing:              "do_nothing",
}

func (t ActionType) String() string { return enumName(actionTypeNames, t) }

// GridType is the cell topology of a control set.
type GridType int

const (
	GridNone GridType = iota
	GridKeyboard
	GridActionStrip
	GridSquare4x4
	GridSquare8x4
)

var gridTypeNames = map[GridType]string{
	GridNone:        "none",
	GridKeyboard:    "keyboard",
	GridActionStrip: "action_strip",
	GridSquare4x4:   "square4x4",
	GridSquare8x4:   "square8x4",
}

func (g GridType) String() string { return enumName(gridTypeNames, g) }

// PredictionEventType is the kind of a word prediction event.
type PredictionEventType int

const (
	PredictionNone PredictionEventType = iota
	PredictionNextSuggestion
	PredictionPreviousSuggestion
	PredictionInsertSuggestion
	PredictionCancelSuggestions
	PredictionSuggestionsList
	PredictionEnable
	PredictionDisable
)

var predictionEventNames = map[PredictionEventType]string{
	PredictionNone:               "none",
	PredictionNextSuggestion:     "next_suggestion",
	PredictionPreviousSuggestion: "previous_suggestion",
	PredictionInsertSuggestion:   "insert_suggestion",
	PredictionCancelSuggestions:  "cancel_suggestions",
	PredictionSuggestionsList:    "suggestions_list",
	PredictionEnable:             "enable",
	PredictionDisable:            "disable",
}

func (p PredictionEventType) String() string { return enumName(predictionEventNames, p) }

// ControlType is the kind of virtual control a source exposes.
type ControlType int

const (
	ControlButton ControlType = iota
	ControlButtonDiamond
	ControlDPad
	ControlStick
	ControlTrigger
)

var controlTypeNames = map[ControlType]string{
	ControlButton:        "button",
	ControlButtonDiamond: "button_diamond",
	ControlDPad:          "dpad",
	ControlStick:         "stick",
	ControlTrigger:       "trigger",
}

func (c ControlType) String() string { return enumName(controlTypeNames, c) }

// ControlSetting selects a per-control setting an action set configures
// rather than a control event it responds to.
type ControlSetting int

const (
	SettingNone ControlSetting = iota
	SettingDirectionMode
	SettingDwellAndRepeat
)

var controlSettingNames = map[ControlSetting]string{
	SettingNone:           "none",
	SettingDirectionMode:  "direction_mode",
	SettingDwellAndRepeat: "dwell_and_repeat",
}

func (s ControlSetting) String() string { return enumName(controlSettingNames, s) }

// EventType tags every Event.
type EventType int

const (
	EventUnknown EventType = iota
	EventControl
	EventSource
	EventStateChange
	EventAppChange
	EventLoadProfile
	EventKey
	EventRepeatKey
	EventText
	EventMouseButtonState
	EventKeyboardState
	EventWordPrediction
	EventErrorMessage
	EventStartProgram
	EventToggleControls
	EventKeyboardLayoutChange
	EventLanguagePackages
	EventLogMessage
)

var eventTypeNames = map[EventType]string{
	EventUnknown:              "unknown",
	EventControl:              "control",
	EventSource:               "source",
	EventStateChange:          "state_change",
	EventAppChange:            "app_change",
	EventLoadProfile:          "load_profile",
	EventKey:                  "key",
	EventRepeatKey:            "repeat_key",
	EventText:                 "text",
	EventMouseButtonState:     "mouse_button_state",
	EventKeyboardState:        "keyboard_state",
	EventWordPrediction:       "word_prediction",
	EventErrorMessage:         "error_message",
	EventStartProgram:         "start_program",
	EventToggleControls:       "toggle_controls",
	EventKeyboardLayoutChange: "keyboard_layout_change",
	EventLanguagePackages:     "language_packages",
	EventLogMessage:           "log_message",
}

func (t EventType) String() string { return enumName(eventTypeNames, t) }

// MouseButtons is a bit set of held mouse buttons.
type MouseButtons int

const (
	MouseLeft   MouseButtons = 1
	MouseMiddle MouseButtons = 2
	MouseRight  MouseButtons = 4
	MouseX1     MouseButtons = 8
	MouseX2     MouseButtons = 16
)

var mouseButtonNames = map[MouseButtons]string{
	MouseLeft:   "left",
	MouseMiddle: "middle",
	MouseRight:  "right",
	MouseX1:     "x1",
	MouseX2:     "x2",
}

func (b MouseButtons) String() string { return enumName(mouseButtonNames, b) }

// ModifierKeys is a bit set of held modifier keys. The unsided Shift/Ctrl/Alt
// bits are set whenever either side is held.
type ModifierKeys int

const (
	ModLShift ModifierKeys = 1 << iota
	ModRShift
	ModShift
	ModLCtrl
	ModRCtrl
	ModCtrl
	ModLAlt
	ModRAlt
	ModAlt
	ModLWin
	ModRWin
)

// modifierKeysOrder is the press order used when typing a key with modifiers.
var modifierKeysOrder = []struct {
	flag ModifierKeys
	key  KeyboardKey
	name string
}{
	{ModCtrl, KeyLeftCtrl, "ctrl"},
	{ModShift, KeyLeftShift, "shift"},
	{ModAlt, KeyLeftAlt, "alt"},
	{ModLWin, KeyLeftMeta, "win"},
}

func parseModifiers(names []string) (ModifierKeys, error) {
	var mods ModifierKeys
	for _, n := range names {
		found := false
		for _, m := range modifierKeysOrder {
			if strings.EqualFold(n, m.name) {
				mods |= m.flag
				found = true
			}
		}
		if !found {
			return 0, fmt.Errorf("unknown modifier %q", n)
		}
	}
	return mods, nil
}

// LoggingLevel gates which engine events are echoed to the UI.
type LoggingLevel int

const (
	LoggingNone LoggingLevel = iota
	LoggingErrors
	LoggingInfo
	LoggingDebug
)

var loggingLevelNames = map[LoggingLevel]string{
	LoggingNone:   "none",
	LoggingErrors: "errors",
	LoggingInfo:   "info",
	LoggingDebug:  "debug",
}

func (l LoggingLevel) String() string { return enumName(loggingLevelNames, l) }

// parseLoggingLevel accepts a level name or its number.
func parseLoggingLevel(s string, def LoggingLevel) LoggingLevel {
	if l, ok := parseEnum(loggingLevelNames, s); ok {
		return l
	}
	if n, err := strconv.Atoi(s); err == nil && n >= int(LoggingNone) && n <= int(LoggingDebug) {
		return LoggingLevel(n)
	}
	return def
}

// ----------------------------------------------------------------------------
// text encoding (JSON payloads, profile files)
// ----------------------------------------------------------------------------

func (s LRUDState) MarshalText() ([]byte, error) { return []byte(s.String()), nil }
func (s *LRUDState) UnmarshalText(b []byte) error {
	return unmarshalEnum(lrudNames, b, s, "direction")
}

func (r EventReason) MarshalText() ([]byte, error) { return []byte(r.String()), nil }
func (r *EventReason) UnmarshalText(b []byte) error {
	return unmarshalEnum(reasonNames, b, r, "event reason")
}

func (m DirectionMode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }
func (m *DirectionMode) UnmarshalText(b []byte) error {
	return unmarshalEnum(dirModeNames, b, m, "direction mode")
}

func (g GridType) MarshalText() ([]byte, error) { return []byte(g.String()), nil }
func (g *GridType) UnmarshalText(b []byte) error {
	return unmarshalEnum(gridTypeNames, b, g, "grid type")
}

func (p PredictionEventType) MarshalText() ([]byte, error) { return []byte(p.String()), nil }
func (p *PredictionEventType) UnmarshalText(b []byte) error {
	return unmarshalEnum(predictionEventNames, b, p, "prediction event")
}

func (c ControlType) MarshalText() ([]byte, error) { return []byte(c.String()), nil }
func (c *ControlType) UnmarshalText(b []byte) error {
	return unmarshalEnum(controlTypeNames, b, c, "control type")
}

func (s ControlSetting) MarshalText() ([]byte, error) { return []byte(s.String()), nil }
func (s *ControlSetting) UnmarshalText(b []byte) error {
	return unmarshalEnum(controlSettingNames, b, s, "control setting")
}

func (t ActionType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }
func (t *ActionType) UnmarshalText(b []byte) error {
	return unmarshalEnum(actionTypeNames, b, t, "action type")
}

// MouseButtons encode as "left|right"; an empty set encodes as "".
func (b MouseButtons) MarshalText() ([]byte, error) {
	var names []string
	for bit := MouseLeft; bit <= MouseX2; bit <<= 1 {
		if b&bit != 0 {
			names = append(names, mouseButtonNames[bit])
		}
	}
	return []byte(strings.Join(names, "|")), nil
}

func (b *MouseButtons) UnmarshalText(text []byte) error {
	var out MouseButtons
	for _, part := range strings.Split(string(text), "|") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		var bit MouseButtons
		if err := unmarshalEnum(mouseButtonNames, []byte(part), &bit, "mouse button"); err != nil {
			return err
		}
		out |= bit
	}
	*b = out
	return nil
}

func unmarshalEnum[T comparable](names map[T]string, b []byte, dst *T, what string) error {
	v, ok := parseEnum(names, string(b))
	if !ok {
		return fmt.Errorf("unknown %s %q", what, string(b))
	}
	*dst = v
	return nil
}

// ----------------------------------------------------------------------------
// name table helpers
// ----------------------------------------------------------------------------

// enumName looks up v in names and falls back to the numeric value.
func enumName[T ~int](names map[T]string, v T) string {
	if s, ok := names[v]; ok {
		return s
	}
	return strconv.Itoa(int(v))
}

// parseEnum resolves a name from a name table, ignoring case and treating
// '-' and ' ' as '_'.
func parseEnum[T comparable](names map[T]string, s string) (T, bool) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.NewReplacer("-", "_", " ", "_").Replace(norm)
	for v, n := range names {
		if n == norm {
			return v, true
		}
	}
	var zero T
	return zero, false
}
