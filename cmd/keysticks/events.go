package main

import (
	"encoding/json"
	"errors"
	"fmt"
)

var errUnknownEvent = errors.New("event not accepted")

// ============================================================================
// Event Types
// ============================================================================
// Events flow between the engine, prediction and UI loops through
// EventChannels, and in and out of the daemon through IPC and the UI
// websocket stream. Every event is a freshly allocated value; nothing is pooled
// or reused once submitted.
// ============================================================================

// Event is implemented by every event type.
type Event interface {
	EventType() EventType
}

// KeyEvent reports a key press or release made by the output layer.
type KeyEvent struct {
	Key     KeyboardKey `json:"key"`
	Pressed bool        `json:"pressed"`
}

func (KeyEvent) EventType() EventType { return EventKey }

// RepeatKeyEvent asks for a key to be stroked Count times. The prediction
// service receives it as a cursor movement or character removal.
type RepeatKeyEvent struct {
	Key   KeyboardKey `json:"key"`
	Count int         `json:"count"`
}

func (RepeatKeyEvent) EventType() EventType { return EventRepeatKey }

// TextEvent carries typed text.
type TextEvent struct {
	Text string `json:"text"`
}

func (TextEvent) EventType() EventType { return EventText }

// PredictionEvent carries word prediction commands and suggestion lists.
type PredictionEvent struct {
	Kind        PredictionEventType `json:"kind"`
	Prefix      string              `json:"prefix,omitempty"`
	Suffix      string              `json:"suffix,omitempty"`
	Suggestions []string            `json:"suggestions,omitempty"`
}

func (PredictionEvent) EventType() EventType { return EventWordPrediction }

// StateChangeEvent reports (or requests) a player's logical state.
type StateChangeEvent struct {
	Player int         `json:"player"`
	State  StateVector `json:"state"`
}

func (StateChangeEvent) EventType() EventType { return EventStateChange }

// KeyboardLayoutChangeEvent reports a change of the active keyboard layout.
type KeyboardLayoutChangeEvent struct {
	Layout string `json:"layout"`
	ID     uint32 `json:"id"`
}

func (KeyboardLayoutChangeEvent) EventType() EventType { return EventKeyboardLayoutChange }

// ErrorMessageEvent reports an error to the UI. Details carries the cause chain.
type ErrorMessageEvent struct {
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

func (ErrorMessageEvent) EventType() EventType { return EventErrorMessage }

func newErrorEvent(msg string, err error) ErrorMessageEvent {
	ev := ErrorMessageEvent{Message: msg}
	if err != nil {
		ev.Details = err.Error()
	}
	return ev
}

// LogMessageEvent is an informational message for the UI log.
type LogMessageEvent struct {
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

func (LogMessageEvent) EventType() EventType { return EventLogMessage }

// MouseButtonStateEvent reports the set of held mouse buttons.
type MouseButtonStateEvent struct {
	Buttons MouseButtons `json:"buttons"`
}

func (MouseButtonStateEvent) EventType() EventType { return EventMouseButtonState }

// KeyboardStateEvent reports the set of held modifier keys.
type KeyboardStateEvent struct {
	Modifiers ModifierKeys `json:"modifiers"`
}

func (KeyboardStateEvent) EventType() EventType { return EventKeyboardState }

// LoadProfileEvent asks the UI side to load a profile by name or path.
type LoadProfileEvent struct {
	Name string `json:"name"`
}

func (LoadProfileEvent) EventType() EventType { return EventLoadProfile }

// StartProgramEvent asks the UI side to launch a program.
type StartProgramEvent struct {
	Program string   `json:"program"`
	Args    []string `json:"args,omitempty"`
}

func (StartProgramEvent) EventType() EventType { return EventStartProgram }

// ToggleControlsEvent asks the UI to show or hide the controls overlay.
type ToggleControlsEvent struct{}

func (ToggleControlsEvent) EventType() EventType { return EventToggleControls }

// LanguagePackagesEvent tells the prediction loop that the installed language
// packages changed.
type LanguagePackagesEvent struct{}

func (LanguagePackagesEvent) EventType() EventType { return EventLanguagePackages }

// ControlEvent is the UI-facing report of a control event raised by a source.
type ControlEvent struct {
	Player    int         `json:"player"`
	Control   ControlID   `json:"control"`
	Reason    EventReason `json:"reason"`
	Direction LRUDState   `json:"direction,omitempty"`
}

func (ControlEvent) EventType() EventType { return EventControl }

// ControlID identifies an input a set of actions can be bound to: a virtual
// control, optionally narrowed to one direction, or one of its settings.
type ControlID struct {
	Type      ControlType    `json:"type" yaml:"type"`
	ID        int            `json:"id" yaml:"id"`
	Setting   ControlSetting `json:"setting,omitempty" yaml:"setting,omitempty"`
	Direction LRUDState      `json:"direction,omitempty" yaml:"direction,omitempty"`
}

func (c ControlID) String() string {
	s := fmt.Sprintf("%s:%d", c.Type, c.ID)
	if c.Setting != SettingNone {
		s += ":" + c.Setting.String()
	}
	if c.Direction != LRUDNone {
		s += ":" + c.Direction.String()
	}
	return s
}

// SourceEvent is a control event raised by a source while the engine polls it.
// Ongoing action lists hold on to their triggering event until they finish;
// release marks the point after which the event must no longer be read.
type SourceEvent struct {
	Player    int
	Control   ControlID
	Reason    EventReason
	Direction LRUDState
	X, Y      float64

	generation int
}

func (*SourceEvent) EventType() EventType { return EventSource }

func (e *SourceEvent) release() { e.generation++ }

// Released reports whether the engine has let go of the event.
func (e *SourceEvent) Released() bool { return e.generation > 0 }

func newSourceEvent(player int, control ControlID, reason EventReason, dir LRUDState) *SourceEvent {
	return &SourceEvent{
		Player:    player,
		Control:   control,
		Reason:    reason,
		Direction: dir,
	}
}

// ============================================================================
// JSON Encoding/Decoding Support
// ============================================================================
// EventEnvelope wraps events for IPC with a type discriminator. The type
// string is the EventType name.
// ============================================================================

// EventEnvelope wraps an event with a type discriminator for JSON marshaling
type EventEnvelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// UnmarshalEvent deserializes a JSON event envelope into a concrete Event.
// Only events that external clients may send are accepted.
func UnmarshalEvent(data []byte) (Event, error) {
	var env EventEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("unmarshal envelope: %w", err)
	}

	et, ok := parseEnum(eventTypeNames, env.Type)
	if !ok {
		return nil, fmt.Errorf("unknown event type: %q", env.Type)
	}

	switch et {
	case EventStateChange:
		return decodeEventData[StateChangeEvent](env)
	case EventLoadProfile:
		return decodeEventData[LoadProfileEvent](env)
	case EventRepeatKey:
		return decodeEventData[RepeatKeyEvent](env)
	case EventText:
		return decodeEventData[TextEvent](env)
	case EventWordPrediction:
		return decodeEventData[PredictionEvent](env)
	case EventStartProgram:
		return decodeEventData[StartProgramEvent](env)
	case EventToggleControls:
		return ToggleControlsEvent{}, nil
	case EventLanguagePackages:
		return LanguagePackagesEvent{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", errUnknownEvent, env.Type)
	}
}

func decodeEventData[T Event](env EventEnvelope) (Event, error) {
	var ev T
	if len(env.Data) == 0 {
		return nil, fmt.Errorf("unmarshal %s: missing data", env.Type)
	}
	if err := json.Unmarshal(env.Data, &ev); err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", env.Type, err)
	}
	return ev, nil
}

// MarshalEvent serializes an Event into a JSON envelope with type discriminator
func MarshalEvent(e Event) ([]byte, error) {
	if e == nil {
		return nil, fmt.Errorf("marshal event: nil event")
	}
	if _, ok := e.(*SourceEvent); ok {
		return nil, fmt.Errorf("unsupported event type: %T", e)
	}

	env := EventEnvelope{Type: e.EventType().String()}
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", env.Type, err)
	}
	if string(data) != "{}" {
		env.Data = data
	}
	return json.Marshal(env)
}
