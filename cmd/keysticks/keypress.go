package main

import (
	"log/slog"
	"time"
)

// outputDevice synthesizes key, button and pointer input. Mouse buttons are
// keys with BTN_* codes.
type outputDevice interface {
	Key(code uint16, down, scan bool) error
	Move(dx, dy int) error
	Wheel(clicks int) error
	Close() error
}

// ============================================================================
// Key Press Manager
// ============================================================================
// Tracks the keys this process holds down so they can be released on state
// changes and shutdown. Presses and releases made through SetKeyState are
// reported to onKey (the engine's key handler); RepeatKey and TypeString
// strokes are not, since the engine reports those itself.
// ============================================================================

type KeyPressManager struct {
	out    outputDevice
	logger *slog.Logger
	layout *keyboardLayout

	held      [numKeyboardKeys]bool
	modifiers ModifierKeys

	useScanCodes        bool
	keyStrokeLength     time.Duration
	disallowShiftDelete bool

	onKey    func(KeyEvent)
	submitUI func(Event)

	// failing is set while output writes fail; cleared by the next success.
	failing bool
}

func NewKeyPressManager(out outputDevice, logger *slog.Logger) *KeyPressManager {
	return &KeyPressManager{
		out:                 out,
		logger:              logger,
		layout:              layoutFor(""),
		useScanCodes:        defaultUseScanCodes,
		keyStrokeLength:     defaultKeyStrokeLengthMS * time.Millisecond,
		disallowShiftDelete: defaultDisallowShiftDelete,
	}
}

func (m *KeyPressManager) SetUseScanCodes(v bool) { m.useScanCodes = v }

func (m *KeyPressManager) SetKeyStrokeLength(d time.Duration) { m.keyStrokeLength = d }

func (m *KeyPressManager) KeyStrokeLength() time.Duration { return m.keyStrokeLength }

func (m *KeyPressManager) SetDisallowShiftDelete(v bool) { m.disallowShiftDelete = v }

func (m *KeyPressManager) SetLayout(l *keyboardLayout) { m.layout = l }

// Modifiers returns the modifier keys currently held by this process.
func (m *KeyPressManager) Modifiers() ModifierKeys { return m.modifiers }

func (m *KeyPressManager) IsPressed(key KeyboardKey) bool {
	return key > KeyNone && key < numKeyboardKeys && m.held[key]
}

// SetKeyState presses or releases key. Pressing Delete while Shift is held
// is refused when shift-delete is disallowed.
func (m *KeyPressManager) SetKeyState(key KeyboardKey, down bool) {
	if key <= KeyNone || key >= numKeyboardKeys || m.held[key] == down {
		return
	}
	if down && key == KeyDelete && m.disallowShiftDelete && m.modifiers&ModShift != 0 {
		m.reportUI(ErrorMessageEvent{Message: "Shift+Delete is disallowed"})
		return
	}

	m.send(key, down)
	m.held[key] = down
	m.updateModifiers()

	if m.onKey != nil {
		m.onKey(KeyEvent{Key: key, Pressed: down})
	}
}

func (m *KeyPressManager) ToggleKeyState(key KeyboardKey) {
	m.SetKeyState(key, !m.IsPressed(key))
}

// SetModifiers presses the modifiers in mods in order, or releases them in
// reverse order.
func (m *KeyPressManager) SetModifiers(mods ModifierKeys, down bool) {
	if down {
		for _, mk := range modifierKeysOrder {
			if mods&mk.flag != 0 {
				m.SetKeyState(mk.key, true)
			}
		}
		return
	}
	for i := len(modifierKeysOrder) - 1; i >= 0; i-- {
		if mk := modifierKeysOrder[i]; mods&mk.flag != 0 {
			m.SetKeyState(mk.key, false)
		}
	}
}

// RepeatKey strokes key count times.
func (m *KeyPressManager) RepeatKey(key KeyboardKey, count int) {
	if key <= KeyNone || key >= numKeyboardKeys {
		return
	}
	for i := 0; i < count; i++ {
		m.send(key, true)
		m.send(key, false)
	}
}

// TypeString types text using the current layout. Characters the layout
// cannot produce are skipped.
func (m *KeyPressManager) TypeString(text string) {
	for _, r := range text {
		key, shift, ok := m.layout.keyFor(r)
		if !ok {
			m.logger.Debug("no key for character", "char", string(r), "layout", m.layout.name)
			continue
		}
		needShift := shift && m.modifiers&ModShift == 0
		if needShift {
			m.send(KeyLeftShift, true)
		}
		m.send(key, true)
		m.send(key, false)
		if needShift {
			m.send(KeyLeftShift, false)
		}
	}
}

// ReleaseAll releases every key this process holds, modifiers last.
func (m *KeyPressManager) ReleaseAll() {
	for k := KeyNone + 1; k < numKeyboardKeys; k++ {
		if m.held[k] && !k.IsModifier() {
			m.SetKeyState(k, false)
		}
	}
	for k := KeyNone + 1; k < numKeyboardKeys; k++ {
		if m.held[k] {
			m.SetKeyState(k, false)
		}
	}
}

func (m *KeyPressManager) send(key KeyboardKey, down bool) {
	if m.out == nil {
		return
	}
	err := m.out.Key(key.Code(), down, m.useScanCodes)
	if err == nil {
		m.failing = false
		return
	}
	// Report once per run of failures.
	if !m.failing {
		m.logger.Warn("key output failed", "key", key, "down", down, "error", err)
		m.reportUI(newErrorEvent("keyboard output failed", err))
	}
	m.failing = true
}

func (m *KeyPressManager) updateModifiers() {
	var mods ModifierKeys
	for k := KeyNone + 1; k < numKeyboardKeys; k++ {
		if m.held[k] {
			mods |= k.modifierFlag()
		}
	}
	if mods != m.modifiers {
		m.modifiers = mods
		m.reportUI(KeyboardStateEvent{Modifiers: mods})
	}
}

func (m *KeyPressManager) reportUI(ev Event) {
	if m.submitUI != nil {
		m.submitUI(ev)
	}
}
