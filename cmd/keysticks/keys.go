package main

import (
	"fmt"
	"strings"
)

// ============================================================================
// Keyboard Keys
// ============================================================================
// KeyboardKey is the semantic key set used by profiles, the keyboard grid and
// the output device. The order follows the physical rows of a full keyboard,
// which is what the keyboard grid tables are indexed by.
//
// Evdev codes are only used at the device boundary (keyCodes below).
// ============================================================================

type KeyboardKey int

const (
	KeyNone KeyboardKey = iota

	// Row 1
	KeyEscape
	KeyF1
	KeyF2
	KeyF3
	KeyF4
	KeyF5
	KeyF6
	KeyF7
	KeyF8
	KeyF9
	KeyF10
	KeyF11
	KeyF12
	KeyInsert
	KeyPrintScreen
	KeyDelete

	// Row 2
	KeyBacktick
	Key1
	Key2
	Key3
	Key4
	Key5
	Key6
	Key7
	Key8
	Key9
	Key0
	KeyMinus
	KeyEquals
	KeyBackspace
	KeyHome

	// Row 3
	KeyTab
	KeyQ
	KeyW
	KeyE
	KeyR
	KeyT
	KeyY
	KeyU
	KeyI
	KeyO
	KeyP
	KeyLeftBracket
	KeyRightBracket
	KeyHash
	KeyPageUp

	// Row 4
	KeyCapsLock
	KeyA
	KeyS
	KeyD
	KeyF
	KeyG
	KeyH
	KeyJ
	KeyK
	KeyL
	KeySemicolon
	KeyApostrophe
	KeyEnter
	KeyPageDown

	// Row 5
	KeyLeftShift
	KeyBackslash
	KeyZ
	KeyX
	KeyC
	KeyV
	KeyB
	KeyN
	KeyM
	KeyComma
	KeyDot
	KeySlash
	KeyRightShift
	KeyUp
	KeyEnd

	// Row 6
	KeyLeftCtrl
	KeyLeftMeta
	KeyLeftAlt
	KeySpace
	KeyRightAlt
	KeyRightMeta
	KeyMenu
	KeyRightCtrl
	KeyLeft
	KeyDown
	KeyRight

	numKeyboardKeys
)

var keyNames = [numKeyboardKeys]string{
	KeyNone: "None",

	KeyEscape: "Escape", KeyF1: "F1", KeyF2: "F2", KeyF3: "F3", KeyF4: "F4",
	KeyF5: "F5", KeyF6: "F6", KeyF7: "F7", KeyF8: "F8", KeyF9: "F9",
	KeyF10: "F10", KeyF11: "F11", KeyF12: "F12", KeyInsert: "Insert",
	KeyPrintScreen: "PrintScreen", KeyDelete: "Delete",

	KeyBacktick: "Backtick", Key1: "1", Key2: "2", Key3: "3", Key4: "4",
	Key5: "5", Key6: "6", Key7: "7", Key8: "8", Key9: "9", Key0: "0",
	KeyMinus: "Minus", KeyEquals: "Equals", KeyBackspace: "Backspace", KeyHome: "Home",

	KeyTab: "Tab", KeyQ: "Q", KeyW: "W", KeyE: "E", KeyR: "R", KeyT: "T",
	KeyY: "Y", KeyU: "U", KeyI: "I", KeyO: "O", KeyP: "P",
	KeyLeftBracket: "LeftBracket", KeyRightBracket: "RightBracket",
	KeyHash: "Hash", KeyPageUp: "PageUp",

	KeyCapsLock: "CapsLock", KeyA: "A", KeyS: "S", KeyD: "D", KeyF: "F",
	KeyG: "G", KeyH: "H", KeyJ: "J", KeyK: "K", KeyL: "L",
	KeySemicolon: "Semicolon", KeyApostrophe: "Apostrophe", KeyEnter: "Enter",
	KeyPageDown: "PageDown",

	KeyLeftShift: "LeftShift", KeyBackslash: "Backslash", KeyZ: "Z", KeyX: "X",
	KeyC: "C", KeyV: "V", KeyB: "B", KeyN: "N", KeyM: "M", KeyComma: "Comma",
	KeyDot: "Dot", KeySlash: "Slash", KeyRightShift: "RightShift", KeyUp: "Up",
	KeyEnd: "End",

	KeyLeftCtrl: "LeftCtrl", KeyLeftMeta: "LeftMeta", KeyLeftAlt: "LeftAlt",
	KeySpace: "Space", KeyRightAlt: "RightAlt", KeyRightMeta: "RightMeta",
	KeyMenu: "Menu", KeyRightCtrl: "RightCtrl", KeyLeft: "Left", KeyDown: "Down",
	KeyRight: "Right",
}

// keyCodes maps each key to its Linux evdev code (linux/input-event-codes.h).
// Hash and Backslash follow the ISO (UK) physical layout.
var keyCodes = [numKeyboardKeys]uint16{
	KeyEscape: 1, KeyF1: 59, KeyF2: 60, KeyF3: 61, KeyF4: 62, KeyF5: 63,
	KeyF6: 64, KeyF7: 65, KeyF8: 66, KeyF9: 67, KeyF10: 68, KeyF11: 87,
	KeyF12: 88, KeyInsert: 110, KeyPrintScreen: 99, KeyDelete: 111,

	KeyBacktick: 41, Key1: 2, Key2: 3, Key3: 4, Key4: 5, Key5: 6, Key6: 7,
	Key7: 8, Key8: 9, Key9: 10, Key0: 11, KeyMinus: 12, KeyEquals: 13,
	KeyBackspace: 14, KeyHome: 102,

	KeyTab: 15, KeyQ: 16, KeyW: 17, KeyE: 18, KeyR: 19, KeyT: 20, KeyY: 21,
	KeyU: 22, KeyI: 23, KeyO: 24, KeyP: 25, KeyLeftBracket: 26,
	KeyRightBracket: 27, KeyHash: 43, KeyPageUp: 104,

	KeyCapsLock: 58, KeyA: 30, KeyS: 31, KeyD: 32, KeyF: 33, KeyG: 34,
	KeyH: 35, KeyJ: 36, KeyK: 37, KeyL: 38, KeySemicolon: 39,
	KeyApostrophe: 40, KeyEnter: 28, KeyPageDown: 109,

	KeyLeftShift: 42, KeyBackslash: 86, KeyZ: 44, KeyX: 45, KeyC: 46,
	KeyV: 47, KeyB: 48, KeyN: 49, KeyM: 50, KeyComma: 51, KeyDot: 52,
	KeySlash: 53, KeyRightShift: 54, KeyUp: 103, KeyEnd: 107,

	KeyLeftCtrl: 29, KeyLeftMeta: 125, KeyLeftAlt: 56, KeySpace: 57,
	KeyRightAlt: 100, KeyRightMeta: 126, KeyMenu: 127, KeyRightCtrl: 97,
	KeyLeft: 105, KeyDown: 108, KeyRight: 106,
}

func (k KeyboardKey) String() string {
	if k < 0 || k >= numKeyboardKeys {
		return "Unknown"
	}
	return keyNames[k]
}

// Code returns the evdev key code, or 0 if the key has none.
func (k KeyboardKey) Code() uint16 {
	if k <= KeyNone || k >= numKeyboardKeys {
		return 0
	}
	return keyCodes[k]
}

// HasScanCode reports whether the key produces a physical key stroke.
func (k KeyboardKey) HasScanCode() bool {
	return k.Code() != 0
}

// IsModifier reports whether k is a shift, ctrl, alt or meta key.
func (k KeyboardKey) IsModifier() bool {
	switch k {
	case KeyLeftShift, KeyRightShift, KeyLeftCtrl, KeyRightCtrl,
		KeyLeftAlt, KeyRightAlt, KeyLeftMeta, KeyRightMeta:
		return true
	}
	return false
}

// modifierFlag returns the ModifierKeys bits a held modifier key contributes.
func (k KeyboardKey) modifierFlag() ModifierKeys {
	switch k {
	case KeyLeftShift:
		return ModLShift | ModShift
	case KeyRightShift:
		return ModRShift | ModShift
	case KeyLeftCtrl:
		return ModLCtrl | ModCtrl
	case KeyRightCtrl:
		return ModRCtrl | ModCtrl
	case KeyLeftAlt:
		return ModLAlt | ModAlt
	case KeyRightAlt:
		return ModRAlt | ModAlt
	case KeyLeftMeta:
		return ModLWin
	case KeyRightMeta:
		return ModRWin
	}
	return 0
}

func (k KeyboardKey) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *KeyboardKey) UnmarshalText(b []byte) error {
	v, ok := parseKeyboardKey(string(b))
	if !ok {
		return fmt.Errorf("unknown key %q", string(b))
	}
	*k = v
	return nil
}

// parseKeyboardKey accepts key names case-insensitively ("a", "PageUp", "f5").
func parseKeyboardKey(s string) (KeyboardKey, bool) {
	name := strings.TrimSpace(s)
	for k := KeyNone; k < numKeyboardKeys; k++ {
		if strings.EqualFold(keyNames[k], name) {
			return k, true
		}
	}
	return KeyNone, false
}
