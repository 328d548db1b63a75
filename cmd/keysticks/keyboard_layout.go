package main

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"hash/fnv"
	"os/exec"
	"strings"
	"unicode"
)

// KeyboardContext is the active keyboard layout. ID is a stable hash of the
// layout name; zero means the layout has never been read.
type KeyboardContext struct {
	Layout string
	ID     uint32
}

func newKeyboardContext(layout string) KeyboardContext {
	h := fnv.New32a()
	h.Write([]byte(layout))
	id := h.Sum32()
	if id == 0 {
		id = 1
	}
	return KeyboardContext{Layout: layout, ID: id}
}

// keyboardLayout maps character keys to the characters they type, unshifted
// and shifted.
type keyboardLayout struct {
	name  string
	chars map[KeyboardKey][2]rune
}

// keyFor returns the key typing r, and whether shift is needed.
func (l *keyboardLayout) keyFor(r rune) (KeyboardKey, bool, bool) {
	switch r {
	case ' ':
		return KeySpace, false, true
	case '\t':
		return KeyTab, false, true
	case '\n':
		return KeyEnter, false, true
	}
	for k, c := range l.chars {
		if c[0] == r {
			return k, false, true
		}
	}
	for k, c := range l.chars {
		if c[1] == r {
			return k, true, true
		}
	}
	return KeyNone, false, false
}

// charFor returns the character key types with the given shift state.
func (l *keyboardLayout) charFor(key KeyboardKey, shift bool) (rune, bool) {
	c, ok := l.chars[key]
	if !ok {
		return 0, false
	}
	if shift {
		return c[1], true
	}
	return c[0], true
}

func baseLayoutChars() map[KeyboardKey][2]rune {
	m := map[KeyboardKey][2]rune{
		Key1: {'1', '!'}, Key2: {'2', '"'}, Key3: {'3', '£'}, Key4: {'4', '$'},
		Key5: {'5', '%'}, Key6: {'6', '^'}, Key7: {'7', '&'}, Key8: {'8', '*'},
		Key9: {'9', '('}, Key0: {'0', ')'},
		KeyBacktick: {'`', '¬'}, KeyMinus: {'-', '_'}, KeyEquals: {'=', '+'},
		KeyLeftBracket: {'[', '{'}, KeyRightBracket: {']', '}'}, KeyHash: {'#', '~'},
		KeySemicolon: {';', ':'}, KeyApostrophe: {'\'', '@'}, KeyBackslash: {'\\', '|'},
		KeyComma: {',', '<'}, KeyDot: {'.', '>'}, KeySlash: {'/', '?'},
	}
	for k := KeyQ; k <= KeyP; k++ {
		addLetter(m, k)
	}
	for k := KeyA; k <= KeyL; k++ {
		addLetter(m, k)
	}
	for k := KeyZ; k <= KeyM; k++ {
		addLetter(m, k)
	}
	return m
}

func addLetter(m map[KeyboardKey][2]rune, k KeyboardKey) {
	r := rune(strings.ToLower(k.String())[0])
	m[k] = [2]rune{r, unicode.ToUpper(r)}
}

var layouts = map[string]*keyboardLayout{
	"gb": {name: "gb", chars: baseLayoutChars()},
	"us": {name: "us", chars: usLayoutChars()},
}

func usLayoutChars() map[KeyboardKey][2]rune {
	m := baseLayoutChars()
	m[Key2] = [2]rune{'2', '@'}
	m[Key3] = [2]rune{'3', '#'}
	m[KeyBacktick] = [2]rune{'`', '~'}
	m[KeyApostrophe] = [2]rune{'\'', '"'}
	m[KeyHash] = [2]rune{'\\', '|'}
	delete(m, KeyBackslash)
	return m
}

// layoutFor returns the named layout, falling back to gb.
func layoutFor(name string) *keyboardLayout {
	if l, ok := layouts[strings.ToLower(name)]; ok {
		return l
	}
	return layouts["gb"]
}

// readKeyboardLayout asks the X server for the active layout. The first
// layout of a comma-separated group is returned.
func readKeyboardLayout(ctx context.Context) (string, error) {
	out, err := exec.CommandContext(ctx, "setxkbmap", "-query").Output()
	if err != nil {
		return "", fmt.Errorf("setxkbmap: %w", err)
	}
	return parseXkbLayout(out)
}

func parseXkbLayout(out []byte) (string, error) {
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		name, value, ok := strings.Cut(sc.Text(), ":")
		if !ok || strings.TrimSpace(name) != "layout" {
			continue
		}
		layout, _, _ := strings.Cut(strings.TrimSpace(value), ",")
		if layout != "" {
			return layout, nil
		}
	}
	return "", fmt.Errorf("setxkbmap: no layout line")
}
