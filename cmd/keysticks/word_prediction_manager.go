package main

import "unicode"

// ============================================================================
// Word Prediction Manager
// ============================================================================
// Runs on the engine goroutine and mirrors what is typed into the prediction
// loop, so the prediction service sees the word being edited. It tracks how
// many characters of the current word were sent and where the cursor sits
// within them; edits that leave that span reset the service's input instead.
//
// After CancelSuggestions the rest of the current word is ignored until a
// whitespace character starts a new one.
// ============================================================================

type WordPredictionManager struct {
	enabled           bool
	charsSent         int
	cursorPos         int
	ignoreCurrentWord bool

	layout    *keyboardLayout
	modifiers func() ModifierKeys

	submitPrediction func(Event)
	submitUI         func(Event)
}

func NewWordPredictionManager(modifiers func() ModifierKeys, submitPrediction, submitUI func(Event)) *WordPredictionManager {
	return &WordPredictionManager{
		layout:           layoutFor(""),
		modifiers:        modifiers,
		submitPrediction: submitPrediction,
		submitUI:         submitUI,
	}
}

func (m *WordPredictionManager) IsEnabled() bool { return m.enabled }

func (m *WordPredictionManager) KeyboardLayoutChanged(l *keyboardLayout) { m.layout = l }

// HandlePredictionEvent applies Enable and Disable requests.
func (m *WordPredictionManager) HandlePredictionEvent(ev PredictionEvent) {
	switch ev.Kind {
	case PredictionEnable:
		m.enabled = true
		m.sendReset()
	case PredictionDisable:
		m.enabled = false
	}
}

func (m *WordPredictionManager) HandleKeyEvent(ev KeyEvent) {
	if m.enabled && ev.Pressed {
		m.handleKeyDown(ev.Key)
	}
}

func (m *WordPredictionManager) HandleRepeatKey(ev RepeatKeyEvent) {
	if !m.enabled {
		return
	}
	switch ev.Key {
	case KeyBackspace:
		m.sendBackspace(ev.Count)
	case KeyDelete:
		m.sendDelete(ev.Count)
	case KeyLeft:
		m.sendLeft(ev.Count)
	case KeyRight:
		m.sendRight(ev.Count)
	}
}

func (m *WordPredictionManager) HandleText(text string) {
	if !m.enabled {
		return
	}
	if !m.ignoreCurrentWord {
		m.sendString(text)
		return
	}
	for _, r := range text {
		if unicode.IsSpace(r) {
			m.sendReset()
			return
		}
	}
}

// CancelSuggestions clears the UI's suggestions and ignores the rest of the
// current word.
func (m *WordPredictionManager) CancelSuggestions() {
	if !m.enabled {
		return
	}
	m.ignoreCurrentWord = true
	m.submitUI(PredictionEvent{Kind: PredictionCancelSuggestions})
}

// PredictionReset starts a new word, e.g. after a mouse click moved the
// caret somewhere unknown.
func (m *WordPredictionManager) PredictionReset() {
	if m.charsSent != 0 {
		m.submitPrediction(KeyEvent{Key: KeyNone, Pressed: true})
		m.charsSent = 0
		m.cursorPos = 0
	}
	m.ignoreCurrentWord = false
}

func (m *WordPredictionManager) handleKeyDown(key KeyboardKey) {
	mods := m.modifiers()
	if mods == 0 {
		switch key {
		case KeyLeft:
			m.sendLeft(1)
			return
		case KeyRight:
			m.sendRight(1)
			return
		case KeySpace, KeyTab:
			if m.ignoreCurrentWord {
				m.sendReset()
			} else {
				m.sendString(pick(key == KeySpace, " ", "\t"))
			}
			return
		case KeyBackspace:
			m.sendBackspace(1)
			return
		case KeyDelete:
			m.sendDelete(1)
			return
		}
	}
	if m.ignoreCurrentWord || key.IsModifier() {
		return
	}

	shifted := mods&^(ModShift|ModLShift|ModRShift) == 0
	if r, ok := m.layout.charFor(key, mods != 0); ok && shifted {
		m.sendString(string(r))
	} else if key.HasScanCode() {
		m.PredictionReset()
	}
}

func (m *WordPredictionManager) sendReset() {
	m.submitPrediction(KeyEvent{Key: KeyNone, Pressed: true})
	m.charsSent = 0
	m.cursorPos = 0
	m.ignoreCurrentWord = false
}

func (m *WordPredictionManager) sendString(s string) {
	m.submitPrediction(TextEvent{Text: s})
	n := len([]rune(s))
	m.charsSent += n
	m.cursorPos += n
}

func (m *WordPredictionManager) sendBackspace(count int) {
	if m.ignoreCurrentWord || m.cursorPos == 0 {
		return
	}
	n := min(m.cursorPos, count)
	m.submitPrediction(RepeatKeyEvent{Key: KeyBackspace, Count: n})
	m.charsSent -= n
	m.cursorPos -= n
}

func (m *WordPredictionManager) sendDelete(count int) {
	if m.ignoreCurrentWord || m.cursorPos >= m.charsSent {
		return
	}
	n := min(m.charsSent-m.cursorPos, count)
	m.submitPrediction(RepeatKeyEvent{Key: KeyDelete, Count: n})
	m.charsSent -= n
}

func (m *WordPredictionManager) sendLeft(count int) {
	if m.ignoreCurrentWord {
		return
	}
	if m.cursorPos >= count {
		m.submitPrediction(RepeatKeyEvent{Key: KeyLeft, Count: count})
		m.cursorPos -= count
		return
	}
	m.PredictionReset()
}

func (m *WordPredictionManager) sendRight(count int) {
	if m.ignoreCurrentWord {
		return
	}
	if m.cursorPos < m.charsSent && count <= m.charsSent-m.cursorPos {
		m.submitPrediction(RepeatKeyEvent{Key: KeyRight, Count: count})
		m.cursorPos += count
		return
	}
	m.PredictionReset()
}
