package main

import (
	"log/slog"
	"time"
)

// mouseButtonCodes maps each button bit to its evdev code.
var mouseButtonCodes = []struct {
	button MouseButtons
	code   uint16
}{
	{MouseLeft, BTN_LEFT},
	{MouseMiddle, BTN_MIDDLE},
	{MouseRight, BTN_RIGHT},
	{MouseX1, BTN_SIDE},
	{MouseX2, BTN_EXTRA},
}

// MouseManager tracks the mouse buttons this process holds and drives the
// pointer. Button changes are reported to the UI as MouseButtonStateEvents.
type MouseManager struct {
	out    outputDevice
	logger *slog.Logger

	buttons MouseButtons

	clickLength         time.Duration
	pointerSpeed        float64
	pointerAcceleration float64

	submitUI func(Event)

	// failing is set while output writes fail; cleared by the next success.
	failing bool
}

func NewMouseManager(out outputDevice, logger *slog.Logger) *MouseManager {
	return &MouseManager{
		out:                 out,
		logger:              logger,
		clickLength:         defaultMouseClickLengthMS * time.Millisecond,
		pointerSpeed:        defaultMousePointerSpeed,
		pointerAcceleration: defaultMousePointerAcceleration,
	}
}

func (m *MouseManager) SetClickLength(d time.Duration) { m.clickLength = d }

func (m *MouseManager) ClickLength() time.Duration { return m.clickLength }

func (m *MouseManager) SetPointerSpeed(v float64) { m.pointerSpeed = v }

func (m *MouseManager) PointerSpeed() float64 { return m.pointerSpeed }

func (m *MouseManager) SetPointerAcceleration(v float64) { m.pointerAcceleration = v }

func (m *MouseManager) PointerAcceleration() float64 { return m.pointerAcceleration }

func (m *MouseManager) Buttons() MouseButtons { return m.buttons }

// SetButtonState presses or releases every button in b.
func (m *MouseManager) SetButtonState(b MouseButtons, down bool) {
	before := m.buttons
	for _, bc := range mouseButtonCodes {
		if b&bc.button == 0 || (m.buttons&bc.button != 0) == down {
			continue
		}
		if m.out != nil {
			m.outputDone(m.out.Key(bc.code, down, false), "mouse button")
		}
		if down {
			m.buttons |= bc.button
		} else {
			m.buttons &^= bc.button
		}
	}
	if m.buttons != before && m.submitUI != nil {
		m.submitUI(MouseButtonStateEvent{Buttons: m.buttons})
	}
}

// ToggleButtonState flips each button in b.
func (m *MouseManager) ToggleButtonState(b MouseButtons) {
	for _, bc := range mouseButtonCodes {
		if b&bc.button != 0 {
			m.SetButtonState(bc.button, m.buttons&bc.button == 0)
		}
	}
}

func (m *MouseManager) Wheel(up bool) {
	if m.out == nil {
		return
	}
	m.outputDone(m.out.Wheel(pick(up, 1, -1)), "mouse wheel")
}

// Move moves the pointer by dx, dy pixels (y grows downwards).
func (m *MouseManager) Move(dx, dy int) {
	if m.out == nil || (dx == 0 && dy == 0) {
		return
	}
	m.outputDone(m.out.Move(dx, dy), "pointer")
}

// outputDone reports the first failure of a run to the UI.
func (m *MouseManager) outputDone(err error, what string) {
	if err == nil {
		m.failing = false
		return
	}
	if !m.failing {
		m.logger.Warn(what+" output failed", "error", err)
		if m.submitUI != nil {
			m.submitUI(newErrorEvent("mouse output failed", err))
		}
	}
	m.failing = true
}

func (m *MouseManager) ReleaseAll() {
	m.SetButtonState(m.buttons, false)
}
