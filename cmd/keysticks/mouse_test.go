package main

import (
	"errors"
	"testing"
)

func TestMouseManager_OutputFailureReportedOncePerRun(t *testing.T) {
	out := &fakeOutput{err: errors.New("write /dev/uinput: no such device")}
	var ui []Event
	m := NewMouseManager(out, discardLogger())
	m.submitUI = func(ev Event) { ui = append(ui, ev) }

	m.Move(3, 0)
	m.Wheel(true)
	m.SetButtonState(MouseLeft, true)
	if n := countErrors(ui); n != 1 {
		t.Fatalf("got %d error events during one failure run, want 1", n)
	}
	// The button state still follows the request.
	if m.Buttons() != MouseLeft {
		t.Errorf("buttons = %v, want left", m.Buttons())
	}

	out.err = nil
	m.Move(1, 1)
	out.err = errors.New("write /dev/uinput: no such device")
	m.Move(1, 1)
	if n := countErrors(ui); n != 2 {
		t.Errorf("got %d error events after a new failure run, want 2", n)
	}
}

func TestMouseManager_ButtonEventsReported(t *testing.T) {
	out := &fakeOutput{}
	var ui []Event
	m := NewMouseManager(out, discardLogger())
	m.submitUI = func(ev Event) { ui = append(ui, ev) }

	m.ToggleButtonState(MouseLeft)
	m.ToggleButtonState(MouseLeft)

	if len(out.keys) != 2 || !out.keys[0].down || out.keys[1].down {
		t.Fatalf("unexpected output %+v", out.keys)
	}
	if len(ui) != 2 {
		t.Fatalf("got %d ui events, want 2", len(ui))
	}
	if ev, ok := ui[1].(MouseButtonStateEvent); !ok || ev.Buttons != 0 {
		t.Errorf("last event = %+v, want no buttons held", ui[1])
	}
	if n := countErrors(ui); n != 0 {
		t.Errorf("got %d error events, want 0", n)
	}
}
