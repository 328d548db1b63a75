package main

import (
	"math"
	"slices"
	"testing"
	"time"
)

type raised struct {
	reason EventReason
	dir    LRUDState
}

type controlFixture struct {
	c      *Control
	clock  *fakeClock
	dev    *fakeDevice
	events []raised
	moves  []*SourceEvent
}

// newControlFixture builds a control listening for reasons.
func newControlFixture(def *ControlDef, reasons ...EventReason) *controlFixture {
	f := &controlFixture{clock: newFakeClock(), dev: newFakeDevice()}
	f.c = newControl(def, 1, f.clock, 0.2, func(_ *Control, ev *SourceEvent) {
		if ev.Reason == ReasonMoved {
			f.moves = append(f.moves, ev)
			return
		}
		f.events = append(f.events, raised{ev.Reason, ev.Direction})
	})
	set := &ActionSet{}
	for _, r := range reasons {
		set.Lists = append(set.Lists, &ActionList{Reason: r})
	}
	f.c.EnableInputEvents(set, true)
	return f
}

// step reads the device after the clock moves on by d and returns the
// events raised.
func (f *controlFixture) step(d time.Duration) []raised {
	f.clock.Advance(d)
	f.events = nil
	f.c.Update(f.dev)
	f.c.RaiseEvents()
	return f.events
}

func expectRaised(t *testing.T, step string, got []raised, want ...raised) {
	t.Helper()
	if !slices.Equal(got, want) {
		t.Errorf("%s: expected %v, got %v", step, want, got)
	}
}

func buttonDef() *ControlDef {
	return &ControlDef{Type: ControlButton, ID: 1, Code: BTN_SOUTH}
}

func dpadDef() *ControlDef {
	return &ControlDef{Type: ControlDPad, ID: 1, Up: BTN_DPAD_UP, Down: BTN_DPAD_DOWN, Left: BTN_DPAD_LEFT, Right: BTN_DPAD_RIGHT}
}

func TestControl_ShortPress(t *testing.T) {
	f := newControlFixture(buttonDef(), ReasonPressedShort)

	f.dev.keys[BTN_SOUTH] = true
	expectRaised(t, "press", f.step(0), raised{ReasonPressed, LRUDNone})
	expectRaised(t, "hold", f.step(100*time.Millisecond))

	f.dev.keys[BTN_SOUTH] = false
	expectRaised(t, "release", f.step(100*time.Millisecond),
		raised{ReasonPressedShort, LRUDNone}, raised{ReasonReleased, LRUDNone})
}

func TestControl_LongPressWinsOverShort(t *testing.T) {
	f := newControlFixture(buttonDef(), ReasonPressedShort, ReasonPressedLong, ReasonPressRepeated)
	hold := defaultHoldTimeMS * time.Millisecond
	repeat := defaultAutoRepeatIntervalMS * time.Millisecond

	f.dev.keys[BTN_SOUTH] = true
	expectRaised(t, "press", f.step(0), raised{ReasonPressed, LRUDNone})
	expectRaised(t, "long", f.step(hold),
		raised{ReasonPressedLong, LRUDNone}, raised{ReasonPressRepeated, LRUDNone})
	expectRaised(t, "before repeat", f.step(repeat/2))
	expectRaised(t, "repeat", f.step(repeat/2), raised{ReasonPressRepeated, LRUDNone})

	f.dev.keys[BTN_SOUTH] = false
	expectRaised(t, "release", f.step(0), raised{ReasonReleased, LRUDNone})
	expectRaised(t, "no repeats after release", f.step(2*repeat))
}

func TestControl_HoldTimeStack(t *testing.T) {
	f := newControlFixture(buttonDef(), ReasonPressedLong)
	f.c.ApplyHoldTime(100, true)

	f.dev.keys[BTN_SOUTH] = true
	f.step(0)
	expectRaised(t, "pushed hold time", f.step(100*time.Millisecond), raised{ReasonPressedLong, LRUDNone})

	f.dev.keys[BTN_SOUTH] = false
	f.step(0)
	f.c.ApplyHoldTime(100, false)

	f.dev.keys[BTN_SOUTH] = true
	f.step(0)
	expectRaised(t, "default hold time", f.step(100*time.Millisecond))
	expectRaised(t, "default hold time elapsed", f.step(defaultHoldTimeMS*time.Millisecond), raised{ReasonPressedLong, LRUDNone})
}

func TestControl_DirectionChange(t *testing.T) {
	f := newControlFixture(dpadDef(), ReasonDirected)

	f.dev.keys[BTN_DPAD_RIGHT] = true
	expectRaised(t, "right", f.step(0),
		raised{ReasonUndirected, LRUDCentre}, raised{ReasonDirected, LRUDRight})
	expectRaised(t, "held", f.step(time.Second))

	f.dev.keys[BTN_DPAD_UP] = true
	expectRaised(t, "up right", f.step(0),
		raised{ReasonUndirected, LRUDRight}, raised{ReasonDirected, LRUDUpRight})

	f.dev.keys[BTN_DPAD_RIGHT] = false
	f.dev.keys[BTN_DPAD_UP] = false
	expectRaised(t, "centre", f.step(0),
		raised{ReasonUndirected, LRUDUpRight}, raised{ReasonDirected, LRUDCentre})
}

func TestControl_DirectedShortAndRepeat(t *testing.T) {
	f := newControlFixture(dpadDef(), ReasonDirectedShort, ReasonDirectionRepeated)
	hold := defaultHoldTimeMS * time.Millisecond

	f.dev.keys[BTN_DPAD_LEFT] = true
	f.step(0)
	f.dev.keys[BTN_DPAD_LEFT] = false
	expectRaised(t, "short", f.step(hold/2),
		raised{ReasonDirectedShort, LRUDLeft}, raised{ReasonUndirected, LRUDLeft}, raised{ReasonDirected, LRUDCentre})

	f.dev.keys[BTN_DPAD_LEFT] = true
	f.step(0)
	expectRaised(t, "repeat", f.step(hold), raised{ReasonDirectionRepeated, LRUDLeft})
	expectRaised(t, "repeat again", f.step(defaultAutoRepeatIntervalMS*time.Millisecond), raised{ReasonDirectionRepeated, LRUDLeft})

	f.dev.keys[BTN_DPAD_LEFT] = false
	expectRaised(t, "no short after hold", f.step(0),
		raised{ReasonUndirected, LRUDLeft}, raised{ReasonDirected, LRUDCentre})
}

func TestControl_DirectionModes(t *testing.T) {
	f := newControlFixture(dpadDef())
	f.dev.keys[BTN_DPAD_UP] = true
	f.dev.keys[BTN_DPAD_RIGHT] = true

	tests := []struct {
		mode DirectionMode
		want LRUDState
	}{
		{DirModeEightWay, LRUDUpRight},
		{DirModeFourWay, LRUDUp},
		{DirModeTwoWay, LRUDRight},
		{DirModeNonDirectional, LRUDCentre},
	}
	for _, tc := range tests {
		f.c.ApplyDirectionMode(tc.mode, true)
		f.step(0)
		if got := f.c.Direction(); got != tc.want {
			t.Errorf("%v: expected %v, got %v", tc.mode, tc.want, got)
		}
		f.c.ApplyDirectionMode(tc.mode, false)
	}

	// Popping every mode returns to the default.
	f.step(0)
	if got := f.c.Direction(); got != LRUDUpRight {
		t.Errorf("default mode: expected up_right, got %v", got)
	}
}

func TestControl_AxisStyleRaisesPerComponent(t *testing.T) {
	f := newControlFixture(dpadDef())
	f.c.ApplyDirectionMode(DirModeAxisStyle, true)

	f.dev.keys[BTN_DPAD_UP] = true
	f.dev.keys[BTN_DPAD_RIGHT] = true
	expectRaised(t, "up right", f.step(0),
		raised{ReasonDirected, LRUDRight}, raised{ReasonDirected, LRUDUp})

	f.dev.keys[BTN_DPAD_RIGHT] = false
	expectRaised(t, "drop right", f.step(0), raised{ReasonUndirected, LRUDRight})
}

func TestControl_StickDeadZoneAndMoves(t *testing.T) {
	f := newControlFixture(&ControlDef{Type: ControlStick, ID: 1, AxisX: ABS_X, AxisY: ABS_Y}, ReasonMoved)

	f.dev.axes[ABS_X] = 0.1
	f.step(0)
	if f.c.Direction() != LRUDCentre {
		t.Errorf("inside dead zone: expected centre, got %v", f.c.Direction())
	}

	f.dev.axes[ABS_X] = 0
	f.dev.axes[ABS_Y] = -1
	f.step(0)
	if f.c.Direction() != LRUDUp {
		t.Errorf("evdev negative Y is up, got %v", f.c.Direction())
	}

	f.dev.axes[ABS_Y] = 0
	f.c.ApplyDirectionMode(DirModeContinuous, true)
	f.dev.axes[ABS_X] = 0.6
	f.step(0)
	if len(f.moves) != 1 {
		t.Fatalf("expected one move event, got %d", len(f.moves))
	}
	if ev := f.moves[0]; math.Abs(ev.X-0.5) > 1e-9 || ev.Y != 0 {
		t.Errorf("expected the position rescaled past the dead zone, got (%v, %v)", ev.X, ev.Y)
	}

	f.step(0)
	if len(f.moves) != 1 {
		t.Errorf("an unchanged position should not raise a move")
	}
}

func TestControl_TriggerDeadZone(t *testing.T) {
	f := newControlFixture(&ControlDef{Type: ControlTrigger, ID: 1, Axis: ABS_RZ, DeadZone: 0.5})

	f.dev.axes[ABS_RZ] = 0.4
	expectRaised(t, "inside dead zone", f.step(0))

	f.dev.axes[ABS_RZ] = 0.75
	expectRaised(t, "pulled", f.step(0), raised{ReasonPressed, LRUDNone})
	if math.Abs(f.c.x-0.5) > 1e-9 {
		t.Errorf("expected trigger value 0.5, got %v", f.c.x)
	}
}

func TestControl_EnableInputEventsCounts(t *testing.T) {
	f := newControlFixture(buttonDef())
	set := &ActionSet{Lists: []*ActionList{{Reason: ReasonPressed}, {Reason: ReasonReleased}}}

	f.c.EnableInputEvents(set, true)
	f.c.EnableInputEvents(set, true)
	f.c.EnableInputEvents(set, false)
	if !f.c.IsActive() || !f.c.isEnabled(ReasonPressed) {
		t.Fatalf("expected the control to stay active while one set uses it")
	}
	f.c.EnableInputEvents(set, false)
	if f.c.IsActive() || f.c.isEnabled(ReasonReleased) {
		t.Errorf("expected the control inactive once every set is removed")
	}
}
