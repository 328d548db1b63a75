package main

import (
	"math"
)

// ============================================================================
// Virtual Controls
// ============================================================================
// A Control turns physical input state into control events. Every engine
// tick the source calls Update with the current device state, then
// RaiseEvents, which compares against the previous tick and raises:
//
//	pressable     Pressed, PressedLong, PressRepeated, PressedShort, Released
//	directional   Directed, DirectedLong, DirectionRepeated, DirectedShort,
//	              Undirected
//	continuous    Moved (stick in continuous mode)
//
// A control only measures hold and repeat times for the reasons some active
// action set listens to. When a hold timer and a state change land on the
// same tick, the timer events are raised first, so the order is Long,
// AutoRepeat, Short, Released/Undirected.
// ============================================================================

// inputState is the device state a control reads. Axis values are
// normalised: sticks and hats to [-1, 1], triggers to [0, 1].
type inputState interface {
	Key(code uint16) bool
	Axis(code uint16) float64
}

var (
	tan22_5 = math.Sqrt2 - 1
	tan67_5 = math.Sqrt2 + 1
)

type Control struct {
	def    *ControlDef
	id     ControlID
	player int
	clock  Clock
	raise  func(c *Control, ev *SourceEvent)

	pressable   bool
	directional bool
	deadZone    float64

	enabled [numEventReasons]int
	total   int

	holdStack   []int
	repeatStack []int

	pressed, oldPressed bool
	pressTimer          *timeoutMonitor
	repeatTimer         *timeoutMonitor

	modeStack      []DirectionMode
	mode           DirectionMode
	dir, oldDir    LRUDState
	dirTimer       *timeoutMonitor
	dirRepeatTimer *timeoutMonitor

	x, y, oldX, oldY float64
}

// newControl builds a control for def. raise receives every event the
// control raises; defaultDeadZone applies when def sets none.
func newControl(def *ControlDef, player int, clock Clock, defaultDeadZone float64, raise func(*Control, *SourceEvent)) *Control {
	c := &Control{
		def:            def,
		id:             def.ControlID(),
		player:         player,
		clock:          clock,
		raise:          raise,
		mode:           defaultDirectionMode,
		dir:            LRUDCentre,
		oldDir:         LRUDCentre,
		pressTimer:     newTimeoutMonitor(clock, defaultHoldTimeMS),
		repeatTimer:    newTimeoutMonitor(clock, defaultAutoRepeatIntervalMS),
		dirTimer:       newTimeoutMonitor(clock, defaultHoldTimeMS),
		dirRepeatTimer: newTimeoutMonitor(clock, defaultAutoRepeatIntervalMS),
	}
	switch def.Type {
	case ControlButton, ControlTrigger:
		c.pressable = true
	case ControlStick:
		c.pressable = true
		c.directional = true
	case ControlDPad, ControlButtonDiamond:
		c.directional = true
	}
	c.SetDeadZone(defaultDeadZone)
	return c
}

func (c *Control) ID() ControlID { return c.id }

// IsActive reports whether any active action set uses the control.
func (c *Control) IsActive() bool { return c.total != 0 }

func (c *Control) Direction() LRUDState { return c.dir }

func (c *Control) IsPressed() bool { return c.pressed }

// SetDeadZone applies the engine-wide dead zone unless the control has its own.
func (c *Control) SetDeadZone(fraction float64) {
	if c.def.DeadZone > 0 {
		fraction = c.def.DeadZone
	}
	c.deadZone = math.Min(math.Max(fraction, 0), 0.99)
}

// EnableInputEvents counts the reasons set listens to, adding when enable
// is set and removing otherwise.
func (c *Control) EnableInputEvents(set *ActionSet, enable bool) {
	delta := -1
	if enable {
		delta = 1
	}
	for _, l := range set.Lists {
		c.enabled[l.Reason] += delta
		c.total += delta
	}
}

func (c *Control) isEnabled(r EventReason) bool { return c.enabled[r] > 0 }

// ----------------------------------------------------------------------------
// Settings stacks
// ----------------------------------------------------------------------------

// ApplyDirectionMode pushes mode when enable is set and pops the latest
// otherwise. The top of the stack is the current mode.
func (c *Control) ApplyDirectionMode(mode DirectionMode, enable bool) {
	c.modeStack = applyStack(c.modeStack, mode, enable)
	c.mode = stackTop(c.modeStack, defaultDirectionMode)
}

func (c *Control) ApplyHoldTime(ms int, enable bool) {
	c.holdStack = applyStack(c.holdStack, ms, enable)
	hold := stackTop(c.holdStack, defaultHoldTimeMS)
	c.pressTimer.SetTimeout(hold)
	c.dirTimer.SetTimeout(hold)
}

func (c *Control) ApplyAutoRepeatInterval(ms int, enable bool) {
	c.repeatStack = applyStack(c.repeatStack, ms, enable)
	repeat := stackTop(c.repeatStack, defaultAutoRepeatIntervalMS)
	c.repeatTimer.SetTimeout(repeat)
	c.dirRepeatTimer.SetTimeout(repeat)
}

func applyStack[T any](stack []T, v T, push bool) []T {
	if push {
		return append(stack, v)
	}
	if len(stack) == 0 {
		return stack
	}
	return stack[:len(stack)-1]
}

func stackTop[T any](stack []T, def T) T {
	if len(stack) == 0 {
		return def
	}
	return stack[len(stack)-1]
}

// ----------------------------------------------------------------------------
// Input
// ----------------------------------------------------------------------------

func (c *Control) Update(in inputState) {
	d := c.def
	switch d.Type {
	case ControlButton:
		c.pressed = in.Key(d.Code)

	case ControlTrigger:
		v := in.Axis(d.Axis)
		if v < c.deadZone {
			v = 0
		} else {
			v = (v - c.deadZone) / (1 - c.deadZone)
		}
		c.x = v
		c.pressed = v != 0

	case ControlStick:
		// Evdev Y grows downwards; control events use Y up.
		x, y := in.Axis(d.AxisX), -in.Axis(d.AxisY)
		if d.InvertY {
			y = -y
		}
		c.x, c.y, c.dir = c.stickDirection(x, y)
		c.pressed = d.Code != 0 && in.Key(d.Code)

	case ControlDPad:
		var dir LRUDState
		if d.HatAxes {
			hx, hy := in.Axis(d.AxisX), in.Axis(d.AxisY)
			if hx < 0 {
				dir |= LRUDLeft
			} else if hx > 0 {
				dir |= LRUDRight
			}
			if hy < 0 {
				dir |= LRUDUp
			} else if hy > 0 {
				dir |= LRUDDown
			}
		} else {
			dir = c.buttonDirection(in)
		}
		c.dir = c.quantise(dir)

	case ControlButtonDiamond:
		c.dir = c.quantise(c.buttonDirection(in))
	}
}

func (c *Control) buttonDirection(in inputState) LRUDState {
	d := c.def
	var dir LRUDState
	left, right := d.Left != 0 && in.Key(d.Left), d.Right != 0 && in.Key(d.Right)
	up, down := d.Up != 0 && in.Key(d.Up), d.Down != 0 && in.Key(d.Down)
	if left != right {
		dir |= pick(left, LRUDLeft, LRUDRight)
	}
	if up != down {
		dir |= pick(up, LRUDUp, LRUDDown)
	}
	return dir
}

// quantise applies the direction mode to a digital direction.
func (c *Control) quantise(dir LRUDState) LRUDState {
	if dir == LRUDNone {
		return LRUDCentre
	}
	switch c.mode {
	case DirModeNonDirectional:
		return LRUDCentre
	case DirModeTwoWay:
		if h := dir.Horizontal(); h != LRUDNone {
			return h
		}
		return LRUDCentre
	case DirModeFourWay:
		if dir.IsDiagonal() {
			return dir.Vertical()
		}
	}
	return dir
}

// stickDirection applies the dead zone (rescaling the rest of the range to
// [0, 1]) and quantises the position for the direction mode.
func (c *Control) stickDirection(x, y float64) (float64, float64, LRUDState) {
	r := math.Hypot(x, y)
	if r < c.deadZone || r == 0 {
		return 0, 0, LRUDCentre
	}
	scale := math.Min(1, (r-c.deadZone)/(1-c.deadZone)) / r
	x, y = x*scale, y*scale

	ax, ay := math.Abs(x), math.Abs(y)
	horiz := pick(x > 0, LRUDRight, LRUDLeft)
	vert := pick(y > 0, LRUDUp, LRUDDown)

	switch c.mode {
	case DirModeNonDirectional:
		return x, y, LRUDCentre
	case DirModeTwoWay:
		return x, y, horiz
	case DirModeFourWay:
		if ay < ax {
			return x, y, horiz
		}
		return x, y, vert
	}

	switch {
	case ay < ax*tan22_5:
		return x, y, horiz
	case ay > ax*tan67_5:
		return x, y, vert
	}
	return x, y, horiz | vert
}

// ----------------------------------------------------------------------------
// Events
// ----------------------------------------------------------------------------

func (c *Control) RaiseEvents() {
	if c.pressable {
		c.raiseButtonEvents()
	}
	if c.directional {
		c.raiseDirectionChange()
		if c.mode == DirModeContinuous && c.isEnabled(ReasonMoved) {
			if c.x != c.oldX || c.y != c.oldY {
				ev := c.newEvent(ReasonMoved, LRUDNone)
				ev.X, ev.Y = c.x, c.y
				c.raise(c, ev)
			}
			c.oldX, c.oldY = c.x, c.y
		}
	}
}

func (c *Control) newEvent(reason EventReason, dir LRUDState) *SourceEvent {
	return newSourceEvent(c.player, c.id, reason, dir)
}

func (c *Control) emit(reason EventReason) {
	c.raise(c, c.newEvent(reason, LRUDNone))
}

func (c *Control) raiseButtonEvents() {
	if c.pressTimer.IsTimedOut() {
		// Long presses fire once; repeats follow on their own timer.
		c.pressTimer.Stop()
		if c.isEnabled(ReasonPressedLong) {
			c.emit(ReasonPressedLong)
		}
		if c.isEnabled(ReasonPressRepeated) {
			c.emit(ReasonPressRepeated)
			c.repeatTimer.Start()
		}
	} else if c.repeatTimer.IsTimedOut() {
		c.emit(ReasonPressRepeated)
	}

	if c.pressed == c.oldPressed {
		return
	}
	if c.pressed {
		c.emit(ReasonPressed)
		if c.isEnabled(ReasonPressedShort) || c.isEnabled(ReasonPressedLong) || c.isEnabled(ReasonPressRepeated) {
			c.pressTimer.Start()
		} else {
			c.pressTimer.Stop()
		}
	} else {
		if c.isEnabled(ReasonPressedShort) && c.pressTimer.IsStarted() {
			c.emit(ReasonPressedShort)
		}
		c.emit(ReasonReleased)
		c.pressTimer.Stop()
	}
	c.repeatTimer.Stop()
	c.oldPressed = c.pressed
}

func (c *Control) raiseDirectionChange() {
	if c.dirTimer.IsTimedOut() {
		c.dirTimer.Stop()
		if c.isEnabled(ReasonDirectedLong) {
			c.raiseDirectionEvents(LRUDCentre, c.dir, ReasonDirectedLong)
		}
		if c.isEnabled(ReasonDirectionRepeated) {
			c.raiseDirectionEvents(LRUDCentre, c.dir, ReasonDirectionRepeated)
			c.dirRepeatTimer.Start()
		}
	} else if c.dirRepeatTimer.IsTimedOut() {
		c.raiseDirectionEvents(LRUDCentre, c.dir, ReasonDirectionRepeated)
	}

	if c.dir == c.oldDir {
		return
	}
	if c.isEnabled(ReasonDirectedShort) && c.dirTimer.IsStarted() {
		c.raiseDirectionEvents(LRUDCentre, c.oldDir, ReasonDirectedShort)
	}
	// The old direction is released, then the new one directed.
	c.raiseDirectionEvents(c.dir, c.oldDir, ReasonUndirected)
	c.raiseDirectionEvents(c.oldDir, c.dir, ReasonDirected)

	if c.dir != LRUDCentre &&
		(c.isEnabled(ReasonDirectedShort) || c.isEnabled(ReasonDirectedLong) || c.isEnabled(ReasonDirectionRepeated)) {
		c.dirTimer.Start()
	} else {
		c.dirTimer.Stop()
	}
	c.dirRepeatTimer.Stop()
	c.oldDir = c.dir
}

// raiseDirectionEvents raises the events for moving from one direction to
// another. Axis style raises one event per newly set axis component;
// continuous mode only reports the return to centre.
func (c *Control) raiseDirectionEvents(from, to LRUDState, reason EventReason) {
	switch {
	case c.mode == DirModeAxisStyle:
		if to&LRUDLeft != 0 && from&LRUDLeft == 0 {
			c.raise(c, c.newEvent(reason, LRUDLeft))
		} else if to&LRUDRight != 0 && from&LRUDRight == 0 {
			c.raise(c, c.newEvent(reason, LRUDRight))
		}
		if to&LRUDUp != 0 && from&LRUDUp == 0 {
			c.raise(c, c.newEvent(reason, LRUDUp))
		} else if to&LRUDDown != 0 && from&LRUDDown == 0 {
			c.raise(c, c.newEvent(reason, LRUDDown))
		}
	case c.mode != DirModeContinuous || to == LRUDCentre:
		c.raise(c, c.newEvent(reason, to))
	}
}
