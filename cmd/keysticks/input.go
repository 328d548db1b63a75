package main

import (
	"bytes"
	"encoding/binary"
)

// inputEvent represents a Linux input event structure
// struct input_event { struct timeval time; __u16 type; __u16 code; __s32 value; };
type inputEvent struct {
	Sec   int64
	Usec  int64
	Type  uint16
	Code  uint16
	Value int32
}

var inputEventSize = binary.Size(inputEvent{})

// decodeInputEvents parses whole input events from buf, ignoring a trailing
// partial record.
func decodeInputEvents(buf []byte) []inputEvent {
	n := len(buf) / inputEventSize
	if n == 0 {
		return nil
	}
	evs := make([]inputEvent, 0, n)
	reader := bytes.NewReader(buf[:n*inputEventSize])
	for i := 0; i < n; i++ {
		var ev inputEvent
		if err := binary.Read(reader, binary.LittleEndian, &ev); err != nil {
			break
		}
		evs = append(evs, ev)
	}
	return evs
}

// physicalInput is a bound device as the sources read it.
type physicalInput interface {
	inputState
	Connected() bool
}

// axisRange is a device axis' reported range, used to normalise readings.
type axisRange struct {
	Min, Max int32
}

// deviceState folds a device's input events into its current key and axis
// state. Sticks normalise to [-1, 1] around the range centre; axes whose
// minimum is zero (triggers) normalise to [0, 1].
type deviceState struct {
	keys      map[uint16]bool
	axes      map[uint16]int32
	ranges    map[uint16]axisRange
	connected bool
}

func newDeviceState(ranges map[uint16]axisRange) *deviceState {
	if ranges == nil {
		ranges = make(map[uint16]axisRange)
	}
	return &deviceState{
		keys:      make(map[uint16]bool),
		axes:      make(map[uint16]int32),
		ranges:    ranges,
		connected: true,
	}
}

func (d *deviceState) apply(ev inputEvent) {
	switch ev.Type {
	case EV_KEY:
		// Autorepeat (value 2) keeps the key held.
		d.keys[ev.Code] = ev.Value != evValueRelease
	case EV_ABS:
		d.axes[ev.Code] = ev.Value
	}
}

func (d *deviceState) Connected() bool { return d.connected }

func (d *deviceState) Key(code uint16) bool { return d.keys[code] }

func (d *deviceState) Axis(code uint16) float64 {
	v, ok := d.axes[code]
	if !ok {
		return 0
	}
	r, ok := d.ranges[code]
	if !ok || r.Max <= r.Min {
		// Hats report -1/0/1 without a useful range.
		return clampUnit(float64(v))
	}
	if r.Min == 0 {
		return clampUnit(float64(v) / float64(r.Max))
	}
	mid := (float64(r.Min) + float64(r.Max)) / 2
	half := (float64(r.Max) - float64(r.Min)) / 2
	return clampUnit((float64(v) - mid) / half)
}

func clampUnit(v float64) float64 {
	switch {
	case v < -1:
		return -1
	case v > 1:
		return 1
	}
	return v
}

// mergedInput reads several devices as one: a key is held if any device
// holds it, and an axis reads from the first device that has it off zero.
type mergedInput []physicalInput

func (m mergedInput) Key(code uint16) bool {
	for _, in := range m {
		if in.Key(code) {
			return true
		}
	}
	return false
}

func (m mergedInput) Axis(code uint16) float64 {
	for _, in := range m {
		if v := in.Axis(code); v != 0 {
			return v
		}
	}
	return 0
}
