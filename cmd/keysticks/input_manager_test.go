package main

import (
	"bytes"
	"encoding/binary"
	"errors"
	"slices"
	"testing"
)

type fakeReader struct {
	added   []string
	removed []string
	pollErr error
	closed  bool
}

func (r *fakeReader) Add(dev *inputDevice) error {
	if dev.Path == "/dev/input/broken" {
		return errors.New("epoll add failed")
	}
	r.added = append(r.added, dev.Path)
	return nil
}

func (r *fakeReader) Remove(dev *inputDevice) { r.removed = append(r.removed, dev.Path) }
func (r *fakeReader) Poll() error             { return r.pollErr }

func (r *fakeReader) Close() error {
	r.closed = true
	return nil
}

type inputManagerFixture struct {
	m       *InputManager
	reader  *fakeReader
	present map[string]string
	closed  []string
}

// newInputManagerFixture serves devices from present (path to name) instead
// of /dev/input.
func newInputManagerFixture(patterns ...string) *inputManagerFixture {
	f := &inputManagerFixture{reader: &fakeReader{}, present: make(map[string]string)}
	m := NewInputManager(patterns, discardLogger())
	m.newReader = func() (deviceReader, error) { return f.reader, nil }
	m.glob = func(string) ([]string, error) {
		var out []string
		for p := range f.present {
			out = append(out, p)
		}
		return out, nil
	}
	m.open = func(path string) (*inputDevice, error) {
		name, ok := f.present[path]
		if !ok {
			return nil, errors.New("no such device")
		}
		return &inputDevice{
			Path:        path,
			Name:        name,
			deviceState: newDeviceState(nil),
			close: func() error {
				f.closed = append(f.closed, path)
				return nil
			},
		}, nil
	}
	f.m = m
	return f
}

func newTestSources(devices ...[]string) []*Source {
	var out []*Source
	for i, d := range devices {
		out = append(out, newSource(&SourceDef{ID: i + 1, Devices: d}, newFakeClock(), discardLogger()))
	}
	return out
}

func boundPaths(src *Source) []string {
	var out []string
	for _, in := range src.inputs {
		out = append(out, in.(*inputDevice).Path)
	}
	return out
}

func TestInputManager_RefreshOpensAndDropsDevices(t *testing.T) {
	f := newInputManagerFixture("/dev/input/by-id/*-joystick", "/dev/input/event9")
	f.present["/dev/input/a"] = "Pad A"
	f.present["/dev/input/broken"] = "Broken"

	if !f.m.RefreshConnectedDeviceList(false) {
		t.Fatalf("expected the device set to change")
	}
	if got := f.m.DevicePaths(); !slices.Equal(got, []string{"/dev/input/a"}) {
		t.Fatalf("unexpected devices %v", got)
	}
	if !slices.Equal(f.closed, []string{"/dev/input/broken"}) {
		t.Errorf("expected the device that failed to register closed, got %v", f.closed)
	}

	if f.m.RefreshConnectedDeviceList(false) {
		t.Errorf("nothing changed, refresh should report false")
	}

	f.m.devices["/dev/input/a"].connected = false
	if f.m.UpdateState() {
		t.Errorf("expected UpdateState false with a disconnected device")
	}
	delete(f.present, "/dev/input/a")
	if !f.m.RefreshConnectedDeviceList(false) {
		t.Errorf("expected the disconnected device to be dropped")
	}
	if len(f.m.DevicePaths()) != 0 || !slices.Equal(f.reader.removed, []string{"/dev/input/a"}) {
		t.Errorf("device not removed: devices=%v removed=%v", f.m.DevicePaths(), f.reader.removed)
	}
	if f.m.UpdateState() {
		t.Errorf("expected UpdateState false with no devices")
	}
}

func TestInputManager_BindProfile(t *testing.T) {
	f := newInputManagerFixture("/dev/input/*")
	f.present["/dev/input/event1"] = "Xbox Wireless Controller"
	f.present["/dev/input/event2"] = "8BitDo Pro 2"
	f.present["/dev/input/event3"] = "Generic Gamepad"
	f.m.RefreshConnectedDeviceList(false)

	sources := newTestSources([]string{"8bitdo"}, nil, nil, nil)
	f.m.SetProfile(sources)
	if !f.m.BindProfile() {
		t.Fatalf("expected at least one source bound")
	}

	want := [][]string{
		{"/dev/input/event2"},
		{"/dev/input/event1"},
		{"/dev/input/event3"},
		nil,
	}
	for i, src := range sources {
		if got := boundPaths(src); !slices.Equal(got, want[i]) {
			t.Errorf("source %d: expected %v, got %v", i+1, want[i], got)
		}
	}

	// A named source whose device is missing gets nothing.
	sources = newTestSources([]string{"/dev/input/event7"})
	f.m.SetProfile(sources)
	if f.m.BindProfile() {
		t.Errorf("no device matches, bind should report false")
	}
}

func TestInputManager_AddAllReopensAndCloses(t *testing.T) {
	f := newInputManagerFixture("/dev/input/*")
	f.present["/dev/input/event1"] = "Pad"
	f.m.RefreshConnectedDeviceList(false)

	if !f.m.RefreshConnectedDeviceList(true) {
		t.Fatalf("reopening every device is a change")
	}
	if len(f.closed) != 1 || len(f.reader.added) != 2 {
		t.Errorf("expected one close and two adds, got %v and %v", f.closed, f.reader.added)
	}

	f.reader.pollErr = errors.New("epoll wait failed")
	if f.m.UpdateState() {
		t.Errorf("expected a poll error to report false")
	}

	if err := f.m.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if !f.reader.closed || len(f.m.DevicePaths()) != 0 {
		t.Errorf("expected reader closed and devices dropped")
	}
}

func TestDecodeInputEvents(t *testing.T) {
	var buf bytes.Buffer
	for _, ev := range []inputEvent{
		{Sec: 1, Type: EV_KEY, Code: BTN_SOUTH, Value: 1},
		{Sec: 1, Type: EV_ABS, Code: ABS_X, Value: -32768},
	} {
		if err := binary.Write(&buf, binary.LittleEndian, ev); err != nil {
			t.Fatal(err)
		}
	}
	raw := append(buf.Bytes(), 0x01, 0x02)

	evs := decodeInputEvents(raw)
	if len(evs) != 2 {
		t.Fatalf("expected 2 events, got %d", len(evs))
	}

	d := newDeviceState(map[uint16]axisRange{ABS_X: {Min: -32768, Max: 32767}, ABS_Z: {Min: 0, Max: 255}})
	for _, ev := range evs {
		d.apply(ev)
	}
	d.apply(inputEvent{Type: EV_ABS, Code: ABS_Z, Value: 255})
	d.apply(inputEvent{Type: EV_ABS, Code: ABS_HAT0X, Value: 1})

	if !d.Key(BTN_SOUTH) {
		t.Errorf("expected BTN_SOUTH held")
	}
	if got := d.Axis(ABS_X); got != -1 {
		t.Errorf("stick: expected -1, got %v", got)
	}
	if got := d.Axis(ABS_Z); got != 1 {
		t.Errorf("trigger: expected 1, got %v", got)
	}
	if got := d.Axis(ABS_HAT0X); got != 1 {
		t.Errorf("hat: expected 1, got %v", got)
	}

	d.apply(inputEvent{Type: EV_KEY, Code: BTN_SOUTH, Value: evValueRelease})
	if d.Key(BTN_SOUTH) {
		t.Errorf("expected BTN_SOUTH released")
	}
}

func TestMergedInput(t *testing.T) {
	a, b := newFakeDevice(), newFakeDevice()
	b.keys[BTN_EAST] = true
	a.axes[ABS_X] = 0
	b.axes[ABS_X] = 0.5

	in := mergedInput{a, b}
	if !in.Key(BTN_EAST) || in.Key(BTN_SOUTH) {
		t.Errorf("unexpected key state")
	}
	if got := in.Axis(ABS_X); got != 0.5 {
		t.Errorf("expected the first non-zero axis, got %v", got)
	}
}
