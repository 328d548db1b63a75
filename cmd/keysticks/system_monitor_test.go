package main

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type fakeWindows struct {
	mu      sync.Mutex
	info    windowInfo
	err     error
	calls   []string
	reads   int
	release chan struct{}
}

func (w *fakeWindows) record(call string) error {
	if w.release != nil {
		<-w.release
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.calls = append(w.calls, call)
	return w.err
}

func (w *fakeWindows) Activate(program, title string) error { return w.record("activate " + program) }
func (w *fakeWindows) Maximise() error                      { return w.record("maximise") }
func (w *fakeWindows) Minimise() error                      { return w.record("minimise") }

func (w *fakeWindows) ActiveWindow(context.Context) (windowInfo, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.reads++
	return w.info, nil
}

func (w *fakeWindows) snapshot() ([]string, int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.calls...), w.reads
}

type errorSink struct {
	mu     sync.Mutex
	events []ErrorMessageEvent
}

func (s *errorSink) submit(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if em, ok := ev.(ErrorMessageEvent); ok {
		s.events = append(s.events, em)
	}
}

func (s *errorSink) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

func TestSystemMonitor_HungLayoutReadDoesNotBlockReaders(t *testing.T) {
	started := make(chan struct{}, 1)
	hung := func(ctx context.Context) (string, error) {
		select {
		case started <- struct{}{}:
		default:
		}
		<-ctx.Done()
		return "", ctx.Err()
	}
	m := NewSystemMonitor(nil, hung, nil, discardLogger())
	m.layoutTimeout = 200 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.Run(ctx)
	<-started

	done := make(chan error, 1)
	go func() {
		_, err := m.ReadLayout(context.Background())
		done <- err
	}()
	select {
	case err := <-done:
		if !errors.Is(err, errNotSampled) {
			t.Errorf("first read error = %v, want errNotSampled", err)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("ReadLayout waited on the layout command")
	}

	waitUntil(t, time.Second, func() bool {
		_, err := m.ReadLayout(context.Background())
		return errors.Is(err, context.DeadlineExceeded)
	}, "layout read never timed out")
}

func TestSystemMonitor_CachesLayout(t *testing.T) {
	calls := 0
	m := NewSystemMonitor(nil, func(context.Context) (string, error) {
		calls++
		return "de", nil
	}, nil, discardLogger())

	m.Sample(context.Background())
	for i := 0; i < 3; i++ {
		l, err := m.ReadLayout(context.Background())
		if err != nil || l != "de" {
			t.Fatalf("ReadLayout = %q, %v; want de", l, err)
		}
	}
	if calls != 1 {
		t.Errorf("layout command ran %d times, want 1", calls)
	}
}

func TestSystemMonitor_WindowSamplingStartsOnFirstRead(t *testing.T) {
	w := &fakeWindows{info: windowInfo{Process: "firefox", Title: "Mail"}}
	m := NewSystemMonitor(w, nil, nil, discardLogger())

	m.Sample(context.Background())
	if _, reads := w.snapshot(); reads != 0 {
		t.Fatalf("window read %d times before anyone asked", reads)
	}

	if _, err := m.ActiveWindow(context.Background()); !errors.Is(err, errNotSampled) {
		t.Fatalf("first ActiveWindow error = %v, want errNotSampled", err)
	}
	m.Sample(context.Background())

	got, err := m.ActiveWindow(context.Background())
	if err != nil {
		t.Fatalf("ActiveWindow: %v", err)
	}
	if got != w.info {
		t.Errorf("ActiveWindow = %+v, want %+v", got, w.info)
	}
}

func TestSystemMonitor_WindowActionsRunOffCaller(t *testing.T) {
	w := &fakeWindows{release: make(chan struct{})}
	sink := &errorSink{}
	m := NewSystemMonitor(w, nil, sink.submit, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.Run(ctx)

	// The fake blocks until released; the callers must not.
	for _, do := range []func() error{
		func() error { return m.Activate("firefox", "") },
		m.Maximise,
		m.Minimise,
	} {
		if err := do(); err != nil {
			t.Fatalf("enqueue: %v", err)
		}
	}
	close(w.release)

	waitUntil(t, time.Second, func() bool {
		calls, _ := w.snapshot()
		return len(calls) == 3
	}, "window actions not run")
	calls, _ := w.snapshot()
	want := []string{"activate firefox", "maximise", "minimise"}
	for i := range want {
		if calls[i] != want[i] {
			t.Errorf("call %d = %q, want %q", i, calls[i], want[i])
		}
	}
	if n := sink.len(); n != 0 {
		t.Errorf("got %d error events, want 0", n)
	}
}

func TestSystemMonitor_WindowActionFailureIsReported(t *testing.T) {
	w := &fakeWindows{err: errors.New("xdotool: exit status 1")}
	sink := &errorSink{}
	m := NewSystemMonitor(w, nil, sink.submit, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.Run(ctx)

	if err := m.Maximise(); err != nil {
		t.Fatalf("Maximise: %v", err)
	}
	waitUntil(t, time.Second, func() bool { return sink.len() == 1 }, "failure not reported")

	sink.mu.Lock()
	ev := sink.events[0]
	sink.mu.Unlock()
	if ev.Message != "window action maximise_window failed" {
		t.Errorf("message = %q", ev.Message)
	}
}

func TestSystemMonitor_FullQueueRejects(t *testing.T) {
	w := &fakeWindows{}
	m := NewSystemMonitor(w, nil, nil, discardLogger())

	// Not running, so nothing drains the queue.
	for i := 0; i < windowQueueLen; i++ {
		if err := m.Minimise(); err != nil {
			t.Fatalf("enqueue %d: %v", i, err)
		}
	}
	if err := m.Minimise(); err == nil {
		t.Error("enqueue past the queue length succeeded")
	}
}

func TestSystemMonitor_NoWindowControl(t *testing.T) {
	m := NewSystemMonitor(nil, nil, nil, discardLogger())
	if err := m.Maximise(); err == nil {
		t.Error("Maximise without a window controller succeeded")
	}
	if _, err := m.ReadLayout(context.Background()); !errors.Is(err, errNotSampled) {
		t.Errorf("ReadLayout error = %v, want errNotSampled", err)
	}
}
