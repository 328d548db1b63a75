package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"
)

// ============================================================================
// System Monitor
// ============================================================================
// Samples the keyboard layout and the foreground window on its own goroutine
// and keeps the latest readings. The engine reads them without waiting on
// setxkbmap or xdotool. Window requests from actions are queued and run here
// as well; failures are reported as UI errors.
// ============================================================================

const (
	defaultLayoutReadTimeout = 500 * time.Millisecond
	windowQueueLen           = 8
)

var errNotSampled = errors.New("not sampled yet")

type layoutReading struct {
	layout string
	err    error
}

type windowReading struct {
	info windowInfo
	err  error
}

type windowCommand struct {
	name string
	run  func() error
}

type SystemMonitor struct {
	logger   *slog.Logger
	interval time.Duration

	readLayout    func(ctx context.Context) (string, error)
	layoutTimeout time.Duration
	windows       windowMonitor
	onError       func(Event)

	layout     atomic.Pointer[layoutReading]
	window     atomic.Pointer[windowReading]
	wantWindow atomic.Bool

	commands chan windowCommand
}

// NewSystemMonitor builds a monitor. windows and readLayout may be nil;
// onError receives window action failures.
func NewSystemMonitor(windows windowMonitor, readLayout func(context.Context) (string, error), onError func(Event), logger *slog.Logger) *SystemMonitor {
	return &SystemMonitor{
		logger:        logger,
		interval:      systemPollingIntervalMS * time.Millisecond,
		readLayout:    readLayout,
		layoutTimeout: defaultLayoutReadTimeout,
		windows:       windows,
		onError:       onError,
		commands:      make(chan windowCommand, windowQueueLen),
	}
}

// Run samples every interval and runs queued window commands until ctx is
// canceled.
func (m *SystemMonitor) Run(ctx context.Context) error {
	m.Sample(ctx)

	t := time.NewTicker(m.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			m.Sample(ctx)
		case cmd := <-m.commands:
			m.execute(cmd)
		}
	}
}

// Sample reads the layout, and the window once someone has asked for it.
func (m *SystemMonitor) Sample(ctx context.Context) {
	if m.readLayout != nil {
		lctx, cancel := context.WithTimeout(ctx, m.layoutTimeout)
		l, err := m.readLayout(lctx)
		cancel()
		m.layout.Store(&layoutReading{layout: l, err: err})
	}
	if m.windows != nil && m.wantWindow.Load() {
		info, err := m.windows.ActiveWindow(ctx)
		m.window.Store(&windowReading{info: info, err: err})
	}
}

func (m *SystemMonitor) execute(cmd windowCommand) {
	err := cmd.run()
	if err == nil {
		return
	}
	m.logger.Warn("window action failed", "action", cmd.name, "error", err)
	if m.onError != nil {
		m.onError(newErrorEvent("window action "+cmd.name+" failed", err))
	}
}

// ReadLayout returns the latest layout reading.
func (m *SystemMonitor) ReadLayout(context.Context) (string, error) {
	r := m.layout.Load()
	if r == nil {
		return "", errNotSampled
	}
	return r.layout, r.err
}

// ActiveWindow returns the latest foreground window reading. The first call
// turns window sampling on.
func (m *SystemMonitor) ActiveWindow(context.Context) (windowInfo, error) {
	m.wantWindow.Store(true)
	r := m.window.Load()
	if r == nil {
		return windowInfo{}, errNotSampled
	}
	return r.info, r.err
}

func (m *SystemMonitor) Activate(program, title string) error {
	return m.enqueue(ActionActivateWindow.String(), func() error { return m.windows.Activate(program, title) })
}

func (m *SystemMonitor) Maximise() error {
	return m.enqueue(ActionMaximiseWindow.String(), func() error { return m.windows.Maximise() })
}

func (m *SystemMonitor) Minimise() error {
	return m.enqueue(ActionMinimiseWindow.String(), func() error { return m.windows.Minimise() })
}

func (m *SystemMonitor) enqueue(name string, run func() error) error {
	if m.windows == nil {
		return fmt.Errorf("%s: window control unavailable", name)
	}
	select {
	case m.commands <- windowCommand{name: name, run: run}:
		return nil
	default:
		return fmt.Errorf("%s: window queue full", name)
	}
}
