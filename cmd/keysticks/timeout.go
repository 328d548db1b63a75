package main

import "time"

// Clock is the time source for the engine. Tests substitute a manual clock.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// timeoutMonitor measures a duration from Start against the clock. Readings
// use monotonic time, so wall clock adjustments do not fire or delay it.
type timeoutMonitor struct {
	clock    Clock
	duration time.Duration
	start    time.Time
	started  bool
}

func newTimeoutMonitor(clock Clock, ms int) *timeoutMonitor {
	return &timeoutMonitor{clock: clock, duration: time.Duration(ms) * time.Millisecond}
}

func (m *timeoutMonitor) SetTimeout(ms int) {
	m.duration = time.Duration(ms) * time.Millisecond
}

func (m *timeoutMonitor) Start() {
	m.start = m.clock.Now()
	m.started = true
}

func (m *timeoutMonitor) Stop() { m.started = false }

func (m *timeoutMonitor) IsStarted() bool { return m.started }

// IsTimedOut reports whether the timeout elapsed. A timed out monitor
// restarts from now, so repeated calls report each interval once.
func (m *timeoutMonitor) IsTimedOut() bool {
	if !m.started {
		return false
	}
	now := m.clock.Now()
	if now.Sub(m.start) < m.duration {
		return false
	}
	m.start = now
	return true
}

// Elapsed returns the time since Start, or zero if stopped.
func (m *timeoutMonitor) Elapsed() time.Duration {
	if !m.started {
		return 0
	}
	return m.clock.Now().Sub(m.start)
}
