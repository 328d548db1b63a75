package main

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// ============================================================================
// UI Loop
// ============================================================================
// Drains the UI channel every poll interval. Each event is logged, applied
// to the UI side state (suggestions, profile loads, program launches) and
// broadcast to websocket clients.
// ============================================================================

// uiHost is the orchestrator as seen by the UI loop.
type uiHost interface {
	ReceiveUIEvents() []Event
	SubmitStateEvent(ev Event)
	SetProfile(p *Profile)
}

type uiBroadcaster interface {
	BroadcastEvent(ev Event)
}

type UILoop struct {
	host   uiHost
	hub    uiBroadcaster
	logger *slog.Logger

	loadProfile  func(name string) (*Profile, error)
	startProgram func(program string, args []string) error

	suggestions *suggestionList
	interval    time.Duration
	pendingCfg  atomic.Pointer[AppConfig]

	mu       sync.Mutex
	snapshot uiSnapshot
}

// UIDeps are the UI loop's collaborators. Hub may be nil.
type UIDeps struct {
	Hub          uiBroadcaster
	LoadProfile  func(name string) (*Profile, error)
	StartProgram func(program string, args []string) error
	Session      string
}

func NewUILoop(host uiHost, deps UIDeps, logger *slog.Logger) *UILoop {
	return &UILoop{
		host:         host,
		hub:          deps.Hub,
		logger:       logger,
		loadProfile:  deps.LoadProfile,
		startProgram: deps.StartProgram,
		suggestions:  newSuggestionList(host.SubmitStateEvent),
		interval:     defaultUIPollingIntervalMS * time.Millisecond,
		snapshot:     uiSnapshot{Session: deps.Session},
	}
}

// SetAppConfig hands cfg to the loop; it is applied on the next tick.
func (u *UILoop) SetAppConfig(cfg *AppConfig) {
	u.pendingCfg.Store(cfg.Clone())
}

// SetProfileName records the loaded profile for new clients.
func (u *UILoop) SetProfileName(name string) {
	u.mu.Lock()
	u.snapshot.Profile = name
	u.mu.Unlock()
}

// Snapshot returns the payload for a newly connected client.
func (u *UILoop) Snapshot() uiSnapshot {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.snapshot
}

// Run drains the UI channel until ctx is canceled.
func (u *UILoop) Run(ctx context.Context) error {
	u.logger.Info("ui loop started")
	defer u.logger.Info("ui loop stopped")

	u.applyConfig()
	ticker := time.NewTicker(u.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if u.applyConfig() {
				ticker.Reset(u.interval)
			}
			u.tick()
		}
	}
}

// applyConfig takes a pending config and reports whether the interval changed.
func (u *UILoop) applyConfig() bool {
	cfg := u.pendingCfg.Swap(nil)
	if cfg == nil {
		return false
	}
	u.suggestions.SetAppConfig(cfg)
	ms := cfg.IntVal(cfgUIPollingInterval, defaultUIPollingIntervalMS)
	if ms <= 0 {
		return false
	}
	next := time.Duration(ms) * time.Millisecond
	changed := next != u.interval
	u.interval = next
	return changed
}

func (u *UILoop) tick() {
	for _, ev := range u.host.ReceiveUIEvents() {
		u.safely(ev)
	}
}

// safely handles ev, turning a panic into a broadcast error so the loop
// keeps running.
func (u *UILoop) safely(ev Event) {
	defer func() {
		if r := recover(); r != nil {
			u.logger.Error("ui panic recovered", "type", ev.EventType(), "panic", r)
			u.broadcast(newErrorEvent("error while handling "+ev.EventType().String(), fmt.Errorf("%v", r)))
		}
	}()
	u.handle(ev)
}

func (u *UILoop) handle(ev Event) {
	logUIEvent(u.logger, ev)

	switch ev := ev.(type) {
	case PredictionEvent:
		if u.suggestions.HandlePredictionEvent(ev) {
			status := u.suggestions.Status()
			u.mu.Lock()
			u.snapshot.Suggestions = status
			u.mu.Unlock()
		}

	case LoadProfileEvent:
		u.handleLoadProfile(ev.Name)

	case StartProgramEvent:
		if u.startProgram == nil {
			break
		}
		if err := u.startProgram(ev.Program, ev.Args); err != nil {
			u.logger.Error("start program failed", "program", ev.Program, "error", err)
			u.broadcast(newErrorEvent("could not start program "+ev.Program, err))
		}

	case KeyboardLayoutChangeEvent:
		u.mu.Lock()
		u.snapshot.Layout = ev.Layout
		u.mu.Unlock()
	}

	u.broadcast(ev)
}

func (u *UILoop) handleLoadProfile(name string) {
	if u.loadProfile == nil {
		return
	}
	p, err := u.loadProfile(name)
	if err != nil {
		u.logger.Error("load profile failed", "profile", name, "error", err)
		u.broadcast(newErrorEvent("could not load profile "+name, err))
		return
	}
	u.host.SetProfile(p)
	u.SetProfileName(p.Name)
	u.logger.Info("profile requested", "profile", p.Name)
}

func (u *UILoop) broadcast(ev Event) {
	if u.hub != nil {
		u.hub.BroadcastEvent(ev)
	}
}
