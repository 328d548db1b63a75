package main

import (
	"log/slog"
	"sync"
	"sync/atomic"
)

// ============================================================================
// Orchestrator
// ============================================================================
// Owns the three event channels and the engine and prediction loops. Config
// and profile snapshots are handed to the loops through pending slots under
// separate locks: the publisher stores a clone and sets a changed flag, and
// the loop takes the snapshot once on its next tick.
//
// The engine loop starts with the first profile. The prediction loop starts
// the first time a profile uses word prediction actions, and is not stopped
// by later profiles that don't.
// ============================================================================

// looper is a worker loop run on its own goroutine.
type looper interface {
	Run()
}

// stateReceiver applies snapshots on the engine goroutine.
type stateReceiver interface {
	SetAppConfig(cfg *AppConfig)
	SetProfile(p *Profile)
}

type Orchestrator struct {
	logger *slog.Logger

	stateEvents      *EventChannel
	uiEvents         *EventChannel
	predictionEvents *EventChannel

	stateMu             sync.Mutex
	stateConfig         *AppConfig
	stateConfigChanged  bool
	stateProfile        *Profile
	stateProfileChanged bool

	predictionMu            sync.Mutex
	predictionConfig        *AppConfig
	predictionConfigChanged bool

	continueEngine     atomic.Bool
	continuePrediction atomic.Bool

	startMu           sync.Mutex
	engineStarted     bool
	predictionStarted bool
	wg                sync.WaitGroup

	newEngine     func(o *Orchestrator) looper
	newPrediction func(o *Orchestrator) looper
}

func NewOrchestrator(logger *slog.Logger, newEngine, newPrediction func(o *Orchestrator) looper) *Orchestrator {
	return &Orchestrator{
		logger:           logger,
		stateEvents:      NewEventChannel(),
		uiEvents:         NewEventChannel(),
		predictionEvents: NewEventChannel(),
		newEngine:        newEngine,
		newPrediction:    newPrediction,
	}
}

// SetAppConfig publishes cfg to both loops.
func (o *Orchestrator) SetAppConfig(cfg *AppConfig) {
	o.stateMu.Lock()
	o.stateConfig = cfg.Clone()
	o.stateConfigChanged = true
	o.stateMu.Unlock()

	o.predictionMu.Lock()
	o.predictionConfig = cfg.Clone()
	o.predictionConfigChanged = true
	o.predictionMu.Unlock()
}

// SetProfile publishes p to the engine, starting the loops it needs.
func (o *Orchestrator) SetProfile(p *Profile) {
	if p.HasActionsOfType(ActionWordPrediction) {
		o.startPrediction()
	}

	o.stateMu.Lock()
	o.stateProfile = p.Clone()
	o.stateProfileChanged = true
	o.stateMu.Unlock()

	o.startEngine()
}

func (o *Orchestrator) startEngine() {
	o.startMu.Lock()
	defer o.startMu.Unlock()
	if o.engineStarted || o.newEngine == nil {
		return
	}
	o.engineStarted = true
	o.continueEngine.Store(true)
	o.run("engine", o.newEngine(o))
}

func (o *Orchestrator) startPrediction() {
	o.startMu.Lock()
	defer o.startMu.Unlock()
	if o.predictionStarted || o.newPrediction == nil {
		return
	}
	o.predictionStarted = true
	o.continuePrediction.Store(true)
	o.run("prediction", o.newPrediction(o))
}

func (o *Orchestrator) run(name string, l looper) {
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		l.Run()
		o.logger.Debug("loop exited", "loop", name)
	}()
}

// ReceiveStateManagerConfig applies pending snapshots to r, config first.
func (o *Orchestrator) ReceiveStateManagerConfig(r stateReceiver) {
	o.stateMu.Lock()
	var cfg *AppConfig
	var profile *Profile
	if o.stateConfigChanged {
		cfg = o.stateConfig
		o.stateConfigChanged = false
	}
	if o.stateProfileChanged {
		profile = o.stateProfile
		o.stateProfileChanged = false
	}
	o.stateMu.Unlock()

	if cfg != nil {
		r.SetAppConfig(cfg)
	}
	if profile != nil {
		r.SetProfile(profile)
	}
}

// ReceivePredictionConfig returns the pending config once, or nil.
func (o *Orchestrator) ReceivePredictionConfig() *AppConfig {
	o.predictionMu.Lock()
	defer o.predictionMu.Unlock()
	if !o.predictionConfigChanged {
		return nil
	}
	o.predictionConfigChanged = false
	return o.predictionConfig
}

func (o *Orchestrator) SubmitStateEvent(ev Event)      { o.stateEvents.Submit(ev) }
func (o *Orchestrator) SubmitUIEvent(ev Event)         { o.uiEvents.Submit(ev) }
func (o *Orchestrator) SubmitPredictionEvent(ev Event) { o.predictionEvents.Submit(ev) }

func (o *Orchestrator) ReceiveStateEvents() []Event      { return o.stateEvents.Drain() }
func (o *Orchestrator) ReceiveUIEvents() []Event         { return o.uiEvents.Drain() }
func (o *Orchestrator) ReceivePredictionEvents() []Event { return o.predictionEvents.Drain() }

func (o *Orchestrator) ContinueEngine() bool     { return o.continueEngine.Load() }
func (o *Orchestrator) ContinuePrediction() bool { return o.continuePrediction.Load() }

// IsPredictionRunning reports whether the prediction loop was started.
func (o *Orchestrator) IsPredictionRunning() bool {
	o.startMu.Lock()
	defer o.startMu.Unlock()
	return o.predictionStarted
}

// StopThreads asks both loops to exit after their current tick.
func (o *Orchestrator) StopThreads() {
	o.continueEngine.Store(false)
	o.continuePrediction.Store(false)
}

// Wait blocks until both loops have exited.
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}
