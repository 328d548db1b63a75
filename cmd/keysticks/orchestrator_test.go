package main

import (
	"sync/atomic"
	"testing"
	"time"
)

// spinLooper runs until its continue function reports false.
type spinLooper struct {
	cont  func() bool
	runs  *atomic.Int32
	exits *atomic.Int32
}

func (l *spinLooper) Run() {
	l.runs.Add(1)
	defer l.exits.Add(1)
	for l.cont() {
		time.Sleep(time.Millisecond)
	}
}

type recordingReceiver struct {
	configs  []*AppConfig
	profiles []*Profile
}

func (r *recordingReceiver) SetAppConfig(cfg *AppConfig) { r.configs = append(r.configs, cfg) }
func (r *recordingReceiver) SetProfile(p *Profile)       { r.profiles = append(r.profiles, p) }

type orchestratorFixture struct {
	orch                        *Orchestrator
	engineRuns, engineExits     atomic.Int32
	predictionRuns, predictExit atomic.Int32
}

func newOrchestratorFixture() *orchestratorFixture {
	f := &orchestratorFixture{}
	f.orch = NewOrchestrator(discardLogger(),
		func(o *Orchestrator) looper {
			return &spinLooper{cont: o.ContinueEngine, runs: &f.engineRuns, exits: &f.engineExits}
		},
		func(o *Orchestrator) looper {
			return &spinLooper{cont: o.ContinuePrediction, runs: &f.predictionRuns, exits: &f.predictExit}
		})
	return f
}

func predictionProfile() *Profile {
	p := squareGridProfile()
	p.Name = "typing"
	p.Sources[0].ActionSets[3].Lists[0].Actions = []*ActionDef{{
		Type:       ActionWordPrediction,
		Prediction: PredictionInsertSuggestion,
	}}
	return p
}

func TestOrchestrator_StartsLoopsLazily(t *testing.T) {
	f := newOrchestratorFixture()
	defer func() {
		f.orch.StopThreads()
		f.orch.Wait()
	}()

	if f.orch.ContinueEngine() || f.orch.ContinuePrediction() {
		t.Fatalf("no loop should run before a profile is set")
	}

	f.orch.SetProfile(squareGridProfile())
	waitUntil(t, time.Second, func() bool { return f.engineRuns.Load() == 1 }, "engine loop not started")
	if f.orch.IsPredictionRunning() {
		t.Fatalf("prediction loop started for a profile without prediction actions")
	}

	f.orch.SetProfile(predictionProfile())
	waitUntil(t, time.Second, func() bool { return f.predictionRuns.Load() == 1 }, "prediction loop not started")
	if !f.orch.IsPredictionRunning() {
		t.Fatalf("expected prediction loop to be running")
	}

	// Neither loop is started twice, and prediction keeps running for a
	// profile that does not need it.
	f.orch.SetProfile(predictionProfile())
	f.orch.SetProfile(squareGridProfile())
	time.Sleep(20 * time.Millisecond)
	if f.engineRuns.Load() != 1 || f.predictionRuns.Load() != 1 {
		t.Fatalf("loops restarted: engine=%d prediction=%d", f.engineRuns.Load(), f.predictionRuns.Load())
	}
	if !f.orch.ContinuePrediction() {
		t.Fatalf("prediction loop should not be stopped by a later profile")
	}
}

func TestOrchestrator_StopThreadsAndWait(t *testing.T) {
	f := newOrchestratorFixture()
	f.orch.SetProfile(predictionProfile())
	waitUntil(t, time.Second, func() bool {
		return f.engineRuns.Load() == 1 && f.predictionRuns.Load() == 1
	}, "loops not started")

	done := make(chan struct{})
	go func() {
		f.orch.StopThreads()
		f.orch.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("timeout waiting for loops to exit")
	}
	if f.engineExits.Load() != 1 || f.predictExit.Load() != 1 {
		t.Fatalf("expected both loops to exit")
	}
}

func TestOrchestrator_StateSnapshotsTakenOnce(t *testing.T) {
	o := NewOrchestrator(discardLogger(), nil, nil)

	cfg := NewAppConfig()
	cfg.Set(cfgLoggingLevel, "debug")
	o.SetAppConfig(cfg)
	o.SetProfile(squareGridProfile())

	// The published snapshots are copies.
	cfg.Set(cfgLoggingLevel, "none")

	r := &recordingReceiver{}
	o.ReceiveStateManagerConfig(r)
	if len(r.configs) != 1 || len(r.profiles) != 1 {
		t.Fatalf("expected one config and one profile, got %d and %d", len(r.configs), len(r.profiles))
	}
	if got := r.configs[0].StringVal(cfgLoggingLevel, ""); got != "debug" {
		t.Errorf("expected the config as published, got %q", got)
	}
	if r.profiles[0].Name != "grid" {
		t.Errorf("unexpected profile %q", r.profiles[0].Name)
	}

	o.ReceiveStateManagerConfig(r)
	if len(r.configs) != 1 || len(r.profiles) != 1 {
		t.Errorf("snapshots delivered twice")
	}

	if got := o.ReceivePredictionConfig(); got == nil || got.StringVal(cfgLoggingLevel, "") != "debug" {
		t.Errorf("expected the prediction config snapshot")
	}
	if o.ReceivePredictionConfig() != nil {
		t.Errorf("prediction config delivered twice")
	}
}

func TestOrchestrator_ChannelsAreIndependent(t *testing.T) {
	o := NewOrchestrator(discardLogger(), nil, nil)

	o.SubmitStateEvent(TextEvent{Text: "state"})
	o.SubmitUIEvent(TextEvent{Text: "ui"})
	o.SubmitPredictionEvent(TextEvent{Text: "prediction"})

	for name, drain := range map[string]func() []Event{
		"state":      o.ReceiveStateEvents,
		"ui":         o.ReceiveUIEvents,
		"prediction": o.ReceivePredictionEvents,
	} {
		evs := drain()
		if len(evs) != 1 || evs[0].(TextEvent).Text != name {
			t.Errorf("%s channel: unexpected events %+v", name, evs)
		}
	}
}
