package main

import (
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// ============================================================================
// Prediction Coordinator
// ============================================================================
// The prediction loop runs on its own goroutine. Every tick it picks up a
// pending config snapshot, drains the prediction channel and turns the
// events into prediction service requests. Consecutive identical key events
// coalesce into one request with a count. Suggestion responses go to the UI
// as SuggestionsList events.
// ============================================================================

// predictionHost is the orchestrator as seen by the prediction loop.
type predictionHost interface {
	ContinuePrediction() bool
	ReceivePredictionConfig() *AppConfig
	ReceivePredictionEvents() []Event
	SubmitUIEvent(ev Event)
}

type PredictionEngine struct {
	host   predictionHost
	logger *slog.Logger

	newFramework func() (predictionFramework, error)
	framework    predictionFramework

	cfg          *AppConfig
	enabled      bool
	pollInterval time.Duration
	failing      bool
}

func NewPredictionEngine(host predictionHost, newFramework func() (predictionFramework, error), logger *slog.Logger) *PredictionEngine {
	return &PredictionEngine{
		host:         host,
		logger:       logger,
		newFramework: newFramework,
		pollInterval: defaultPredictionPollingIntervalMS * time.Millisecond,
	}
}

// Run polls until the orchestrator stops the loop, then closes the framework.
func (p *PredictionEngine) Run() {
	p.logger.Info("prediction loop started")
	defer p.logger.Info("prediction loop stopped")
	defer p.closeFramework()

	p.host.ReceivePredictionEvents()
	for p.host.ContinuePrediction() {
		p.tick()
		time.Sleep(p.pollInterval)
	}
}

func (p *PredictionEngine) tick() {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("prediction tick panicked", "panic", r)
			p.host.SubmitUIEvent(newErrorEvent("word prediction failed", fmt.Errorf("%v", r)))
		}
	}()

	if cfg := p.host.ReceivePredictionConfig(); cfg != nil {
		p.SetAppConfig(cfg)
	}
	events := p.host.ReceivePredictionEvents()
	if len(events) == 0 || !p.enabled || p.framework == nil {
		return
	}
	p.processEvents(events)
}

// SetAppConfig applies the prediction settings. The framework is created
// the first time prediction is enabled; languages and learning are only
// reconfigured when they change.
func (p *PredictionEngine) SetAppConfig(cfg *AppConfig) {
	p.enabled = cfg.BoolVal(cfgPredictionEnabled, defaultEnableWordPrediction)
	if ms := cfg.IntVal(cfgPredictionPollInterval, defaultPredictionPollingIntervalMS); ms > 0 {
		p.pollInterval = time.Duration(ms) * time.Millisecond
	}
	if !p.enabled {
		return
	}

	if p.framework == nil {
		fw, err := p.newFramework()
		if err != nil {
			p.logger.Error("prediction framework unavailable", "error", err)
			p.host.SubmitUIEvent(newErrorEvent("could not configure word prediction", err))
			return
		}
		p.framework = fw
	}

	langs := cfg.StringVal(cfgPredictionLanguages, defaultWordPredictionInstalledLanguages)
	if p.cfg == nil || langs != p.cfg.StringVal(cfgPredictionLanguages, defaultWordPredictionInstalledLanguages) {
		p.sendInstallPackages()
		p.configureLanguages(langs)
	}
	learn := cfg.BoolVal(cfgPredictionLearnWords, defaultLearnNewWords)
	if p.cfg == nil || learn != p.cfg.BoolVal(cfgPredictionLearnWords, defaultLearnNewWords) {
		p.configureLearning(learn)
	}
	p.cfg = cfg
}

func (p *PredictionEngine) processEvents(events []Event) {
	for i := 0; i < len(events); i++ {
		switch ev := events[i].(type) {
		case TextEvent:
			p.request([]RequestCode{RequestInsertString, RequestGetSuggestions}, nil, []string{ev.Text})
		case KeyEvent:
			count := 1
			for i+1 < len(events) {
				next, ok := events[i+1].(KeyEvent)
				if !ok || next.Key != ev.Key {
					break
				}
				count++
				i++
			}
			p.processRepeatKey(ev.Key, count)
		case RepeatKeyEvent:
			p.processRepeatKey(ev.Key, ev.Count)
		case LanguagePackagesEvent:
			p.sendInstallPackages()
			p.configureLanguages(p.cfg.StringVal(cfgPredictionLanguages, defaultWordPredictionInstalledLanguages))
		}
	}
}

func (p *PredictionEngine) processRepeatKey(key KeyboardKey, count int) {
	switch key {
	case KeyNone:
		p.request([]RequestCode{RequestResetInput, RequestGetSuggestions}, nil, nil)
	case KeyLeft:
		p.request([]RequestCode{RequestMoveCursor, RequestGetSuggestions}, []int{count, 0}, nil)
	case KeyRight:
		p.request([]RequestCode{RequestMoveCursor, RequestGetSuggestions}, []int{0, count}, nil)
	case KeyBackspace:
		p.request([]RequestCode{RequestRemoveChars, RequestGetSuggestions}, []int{count, 0}, nil)
	case KeyDelete:
		p.request([]RequestCode{RequestRemoveChars, RequestGetSuggestions}, []int{0, count}, nil)
	}
}

func (p *PredictionEngine) sendInstallPackages() {
	p.request([]RequestCode{RequestInstallPackages}, nil, nil)
}

// configureLanguages activates the enabled languages' dictionaries.
func (p *PredictionEngine) configureLanguages(list string) {
	var active []string
	for _, l := range parseLanguages(list) {
		if l.Enabled {
			active = append(active, l.Code)
		}
	}
	p.request([]RequestCode{RequestSetActiveDictionaries}, nil, []string{strings.Join(active, ",")})
}

func (p *PredictionEngine) configureLearning(enable bool) {
	p.request([]RequestCode{RequestConfigureLearning}, []int{pick(enable, 1, 0)}, nil)
}

func (p *PredictionEngine) request(codes []RequestCode, args []int, data []string) {
	if p.framework == nil {
		return
	}
	code, resp, err := p.framework.ProcessRequest(codes, args, data)
	if err != nil {
		// Report once per run of failures.
		if !p.failing {
			p.logger.Warn("prediction request failed", "request", codes, "error", err)
			p.host.SubmitUIEvent(newErrorEvent("word prediction service unavailable", err))
		}
		p.failing = true
		return
	}
	p.failing = false
	p.handleResponse(code, resp)
}

func (p *PredictionEngine) handleResponse(code int, data []string) {
	if code != ResponseOK {
		p.host.SubmitUIEvent(ErrorMessageEvent{Message: predictionErrorMessage(code)})
		return
	}
	if len(data) < 2 {
		return
	}
	ev := PredictionEvent{Kind: PredictionSuggestionsList, Prefix: data[0], Suffix: data[1]}
	if len(data) > 2 {
		ev.Suggestions = append([]string(nil), data[2:]...)
	}
	p.host.SubmitUIEvent(ev)
}

func predictionErrorMessage(code int) string {
	switch code {
	case ResponseErrorInstallPackages:
		return "could not install word prediction languages"
	case ResponseErrorUninstallPackages:
		return "could not uninstall word prediction languages"
	case ResponseErrorSetActiveDictionaries:
		return "could not set the word prediction dictionaries"
	case ResponseErrorConfigureLearning:
		return "could not configure word prediction learning"
	}
	return fmt.Sprintf("prediction service error %d", code)
}

func (p *PredictionEngine) closeFramework() {
	if p.framework == nil {
		return
	}
	if err := p.framework.Close(); err != nil {
		p.logger.Warn("prediction framework close failed", "error", err)
	}
	p.framework = nil
}
