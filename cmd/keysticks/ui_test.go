package main

import (
	"errors"
	"slices"
	"strings"
	"testing"
	"time"
)

// ----------------------------------------------------------------------------
// Suggestion list
// ----------------------------------------------------------------------------

func newTestSuggestions() (*suggestionList, *[]Event) {
	var sent []Event
	s := newSuggestionList(func(ev Event) { sent = append(sent, ev) })
	return s, &sent
}

func suggestions(prefix, suffix string, words ...string) PredictionEvent {
	return PredictionEvent{Kind: PredictionSuggestionsList, Prefix: prefix, Suffix: suffix, Suggestions: words}
}

func TestSuggestionList_Selection(t *testing.T) {
	s, _ := newTestSuggestions()

	if st := s.Status(); st != nil {
		t.Fatalf("expected no status before a list, got %+v", st)
	}

	s.HandlePredictionEvent(suggestions("he", "", "hello", "help", "hen"))
	steps := []struct {
		kind PredictionEventType
		want int
	}{
		{PredictionNextSuggestion, 1},
		{PredictionNextSuggestion, 2},
		{PredictionNextSuggestion, -1},
		{PredictionNextSuggestion, 0},
		{PredictionPreviousSuggestion, 2},
		{PredictionPreviousSuggestion, 1},
	}
	if s.Status().Selected != 0 {
		t.Fatalf("expected the first suggestion selected")
	}
	for i, st := range steps {
		if !s.HandlePredictionEvent(PredictionEvent{Kind: st.kind}) {
			t.Errorf("step %d: expected a change", i)
		}
		if got := s.Status().Selected; got != st.want {
			t.Errorf("step %d (%s): expected selection %d, got %d", i, st.kind, st.want, got)
		}
	}

	s.HandlePredictionEvent(PredictionEvent{Kind: PredictionCancelSuggestions})
	if s.Status() != nil {
		t.Errorf("expected cancel to clear the list")
	}
}

func TestSuggestionList_Insert(t *testing.T) {
	tests := []struct {
		name       string
		list       PredictionEvent
		autoSpaces bool
		want       []Event
	}{
		{
			name:       "completes prefix",
			list:       suggestions("he", "", "hello"),
			autoSpaces: true,
			want:       []Event{TextEvent{Text: "llo "}},
		},
		{
			name: "replaces mismatched prefix",
			list: suggestions("Teh", "", "the"),
			want: []Event{RepeatKeyEvent{Key: KeyBackspace, Count: 3}, TextEvent{Text: "the"}},
		},
		{
			name:       "skips matching suffix",
			list:       suggestions("", "lo", "lot"),
			autoSpaces: true,
			want:       []Event{RepeatKeyEvent{Key: KeyRight, Count: 2}, TextEvent{Text: "t"}},
		},
		{
			name: "deletes mismatched suffix",
			list: suggestions("ca", "rz", "cart"),
			want: []Event{RepeatKeyEvent{Key: KeyDelete, Count: 2}, TextEvent{Text: "rt"}},
		},
		{
			name: "nothing left to type",
			list: suggestions("word", "", "word"),
			want: nil,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s, sent := newTestSuggestions()
			cfg := NewAppConfig()
			cfg.Set(cfgPredictionAutoSpaces, tc.autoSpaces)
			s.SetAppConfig(cfg)

			s.HandlePredictionEvent(tc.list)
			s.HandlePredictionEvent(PredictionEvent{Kind: PredictionInsertSuggestion})

			if !slices.Equal(*sent, tc.want) {
				t.Errorf("expected %+v, got %+v", tc.want, *sent)
			}
		})
	}
}

func TestSuggestionList_NoListReenables(t *testing.T) {
	s, sent := newTestSuggestions()

	if s.HandlePredictionEvent(PredictionEvent{Kind: PredictionInsertSuggestion}) {
		t.Errorf("insert without a list should report no change")
	}
	s.HandlePredictionEvent(PredictionEvent{Kind: PredictionNextSuggestion})
	if len(*sent) != 2 {
		t.Fatalf("expected two enable requests, got %+v", *sent)
	}
	for i, ev := range *sent {
		if pe, ok := ev.(PredictionEvent); !ok || pe.Kind != PredictionEnable {
			t.Errorf("event %d: expected enable, got %#v", i, ev)
		}
	}

	// Nothing is requested while prediction is switched off.
	*sent = nil
	cfg := NewAppConfig()
	cfg.Set(cfgPredictionEnabled, false)
	s.SetAppConfig(cfg)
	s.HandlePredictionEvent(PredictionEvent{Kind: PredictionInsertSuggestion})
	if len(*sent) != 0 {
		t.Errorf("expected nothing sent while disabled, got %+v", *sent)
	}
}

// ----------------------------------------------------------------------------
// UI loop
// ----------------------------------------------------------------------------

type fakeUIHost struct {
	ui       []Event
	state    []Event
	profiles []*Profile
}

func (h *fakeUIHost) ReceiveUIEvents() []Event {
	evs := h.ui
	h.ui = nil
	return evs
}

func (h *fakeUIHost) SubmitStateEvent(ev Event) { h.state = append(h.state, ev) }
func (h *fakeUIHost) SetProfile(p *Profile)     { h.profiles = append(h.profiles, p) }

type fakeBroadcaster struct {
	events []Event
}

func (b *fakeBroadcaster) BroadcastEvent(ev Event) { b.events = append(b.events, ev) }

func TestUILoop_LoadProfile(t *testing.T) {
	host := &fakeUIHost{}
	hub := &fakeBroadcaster{}
	var requested []string
	ui := NewUILoop(host, UIDeps{
		Hub: hub,
		LoadProfile: func(name string) (*Profile, error) {
			requested = append(requested, name)
			if name == "missing" {
				return nil, errors.New("no such file")
			}
			return &Profile{Name: name}, nil
		},
		Session: "s1",
	}, discardLogger())

	host.ui = []Event{LoadProfileEvent{Name: "typing"}, LoadProfileEvent{Name: "missing"}}
	ui.tick()

	if !slices.Equal(requested, []string{"typing", "missing"}) {
		t.Fatalf("unexpected load requests %v", requested)
	}
	if len(host.profiles) != 1 || host.profiles[0].Name != "typing" {
		t.Fatalf("expected the typing profile set, got %+v", host.profiles)
	}
	if snap := ui.Snapshot(); snap.Profile != "typing" || snap.Session != "s1" {
		t.Errorf("unexpected snapshot %+v", snap)
	}

	var errs int
	for _, ev := range hub.events {
		if _, ok := ev.(ErrorMessageEvent); ok {
			errs++
		}
	}
	if errs != 1 {
		t.Errorf("expected one error broadcast for the missing profile, got %d", errs)
	}
	if len(hub.events) != 3 {
		t.Errorf("expected both requests and the error broadcast, got %+v", hub.events)
	}
}

func TestUILoop_HandlerPanicIsReported(t *testing.T) {
	host := &fakeUIHost{}
	hub := &fakeBroadcaster{}
	ui := NewUILoop(host, UIDeps{
		Hub: hub,
		LoadProfile: func(name string) (*Profile, error) {
			if name == "broken" {
				panic("nil source")
			}
			return &Profile{Name: name}, nil
		},
	}, discardLogger())

	host.ui = []Event{LoadProfileEvent{Name: "broken"}, LoadProfileEvent{Name: "typing"}}
	ui.tick()

	var errs []ErrorMessageEvent
	for _, ev := range hub.events {
		if em, ok := ev.(ErrorMessageEvent); ok {
			errs = append(errs, em)
		}
	}
	if len(errs) != 1 || !strings.Contains(errs[0].Details, "nil source") {
		t.Fatalf("expected one error broadcast carrying the panic, got %+v", errs)
	}
	if len(host.profiles) != 1 || host.profiles[0].Name != "typing" {
		t.Errorf("expected the next event handled after the panic, got %+v", host.profiles)
	}
}

func TestUILoop_SuggestionsAndLayoutInSnapshot(t *testing.T) {
	host := &fakeUIHost{}
	ui := NewUILoop(host, UIDeps{}, discardLogger())

	host.ui = []Event{
		suggestions("wo", "", "word", "world"),
		PredictionEvent{Kind: PredictionNextSuggestion},
		KeyboardLayoutChangeEvent{Layout: "us", ID: 42},
	}
	ui.tick()

	snap := ui.Snapshot()
	if snap.Layout != "us" {
		t.Errorf("expected layout us, got %q", snap.Layout)
	}
	if snap.Suggestions == nil || snap.Suggestions.Selected != 1 || !slices.Equal(snap.Suggestions.Suggestions, []string{"word", "world"}) {
		t.Fatalf("unexpected suggestions %+v", snap.Suggestions)
	}

	host.ui = []Event{PredictionEvent{Kind: PredictionInsertSuggestion}}
	ui.tick()
	if len(host.state) != 1 || host.state[0] != (TextEvent{Text: "rld "}) {
		t.Errorf("expected the selected word typed, got %+v", host.state)
	}
}

func TestUILoop_StartProgram(t *testing.T) {
	host := &fakeUIHost{}
	hub := &fakeBroadcaster{}
	var started []string
	ui := NewUILoop(host, UIDeps{
		Hub: hub,
		StartProgram: func(program string, args []string) error {
			started = append(started, program)
			if program == "broken" {
				return errors.New("not found")
			}
			return nil
		},
	}, discardLogger())

	host.ui = []Event{
		StartProgramEvent{Program: "firefox", Args: []string{"--new-window"}},
		StartProgramEvent{Program: "broken"},
	}
	ui.tick()

	if !slices.Equal(started, []string{"firefox", "broken"}) {
		t.Fatalf("unexpected launches %v", started)
	}
	if _, ok := hub.events[1].(ErrorMessageEvent); !ok {
		t.Errorf("expected the failed launch reported before its event, got %+v", hub.events)
	}
}

func TestUILoop_ApplyConfig(t *testing.T) {
	ui := NewUILoop(&fakeUIHost{}, UIDeps{}, discardLogger())

	if ui.applyConfig() {
		t.Fatalf("no pending config should report no change")
	}

	cfg := NewAppConfig()
	cfg.Set(cfgUIPollingInterval, 20)
	cfg.Set(cfgPredictionAutoSpaces, false)
	ui.SetAppConfig(cfg)
	if !ui.applyConfig() {
		t.Fatalf("expected the interval change to be reported")
	}
	if ui.interval != 20*time.Millisecond {
		t.Errorf("expected 20ms, got %v", ui.interval)
	}
	if ui.suggestions.autoSpaces {
		t.Errorf("expected auto spaces switched off")
	}

	ui.SetAppConfig(cfg)
	if ui.applyConfig() {
		t.Errorf("same interval should not be reported as a change")
	}
}
