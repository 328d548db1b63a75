package main

import "strings"

// suggestionList is the UI side's view of the current word suggestions. The
// prediction loop binds new lists; next, previous, insert and cancel requests
// from actions move the selection or type the selected word.
type suggestionList struct {
	provide    bool
	autoSpaces bool

	current  *PredictionEvent
	selected int

	submitState func(Event)
}

// suggestionsStatus is the JSON view of the list sent to UI clients.
type suggestionsStatus struct {
	Prefix      string   `json:"prefix,omitempty"`
	Suffix      string   `json:"suffix,omitempty"`
	Suggestions []string `json:"suggestions"`
	Selected    int      `json:"selected"`
}

func newSuggestionList(submitState func(Event)) *suggestionList {
	return &suggestionList{
		provide:     defaultEnableWordPrediction,
		autoSpaces:  true,
		selected:    -1,
		submitState: submitState,
	}
}

func (s *suggestionList) SetAppConfig(cfg *AppConfig) {
	s.provide = cfg.BoolVal(cfgPredictionEnabled, defaultEnableWordPrediction)
	s.autoSpaces = cfg.BoolVal(cfgPredictionAutoSpaces, true)
}

// HandlePredictionEvent applies a prediction event and reports whether the
// list or its selection changed.
func (s *suggestionList) HandlePredictionEvent(ev PredictionEvent) bool {
	switch ev.Kind {
	case PredictionSuggestionsList:
		s.bind(&ev)
		return true

	case PredictionNextSuggestion:
		if s.current == nil {
			s.reenable()
			return false
		}
		if s.selected < len(s.current.Suggestions)-1 {
			s.selected++
		} else {
			// Clear the selection for one turn of the cycle.
			s.selected = -1
		}
		return true

	case PredictionPreviousSuggestion:
		if s.current == nil {
			return false
		}
		if s.selected > 0 {
			s.selected--
		} else if n := len(s.current.Suggestions); n > 0 {
			s.selected = n - 1
		}
		return true

	case PredictionCancelSuggestions:
		s.bind(nil)
		return true

	case PredictionInsertSuggestion:
		if s.current == nil {
			s.reenable()
			return false
		}
		s.insert()
	}
	return false
}

func (s *suggestionList) reenable() {
	if s.provide {
		s.submitState(PredictionEvent{Kind: PredictionEnable})
	}
}

func (s *suggestionList) bind(ev *PredictionEvent) {
	s.current = ev
	s.selected = -1
	if ev != nil && len(ev.Suggestions) > 0 {
		s.selected = 0
	}
}

// insert types the selected suggestion into the current word, removing any
// prefix or suffix that doesn't match it.
func (s *suggestionList) insert() {
	if s.selected < 0 || s.selected >= len(s.current.Suggestions) {
		return
	}
	word := s.current.Suggestions[s.selected]
	prefix, suffix := s.current.Prefix, s.current.Suffix

	if prefix != "" {
		if strings.HasPrefix(word, prefix) {
			word = word[len(prefix):]
		} else {
			s.submitState(RepeatKeyEvent{Key: KeyBackspace, Count: len([]rune(prefix))})
		}
	}
	if suffix != "" {
		if strings.HasPrefix(word, suffix) {
			s.submitState(RepeatKeyEvent{Key: KeyRight, Count: len([]rune(suffix))})
			word = word[len(suffix):]
		} else {
			s.submitState(RepeatKeyEvent{Key: KeyDelete, Count: len([]rune(suffix))})
		}
	}

	if word == "" {
		return
	}
	if s.autoSpaces && suffix == "" {
		word += " "
	}
	s.submitState(TextEvent{Text: word})
}

// Status returns a copy of the list, or nil when there is none to show.
func (s *suggestionList) Status() *suggestionsStatus {
	if s.current == nil || len(s.current.Suggestions) == 0 {
		return nil
	}
	return &suggestionsStatus{
		Prefix:      s.current.Prefix,
		Suffix:      s.current.Suffix,
		Suggestions: append([]string(nil), s.current.Suggestions...),
		Selected:    s.selected,
	}
}
