package main

import (
	"maps"
	"strconv"
	"strings"
)

// Engine and prediction setting keys.
const (
	cfgLoggingLevel           = "logging_level"
	cfgInputPollingInterval   = "input_polling_interval_ms"
	cfgUIPollingInterval      = "ui_polling_interval_ms"
	cfgUseScanCodes           = "use_scan_codes"
	cfgKeyStrokeLength        = "key_stroke_length_ms"
	cfgDisallowShiftDelete    = "disallow_shift_delete"
	cfgMouseClickLength       = "mouse_click_length_ms"
	cfgPointerSpeed           = "mouse_pointer_speed"
	cfgPointerAcceleration    = "mouse_pointer_acceleration"
	cfgStickDeadZone          = "thumbstick_dead_zone_fraction"
	cfgTriggerDeadZone        = "trigger_dead_zone_fraction"
	cfgKeyboardLayout         = "keyboard_layout"
	cfgPredictionEnabled      = "word_prediction_enabled"
	cfgPredictionAutoSpaces   = "word_prediction_auto_insert_spaces"
	cfgPredictionLearnWords   = "word_prediction_learn_new_words"
	cfgPredictionLanguages    = "word_prediction_installed_languages"
	cfgPredictionPollInterval = "word_prediction_polling_interval_ms"
)

// AppConfig is a flat key/value view of the engine settings. Values are
// stored as strings and parsed on read; a missing or malformed value reads
// as the caller's default.
type AppConfig struct {
	values map[string]string
}

func NewAppConfig() *AppConfig {
	return &AppConfig{values: make(map[string]string)}
}

func (c *AppConfig) Clone() *AppConfig {
	if c == nil {
		return NewAppConfig()
	}
	return &AppConfig{values: maps.Clone(c.values)}
}

func (c *AppConfig) Set(key string, value any) {
	var s string
	switch v := value.(type) {
	case string:
		s = v
	case bool:
		s = strconv.FormatBool(v)
	case int:
		s = strconv.Itoa(v)
	case float64:
		s = strconv.FormatFloat(v, 'g', -1, 64)
	default:
		return
	}
	c.values[key] = s
}

func (c *AppConfig) StringVal(key, def string) string {
	if c == nil {
		return def
	}
	if v, ok := c.values[key]; ok {
		return v
	}
	return def
}

func (c *AppConfig) IntVal(key string, def int) int {
	if v, err := strconv.Atoi(c.StringVal(key, "")); err == nil {
		return v
	}
	return def
}

func (c *AppConfig) BoolVal(key string, def bool) bool {
	if v, err := strconv.ParseBool(c.StringVal(key, "")); err == nil {
		return v
	}
	return def
}

func (c *AppConfig) FloatVal(key string, def float64) float64 {
	if v, err := strconv.ParseFloat(c.StringVal(key, ""), 64); err == nil {
		return v
	}
	return def
}

// languageSetting is one entry of the installed languages list.
type languageSetting struct {
	Code    string
	Enabled bool
}

// parseLanguages parses "enggb,True,frfr,False" pairs. A trailing code
// without a flag is enabled.
func parseLanguages(s string) []languageSetting {
	var out []languageSetting
	parts := strings.Split(s, ",")
	for i := 0; i < len(parts); i += 2 {
		code := strings.TrimSpace(parts[i])
		if code == "" {
			continue
		}
		enabled := true
		if i+1 < len(parts) {
			enabled, _ = strconv.ParseBool(strings.TrimSpace(parts[i+1]))
		}
		out = append(out, languageSetting{Code: code, Enabled: enabled})
	}
	return out
}

func formatLanguages(langs []languageSetting) string {
	parts := make([]string, 0, 2*len(langs))
	for _, l := range langs {
		parts = append(parts, l.Code, pick(l.Enabled, "True", "False"))
	}
	return strings.Join(parts, ",")
}
