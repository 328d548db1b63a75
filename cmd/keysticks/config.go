package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration for the keysticks daemon. It is read
// from YAML, or from TOML when the file name ends in .toml.
//
// Keep defaults and validation centralized so the rest of the code can
// assume a well-formed config. The engine and prediction sections are handed
// to the loops as an AppConfig snapshot.
type Config struct {
	Devices    DevicesConfig    `yaml:"devices" toml:"devices"`
	Output     OutputConfig     `yaml:"output" toml:"output"`
	Profile    ProfileConfig    `yaml:"profile" toml:"profile"`
	Engine     EngineConfig     `yaml:"engine" toml:"engine"`
	Prediction PredictionConfig `yaml:"prediction" toml:"prediction"`
	IPC        IPCConfig        `yaml:"ipc" toml:"ipc"`
	UI         UIConfig         `yaml:"ui" toml:"ui"`
	Logging    LoggingConfig    `yaml:"logging" toml:"logging"`
	Watch      WatchConfig      `yaml:"watch" toml:"watch"`
}

type DevicesConfig struct {
	// Paths are evdev device paths or glob patterns.
	Paths []string `yaml:"paths" toml:"paths"`
}

type OutputConfig struct {
	UinputPath string `yaml:"uinput_path" toml:"uinput_path"`
	DeviceName string `yaml:"device_name" toml:"device_name"`
}

type ProfileConfig struct {
	// Name is a profile name looked up in Dir, or a path to a profile file.
	Name string `yaml:"name" toml:"name"`
	Dir  string `yaml:"dir" toml:"dir"`
}

type EngineConfig struct {
	LoggingLevel           string  `yaml:"logging_level" toml:"logging_level"`
	InputPollingIntervalMS int     `yaml:"input_polling_interval_ms" toml:"input_polling_interval_ms"`
	UIPollingIntervalMS    int     `yaml:"ui_polling_interval_ms" toml:"ui_polling_interval_ms"`
	UseScanCodes           bool    `yaml:"use_scan_codes" toml:"use_scan_codes"`
	KeyStrokeLengthMS      int     `yaml:"key_stroke_length_ms" toml:"key_stroke_length_ms"`
	DisallowShiftDelete    bool    `yaml:"disallow_shift_delete" toml:"disallow_shift_delete"`
	MouseClickLengthMS     int     `yaml:"mouse_click_length_ms" toml:"mouse_click_length_ms"`
	PointerSpeed           float64 `yaml:"mouse_pointer_speed" toml:"mouse_pointer_speed"`
	PointerAcceleration    float64 `yaml:"mouse_pointer_acceleration" toml:"mouse_pointer_acceleration"`
	StickDeadZone          float64 `yaml:"thumbstick_dead_zone_fraction" toml:"thumbstick_dead_zone_fraction"`
	TriggerDeadZone        float64 `yaml:"trigger_dead_zone_fraction" toml:"trigger_dead_zone_fraction"`
	KeyboardLayout         string  `yaml:"keyboard_layout" toml:"keyboard_layout"`
}

type PredictionConfig struct {
	Enabled           bool   `yaml:"enabled" toml:"enabled"`
	WsURL             string `yaml:"ws_url" toml:"ws_url"`
	TimeoutMS         int    `yaml:"timeout_ms" toml:"timeout_ms"`
	PollingIntervalMS int    `yaml:"polling_interval_ms" toml:"polling_interval_ms"`
	AutoInsertSpaces  bool   `yaml:"auto_insert_spaces" toml:"auto_insert_spaces"`
	LearnNewWords     bool   `yaml:"learn_new_words" toml:"learn_new_words"`

	// Languages is a comma separated list of code and enabled flag pairs,
	// e.g. "enggb,True,frfr,False".
	Languages string `yaml:"languages" toml:"languages"`
}

type IPCConfig struct {
	SocketPath string `yaml:"socket_path" toml:"socket_path"`
}

type UIConfig struct {
	// Listen is the websocket listen address; empty disables the stream.
	Listen  string `yaml:"listen" toml:"listen"`
	Path    string `yaml:"path" toml:"path"`
	SendBuf int    `yaml:"send_buf" toml:"send_buf"`
}

type LoggingConfig struct {
	Level string `yaml:"level" toml:"level"`

	// Format is "text" or "json".
	Format string `yaml:"format" toml:"format"`
}

type WatchConfig struct {
	// Enabled reloads the config and profile files when they change.
	Enabled    bool `yaml:"enabled" toml:"enabled"`
	DebounceMS int  `yaml:"debounce_ms" toml:"debounce_ms"`
}

// DefaultConfig returns a fully-populated Config with defaults.
// Keep this aligned with constants.go defaults.
func DefaultConfig() Config {
	return Config{
		Devices: DevicesConfig{
			Paths: []string{"/dev/input/by-id/*-event-joystick"},
		},
		Output: OutputConfig{
			UinputPath: "/dev/uinput",
			DeviceName: "keysticks virtual input",
		},
		Profile: ProfileConfig{
			Name: "default",
			Dir:  "~/.config/keysticks/profiles",
		},
		Engine: EngineConfig{
			LoggingLevel:           defaultMessageLoggingLevel.String(),
			InputPollingIntervalMS: defaultInputPollingIntervalMS,
			UIPollingIntervalMS:    defaultUIPollingIntervalMS,
			UseScanCodes:           defaultUseScanCodes,
			KeyStrokeLengthMS:      defaultKeyStrokeLengthMS,
			DisallowShiftDelete:    defaultDisallowShiftDelete,
			MouseClickLengthMS:     defaultMouseClickLengthMS,
			PointerSpeed:           defaultMousePointerSpeed,
			PointerAcceleration:    defaultMousePointerAcceleration,
			StickDeadZone:          defaultStickDeadZoneFraction,
			TriggerDeadZone:        defaultTriggerDeadZoneFraction,
			KeyboardLayout:         "gb",
		},
		Prediction: PredictionConfig{
			Enabled:           defaultEnableWordPrediction,
			WsURL:             "ws://127.0.0.1:8765",
			TimeoutMS:         defaultPredictionReadTimeoutMS,
			PollingIntervalMS: defaultPredictionPollingIntervalMS,
			AutoInsertSpaces:  true,
			LearnNewWords:     defaultLearnNewWords,
			Languages:         defaultWordPredictionInstalledLanguages,
		},
		IPC: IPCConfig{
			SocketPath: "/tmp/keysticks.sock",
		},
		UI: UIConfig{
			Listen:  "127.0.0.1:8787",
			Path:    "/ws",
			SendBuf: 64,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Watch: WatchConfig{
			Enabled:    false,
			DebounceMS: 250,
		},
	}
}

// LoadConfigFile reads and parses a config file on top of the defaults.
//
// Unknown fields are rejected in both formats. YAML files must hold a single
// document.
func LoadConfigFile(path string) (Config, error) {
	if path == "" {
		return Config{}, errors.New("config path is empty")
	}
	b, err := os.ReadFile(ExpandPath(path))
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return decodeConfigTOML(b)
	}
	return decodeConfigYAML(b)
}

func decodeConfigYAML(b []byte) (Config, error) {
	cfg := DefaultConfig()

	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)

	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config yaml: %w", err)
	}

	// Ensure there's no trailing garbage (only whitespace/comments are allowed after the document).
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("decode config yaml: unexpected trailing document")
	}

	return cfg, nil
}

func decodeConfigTOML(b []byte) (Config, error) {
	cfg := DefaultConfig()

	dec := toml.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()

	if err := dec.Decode(&cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return Config{}, fmt.Errorf("decode config toml: %s", strict.String())
		}
		return Config{}, fmt.Errorf("decode config toml: %w", err)
	}
	return cfg, nil
}

// FlagOverrides applies overrides from flags on top of a loaded config.
//
// Flags pass pointers; each override is only applied if the pointer is set.
// main.go decides which flags exist.
type FlagOverrides struct {
	Devices *string

	UinputPath *string

	ProfileName *string
	ProfileDir  *string

	EngineLoggingLevel *string
	PollingIntervalMS  *int
	KeyboardLayout     *string

	PredictionEnabled *bool
	PredictionWsURL   *string

	IPCSocketPath *string
	UIListen      *string

	LogLevel *string
	Watch    *bool
}

// Apply merges the overrides into cfg. If an override pointer is nil, it is ignored.
// If the pointer is non-nil, the value is applied (even if it is a "zero value").
func (o FlagOverrides) Apply(cfg *Config) {
	if cfg == nil {
		return
	}
	if o.Devices != nil {
		cfg.Devices.Paths = splitList(*o.Devices)
	}
	if o.UinputPath != nil {
		cfg.Output.UinputPath = *o.UinputPath
	}

	if o.ProfileName != nil {
		cfg.Profile.Name = *o.ProfileName
	}
	if o.ProfileDir != nil {
		cfg.Profile.Dir = *o.ProfileDir
	}

	if o.EngineLoggingLevel != nil {
		cfg.Engine.LoggingLevel = *o.EngineLoggingLevel
	}
	if o.PollingIntervalMS != nil {
		cfg.Engine.InputPollingIntervalMS = *o.PollingIntervalMS
	}
	if o.KeyboardLayout != nil {
		cfg.Engine.KeyboardLayout = *o.KeyboardLayout
	}

	if o.PredictionEnabled != nil {
		cfg.Prediction.Enabled = *o.PredictionEnabled
	}
	if o.PredictionWsURL != nil {
		cfg.Prediction.WsURL = *o.PredictionWsURL
	}

	if o.IPCSocketPath != nil {
		cfg.IPC.SocketPath = *o.IPCSocketPath
	}
	if o.UIListen != nil {
		cfg.UI.Listen = *o.UIListen
	}

	if o.LogLevel != nil {
		cfg.Logging.Level = *o.LogLevel
	}
	if o.Watch != nil {
		cfg.Watch.Enabled = *o.Watch
	}
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate checks config invariants and returns a user-friendly error.
// This is intended to be called after defaults + file + overrides are applied.
func (c *Config) Validate() error {
	// Devices
	if len(c.Devices.Paths) == 0 {
		return errors.New("devices.paths must not be empty")
	}
	for i, p := range c.Devices.Paths {
		if p == "" {
			return fmt.Errorf("devices.paths[%d] is empty", i)
		}
		if _, err := filepath.Match(p, ""); err != nil {
			return fmt.Errorf("devices.paths[%d]: invalid pattern %q", i, p)
		}
	}

	// Output
	if c.Output.UinputPath == "" {
		return errors.New("output.uinput_path must not be empty")
	}
	if c.Output.DeviceName == "" {
		return errors.New("output.device_name must not be empty")
	}

	// Profile
	if c.Profile.Name == "" {
		return errors.New("profile.name must not be empty")
	}

	// Engine
	if _, ok := parseEnum(loggingLevelNames, c.Engine.LoggingLevel); !ok {
		return fmt.Errorf("engine.logging_level must be one of none, errors, info, debug (got %q)", c.Engine.LoggingLevel)
	}
	if c.Engine.InputPollingIntervalMS < minInputPollingIntervalMS {
		return fmt.Errorf("engine.input_polling_interval_ms must be >= %d", minInputPollingIntervalMS)
	}
	if c.Engine.UIPollingIntervalMS <= 0 {
		return errors.New("engine.ui_polling_interval_ms must be > 0")
	}
	if c.Engine.KeyStrokeLengthMS < 0 {
		return errors.New("engine.key_stroke_length_ms must be >= 0")
	}
	if c.Engine.MouseClickLengthMS < 0 {
		return errors.New("engine.mouse_click_length_ms must be >= 0")
	}
	if c.Engine.PointerSpeed <= 0 {
		return errors.New("engine.mouse_pointer_speed must be > 0")
	}
	if c.Engine.PointerAcceleration < 0 {
		return errors.New("engine.mouse_pointer_acceleration must be >= 0")
	}
	if c.Engine.StickDeadZone < 0 || c.Engine.StickDeadZone >= 1 {
		return errors.New("engine.thumbstick_dead_zone_fraction must be in [0, 1)")
	}
	if c.Engine.TriggerDeadZone < 0 || c.Engine.TriggerDeadZone >= 1 {
		return errors.New("engine.trigger_dead_zone_fraction must be in [0, 1)")
	}
	if c.Engine.KeyboardLayout == "" {
		return errors.New("engine.keyboard_layout must not be empty")
	}

	// Prediction
	if c.Prediction.Enabled {
		u, err := url.Parse(c.Prediction.WsURL)
		if err != nil || (u.Scheme != "ws" && u.Scheme != "wss") {
			return fmt.Errorf("prediction.ws_url must be a ws:// or wss:// URL (got %q)", c.Prediction.WsURL)
		}
	}
	if c.Prediction.TimeoutMS <= 0 {
		return errors.New("prediction.timeout_ms must be > 0")
	}
	if c.Prediction.PollingIntervalMS <= 0 {
		return errors.New("prediction.polling_interval_ms must be > 0")
	}
	if strings.TrimSpace(c.Prediction.Languages) != "" && len(parseLanguages(c.Prediction.Languages)) == 0 {
		return fmt.Errorf("prediction.languages has no language codes (got %q)", c.Prediction.Languages)
	}

	// IPC
	if c.IPC.SocketPath == "" {
		return errors.New("ipc.socket_path must not be empty")
	}

	// UI
	if c.UI.Listen != "" && !strings.HasPrefix(c.UI.Path, "/") {
		return errors.New("ui.path must start with /")
	}
	if c.UI.SendBuf < 0 {
		return errors.New("ui.send_buf must be >= 0")
	}

	// Logging
	if _, err := parseLogLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	if f := strings.ToLower(c.Logging.Format); f != "" && f != "text" && f != "json" {
		return fmt.Errorf("logging.format: invalid format %q (want text or json)", c.Logging.Format)
	}

	// Watch
	if c.Watch.DebounceMS < 0 {
		return errors.New("watch.debounce_ms must be >= 0")
	}

	return nil
}

// AppConfig flattens the engine and prediction sections into the key/value
// snapshot the loops read.
func (c *Config) AppConfig() *AppConfig {
	a := NewAppConfig()
	a.Set(cfgLoggingLevel, c.Engine.LoggingLevel)
	a.Set(cfgInputPollingInterval, c.Engine.InputPollingIntervalMS)
	a.Set(cfgUIPollingInterval, c.Engine.UIPollingIntervalMS)
	a.Set(cfgUseScanCodes, c.Engine.UseScanCodes)
	a.Set(cfgKeyStrokeLength, c.Engine.KeyStrokeLengthMS)
	a.Set(cfgDisallowShiftDelete, c.Engine.DisallowShiftDelete)
	a.Set(cfgMouseClickLength, c.Engine.MouseClickLengthMS)
	a.Set(cfgPointerSpeed, c.Engine.PointerSpeed)
	a.Set(cfgPointerAcceleration, c.Engine.PointerAcceleration)
	a.Set(cfgStickDeadZone, c.Engine.StickDeadZone)
	a.Set(cfgTriggerDeadZone, c.Engine.TriggerDeadZone)
	a.Set(cfgKeyboardLayout, c.Engine.KeyboardLayout)

	a.Set(cfgPredictionEnabled, c.Prediction.Enabled)
	a.Set(cfgPredictionAutoSpaces, c.Prediction.AutoInsertSpaces)
	a.Set(cfgPredictionLearnWords, c.Prediction.LearnNewWords)
	a.Set(cfgPredictionLanguages, c.Prediction.Languages)
	a.Set(cfgPredictionPollInterval, c.Prediction.PollingIntervalMS)
	return a
}

// ExpandPath expands a leading "~" in a path using $HOME.
func ExpandPath(p string) string {
	if p == "" {
		return p
	}
	if p[0] != '~' {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	if p == "~" {
		return home
	}
	if len(p) >= 2 && (p[1] == '/' || p[1] == '\\') {
		return filepath.Join(home, p[2:])
	}
	return p
}
