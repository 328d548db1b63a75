package main

import (
	"log/slog"
	"path/filepath"
	"slices"
	"strings"
)

// ============================================================================
// Input Manager
// ============================================================================
// The InputManager owns the physical devices. It discovers them from the
// configured paths and glob patterns, binds them to the profile's sources,
// and reads their events once per engine tick. A device that errors or hangs
// up is reported as disconnected; the engine then rescans until the device
// set changes and rebinds.
// ============================================================================

// deviceReader reads pending events into the bound devices without blocking.
type deviceReader interface {
	Add(dev *inputDevice) error
	Remove(dev *inputDevice)
	Poll() error
	Close() error
}

// inputDevice is one opened evdev device.
type inputDevice struct {
	Path string
	Name string

	fd    int
	close func() error
	*deviceState
}

type InputManager struct {
	logger   *slog.Logger
	patterns []string

	open      func(path string) (*inputDevice, error)
	newReader func() (deviceReader, error)
	glob      func(pattern string) ([]string, error)

	reader  deviceReader
	devices map[string]*inputDevice
	sources []*Source
}

func NewInputManager(patterns []string, logger *slog.Logger) *InputManager {
	return &InputManager{
		logger:    logger,
		patterns:  patterns,
		open:      openInputDevice,
		newReader: newDeviceReader,
		glob:      filepath.Glob,
		devices:   make(map[string]*inputDevice),
	}
}

// SetProfile sets the sources devices are bound to.
func (m *InputManager) SetProfile(sources []*Source) {
	m.sources = sources
}

// DevicePaths returns the connected devices' paths, sorted.
func (m *InputManager) DevicePaths() []string {
	paths := make([]string, 0, len(m.devices))
	for p := range m.devices {
		paths = append(paths, p)
	}
	slices.Sort(paths)
	return paths
}

// discover expands the configured patterns into device paths.
func (m *InputManager) discover() []string {
	var paths []string
	for _, p := range m.patterns {
		if !strings.ContainsAny(p, "*?[") {
			paths = append(paths, p)
			continue
		}
		matches, err := m.glob(p)
		if err != nil {
			m.logger.Warn("bad device pattern", "pattern", p, "error", err)
			continue
		}
		paths = append(paths, matches...)
	}
	slices.Sort(paths)
	return slices.Compact(paths)
}

// RefreshConnectedDeviceList drops disconnected devices and opens newly
// present ones. With addAll every device is closed and reopened. It reports
// whether the device set changed.
func (m *InputManager) RefreshConnectedDeviceList(addAll bool) bool {
	if m.reader == nil {
		r, err := m.newReader()
		if err != nil {
			m.logger.Error("input reader unavailable", "error", err)
			return false
		}
		m.reader = r
	}

	changed := false
	for path, dev := range m.devices {
		if addAll || !dev.connected {
			m.closeDevice(dev)
			delete(m.devices, path)
			changed = true
		}
	}

	for _, path := range m.discover() {
		if _, ok := m.devices[path]; ok {
			continue
		}
		dev, err := m.open(path)
		if err != nil {
			m.logger.Debug("device not opened", "path", path, "error", err)
			continue
		}
		if err := m.reader.Add(dev); err != nil {
			m.logger.Warn("device not added", "path", path, "error", err)
			if dev.close != nil {
				_ = dev.close()
			}
			continue
		}
		m.devices[path] = dev
		m.logger.Info("input device connected", "path", path, "name", dev.Name)
		changed = true
	}
	return changed
}

func (m *InputManager) closeDevice(dev *inputDevice) {
	if m.reader != nil {
		m.reader.Remove(dev)
	}
	if dev.close != nil {
		if err := dev.close(); err != nil {
			m.logger.Debug("device close failed", "path", dev.Path, "error", err)
		}
	}
	m.logger.Info("input device removed", "path", dev.Path)
}

// BindProfile assigns devices to sources. A source that names devices gets
// every device whose path matches one of the names as a glob, or whose
// name contains it. Sources that name none take the remaining devices in
// path order, one each. It reports whether any source got a device.
func (m *InputManager) BindProfile() bool {
	claimed := make(map[string]bool)
	bound := false
	paths := m.DevicePaths()

	var unnamed []*Source
	for _, src := range m.sources {
		if len(src.Def().Devices) == 0 {
			unnamed = append(unnamed, src)
			continue
		}
		var inputs []physicalInput
		for _, path := range paths {
			if deviceMatches(m.devices[path], src.Def().Devices) {
				inputs = append(inputs, m.devices[path])
				claimed[path] = true
			}
		}
		src.SetInputs(inputs)
		bound = bound || len(inputs) > 0
	}

	next := 0
	for _, src := range unnamed {
		for next < len(paths) && claimed[paths[next]] {
			next++
		}
		if next == len(paths) {
			src.SetInputs(nil)
			continue
		}
		src.SetInputs([]physicalInput{m.devices[paths[next]]})
		claimed[paths[next]] = true
		bound = true
	}
	return bound
}

func deviceMatches(dev *inputDevice, names []string) bool {
	for _, n := range names {
		if ok, _ := filepath.Match(n, dev.Path); ok {
			return true
		}
		if dev.Name != "" && strings.Contains(strings.ToLower(dev.Name), strings.ToLower(n)) {
			return true
		}
	}
	return false
}

// UpdateState reads every device's pending events. It reports false when
// there are no devices or any device has disconnected.
func (m *InputManager) UpdateState() bool {
	if m.reader == nil || len(m.devices) == 0 {
		return false
	}
	if err := m.reader.Poll(); err != nil {
		m.logger.Warn("input poll failed", "error", err)
		return false
	}
	for _, dev := range m.devices {
		if !dev.connected {
			return false
		}
	}
	return true
}

func (m *InputManager) Close() error {
	for path, dev := range m.devices {
		m.closeDevice(dev)
		delete(m.devices, path)
	}
	if m.reader == nil {
		return nil
	}
	err := m.reader.Close()
	m.reader = nil
	return err
}
