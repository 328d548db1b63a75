package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/process"
)

const windowCommandTimeout = 2 * time.Second

// windowInfo is the foreground window.
type windowInfo struct {
	PID     int32
	Process string
	Title   string
}

// WindowMonitor reads and manages X11 windows through xdotool. Process names
// are looked up from the window's pid.
type WindowMonitor struct {
	logger      *slog.Logger
	run         func(ctx context.Context, name string, args ...string) ([]byte, error)
	processName func(ctx context.Context, pid int32) (string, error)
}

func NewWindowMonitor(logger *slog.Logger) *WindowMonitor {
	return &WindowMonitor{
		logger:      logger,
		run:         runCommand,
		processName: processNameByPID,
	}
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	out, err := exec.CommandContext(ctx, name, args...).Output()
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", name, strings.Join(args, " "), err)
	}
	return out, nil
}

func processNameByPID(ctx context.Context, pid int32) (string, error) {
	p, err := process.NewProcessWithContext(ctx, pid)
	if err != nil {
		return "", fmt.Errorf("process %d: %w", pid, err)
	}
	return p.NameWithContext(ctx)
}

// ActiveWindow returns the foreground window.
func (w *WindowMonitor) ActiveWindow(ctx context.Context) (windowInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, windowCommandTimeout)
	defer cancel()

	out, err := w.run(ctx, "xdotool", "getactivewindow", "getwindowpid", "getwindowname")
	if err != nil {
		return windowInfo{}, err
	}
	lines := strings.SplitN(strings.TrimRight(string(out), "\n"), "\n", 2)
	if len(lines) < 2 {
		return windowInfo{}, fmt.Errorf("xdotool: unexpected output %q", out)
	}
	pid, err := strconv.ParseInt(strings.TrimSpace(lines[0]), 10, 32)
	if err != nil {
		return windowInfo{}, fmt.Errorf("xdotool: bad pid %q: %w", lines[0], err)
	}

	info := windowInfo{PID: int32(pid), Title: lines[1]}
	if name, err := w.processName(ctx, info.PID); err == nil {
		info.Process = name
	} else {
		w.logger.Debug("window process lookup failed", "pid", pid, "error", err)
	}
	return info, nil
}

// Activate raises the first window whose title contains title, or whose
// class is program when no title is given.
func (w *WindowMonitor) Activate(program, title string) error {
	ctx, cancel := context.WithTimeout(context.Background(), windowCommandTimeout)
	defer cancel()

	args := []string{"search", "--limit", "1"}
	switch {
	case title != "":
		args = append(args, "--name", title)
	case program != "":
		args = append(args, "--class", program)
	default:
		return fmt.Errorf("activate window: no program or title")
	}
	_, err := w.run(ctx, "xdotool", append(args, "windowactivate")...)
	return err
}

func (w *WindowMonitor) Maximise() error {
	ctx, cancel := context.WithTimeout(context.Background(), windowCommandTimeout)
	defer cancel()
	_, err := w.run(ctx, "xdotool", "getactivewindow", "windowstate", "--add", "MAXIMIZED_VERT", "--add", "MAXIMIZED_HORZ")
	return err
}

func (w *WindowMonitor) Minimise() error {
	ctx, cancel := context.WithTimeout(context.Background(), windowCommandTimeout)
	defer cancel()
	_, err := w.run(ctx, "xdotool", "getactivewindow", "windowminimize")
	return err
}
