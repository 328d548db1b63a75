package main

import (
	"fmt"
	"log/slog"
	"os/exec"
)

// programLauncher starts programs requested by start_program actions. The
// child is not waited on by the caller; its exit is logged.
type programLauncher struct {
	logger *slog.Logger
	start  func(cmd *exec.Cmd) error
}

func newProgramLauncher(logger *slog.Logger) *programLauncher {
	return &programLauncher{
		logger: logger,
		start:  func(cmd *exec.Cmd) error { return cmd.Start() },
	}
}

func (l *programLauncher) Start(program string, args []string) error {
	cmd := exec.Command(ExpandPath(program), args...)
	if err := l.start(cmd); err != nil {
		return fmt.Errorf("start %s: %w", program, err)
	}
	l.logger.Info("program started", "program", program, "args", args)

	if cmd.Process == nil {
		return nil
	}
	go func() {
		err := cmd.Wait()
		l.logger.Debug("program exited", "program", program, "error", err)
	}()
	return nil
}
