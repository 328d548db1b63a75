package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

var logLevels = map[string]slog.Level{
	"error":   slog.LevelError,
	"warn":    slog.LevelWarn,
	"warning": slog.LevelWarn,
	"info":    slog.LevelInfo,
	"debug":   slog.LevelDebug,
}

func parseLogLevel(s string) (slog.Level, error) {
	if lvl, ok := logLevels[strings.ToLower(strings.TrimSpace(s))]; ok {
		return lvl, nil
	}
	return slog.LevelInfo, fmt.Errorf("invalid log level %q (want error, warn, info or debug)", s)
}

// newLogger writes to w in format ("text" or "json"). The level is read from
// lv on every record so a config reload takes effect at once.
func newLogger(w io.Writer, format string, lv *slog.LevelVar) (*slog.Logger, error) {
	opts := &slog.HandlerOptions{Level: lv}
	switch strings.ToLower(format) {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("invalid log format %q (want text or json)", format)
	}
}

// logUIEvent mirrors a drained UI event into the daemon log.
func logUIEvent(logger *slog.Logger, ev Event) {
	switch ev := ev.(type) {
	case ErrorMessageEvent:
		logger.Error(ev.Message, "details", ev.Details)
	case LogMessageEvent:
		logger.Info(ev.Message, "details", ev.Details)
	case KeyboardLayoutChangeEvent:
		logger.Info("keyboard layout", "layout", ev.Layout)
	case StateChangeEvent:
		logger.Debug("state changed", "player", ev.Player, "state", ev.State)
	default:
		logger.Debug("ui event", "type", ev.EventType())
	}
}
