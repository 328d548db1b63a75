package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// fileWatcher calls back when a watched file is written or replaced. The
// containing directory is watched so editors that save by rename are seen.
// Bursts of events for one file within the debounce window produce a single
// callback.
type fileWatcher struct {
	watcher  *fsnotify.Watcher
	logger   *slog.Logger
	debounce time.Duration

	mu     sync.Mutex
	files  map[string]func()
	dirs   map[string]bool
	timers map[string]*time.Timer
}

func newFileWatcher(debounce time.Duration, logger *slog.Logger) (*fileWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}
	return &fileWatcher{
		watcher:  w,
		logger:   logger,
		debounce: debounce,
		files:    make(map[string]func()),
		dirs:     make(map[string]bool),
		timers:   make(map[string]*time.Timer),
	}, nil
}

// Watch registers onChange for path, replacing any earlier callback.
func (fw *fileWatcher) Watch(path string, onChange func()) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	dir := filepath.Dir(abs)

	fw.mu.Lock()
	defer fw.mu.Unlock()
	if !fw.dirs[dir] {
		if err := fw.watcher.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
		fw.dirs[dir] = true
	}
	fw.files[abs] = onChange
	fw.logger.Debug("watching file", "path", abs)
	return nil
}

// Unwatch drops the callback for path. The directory stays watched.
func (fw *fileWatcher) Unwatch(path string) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return
	}
	fw.mu.Lock()
	delete(fw.files, abs)
	if t := fw.timers[abs]; t != nil {
		t.Stop()
		delete(fw.timers, abs)
	}
	fw.mu.Unlock()
}

// Run processes file events until ctx is canceled.
func (fw *fileWatcher) Run(ctx context.Context) error {
	defer fw.stopTimers()
	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fw.watcher.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			fw.schedule(filepath.Clean(ev.Name))

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return nil
			}
			fw.logger.Warn("file watcher error", "error", err)
		}
	}
}

func (fw *fileWatcher) schedule(path string) {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	cb, ok := fw.files[path]
	if !ok {
		return
	}
	if t := fw.timers[path]; t != nil {
		t.Reset(fw.debounce)
		return
	}
	fw.timers[path] = time.AfterFunc(fw.debounce, func() {
		fw.mu.Lock()
		delete(fw.timers, path)
		fw.mu.Unlock()
		fw.logger.Info("file changed", "path", path)
		cb()
	})
}

func (fw *fileWatcher) stopTimers() {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	for p, t := range fw.timers {
		t.Stop()
		delete(fw.timers, p)
	}
}

func (fw *fileWatcher) Close() error {
	return fw.watcher.Close()
}
