// Package watcher turns filesystem writes into save events.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultSettle is how long a file must stay quiet before its save is reported.
const DefaultSettle = 200 * time.Millisecond

// DefaultIgnore lists editor scratch files that never count as saves.
var DefaultIgnore = []string{"*.swp", "*.swx", "*~", "4913", ".#*", "*.tmp"}

var skipDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	".idea":        true,
}

// Handler receives one save event.
type Handler func(ctx context.Context, path string)

type Options struct {
	Settle time.Duration
	Ignore []string
	Logger *slog.Logger
}

// Watcher watches directory trees and reports each settled file write once.
type Watcher struct {
	fs      *fsnotify.Watcher
	handler Handler
	settle  time.Duration
	ignore  []string
	logger  *slog.Logger

	mu     sync.Mutex
	timers map[string]*time.Timer
	ready  chan string
	done   chan struct{}
}

func New(handler Handler, opts Options) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	settle := opts.Settle
	if settle <= 0 {
		settle = DefaultSettle
	}
	ignore := opts.Ignore
	if ignore == nil {
		ignore = DefaultIgnore
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Watcher{
		fs:      fw,
		handler: handler,
		settle:  settle,
		ignore:  ignore,
		logger:  logger,
		timers:  make(map[string]*time.Timer),
		ready:   make(chan string, 64),
		done:    make(chan struct{}),
	}, nil
}

// Add watches root and every directory below it.
func (w *Watcher) Add(root string) error {
	abs, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", root, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return fmt.Errorf("failed to watch %s: %w", root, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("failed to watch %s: not a directory", root)
	}

	return filepath.WalkDir(abs, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == abs {
				return err
			}
			w.logger.Debug("skipping unreadable path", "path", path, "error", err)
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != abs && skipDirs[d.Name()] {
			return filepath.SkipDir
		}
		if err := w.fs.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		return nil
	})
}

// WatchList returns the watched directories.
func (w *Watcher) WatchList() []string {
	return w.fs.WatchList()
}

// Run dispatches save events until ctx is done. Each save runs in its own
// goroutine so a newer save can supersede an older one still in flight.
func (w *Watcher) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	defer func() {
		close(w.done)
		w.stopTimers()
		_ = w.fs.Close()
		wg.Wait()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ev)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			if errors.Is(err, fsnotify.ErrEventOverflow) {
				w.logger.Warn("file events dropped", "error", err)
				continue
			}
			w.logger.Error("file watcher error", "error", err)
		case path := <-w.ready:
			wg.Add(1)
			go func() {
				defer wg.Done()
				w.handler(ctx, path)
			}()
		}
	}
}

func (w *Watcher) handleEvent(ev fsnotify.Event) {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
		return
	}
	if w.ignored(ev.Name) {
		return
	}

	info, err := os.Stat(ev.Name)
	if err != nil {
		return
	}
	if info.IsDir() {
		if ev.Has(fsnotify.Create) && !skipDirs[filepath.Base(ev.Name)] {
			if err := w.Add(ev.Name); err != nil {
				w.logger.Warn("failed to watch new directory", "path", ev.Name, "error", err)
			}
		}
		return
	}
	if !info.Mode().IsRegular() {
		return
	}

	w.schedule(ev.Name)
}

// schedule restarts the settle timer for path.
func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.timers[path]; ok {
		t.Stop()
	}
	var t *time.Timer
	t = time.AfterFunc(w.settle, func() {
		w.mu.Lock()
		if w.timers[path] != t {
			w.mu.Unlock()
			return
		}
		delete(w.timers, path)
		w.mu.Unlock()
		w.logger.Debug("save detected", "path", path)
		select {
		case w.ready <- path:
		case <-w.done:
		}
	})
	w.timers[path] = t
}

func (w *Watcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, t := range w.timers {
		t.Stop()
		delete(w.timers, path)
	}
}

func (w *Watcher) ignored(path string) bool {
	for dir := filepath.Dir(path); dir != filepath.Dir(dir); dir = filepath.Dir(dir) {
		if filepath.Base(dir) == ".git" {
			return true
		}
	}
	base := filepath.Base(path)
	for _, pattern := range w.ignore {
		if ok, _ := filepath.Match(pattern, base); ok {
			return true
		}
	}
	return false
}
