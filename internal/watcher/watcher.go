package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/pokerlens/pokerlens/internal/logging"
	"github.com/pokerlens/pokerlens/internal/types"
)

// debounceWindow coalesces the write bursts trackers produce while a hand
// history is still being flushed to disk.
const debounceWindow = 250 * time.Millisecond

// Publisher pushes typed messages to connected dashboard clients.
type Publisher interface {
	Publish(msgType string, data interface{})
}

// Enqueuer schedules a hand-history file for import.
type Enqueuer interface {
	Enqueue(path string) (string, error)
}

// Watcher monitors the hand-history directory tree, announces file activity
// to the dashboard and feeds changed files to the importer.
type Watcher struct {
	dir     string
	pattern string
	imports Enqueuer
	pub     Publisher
	log     *logging.Logger

	debounce time.Duration

	mu     sync.Mutex
	timers map[string]*time.Timer

	fs   *fsnotify.Watcher
	done chan struct{}
	wg   sync.WaitGroup
}

// New creates a watcher for dir. pattern is a doublestar glob matched against
// paths relative to dir, e.g. "**/*.jsonl".
func New(dir, pattern string, imports Enqueuer, pub Publisher, log *logging.Logger) (*Watcher, error) {
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid watch pattern %q", pattern)
	}
	return &Watcher{
		dir:      dir,
		pattern:  pattern,
		imports:  imports,
		pub:      pub,
		log:      log.Named("watcher"),
		debounce: debounceWindow,
		timers:   make(map[string]*time.Timer),
		done:     make(chan struct{}),
	}, nil
}

// Start begins watching. It returns once the directory tree is registered;
// event handling runs in the background until Stop or context cancellation.
func (w *Watcher) Start(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	w.fs = fsw

	if err := w.addTree(w.dir); err != nil {
		fsw.Close()
		return err
	}

	w.wg.Add(1)
	go w.loop(ctx)

	w.log.Info("watching hand histories",
		zap.String("dir", w.dir), zap.String("pattern", w.pattern))
	return nil
}

// Stop ends watching and waits for in-flight event handling.
func (w *Watcher) Stop() {
	close(w.done)
	if w.fs != nil {
		w.fs.Close()
	}
	w.wg.Wait()

	w.mu.Lock()
	for path, t := range w.timers {
		t.Stop()
		delete(w.timers, path)
	}
	w.mu.Unlock()
}

// addTree registers dir and every subdirectory; fsnotify watches are not
// recursive on their own.
func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if err := w.fs.Add(path); err != nil {
				return fmt.Errorf("failed to watch %s: %w", path, err)
			}
		}
		return nil
	})
}

func (w *Watcher) loop(ctx context.Context) {
	defer w.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			w.handle(ev)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.log.Warn("watch error", zap.Error(err))
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	switch {
	case ev.Has(fsnotify.Create):
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if err := w.addTree(ev.Name); err != nil {
				w.log.Warn("failed to watch new directory",
					zap.String("path", ev.Name), zap.Error(err))
			}
			return
		}
		w.fileChanged(ev.Name, "created")
	case ev.Has(fsnotify.Write):
		w.fileChanged(ev.Name, "modified")
	case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
		if !w.matches(ev.Name) {
			return
		}
		w.cancelPending(ev.Name)
		w.publish("removed", ev.Name)
	}
}

// fileChanged arms (or re-arms) the debounce timer for a matching file. The
// import fires only after the file has been quiet for the full window.
func (w *Watcher) fileChanged(path, event string) {
	if !w.matches(path) {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.timers[path]; ok {
		t.Reset(w.debounce)
		return
	}
	w.timers[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.timers, path)
		w.mu.Unlock()

		w.publish(event, path)

		taskID, err := w.imports.Enqueue(path)
		if err != nil {
			w.log.Warn("failed to queue import",
				zap.String("path", path), zap.Error(err))
			return
		}
		w.log.Debug("change imported",
			zap.String("path", path), zap.String("task_id", taskID))
	})
}

func (w *Watcher) cancelPending(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.timers[path]; ok {
		t.Stop()
		delete(w.timers, path)
	}
}

func (w *Watcher) matches(path string) bool {
	rel, err := filepath.Rel(w.dir, path)
	if err != nil {
		return false
	}
	ok, err := doublestar.Match(w.pattern, filepath.ToSlash(rel))
	return err == nil && ok
}

func (w *Watcher) publish(event, path string) {
	w.pub.Publish(types.MsgFileMonitoring, types.FileEvent{
		Event: event,
		Path:  path,
	})
}
