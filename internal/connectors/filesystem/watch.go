package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/ferry-cli/internal/logger"
)

// DefaultDebounce is the quiet period a change burst must observe
// before a pulse is emitted.
const DefaultDebounce = 2 * time.Second

// Watcher watches a directory tree and coalesces change bursts into
// pulses. Each pulse carries the sorted set of paths that changed
// since the previous one; a consumer typically answers a pulse with a
// fresh walk-and-ingest run.
type Watcher struct {
	root     string
	interval time.Duration

	mu     sync.Mutex
	fsw    *fsnotify.Watcher
	closed bool
}

// NewWatcher creates a watcher for root. An interval of zero falls
// back to DefaultDebounce.
func NewWatcher(root string, interval time.Duration) *Watcher {
	if interval <= 0 {
		interval = DefaultDebounce
	}
	return &Watcher{root: root, interval: interval}
}

// Watch begins watching and returns the pulse channel. The channel
// closes when the context is cancelled or the watcher is closed.
func (w *Watcher) Watch(ctx context.Context) (<-chan []string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil, errors.New("watcher is closed")
	}
	if w.fsw != nil {
		return nil, errors.New("watcher is already running")
	}

	info, err := os.Stat(w.root)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("root path error: %s is not a watchable directory", w.root)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := addTree(fsw, w.root); err != nil {
		fsw.Close()
		return nil, err
	}
	w.fsw = fsw

	out := make(chan []string)
	go w.loop(ctx, fsw, out)
	logger.Info("Watching %s (debounce %s)", w.root, w.interval)
	return out, nil
}

// Close stops the watcher. It is idempotent and safe to call before
// Watch.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	if w.fsw != nil {
		return w.fsw.Close()
	}
	return nil
}

// loop drains raw events into a pending set and emits the set after
// the debounce interval passes without further changes.
func (w *Watcher) loop(ctx context.Context, fsw *fsnotify.Watcher, out chan<- []string) {
	defer close(out)

	pending := make(map[string]struct{})
	var timer *time.Timer
	var pulse <-chan time.Time

	rearm := func() {
		if timer == nil {
			timer = time.NewTimer(w.interval)
			pulse = timer.C
			return
		}
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(w.interval)
	}

	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-fsw.Events:
			if !ok {
				return
			}
			if hidden(ev.Name) || ev.Op == fsnotify.Chmod {
				continue
			}
			if ev.Op.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					// New directories join the watch but are not
					// content changes themselves.
					if err := fsw.Add(ev.Name); err != nil {
						logger.Warn("Cannot watch %s: %v", ev.Name, err)
					}
					continue
				}
			}
			logger.Debug("Change: %s %s", ev.Op, ev.Name)
			pending[ev.Name] = struct{}{}
			rearm()

		case <-pulse:
			paths := make([]string, 0, len(pending))
			for p := range pending {
				paths = append(paths, p)
			}
			sort.Strings(paths)
			select {
			case out <- paths:
			case <-ctx.Done():
				return
			}
			pending = make(map[string]struct{})
			timer, pulse = nil, nil

		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			logger.Warn("Watch error: %v", err)
		}
	}
}

// addTree registers root and every non-hidden subdirectory.
func addTree(fsw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") && path != root {
			return filepath.SkipDir
		}
		if err := fsw.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

// hidden reports whether the path's base name is a dotfile. Hidden
// directories never join the watch, so checking the base suffices.
func hidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}
