package watcher

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gobwas/glob"
	"golang.org/x/time/rate"

	"pycycles/internal/observability"
	"pycycles/internal/util"
)

// Watcher triggers re-analysis when Python sources change. Events are
// debounced into batches and the callback is rate limited, so editor save
// storms and branch switches cost one run, not hundreds.
type Watcher struct {
	fsWatcher   *fsnotify.Watcher
	debounce    time.Duration
	extension   string
	excludeDirs []glob.Glob
	limiter     *rate.Limiter
	onChange    func([]string)
	callbackMu  sync.Mutex

	pending   map[string]time.Time
	pendingMu sync.Mutex
	timer     *time.Timer
}

type Config struct {
	Debounce    time.Duration
	Extension   string
	ExcludeDirs []string
	// RateLimit caps callback invocations per second.
	RateLimit float64
}

func New(cfg Config, onChange func([]string)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	excludes, err := util.CompileGlobs(cfg.ExcludeDirs, "exclude dir")
	if err != nil {
		_ = fsw.Close()
		return nil, err
	}

	if cfg.Extension == "" {
		cfg.Extension = ".py"
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 1
	}

	return &Watcher{
		fsWatcher:   fsw,
		debounce:    cfg.Debounce,
		extension:   cfg.Extension,
		excludeDirs: excludes,
		limiter:     rate.NewLimiter(rate.Limit(cfg.RateLimit), 1),
		onChange:    onChange,
		pending:     make(map[string]time.Time),
	}, nil
}

// Watch registers every directory beneath the given roots and starts the
// event loop. The loop stops when the context is cancelled or the watcher
// is closed.
func (w *Watcher) Watch(ctx context.Context, roots []string) error {
	for _, root := range roots {
		if err := w.watchRecursive(root); err != nil {
			return err
		}
	}

	go w.run(ctx)
	return nil
}

func (w *Watcher) watchRecursive(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if w.excludedDir(path) {
				return filepath.SkipDir
			}
			return w.fsWatcher.Add(path)
		}
		return nil
	})
}

func (w *Watcher) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			observability.WatcherEventsTotal.Inc()

			if event.Op&fsnotify.Create == fsnotify.Create {
				info, err := os.Stat(event.Name)
				if err == nil && info.IsDir() {
					if !w.excludedDir(event.Name) {
						if err := w.watchRecursive(event.Name); err != nil {
							slog.Warn("failed to watch new directory", "path", event.Name, "error", err)
						} else {
							w.enqueueExistingFiles(event.Name)
						}
					}
					continue
				}
			}

			if !w.relevantFile(event.Name) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
				w.scheduleChange(event.Name)
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			slog.Error("watcher error", "error", err)
		}
	}
}

func (w *Watcher) scheduleChange(path string) {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()

	w.pending[path] = time.Now()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.flushChanges)
}

func (w *Watcher) flushChanges() {
	w.pendingMu.Lock()
	paths := make([]string, 0, len(w.pending))
	for path := range w.pending {
		paths = append(paths, path)
	}
	w.pending = make(map[string]time.Time)
	w.pendingMu.Unlock()

	if len(paths) == 0 {
		return
	}
	if !w.limiter.Allow() {
		// Over budget; fold the batch back in and let the next flush pick
		// it up after the debounce window.
		slog.Debug("re-analysis rate limited", "changes", len(paths))
		w.pendingMu.Lock()
		for _, path := range paths {
			w.pending[path] = time.Now()
		}
		if w.timer != nil {
			w.timer.Stop()
		}
		w.timer = time.AfterFunc(w.debounce, w.flushChanges)
		w.pendingMu.Unlock()
		return
	}

	w.callbackMu.Lock()
	defer w.callbackMu.Unlock()
	w.onChange(paths)
}

func (w *Watcher) excludedDir(path string) bool {
	base := filepath.Base(path)
	for _, g := range w.excludeDirs {
		if g.Match(base) {
			return true
		}
	}
	return false
}

// relevantFile keeps only sources that can change the import graph.
func (w *Watcher) relevantFile(path string) bool {
	return filepath.Ext(path) == w.extension
}

func (w *Watcher) enqueueExistingFiles(root string) {
	_ = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil || info == nil || info.IsDir() {
			return nil
		}
		if w.relevantFile(path) {
			w.scheduleChange(path)
		}
		return nil
	})
}

func (w *Watcher) Close() error {
	if w.timer != nil {
		w.timer.Stop()
	}
	return w.fsWatcher.Close()
}
