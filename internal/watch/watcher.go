// Package watch recompiles shaders when their sources or varying
// definitions change on disk.
package watch

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/sync/errgroup"

	"shaderbuild/internal/logging"
	"shaderbuild/internal/shader"
)

// DefaultDebounce is how long a path must stay quiet before it is rebuilt.
const DefaultDebounce = 300 * time.Millisecond

// Options configures a Watcher.
type Options struct {
	Debounce time.Duration

	// OnBuild is called on the build goroutine after every batch.
	OnBuild func(results []shader.Result)
}

// Stats tracks watcher activity.
type Stats struct {
	Events        int
	Batches       int
	Compiled      int
	Failed        int
	Errors        int
	LastEventPath string
	LastEventTime time.Time
}

// Watcher watches the shader root recursively. Builds run one batch at a
// time on a single goroutine.
type Watcher struct {
	mu          sync.Mutex
	fsw         *fsnotify.Watcher
	orch        *shader.Orchestrator
	opts        Options
	debounceMap map[string]time.Time
	stats       Stats
	ready       chan struct{}
	readyOnce   sync.Once
}

// New creates a watcher for the orchestrator's shader root.
func New(orch *shader.Orchestrator, opts Options) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	return &Watcher{
		fsw:         fsw,
		orch:        orch,
		opts:        opts,
		debounceMap: make(map[string]time.Time),
		ready:       make(chan struct{}),
	}, nil
}

// Ready is closed once the initial directory tree is being watched, or when
// Run returns without getting that far.
func (w *Watcher) Ready() <-chan struct{} {
	return w.ready
}

func (w *Watcher) markReady() {
	w.readyOnce.Do(func() { close(w.ready) })
}

// Run watches until ctx is cancelled or the watcher fails. It closes the
// underlying fsnotify watcher before returning, so a Watcher runs once.
func (w *Watcher) Run(ctx context.Context) error {
	defer func() {
		w.markReady()
		if err := w.fsw.Close(); err != nil {
			logging.Get(logging.CategoryWatch).Error("Error closing watcher: %v", err)
		}
		logging.Watch("Watcher stopped")
	}()

	root := w.orch.Resolver().Root()
	if err := w.addTree(root); err != nil {
		return err
	}
	logging.Watch("Watching %s (%d directories)", root, len(w.fsw.WatchList()))
	w.markReady()

	batches := make(chan []string)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(batches)
		return w.eventLoop(gctx, batches)
	})
	g.Go(func() error {
		return w.buildLoop(gctx, batches)
	})

	err := g.Wait()
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}

// Stats returns a snapshot of the watcher statistics.
func (w *Watcher) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stats
}

func (w *Watcher) eventLoop(ctx context.Context, batches chan<- []string) error {
	tick := w.opts.Debounce / 5
	if tick < 10*time.Millisecond {
		tick = 10 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			logging.Get(logging.CategoryWatch).Error("Watcher error: %v", err)
			w.mu.Lock()
			w.stats.Errors++
			w.mu.Unlock()

		case <-ticker.C:
			batch := w.settled()
			if len(batch) == 0 {
				continue
			}
			select {
			case batches <- batch:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

func (w *Watcher) buildLoop(ctx context.Context, batches <-chan []string) error {
	for batch := range batches {
		paths := w.expand(batch)
		if len(paths) == 0 {
			continue
		}
		logging.Watch("Rebuilding %d shader(s)", len(paths))

		results, err := w.orch.BuildPaths(ctx, paths, "")
		sum := shader.Summarize(results)
		w.mu.Lock()
		w.stats.Batches++
		w.stats.Compiled += sum.Succeeded
		w.stats.Failed += sum.Failed
		w.mu.Unlock()

		if w.opts.OnBuild != nil && len(results) > 0 {
			w.opts.OnBuild(results)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}

	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addTree(event.Name); err != nil {
				logging.WatchWarn("Failed to watch new directory %s: %v", event.Name, err)
			}
			w.queueTree(event.Name)
			return
		}
	}

	if !w.relevant(event.Name) {
		return
	}
	logging.WatchDebug("%s %s", event.Op, event.Name)

	w.mu.Lock()
	w.stats.Events++
	w.stats.LastEventPath = event.Name
	w.stats.LastEventTime = time.Now()
	w.debounceMap[event.Name] = time.Now()
	w.mu.Unlock()
}

func (w *Watcher) relevant(path string) bool {
	return w.orch.Resolver().Owns(path) || filepath.Base(path) == w.orch.Layout().VaryingDefName
}

// settled removes and returns the paths quiet for at least the debounce
// window.
func (w *Watcher) settled() []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := time.Now()
	var out []string
	for path, at := range w.debounceMap {
		if now.Sub(at) >= w.opts.Debounce {
			out = append(out, path)
			delete(w.debounceMap, path)
		}
	}
	sort.Strings(out)
	return out
}

// expand turns changed paths into the sources to rebuild. A varying
// definition pulls in every shader that uses it or sits next to it.
// Sources that no longer exist are dropped.
func (w *Watcher) expand(changed []string) []string {
	layout := w.orch.Layout()
	seen := make(map[string]bool)
	var out []string
	add := func(p string) {
		if seen[p] {
			return
		}
		if info, err := os.Stat(p); err != nil || !info.Mode().IsRegular() {
			return
		}
		seen[p] = true
		out = append(out, p)
	}

	var all []string
	for _, p := range changed {
		if filepath.Base(p) != layout.VaryingDefName {
			add(p)
			continue
		}
		if all == nil {
			var err error
			if all, err = w.orch.Resolver().ResolveAll(); err != nil {
				logging.WatchWarn("Failed to list shaders for %s: %v", p, err)
				continue
			}
		}
		for _, src := range all {
			def := shader.VaryingDefFor(src, layout.VaryingDefName, layout.DefaultVaryingDef)
			if def == p || filepath.Dir(src) == filepath.Dir(p) {
				add(src)
			}
		}
	}
	return out
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if err := w.fsw.Add(path); err != nil {
			return err
		}
		logging.WatchDebug("Watching directory %s", path)
		return nil
	})
}

// queueTree marks the shaders in a newly created directory as changed, since
// their create events may have fired before the directory was watched.
func (w *Watcher) queueTree(root string) {
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !w.relevant(path) {
			return nil
		}
		w.mu.Lock()
		w.debounceMap[path] = time.Now()
		w.mu.Unlock()
		return nil
	})
}
