// Package watcher re-runs units when files matching their watch bindings
// change.
//
// File events are batched for a debounce window. When the window closes, every
// binding with at least one matching path is triggered once. A binding runs at
// most one execution at a time; a trigger that arrives while it is running is
// kept as a single pending run, and further triggers fold into it.
package watcher

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rotisserie/eris"
	"github.com/specialistvlad/assetgrid/internal/config"
	"github.com/specialistvlad/assetgrid/internal/ctxlog"
	"github.com/specialistvlad/assetgrid/internal/flow"
	"github.com/specialistvlad/assetgrid/internal/notify"
	"github.com/specialistvlad/assetgrid/internal/pattern"
)

// Binding ties a glob to the unit it triggers.
type Binding struct {
	Pattern string
	Unit    flow.Unit
}

// Options configures a Watcher.
type Options struct {
	// Cwd is the directory relative patterns are resolved against.
	Cwd string
	// Debounce is the batching window; zero uses config.DefaultDebounce.
	Debounce time.Duration
	// Ignore lists globs that are neither watched nor matched.
	Ignore []string
	// Notifier is told about failed runs; nil logs them.
	Notifier notify.Notifier
}

type binding struct {
	pattern *pattern.Pattern
	unit    flow.Unit
	trigger chan struct{}
}

// fire queues a run. The buffer of one is the pending slot.
func (b *binding) fire() bool {
	select {
	case b.trigger <- struct{}{}:
		return true
	default:
		return false
	}
}

// Watcher runs the watch loop.
type Watcher struct {
	cwd      string
	debounce time.Duration
	ignore   *pattern.Set
	notifier notify.Notifier
	bindings []*binding

	fsw     *fsnotify.Watcher
	watched map[string]struct{}
	ready   chan struct{}
}

// New compiles the bindings. It does not touch the file system yet.
func New(opts Options, bindings ...Binding) (*Watcher, error) {
	cwd, err := filepath.Abs(opts.Cwd)
	if err != nil {
		return nil, eris.Wrap(err, "resolving working directory")
	}
	ignore, err := pattern.CompileSet(opts.Ignore)
	if err != nil {
		return nil, eris.Wrap(err, "invalid ignore pattern")
	}

	w := &Watcher{
		cwd:      cwd,
		debounce: opts.Debounce,
		ignore:   ignore,
		notifier: opts.Notifier,
		watched:  make(map[string]struct{}),
		ready:    make(chan struct{}),
	}
	if w.debounce <= 0 {
		w.debounce = config.DefaultDebounce
	}
	if w.notifier == nil {
		w.notifier = notify.Log{}
	}

	for _, b := range bindings {
		p, err := pattern.Compile(b.Pattern)
		if err != nil {
			return nil, eris.Wrapf(err, "invalid watch pattern %q", b.Pattern)
		}
		if p.Negated() {
			return nil, eris.Errorf("watch pattern %q must not be negated", b.Pattern)
		}
		w.bindings = append(w.bindings, &binding{pattern: p, unit: b.Unit, trigger: make(chan struct{}, 1)})
	}
	return w, nil
}

// Ready is closed once the initial directories are being watched.
func (w *Watcher) Ready() <-chan struct{} {
	return w.ready
}

// Run watches until ctx is cancelled. Cancellation is a clean exit: Run waits
// for running units to return and reports nil.
func (w *Watcher) Run(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return eris.Wrap(err, "creating file watcher")
	}
	defer fsw.Close()
	w.fsw = fsw

	for _, root := range w.roots() {
		if err := w.watchRoot(ctx, root); err != nil {
			return err
		}
	}
	logger.Info("Watching files.", "bindings", len(w.bindings), "directories", len(w.watched), "debounce", w.debounce)
	close(w.ready)

	var wg sync.WaitGroup
	for _, b := range w.bindings {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.serve(ctx, b)
		}()
	}
	defer wg.Wait()

	pending := make(map[string]struct{})
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	var flush <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			logger.Debug("Watch loop stopped.")
			return nil

		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !w.collect(ctx, ev, pending) {
				continue
			}
			if flush == nil {
				timer.Reset(w.debounce)
				flush = timer.C
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("File watcher error.", "error", err)

		case <-flush:
			flush = nil
			w.dispatch(ctx, pending)
			pending = make(map[string]struct{})
		}
	}
}

// collect records the paths touched by ev. It reports whether anything was
// recorded.
func (w *Watcher) collect(ctx context.Context, ev fsnotify.Event, pending map[string]struct{}) bool {
	if ev.Op == fsnotify.Chmod {
		return false
	}
	if w.ignored(ev.Name, false) {
		return false
	}

	if ev.Op.Has(fsnotify.Remove) || ev.Op.Has(fsnotify.Rename) {
		w.forget(ctx, ev.Name)
	}

	if ev.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if w.ignored(ev.Name, true) {
				return false
			}
			// Files may have landed before the directory was watched.
			for _, f := range w.watchTree(ctx, ev.Name) {
				pending[f] = struct{}{}
			}
			return true
		}
	}

	pending[ev.Name] = struct{}{}
	return true
}

func (w *Watcher) dispatch(ctx context.Context, pending map[string]struct{}) {
	paths := make([]string, 0, len(pending))
	for p := range pending {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	logger := ctxlog.FromContext(ctx)
	for _, b := range w.bindings {
		var matched []string
		for _, p := range paths {
			if b.pattern.Match(w.name(b.pattern, p)) {
				matched = append(matched, pattern.Rel(w.cwd, p))
			}
		}
		if len(matched) == 0 {
			continue
		}
		queued := b.fire()
		logger.Info("Change detected.", "pattern", b.pattern.String(), "unit", b.unit.Name(), "files", matched, "queued", queued)
	}
}

// serve executes a binding's unit for every trigger until ctx is done.
func (w *Watcher) serve(ctx context.Context, b *binding) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-b.trigger:
			if err := flow.Execute(ctx, b.unit); err != nil && ctx.Err() == nil {
				w.notifier.Notify(ctx, b.unit.Name(), err)
			}
		}
	}
}

// name returns p in the form pat matches against.
func (w *Watcher) name(pat *pattern.Pattern, p string) string {
	if pat.Absolute() {
		return filepath.ToSlash(p)
	}
	return pattern.Rel(w.cwd, p)
}

func (w *Watcher) ignored(p string, dir bool) bool {
	rel := pattern.Rel(w.cwd, p)
	if w.ignore.MatchAny(rel) {
		return true
	}
	return dir && w.ignore.MatchAny(rel+"/")
}

// roots returns the absolute glob parents of every binding, deduplicated.
func (w *Watcher) roots() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, b := range w.bindings {
		root := filepath.FromSlash(b.pattern.Parent())
		if !filepath.IsAbs(root) {
			root = filepath.Join(w.cwd, root)
		}
		if _, ok := seen[root]; ok {
			continue
		}
		seen[root] = struct{}{}
		out = append(out, root)
	}
	return out
}

// watchRoot watches root recursively. A root that doesn't exist yet is
// covered by watching its closest existing ancestor, whose directory
// creations are then followed.
func (w *Watcher) watchRoot(ctx context.Context, root string) error {
	dir := root
	for {
		info, err := os.Stat(dir)
		if err == nil && info.IsDir() {
			break
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return eris.Errorf("no existing directory above %s", root)
		}
		dir = parent
	}

	if dir != root {
		ctxlog.FromContext(ctx).Debug("Watch root missing, watching ancestor.", "root", root, "ancestor", dir)
		return w.add(dir)
	}
	w.watchTree(ctx, dir)
	return nil
}

// watchTree adds dir and its non-ignored subdirectories and returns the
// regular files found below it.
func (w *Watcher) watchTree(ctx context.Context, dir string) []string {
	logger := ctxlog.FromContext(ctx)
	var files []string

	_ = filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			if d.Type().IsRegular() && !w.ignored(p, false) {
				files = append(files, p)
			}
			return nil
		}
		if p != dir && w.ignored(p, true) {
			return filepath.SkipDir
		}
		if err := w.add(p); err != nil {
			logger.Warn("Cannot watch directory.", "dir", p, "error", err)
		}
		return nil
	})
	return files
}

// forget drops the watches on p and below it, so a directory created again
// at the same place is watched anew. Roots that vanished fall back to their
// closest existing ancestor.
func (w *Watcher) forget(ctx context.Context, p string) {
	prefix := p + string(filepath.Separator)
	dropped := false
	for dir := range w.watched {
		if dir != p && !strings.HasPrefix(dir, prefix) {
			continue
		}
		// The kernel may already have dropped it.
		_ = w.fsw.Remove(dir)
		delete(w.watched, dir)
		dropped = true
	}
	if !dropped {
		return
	}
	ctxlog.FromContext(ctx).Debug("Stopped watching removed directory.", "dir", p)

	for _, root := range w.roots() {
		if root != p && !strings.HasPrefix(root, prefix) {
			continue
		}
		if err := w.watchRoot(ctx, root); err != nil {
			ctxlog.FromContext(ctx).Warn("Cannot watch directory.", "dir", root, "error", err)
		}
	}
}

func (w *Watcher) add(dir string) error {
	if _, ok := w.watched[dir]; ok {
		return nil
	}
	if err := w.fsw.Add(dir); err != nil {
		return eris.Wrapf(err, "watching %s", dir)
	}
	w.watched[dir] = struct{}{}
	return nil
}
