package app

import (
	"context"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/specialistvlad/assetgrid/internal/ctxlog"
	"github.com/specialistvlad/assetgrid/internal/devserver"
	"github.com/specialistvlad/assetgrid/internal/flow"
	"github.com/specialistvlad/assetgrid/internal/watcher"
)

// Run executes the named units one after another. Every name is resolved
// before anything runs, so an unknown unit fails without side effects. An
// interrupt (ctx cancellation) is a clean exit. A failure is reported through
// the notifiers before it is returned.
func (a *App) Run(ctx context.Context, names ...string) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.", "units", names)
	defer a.closeSession(ctx)

	units := make([]flow.Unit, 0, len(names))
	for _, name := range names {
		u, err := a.catalog.Lookup(name)
		if err != nil {
			return err
		}
		units = append(units, u)
	}

	for _, u := range units {
		if err := flow.Execute(ctx, u); err != nil {
			if ctx.Err() != nil && eris.Is(err, ctx.Err()) {
				a.logger.Info("Interrupted.")
				return nil
			}
			a.notifier.Notify(ctx, u.Name(), err)
			return err
		}
	}

	a.logger.Debug("App.Run method finished.")
	return nil
}

// serve starts the dev server session. It completes once the server
// listens; the session lives until Run returns.
func (a *App) serve(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.session != nil {
		ctxlog.FromContext(ctx).Debug("Dev server already running.")
		return nil
	}

	srv := a.model.Server
	root := srv.Root
	if !filepath.IsAbs(root) {
		root = filepath.Join(a.cwd, filepath.FromSlash(root))
	}

	session, err := devserver.Start(ctx, devserver.Options{
		Root:   root,
		Host:   srv.Host,
		Port:   srv.Port,
		Open:   srv.Open,
		Notify: srv.Notify,
		Index:  srv.Index,
		Opener: a.opener,
	})
	if err != nil {
		return flow.Fatal(err)
	}
	a.session = session
	return nil
}

// watchFiles runs the watch loop until ctx is cancelled.
func (a *App) watchFiles(ctx context.Context) error {
	bindings := make([]watcher.Binding, 0, len(a.model.Watches))
	for _, w := range a.model.Watches {
		u, err := a.catalog.Resolve(w.Run)
		if err != nil {
			return err
		}
		bindings = append(bindings, watcher.Binding{Pattern: w.Pattern, Unit: u})
	}
	if len(bindings) == 0 {
		ctxlog.FromContext(ctx).Warn("No watch bindings declared, waiting for interrupt.")
	}

	w, err := watcher.New(watcher.Options{
		Cwd:      a.cwd,
		Debounce: a.model.Watcher.Debounce,
		Ignore:   a.model.Watcher.Ignore,
		Notifier: a.notifier,
	}, bindings...)
	if err != nil {
		return err
	}
	return w.Run(ctx)
}

func (a *App) reloadUnit(ctx context.Context) error {
	a.Reload(ctx)
	return nil
}

func (a *App) currentSession() *devserver.Server {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.session
}

// Reload implements registry.Reloader. It does nothing without a session.
func (a *App) Reload(ctx context.Context) {
	if s := a.currentSession(); s != nil {
		s.Reload(ctx)
	}
}

// Stream implements registry.Reloader. It does nothing without a session.
func (a *App) Stream(ctx context.Context, paths []string) {
	if s := a.currentSession(); s != nil {
		s.Stream(ctx, paths)
	}
}

// Notify forwards a failure banner to the browsers. It does nothing without
// a session.
func (a *App) Notify(ctx context.Context, title, message string) {
	if s := a.currentSession(); s != nil {
		s.Notify(ctx, title, message)
	}
}

func (a *App) closeSession(ctx context.Context) {
	a.mu.Lock()
	s := a.session
	a.session = nil
	a.mu.Unlock()

	if s == nil {
		return
	}
	if err := s.Close(ctx); err != nil {
		ctxlog.FromContext(ctx).Error("Dev server shutdown failed.", "error", err)
	}
}

// SessionURL returns the dev server URL, or "" when no session is running.
func (a *App) SessionURL() string {
	if s := a.currentSession(); s != nil {
		return s.URL()
	}
	return ""
}
