package app

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/rotisserie/eris"
	"github.com/specialistvlad/assetgrid/internal/config"
	"github.com/specialistvlad/assetgrid/internal/ctxlog"
	"github.com/specialistvlad/assetgrid/internal/devserver"
	"github.com/specialistvlad/assetgrid/internal/flow"
	"github.com/specialistvlad/assetgrid/internal/notify"
	"github.com/specialistvlad/assetgrid/internal/pipeline"
	"github.com/specialistvlad/assetgrid/internal/registry"
)

// Names of the built-in units.
const (
	BuiltinServe      = "serve"
	BuiltinWatchFiles = "watch-files"
	BuiltinReload     = "reload"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	config   *Config
	registry *registry.Registry
	model    *config.Model
	catalog  *flow.Catalog
	cwd      string
	notifier notify.Notifier

	// Hooks replaced by tests.
	opener func(url string) error

	mu      sync.Mutex
	session *devserver.Server
}

// NewApp is the constructor for the main application. It loads the task
// file, registers the step modules and builds the unit catalog. Every error
// returned here is a usage or task file error.
func NewApp(outW io.Writer, appConfig *Config, loader config.Loader, modules ...registry.Module) (*App, error) {
	logger := newLogger(appConfig.LogLevel, appConfig.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	cwd, err := taskDir(appConfig.File)
	if err != nil {
		return nil, err
	}

	model, err := loader.Load(ctx, appConfig.File)
	if err != nil {
		return nil, eris.Wrap(err, "failed to load task file")
	}
	applyOverrides(model, appConfig)
	logger.Debug("Task file loaded.", "cwd", cwd, "tasks", len(model.Tasks), "groups", len(model.Groups))

	reg := registry.New()
	if len(modules) == 0 {
		modules = coreModules(outW)
	}
	for _, mod := range modules {
		mod.Register(reg)
	}
	logger.Debug("All Go modules registered.", "count", len(modules))

	if err := reg.ValidateModel(ctx, model); err != nil {
		return nil, err
	}

	a := &App{
		outW:     outW,
		logger:   logger,
		config:   appConfig,
		registry: reg,
		model:    model,
		cwd:      cwd,
	}
	a.notifier = notify.Multi{
		notify.NewConsole(outW, appConfig.LogLevel == "debug", appConfig.NoColor),
		&notify.Browser{Target: a},
	}

	if err := a.buildCatalog(); err != nil {
		return nil, err
	}
	logger.Debug("Unit catalog built.", "units", len(a.catalog.Entries()))
	return a, nil
}

// taskDir returns the absolute directory globs are resolved against: the
// directory holding the task file, or the task directory itself.
func taskDir(file string) (string, error) {
	abs, err := filepath.Abs(file)
	if err != nil {
		return "", eris.Wrapf(err, "resolving %s", file)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", eris.Wrapf(err, "task file %s", file)
	}
	if info.IsDir() {
		return abs, nil
	}
	return filepath.Dir(abs), nil
}

func applyOverrides(model *config.Model, cfg *Config) {
	if cfg.Port > 0 {
		model.Server.Port = cfg.Port
	}
	switch cfg.Open {
	case "":
	case "none":
		model.Server.Open = ""
	default:
		model.Server.Open = cfg.Open
	}
	if cfg.Debounce > 0 {
		model.Watcher.Debounce = cfg.Debounce
	}
}

func (a *App) buildCatalog() error {
	c := flow.NewCatalog(a.config.Workers)

	builtins := []struct {
		name, desc string
		fn         func(context.Context) error
	}{
		{BuiltinServe, "Start the dev server and keep it running for the rest of the command.", a.serve},
		{BuiltinWatchFiles, "Re-run bound units when watched files change, until interrupted.", a.watchFiles},
		{BuiltinReload, "Reload every connected browser.", a.reloadUnit},
	}
	for _, b := range builtins {
		if err := c.AddBuiltin(b.name, b.desc, flow.NewFunc(b.name, b.fn)); err != nil {
			return err
		}
	}

	for _, def := range a.model.Tasks {
		task, err := pipeline.New(def, a.registry, pipeline.Options{
			Cwd:      a.cwd,
			Reloader: a,
			Progress: a.outW,
		})
		if err != nil {
			return err
		}
		if err := c.AddTask(def.Name, def.Description, task); err != nil {
			return eris.Wrap(err, def.Location)
		}
	}

	for _, g := range a.model.Groups {
		if err := c.AddGroup(g.Name, g.Description, g.Run); err != nil {
			return eris.Wrap(err, g.Location)
		}
	}
	if err := c.Validate(); err != nil {
		return err
	}

	for _, w := range a.model.Watches {
		if _, err := c.Resolve(w.Run); err != nil {
			return eris.Wrapf(err, "%s: watch %q", w.Location, w.Pattern)
		}
	}

	a.catalog = c
	return nil
}

// Catalog returns the units declared by the task file and the built-ins.
func (a *App) Catalog() *flow.Catalog {
	return a.catalog
}

// StepTypes returns the step types a task file may use.
func (a *App) StepTypes() []string {
	return a.registry.StepTypes()
}
