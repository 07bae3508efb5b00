// Package pipeline turns task declarations into runnable units: read the
// sources into a file stream, pass the stream through every step in order.
package pipeline

import (
	"context"
	"io"

	"github.com/rotisserie/eris"
	"github.com/specialistvlad/assetgrid/internal/asset"
	"github.com/specialistvlad/assetgrid/internal/config"
	"github.com/specialistvlad/assetgrid/internal/ctxlog"
	"github.com/specialistvlad/assetgrid/internal/registry"
)

// Options carries what a task shares with the rest of the run.
type Options struct {
	// Cwd is the directory globs and relative paths are resolved against.
	Cwd string
	// Reloader reaches the dev server; nil when none is configured.
	Reloader registry.Reloader
	// Progress receives progress bars; nil disables them.
	Progress io.Writer
}

type step struct {
	typ      string
	location string
	handler  *registry.RegisteredStep
	input    any
}

// Task runs a declared pipeline. It implements flow.Unit.
type Task struct {
	def   *config.Task
	steps []step
	opts  Options
}

// New prepares a task. Every step input is decoded here, so a task that
// constructs without error only fails at run time on I/O or tool errors.
func New(def *config.Task, reg *registry.Registry, opts Options) (*Task, error) {
	t := &Task{def: def, opts: opts}

	for i, s := range def.Steps {
		handler, ok := reg.Step(s.Type)
		if !ok {
			return nil, eris.Errorf("%s: task %q, step %d: unknown step type %q", s.Location, def.Name, i+1, s.Type)
		}

		decode := func(any) error { return nil }
		if s.Config != nil {
			decode = s.Config.Decode
		}
		input, err := handler.Input(decode)
		if err != nil {
			return nil, eris.Wrapf(err, "%s: task %q, step %d (%s)", s.Location, def.Name, i+1, s.Type)
		}

		t.steps = append(t.steps, step{typ: s.Type, location: s.Location, handler: handler, input: input})
	}
	return t, nil
}

// Name implements flow.Unit.
func (t *Task) Name() string { return t.def.Name }

// Run reads the sources and applies every step. The first failing step
// aborts the rest of the pipeline.
func (t *Task) Run(ctx context.Context) error {
	ctx = ctxlog.With(ctx, "task", t.def.Name)
	logger := ctxlog.FromContext(ctx)

	var files []*asset.File
	if len(t.def.Sources) > 0 {
		var err error
		files, err = asset.Src(ctx, t.opts.Cwd, t.def.Sources, t.def.Base)
		if err != nil {
			return eris.Wrapf(err, "task %q: reading sources", t.def.Name)
		}
	}

	env := &registry.Env{
		Task:     t.def.Name,
		Cwd:      t.opts.Cwd,
		Reloader: t.opts.Reloader,
		Progress: t.opts.Progress,
	}

	for i, s := range t.steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		logger.Debug("Running step.", "step", s.typ, "index", i+1, "files", len(files))

		out, err := s.handler.Fn(ctx, env, s.input, files)
		if err != nil {
			return eris.Wrapf(err, "task %q: step %d (%s) failed", t.def.Name, i+1, s.typ)
		}
		files = out
	}

	logger.Debug("Pipeline complete.", "files", len(files))
	return nil
}
