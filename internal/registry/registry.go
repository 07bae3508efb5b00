package registry

import (
	"context"
	"io"
	"sort"

	"github.com/specialistvlad/assetgrid/internal/asset"
)

// Module is the interface that all step modules must implement to be registered.
type Module interface {
	Register(r *Registry)
}

// Reloader is the part of the dev server a step can talk to. Calls are no-ops
// when no session is running.
type Reloader interface {
	// Reload asks every connected browser to reload the page.
	Reload(ctx context.Context)
	// Stream tells the browsers which files changed, letting them hot-swap
	// stylesheets instead of reloading.
	Stream(ctx context.Context, paths []string)
}

// Env is the per-run environment handed to every step.
type Env struct {
	// Task is the name of the task running the step.
	Task string
	// Cwd is the absolute working directory.
	Cwd string
	// Reloader reaches the dev server session.
	Reloader Reloader
	// Progress receives progress bars, nil disables them.
	Progress io.Writer
}

// StepFunc transforms a file stream. It receives the decoded input produced by
// the step's NewInput and returns the new stream.
type StepFunc func(ctx context.Context, env *Env, input any, files []*asset.File) ([]*asset.File, error)

// Registry holds all the registered step handlers for a single application
// instance.
type Registry struct {
	StepRegistry map[string]*RegisteredStep
}

// New creates and initializes a new Registry instance.
func New() *Registry {
	return &Registry{
		StepRegistry: make(map[string]*RegisteredStep),
	}
}

// Step returns the handler registered under name.
func (r *Registry) Step(name string) (*RegisteredStep, bool) {
	s, ok := r.StepRegistry[name]
	return s, ok
}

// StepTypes returns the registered step type names in sorted order.
func (r *Registry) StepTypes() []string {
	names := make([]string, 0, len(r.StepRegistry))
	for name := range r.StepRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
