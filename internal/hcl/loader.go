package hcl

import (
	"context"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/rotisserie/eris"
	"github.com/specialistvlad/assetgrid/internal/config"
	"github.com/specialistvlad/assetgrid/internal/ctxlog"
	"github.com/specialistvlad/assetgrid/internal/fsutil"
	"github.com/specialistvlad/assetgrid/internal/pattern"
)

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct{}

// NewLoader creates a new HCL task file loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load orchestrates the entire HCL loading process. Every .hcl file found at
// the given paths contributes to one model; locals are shared across files.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	hclFiles, err := fsutil.FindFilesByExtension(".hcl", paths...)
	if err != nil {
		return nil, err
	}
	if len(hclFiles) == 0 {
		return nil, eris.Errorf("no .hcl task file found in %v", paths)
	}
	logger.Debug("Discovered HCL files.", "files", hclFiles)

	parser := hclparse.NewParser()
	parsed := make([]*hcl.File, 0, len(hclFiles))
	for _, file := range hclFiles {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, eris.Wrapf(diags, "failed to parse HCL file %s", file)
		}
		parsed = append(parsed, hclFile)
	}

	localAttrs, bodies, diags := splitLocals(parsed)
	if diags.HasErrors() {
		return nil, eris.Wrap(diags, "failed to read locals")
	}
	locals, diags := evalLocals(localAttrs)
	if diags.HasErrors() {
		return nil, eris.Wrap(diags, "failed to evaluate locals")
	}
	evalCtx := newEvalContext(locals)
	logger.Debug("Locals evaluated.", "count", len(locals))

	model := config.NewModel()
	b := &builder{model: model, evalCtx: evalCtx, names: make(map[string]string)}

	for i, body := range bodies {
		var root fileRoot
		if diags := gohcl.DecodeBody(body, evalCtx, &root); diags.HasErrors() {
			return nil, eris.Wrapf(diags, "failed to decode HCL file %s", hclFiles[i])
		}
		if err := b.add(&root); err != nil {
			return nil, err
		}
	}

	logger.Debug("HCL loading complete.", "tasks", len(model.Tasks), "groups", len(model.Groups), "watches", len(model.Watches))
	return model, nil
}

// builder merges decoded files into one model and enforces uniqueness.
type builder struct {
	model   *config.Model
	evalCtx *hcl.EvalContext
	// names maps every task and group name to its declaration.
	names       map[string]string
	serverSeen  string
	watcherSeen string
}

func (b *builder) add(root *fileRoot) error {
	for _, s := range root.Server {
		if err := b.addServer(s); err != nil {
			return err
		}
	}
	for _, w := range root.Watcher {
		if err := b.addWatcher(w); err != nil {
			return err
		}
	}
	for _, t := range root.Tasks {
		if err := b.addTask(t); err != nil {
			return err
		}
	}
	for _, g := range root.Groups {
		if err := b.addGroup(g); err != nil {
			return err
		}
	}
	for _, w := range root.Watches {
		if err := b.addWatch(w); err != nil {
			return err
		}
	}
	return nil
}

func (b *builder) claim(name string, rng hcl.Range) error {
	if name == "" {
		return eris.Errorf("%s: name must not be empty", rng.String())
	}
	if prev, ok := b.names[name]; ok {
		return eris.Errorf("%s: duplicate unit %q, already declared at %s", rng.String(), name, prev)
	}
	b.names[name] = rng.String()
	return nil
}

func (b *builder) addServer(s *serverBlock) error {
	if b.serverSeen != "" {
		return eris.Errorf("%s: duplicate server block, already declared at %s", s.DefRange.String(), b.serverSeen)
	}
	b.serverSeen = s.DefRange.String()

	srv := b.model.Server
	if s.Root != nil {
		srv.Root = *s.Root
	}
	if s.Host != nil {
		srv.Host = *s.Host
	}
	if s.Port != nil {
		if *s.Port < 0 || *s.Port > 65535 {
			return eris.Errorf("%s: port %d out of range", s.DefRange.String(), *s.Port)
		}
		srv.Port = *s.Port
	}
	if s.Open != nil {
		switch *s.Open {
		case "", "local", "external":
			srv.Open = *s.Open
		default:
			return eris.Errorf("%s: open must be \"local\", \"external\" or empty, got %q", s.DefRange.String(), *s.Open)
		}
	}
	if s.Notify != nil {
		srv.Notify = *s.Notify
	}
	srv.Index = s.Index
	return nil
}

func (b *builder) addWatcher(w *watcherBlock) error {
	if b.watcherSeen != "" {
		return eris.Errorf("%s: duplicate watcher block, already declared at %s", w.DefRange.String(), b.watcherSeen)
	}
	b.watcherSeen = w.DefRange.String()

	if w.Debounce != nil {
		d, err := time.ParseDuration(*w.Debounce)
		if err != nil {
			return eris.Wrapf(err, "%s: invalid debounce", w.DefRange.String())
		}
		if d < 0 {
			return eris.Errorf("%s: debounce must not be negative", w.DefRange.String())
		}
		b.model.Watcher.Debounce = d
	}
	if _, err := pattern.CompileSet(w.Ignore); err != nil {
		return eris.Wrapf(err, "%s: invalid ignore pattern", w.DefRange.String())
	}
	b.model.Watcher.Ignore = append(b.model.Watcher.Ignore, w.Ignore...)
	return nil
}

func (b *builder) addTask(t *taskBlock) error {
	if err := b.claim(t.Name, t.DefRange); err != nil {
		return err
	}
	if _, err := pattern.CompileSet(t.Src); err != nil {
		return eris.Wrapf(err, "%s: task %q has an invalid src pattern", t.DefRange.String(), t.Name)
	}

	task := &config.Task{
		Name:        t.Name,
		Description: t.Description,
		Sources:     t.Src,
		Base:        t.Base,
		Location:    t.DefRange.String(),
	}
	for _, s := range t.Steps {
		task.Steps = append(task.Steps, &config.Step{
			Type:     s.Type,
			Config:   &bodyDecoder{body: s.Config, evalCtx: b.evalCtx},
			Location: s.DefRange.String(),
		})
	}
	b.model.Tasks = append(b.model.Tasks, task)
	return nil
}

func (b *builder) addGroup(g *groupBlock) error {
	if err := b.claim(g.Name, g.DefRange); err != nil {
		return err
	}
	ref, err := decodeRun(g.Run, b.evalCtx)
	if err != nil {
		return eris.Wrapf(err, "group %q", g.Name)
	}
	b.model.Groups = append(b.model.Groups, &config.Group{
		Name:        g.Name,
		Description: g.Description,
		Run:         ref,
		Location:    g.DefRange.String(),
	})
	return nil
}

func (b *builder) addWatch(w *watchBlock) error {
	if _, err := pattern.Compile(w.Pattern); err != nil {
		return eris.Wrapf(err, "%s: invalid watch pattern", w.DefRange.String())
	}
	ref, err := decodeRun(w.Run, b.evalCtx)
	if err != nil {
		return eris.Wrapf(err, "watch %q", w.Pattern)
	}
	b.model.Watches = append(b.model.Watches, &config.Watch{
		Pattern:  w.Pattern,
		Run:      ref,
		Location: w.DefRange.String(),
	})
	return nil
}
