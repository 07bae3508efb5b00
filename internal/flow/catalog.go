package flow

import (
	"context"
	"fmt"
	"strings"

	"github.com/aidarkhanov/nanoid"
	"github.com/rotisserie/eris"
	"github.com/specialistvlad/assetgrid/internal/config"
	"golang.org/x/sync/semaphore"
)

// ErrUnknownUnit is returned when a reference names no task, group or built-in.
var ErrUnknownUnit = eris.New("unknown unit")

// Kind classifies catalog entries.
type Kind int

const (
	KindBuiltin Kind = iota
	KindTask
	KindGroup
)

func (k Kind) String() string {
	switch k {
	case KindTask:
		return "task"
	case KindGroup:
		return "group"
	default:
		return "built-in"
	}
}

// Entry is one named unit of the catalog.
type Entry struct {
	Name        string
	Description string
	Kind        Kind

	unit Unit
	ref  *config.Ref
}

// Catalog holds every named unit of a task file and resolves references into
// runnable trees. Tasks share a worker limit; groups and built-ins don't take
// a slot, so a long-running built-in never starves the tasks it waits on.
type Catalog struct {
	entries map[string]*Entry
	order   []*Entry
	slots   *semaphore.Weighted
}

// NewCatalog returns an empty catalog allowing at most workers tasks to run
// at the same time. A non-positive value means one.
func NewCatalog(workers int) *Catalog {
	if workers < 1 {
		workers = 1
	}
	return &Catalog{
		entries: make(map[string]*Entry),
		slots:   semaphore.NewWeighted(int64(workers)),
	}
}

// AddBuiltin registers a built-in unit.
func (c *Catalog) AddBuiltin(name, description string, u Unit) error {
	return c.add(&Entry{Name: name, Description: description, Kind: KindBuiltin, unit: u})
}

// AddTask registers a task unit. The unit runs under the worker limit.
func (c *Catalog) AddTask(name, description string, u Unit) error {
	return c.add(&Entry{Name: name, Description: description, Kind: KindTask, unit: &limited{Unit: u, slots: c.slots}})
}

// AddGroup registers a named group. Its reference is resolved lazily, so
// groups may refer to units declared after them.
func (c *Catalog) AddGroup(name, description string, ref *config.Ref) error {
	if ref == nil {
		return eris.Errorf("group %q has no run reference", name)
	}
	return c.add(&Entry{Name: name, Description: description, Kind: KindGroup, ref: ref})
}

func (c *Catalog) add(e *Entry) error {
	if prev, ok := c.entries[e.Name]; ok {
		if prev.Kind == KindBuiltin {
			return eris.Errorf("%s %q shadows a built-in unit", e.Kind, e.Name)
		}
		return eris.Errorf("duplicate unit %q", e.Name)
	}
	c.entries[e.Name] = e
	c.order = append(c.order, e)
	return nil
}

// Entries returns every entry in registration order.
func (c *Catalog) Entries() []*Entry {
	out := make([]*Entry, len(c.order))
	copy(out, c.order)
	return out
}

// Lookup resolves a unit by name.
func (c *Catalog) Lookup(name string) (Unit, error) {
	return c.Resolve(config.NameRef(name))
}

// Resolve turns a reference into a runnable unit.
func (c *Catalog) Resolve(ref *config.Ref) (Unit, error) {
	return c.resolve(ref, nil)
}

// Validate resolves every group, reporting unknown names and cycles.
func (c *Catalog) Validate() error {
	for _, e := range c.order {
		if e.Kind != KindGroup {
			continue
		}
		if _, err := c.resolve(config.NameRef(e.Name), nil); err != nil {
			return err
		}
	}
	return nil
}

func (c *Catalog) resolve(ref *config.Ref, stack []string) (Unit, error) {
	switch ref.Mode {
	case config.RefName:
		e, ok := c.entries[ref.Name]
		if !ok {
			return nil, eris.Wrapf(ErrUnknownUnit, "cannot resolve %q", ref.Name)
		}
		if e.Kind != KindGroup {
			return e.unit, nil
		}
		for i, name := range stack {
			if name == e.Name {
				cycle := append(append([]string{}, stack[i:]...), e.Name)
				return nil, eris.Errorf("group cycle: %s", strings.Join(cycle, " -> "))
			}
		}
		return c.resolveGroup(e.Name, e.ref, append(stack, e.Name))

	case config.RefSeries, config.RefParallel:
		return c.resolveGroup(anonymousName(ref.Mode), ref, stack)
	}
	return nil, eris.Errorf("invalid reference mode %d", ref.Mode)
}

func (c *Catalog) resolveGroup(name string, ref *config.Ref, stack []string) (Unit, error) {
	members := []*config.Ref{ref}
	mode := config.RefSeries
	if ref.Mode != config.RefName {
		members = ref.Members
		mode = ref.Mode
	}

	units := make([]Unit, 0, len(members))
	for _, m := range members {
		u, err := c.resolve(m, stack)
		if err != nil {
			return nil, err
		}
		units = append(units, u)
	}

	if mode == config.RefParallel {
		return NewParallel(name, units...), nil
	}
	return NewSeries(name, units...), nil
}

func anonymousName(mode config.RefMode) string {
	return mode.String() + "#" + nanoid.New()
}

// Tree renders the composition of a unit, one member per line, indented by
// nesting depth.
func (c *Catalog) Tree(name string) (string, error) {
	if _, err := c.Lookup(name); err != nil {
		return "", err
	}
	var b strings.Builder
	c.renderTree(&b, config.NameRef(name), 0)
	return b.String(), nil
}

func (c *Catalog) renderTree(b *strings.Builder, ref *config.Ref, depth int) {
	indent := strings.Repeat("  ", depth)

	if ref.Mode != config.RefName {
		fmt.Fprintf(b, "%s%s\n", indent, ref.Mode)
		for _, m := range ref.Members {
			c.renderTree(b, m, depth+1)
		}
		return
	}

	e := c.entries[ref.Name]
	if e.Kind != KindGroup {
		fmt.Fprintf(b, "%s%s (%s)\n", indent, e.Name, e.Kind)
		return
	}

	fmt.Fprintf(b, "%s%s (group)\n", indent, e.Name)
	c.renderTree(b, e.ref, depth+1)
}

// limited runs a unit while holding one of the catalog's worker slots.
type limited struct {
	Unit
	slots *semaphore.Weighted
}

func (l *limited) Run(ctx context.Context) error {
	if err := l.slots.Acquire(ctx, 1); err != nil {
		return err
	}
	defer l.slots.Release(1)
	return l.Unit.Run(ctx)
}
