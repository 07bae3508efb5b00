package config

import (
	"strings"
	"time"
)

// Default watcher and server values applied when the task file omits them.
const (
	DefaultDebounce = 250 * time.Millisecond
	DefaultHost     = "0.0.0.0"
	DefaultPort     = 3000
)

// DefaultIgnore lists the globs the watcher never watches nor matches.
var DefaultIgnore = []string{"**/node_modules/**", "**/.git/**"}

// Model is the unified, format-agnostic representation of a task file.
type Model struct {
	Tasks   []*Task
	Groups  []*Group
	Watches []*Watch
	Server  *Server
	Watcher *Watcher
}

// NewModel returns an empty model carrying the default settings.
func NewModel() *Model {
	return &Model{
		Server:  &Server{Host: DefaultHost, Port: DefaultPort, Root: "."},
		Watcher: &Watcher{Debounce: DefaultDebounce, Ignore: append([]string(nil), DefaultIgnore...)},
	}
}

// Task is the format-agnostic representation of a `task` block.
type Task struct {
	Name        string
	Description string
	Sources     []string
	Base        string
	Steps       []*Step
	// Location points at the declaration, for error messages.
	Location string
}

// Step is one transformation of a task pipeline.
type Step struct {
	Type     string
	Config   Decoder
	Location string
}

// Group is the format-agnostic representation of a `group` block.
type Group struct {
	Name        string
	Description string
	Run         *Ref
	Location    string
}

// Watch binds a glob to the unit it triggers.
type Watch struct {
	Pattern  string
	Run      *Ref
	Location string
}

// Server holds the dev server settings.
type Server struct {
	Root   string
	Host   string
	Port   int
	Open   string
	Notify bool
	Index  []string
}

// Watcher holds the watch loop settings.
type Watcher struct {
	Debounce time.Duration
	Ignore   []string
}

// RefMode says how a Ref is executed.
type RefMode int

const (
	// RefName points at a task, group or built-in by name.
	RefName RefMode = iota
	// RefSeries runs its members one after another.
	RefSeries
	// RefParallel runs its members concurrently.
	RefParallel
)

func (m RefMode) String() string {
	switch m {
	case RefSeries:
		return "series"
	case RefParallel:
		return "parallel"
	default:
		return "name"
	}
}

// Ref is a unit reference: a name, or an anonymous series/parallel
// composition of other references.
type Ref struct {
	Mode    RefMode
	Name    string
	Members []*Ref
}

// NameRef returns a reference to a named unit.
func NameRef(name string) *Ref {
	return &Ref{Mode: RefName, Name: name}
}

// SeriesRef returns an anonymous sequential composition.
func SeriesRef(members ...*Ref) *Ref {
	return &Ref{Mode: RefSeries, Members: members}
}

// ParallelRef returns an anonymous parallel composition.
func ParallelRef(members ...*Ref) *Ref {
	return &Ref{Mode: RefParallel, Members: members}
}

// String renders the reference the way it is written in a task file.
func (r *Ref) String() string {
	if r == nil {
		return "<nil>"
	}
	if r.Mode == RefName {
		return r.Name
	}
	parts := make([]string, 0, len(r.Members))
	for _, m := range r.Members {
		parts = append(parts, m.String())
	}
	return r.Mode.String() + "(" + strings.Join(parts, ", ") + ")"
}

// Names returns every unit name the reference mentions, depth first.
func (r *Ref) Names() []string {
	if r == nil {
		return nil
	}
	if r.Mode == RefName {
		return []string{r.Name}
	}
	var out []string
	for _, m := range r.Members {
		out = append(out, m.Names()...)
	}
	return out
}
