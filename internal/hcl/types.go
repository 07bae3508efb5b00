package hcl

import "github.com/hashicorp/hcl/v2"

// fileRoot is a struct used to decode all possible top-level blocks from any
// file, once its locals have been stripped.
type fileRoot struct {
	Server  []*serverBlock  `hcl:"server,block"`
	Watcher []*watcherBlock `hcl:"watcher,block"`
	Tasks   []*taskBlock    `hcl:"task,block"`
	Groups  []*groupBlock   `hcl:"group,block"`
	Watches []*watchBlock   `hcl:"watch,block"`
}

type serverBlock struct {
	Root     *string   `hcl:"root,optional"`
	Host     *string   `hcl:"host,optional"`
	Port     *int      `hcl:"port,optional"`
	Open     *string   `hcl:"open,optional"`
	Notify   *bool     `hcl:"notify,optional"`
	Index    []string  `hcl:"index,optional"`
	DefRange hcl.Range `hcl:",def_range"`
}

type watcherBlock struct {
	Debounce *string   `hcl:"debounce,optional"`
	Ignore   []string  `hcl:"ignore,optional"`
	DefRange hcl.Range `hcl:",def_range"`
}

type taskBlock struct {
	Name        string       `hcl:"name,label"`
	Description string       `hcl:"description,optional"`
	Src         []string     `hcl:"src,optional"`
	Base        string       `hcl:"base,optional"`
	Steps       []*stepBlock `hcl:"step,block"`
	DefRange    hcl.Range    `hcl:",def_range"`
}

type stepBlock struct {
	Type     string    `hcl:"type,label"`
	Config   hcl.Body  `hcl:",remain"`
	DefRange hcl.Range `hcl:",def_range"`
}

type groupBlock struct {
	Name        string         `hcl:"name,label"`
	Description string         `hcl:"description,optional"`
	Run         hcl.Expression `hcl:"run"`
	DefRange    hcl.Range      `hcl:",def_range"`
}

type watchBlock struct {
	Pattern  string         `hcl:"pattern,label"`
	Run      hcl.Expression `hcl:"run"`
	DefRange hcl.Range      `hcl:",def_range"`
}
