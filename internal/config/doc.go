// Package config defines the format-agnostic model of a task file, along
// with the Loader interface that fills it from a concrete format.
//
// The `config.Model` is the single source of truth for the `app`, `flow` and
// `watcher` packages. Concrete implementations of the Loader, such as for
// HCL, are provided in separate packages.
package config
