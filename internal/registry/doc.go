// Package registry provides the central "glue" for the step system.
//
// The Registry stores the mapping between the step type names used in task
// files (e.g., "sass", "dest") and the compiled Go functions and input types
// that implement them.
//
// During application startup, the registry is populated by the modules and
// then validated against the loaded task file, so that every step a task
// declares exists and its block decodes into the step's input struct before
// anything runs.
package registry
