// Package app contains the core application logic. It loads the task file,
// builds the catalog of runnable units, and owns the lifecycle of a command:
// the dev server session, the watch loop and shutdown. It is decoupled from
// any specific entrypoint like the CLI.
package app
