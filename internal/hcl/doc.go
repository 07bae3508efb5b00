// Package hcl provides the concrete HCL implementation of the task file
// Loader defined in the `config` package. It is responsible for file
// discovery, locals evaluation, the series()/parallel() functions and the
// deferred decoding of step blocks into Go input structs.
package hcl
