// Package flow composes runnable units into sequential and parallel groups
// and resolves unit references from the task file into executable trees.
//
// A Unit is anything that can run to completion: a task pipeline, a group, or
// a built-in such as the dev server. Groups only order their members; tasks
// additionally take a slot from the catalog's worker limit while running.
package flow
