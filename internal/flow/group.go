package flow

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rotisserie/eris"
	"golang.org/x/sync/errgroup"
)

// Series runs its members one after another, stopping at the first failure.
type Series struct {
	name  string
	units []Unit
}

// NewSeries returns a sequential group.
func NewSeries(name string, units ...Unit) *Series {
	return &Series{name: name, units: units}
}

// Name implements Unit.
func (s *Series) Name() string { return s.name }

func (s *Series) members() []Unit { return s.units }

// Run implements Unit. Member N+1 starts only after member N returned nil.
func (s *Series) Run(ctx context.Context) error {
	for _, u := range s.units {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := Execute(ctx, u); err != nil {
			return err
		}
	}
	return nil
}

// Parallel runs its members concurrently and waits for all of them.
type Parallel struct {
	name  string
	units []Unit
}

// NewParallel returns a parallel group.
func NewParallel(name string, units ...Unit) *Parallel {
	return &Parallel{name: name, units: units}
}

// Name implements Unit.
func (p *Parallel) Name() string { return p.name }

func (p *Parallel) members() []Unit { return p.units }

// Run implements Unit. Ordinary failures are collected and reported once
// every member returned; a fatal failure cancels the other members and is
// returned as is.
func (p *Parallel) Run(parent context.Context) error {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	var (
		mu    sync.Mutex
		errs  []error
		fatal error
	)

	var g errgroup.Group
	for _, u := range p.units {
		g.Go(func() error {
			err := Execute(ctx, u)
			if err == nil {
				return nil
			}
			mu.Lock()
			defer mu.Unlock()
			if IsFatal(err) {
				if fatal == nil {
					fatal = err
				}
				cancel()
				return nil
			}
			errs = append(errs, err)
			return nil
		})
	}
	_ = g.Wait()

	switch {
	case fatal != nil:
		return fatal
	case parent.Err() != nil && len(errs) > 0:
		// Members failing because of the interrupt are not failures.
		return parent.Err()
	case len(errs) == 1:
		return errs[0]
	case len(errs) > 1:
		return &GroupError{Group: p.name, Errs: errs}
	}
	return nil
}

// GroupError collects the failures of several members of a parallel group.
type GroupError struct {
	Group string
	Errs  []error
}

func (e *GroupError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d units of %s failed:", len(e.Errs), e.Group)
	for _, err := range e.Errs {
		b.WriteString("\n- ")
		b.WriteString(err.Error())
	}
	return b.String()
}

// Unwrap returns the collected errors.
func (e *GroupError) Unwrap() []error { return e.Errs }

// Is reports whether any collected error matches target.
func (e *GroupError) Is(target error) bool {
	for _, err := range e.Errs {
		if eris.Is(err, target) {
			return true
		}
	}
	return false
}
