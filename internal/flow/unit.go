package flow

import (
	"context"
	"log/slog"
	"time"

	"github.com/rotisserie/eris"
	"github.com/specialistvlad/assetgrid/internal/ctxlog"
)

// Unit is a named piece of work that runs to completion.
type Unit interface {
	Name() string
	Run(ctx context.Context) error
}

// composite is implemented by groups. Their lifecycle is logged at debug
// level since their members already log.
type composite interface {
	members() []Unit
}

// Func adapts a function to the Unit interface.
type Func struct {
	name string
	fn   func(ctx context.Context) error
}

// NewFunc returns a unit that calls fn.
func NewFunc(name string, fn func(ctx context.Context) error) *Func {
	return &Func{name: name, fn: fn}
}

// Name implements Unit.
func (f *Func) Name() string { return f.name }

// Run implements Unit.
func (f *Func) Run(ctx context.Context) error { return f.fn(ctx) }

// Execute runs a unit and logs its start, finish and duration.
func Execute(ctx context.Context, u Unit) error {
	logger := ctxlog.FromContext(ctx).With("unit", u.Name())
	level := slog.LevelInfo
	if _, ok := u.(composite); ok {
		level = slog.LevelDebug
	}

	logger.Log(ctx, level, "Starting unit")
	start := time.Now()

	err := u.Run(ctx)
	duration := time.Since(start)

	switch {
	case err == nil:
		logger.Log(ctx, level, "Finished unit", "duration", duration)
	case ctx.Err() != nil && eris.Is(err, ctx.Err()):
		logger.Log(ctx, level, "Unit cancelled", "duration", duration)
	default:
		if level == slog.LevelInfo {
			level = slog.LevelError
		}
		logger.Log(ctx, level, "Unit failed", "duration", duration, "error", err)
	}
	return err
}

// FatalError marks a failure that must abort the whole run, such as the dev
// server failing to bind its port. Parallel groups cancel their remaining
// members when one of them fails fatally.
type FatalError struct {
	Err error
}

func (e *FatalError) Error() string { return e.Err.Error() }

// Unwrap returns the underlying error.
func (e *FatalError) Unwrap() error { return e.Err }

// Fatal marks err as fatal. A nil error stays nil.
func Fatal(err error) error {
	if err == nil {
		return nil
	}
	return &FatalError{Err: err}
}

// IsFatal reports whether err or anything it wraps was marked fatal.
func IsFatal(err error) bool {
	var fe *FatalError
	return eris.As(err, &fe)
}
