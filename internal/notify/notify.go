// Package notify reports failed units: those triggered by the watch loop,
// which keeps running after an error, and those named on the command line.
package notify

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/mitchellh/colorstring"
	"github.com/rotisserie/eris"
	"github.com/specialistvlad/assetgrid/internal/ctxlog"
)

// Notifier is told about every failed unit.
type Notifier interface {
	Notify(ctx context.Context, unit string, err error)
}

// Console prints a colored banner naming the failed unit.
type Console struct {
	mu    sync.Mutex
	out   io.Writer
	debug bool
	color colorstring.Colorize
}

// NewConsole returns a console notifier writing to out. With debug set, the
// error's stack trace is printed too.
func NewConsole(out io.Writer, debug, noColor bool) *Console {
	return &Console{
		out:   out,
		debug: debug,
		color: colorstring.Colorize{
			Colors:  colorstring.DefaultColors,
			Disable: noColor,
			Reset:   true,
		},
	}
}

// Notify implements Notifier.
func (c *Console) Notify(_ context.Context, unit string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Only the fixed markers go through colorstring; unit names and messages
	// may contain brackets.
	fmt.Fprintf(c.out, "%s %s failed\n", c.color.Color("[red][bold]✖"), unit)
	bar := c.color.Color("[red]  |")
	for _, line := range strings.Split(strings.TrimRight(eris.ToString(err, c.debug), "\n"), "\n") {
		fmt.Fprintf(c.out, "%s %s\n", bar, line)
	}
}

// Sender delivers a message to connected browsers.
type Sender interface {
	Notify(ctx context.Context, title, message string)
}

// Browser forwards failures to the dev server, which shows them in an
// overlay when notifications are enabled.
type Browser struct {
	Target Sender
}

// Notify implements Notifier.
func (b *Browser) Notify(ctx context.Context, unit string, err error) {
	if b.Target == nil {
		return
	}
	b.Target.Notify(ctx, unit+" failed", err.Error())
}

// Multi fans a failure out to several notifiers.
type Multi []Notifier

// Notify implements Notifier.
func (m Multi) Notify(ctx context.Context, unit string, err error) {
	for _, n := range m {
		n.Notify(ctx, unit, err)
	}
}

// Log writes failures to the context logger. It's the fallback when no
// other notifier is configured.
type Log struct{}

// Notify implements Notifier.
func (Log) Notify(ctx context.Context, unit string, err error) {
	ctxlog.FromContext(ctx).Error("Unit failed.", "unit", unit, "error", err)
}
