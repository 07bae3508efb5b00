package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/specialistvlad/assetgrid/internal/app"
	"github.com/specialistvlad/assetgrid/internal/flow"
	"github.com/specialistvlad/assetgrid/internal/hcl"
	"github.com/spf13/cobra"
)

// Exit codes.
const (
	ExitOK      = 0
	ExitFailure = 1
	ExitUsage   = 2
)

// DefaultUnit runs when no unit is named on the command line.
const DefaultUnit = "default"

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

func usageError(err error) error {
	return &ExitError{Code: ExitUsage, Message: err.Error()}
}

// Execute parses args and runs the selected command. Every returned error is
// an *ExitError.
func Execute(ctx context.Context, outW io.Writer, args []string) error {
	root := NewRootCommand(outW)
	root.SetArgs(args)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return nil
	}
	var exitErr *ExitError
	if eris.As(err, &exitErr) {
		return exitErr
	}
	return usageError(err)
}

// NewRootCommand builds the command tree. Output, including logs, goes to
// outW.
func NewRootCommand(outW io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:   "assetgrid [unit...]",
		Short: "Build and watch front-end assets",
		Long: `assetgrid reads an HCL task file (assetgrid.hcl by default) declaring tasks,
groups and watch bindings, and runs the named units in order. Without
arguments it runs the "default" unit.`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				args = []string{DefaultUnit}
			}
			return runUnits(cmd, outW, args)
		},
	}
	root.SetOut(outW)
	root.SetErr(outW)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError(err)
	})

	flags := root.PersistentFlags()
	flags.StringP("file", "f", "", "task file, or a directory of .hcl files (default \"assetgrid.hcl\")")
	flags.String("log-level", "", "log level: debug, info, warn or error (default \"info\")")
	flags.String("log-format", "", "log format: text or json (default \"text\")")
	flags.Int("workers", 0, "maximum number of tasks running at the same time (default 4)")
	flags.Int("port", 0, "dev server port, overrides the task file")
	flags.String("open", "", "open a browser: local, external or none, overrides the task file")
	flags.Duration("debounce", 0, "watch batching window, overrides the task file")
	flags.Bool("no-color", false, "disable colored error banners")

	root.AddCommand(
		&cobra.Command{
			Use:   "run unit [unit...]",
			Short: "Run units one after another",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runUnits(cmd, outW, args)
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "List tasks, groups, built-in units and step types",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				a, err := newApp(cmd, outW)
				if err != nil {
					return err
				}
				printList(cmd.OutOrStdout(), a.Catalog().Entries(), a.StepTypes())
				return nil
			},
		},
		&cobra.Command{
			Use:   "graph unit",
			Short: "Print the composition tree of a unit",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				a, err := newApp(cmd, outW)
				if err != nil {
					return err
				}
				tree, err := a.Catalog().Tree(args[0])
				if err != nil {
					return usageError(err)
				}
				fmt.Fprint(cmd.OutOrStdout(), tree)
				return nil
			},
		},
	)
	return root
}

func runUnits(cmd *cobra.Command, outW io.Writer, names []string) error {
	a, err := newApp(cmd, outW)
	if err != nil {
		return err
	}

	if err := a.Run(cmd.Context(), names...); err != nil {
		if eris.Is(err, flow.ErrUnknownUnit) {
			return usageError(err)
		}
		// The notifiers already printed the details.
		return &ExitError{Code: ExitFailure, Message: fmt.Sprintf("%s failed", strings.Join(names, ", "))}
	}
	return nil
}

// newApp merges settings and flags and loads the task file. Failures are
// usage errors.
func newApp(cmd *cobra.Command, outW io.Writer) (*app.App, error) {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return nil, usageError(err)
	}
	a, err := app.NewApp(outW, cfg, hcl.NewLoader())
	if err != nil {
		return nil, usageError(err)
	}
	return a, nil
}

// resolveConfig applies, in increasing priority: defaults, the settings
// file, ASSETGRID_* variables and explicitly set flags.
func resolveConfig(cmd *cobra.Command) (*app.Config, error) {
	flags := cmd.Flags()

	file, _ := flags.GetString("file")
	settings, err := app.LoadSettings(file)
	if err != nil {
		return nil, err
	}
	cfg := settings.Config()

	if flags.Changed("file") {
		cfg.File = file
	}
	if flags.Changed("log-level") {
		cfg.LogLevel, _ = flags.GetString("log-level")
	}
	if flags.Changed("log-format") {
		cfg.LogFormat, _ = flags.GetString("log-format")
	}
	if flags.Changed("workers") {
		cfg.Workers, _ = flags.GetInt("workers")
	}
	if flags.Changed("port") {
		cfg.Port, _ = flags.GetInt("port")
	}
	if flags.Changed("open") {
		cfg.Open, _ = flags.GetString("open")
	}
	if flags.Changed("debounce") {
		cfg.Debounce, _ = flags.GetDuration("debounce")
	}
	cfg.NoColor, _ = flags.GetBool("no-color")

	return app.NewConfig(cfg)
}

func printList(w io.Writer, entries []*flow.Entry, steps []string) {
	width := 0
	for _, e := range entries {
		width = max(width, len(e.Name))
	}
	lineFmt := fmt.Sprintf(" * %%-%ds %%s\n", width+3)

	for _, kind := range []flow.Kind{flow.KindTask, flow.KindGroup, flow.KindBuiltin} {
		header := false
		for _, e := range entries {
			if e.Kind != kind {
				continue
			}
			if !header {
				fmt.Fprintf(w, "%s:\n", sectionTitle(kind))
				header = true
			}
			fmt.Fprintf(w, lineFmt, e.Name+":", e.Description)
		}
	}

	if len(steps) > 0 {
		fmt.Fprintf(w, "Step types:\n %s\n", strings.Join(steps, ", "))
	}
}

func sectionTitle(k flow.Kind) string {
	switch k {
	case flow.KindTask:
		return "Tasks"
	case flow.KindGroup:
		return "Groups"
	default:
		return "Built-ins"
	}
}
