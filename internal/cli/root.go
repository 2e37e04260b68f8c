package cli

import (
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags and environment configuration for all
// commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
	Config  Config
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the ctslab CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "ctslab",
		Short: "ctslab - continuous-time stochastic cellular automata",
		Long: `Run, inspect and test continuous-time stochastic cellular automaton models.

Models are CUE files declaring node states, link transitions with rates, a
grid and initial conditions. Runs can be recorded to SQLite and replayed.

Environment:
  CTSLAB_DB                 default database for run, trace and replay
  CTSLAB_UNTIL              default run horizon
  CTSLAB_INTERVAL           default snapshot interval
  CTSLAB_LOG_LEVEL          debug | info | warn | error
  CTSLAB_TRACING_ENABLED    emit OpenTelemetry spans to stderr`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			cfg, err := LoadConfig()
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid environment", err)
			}
			opts.Config = cfg
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewDescribeCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))
	cmd.AddCommand(NewTraceCommand(opts))
	cmd.AddCommand(NewReplayCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}

// newLogger builds a text logger on w. --verbose forces debug; otherwise
// the configured level applies.
func newLogger(opts *RootOptions, w io.Writer) *slog.Logger {
	level := opts.Config.Level()
	if opts.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
