package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/plotline/internal/id"
)

// Environment variables read when the matching flag is not set.
const (
	EnvPlotFile = "PLOTFILE"
	EnvJournal  = "PLOT_JOURNAL"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
	File    string // plot snapshot path
	Journal string // SQLite journal path, empty disables journaling

	// IDs allows overriding the id generator (for testing).
	// If nil, defaults to id.UUIDv7Generator.
	IDs id.Generator
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the plot CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plot",
		Short: "plot - keep track of a story",
		Long: `Keep track of the entities of a story, the events they go through and
what each event means for them.

The plot is stored as a YAML document (--file, $PLOTFILE, or
~/.plotline/plotfile.yaml). Every change can also be journaled to a SQLite
database (--journal or $PLOT_JOURNAL).`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Validate format flag
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			if opts.File == "" {
				file, err := defaultPlotFile()
				if err != nil {
					return WrapExitError(ExitCommandError, "failed to locate plot file", err)
				}
				opts.File = file
			}
			if opts.Journal == "" {
				opts.Journal = os.Getenv(EnvJournal)
			}
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVarP(&opts.File, "file", "f", "", "plot file (default $"+EnvPlotFile+" or ~/.plotline/plotfile.yaml)")
	cmd.PersistentFlags().StringVar(&opts.Journal, "journal", "", "SQLite journal of changes (default $"+EnvJournal+")")

	// Add subcommands
	cmd.AddCommand(NewEntityCommand(opts))
	cmd.AddCommand(NewEventCommand(opts))
	cmd.AddCommand(NewExperienceCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))

	return cmd
}

// Execute runs the CLI with args and returns the process exit code.
// Failures are reported on stderr, or on stdout as a JSON envelope when
// --format json is selected.
func Execute(args []string, stdout, stderr io.Writer) int {
	return execute(&RootOptions{}, args, stdout, stderr)
}

func execute(opts *RootOptions, args []string, stdout, stderr io.Writer) int {
	cmd := newRootCommand(opts)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.Execute()
	if err == nil {
		return ExitSuccess
	}

	out := &OutputFormatter{Format: opts.Format, Writer: stderr, Verbose: opts.Verbose}
	if opts.Format == "json" {
		out.Writer = stdout
	}
	_ = out.Report(err)
	return GetExitCode(err)
}

// defaultPlotFile returns $PLOTFILE, or the plot file in the user's home.
func defaultPlotFile() (string, error) {
	if file := os.Getenv(EnvPlotFile); file != "" {
		return file, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".plotline", "plotfile.yaml"), nil
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
