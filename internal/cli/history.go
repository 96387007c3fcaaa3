package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/plotline/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Node  string
	Limit int
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show journaled changes",
		Long: `Show the commands recorded in the journal, oldest first, with the
changes each one applied.

Requires a journal (--journal or $PLOT_JOURNAL).

Examples:
  plot history --journal ./plot.db
  plot history --journal ./plot.db --node 0190c7a4-... --limit 5`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Node, "node", "", "only commits that changed this record id")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "only the most recent N commits")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	if opts.Journal == "" {
		return NewExitError(ExitCommandError, "history requires a journal (--journal or $"+EnvJournal+")")
	}
	if opts.Limit < 0 {
		return NewExitError(ExitCommandError, "--limit must not be negative")
	}

	logger := newLogger(cmd.ErrOrStderr(), opts.Verbose)
	st, err := store.Open(opts.Journal)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open journal", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			logger.Error("error closing journal", "error", closeErr)
		}
	}()

	commits, err := st.History(cmd.Context(), store.HistoryFilter{NodeID: opts.Node, Limit: opts.Limit})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read journal", err)
	}
	logger.Debug("journal read", "commits", len(commits))

	return newFormatter(cmd, opts.RootOptions).Success(historyView(commits))
}
