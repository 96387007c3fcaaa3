package cli

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/plotline/internal/plot"
	"github.com/roach88/plotline/internal/snapshot"
	"github.com/roach88/plotline/internal/store"
)

// session is one CLI invocation's view of the plot: the snapshot loaded
// from disk, the optional journal and the output formatter.
type session struct {
	opts    *RootOptions
	plot    *plot.Plot
	journal *store.Store
	logger  *slog.Logger
	out     *OutputFormatter
}

// newLogger configures logging based on the verbose flag.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	logLevel := slog.LevelWarn
	if verbose {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: logLevel,
	}))
}

func newFormatter(cmd *cobra.Command, opts *RootOptions) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}

// openSession loads the plot file and opens the journal, if any.
// The session must be closed with close.
func openSession(cmd *cobra.Command, opts *RootOptions) (*session, error) {
	s := &session{
		opts:   opts,
		logger: newLogger(cmd.ErrOrStderr(), opts.Verbose),
		out:    newFormatter(cmd, opts),
	}

	popts := []plot.Option{plot.WithLogger(s.logger)}
	if opts.IDs != nil {
		popts = append(popts, plot.WithIDGenerator(opts.IDs))
	}

	if opts.Journal != "" {
		st, err := store.Open(opts.Journal)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to open journal", err)
		}
		s.journal = st
		popts = append(popts, plot.WithRecorder(st))
		s.logger.Debug("journal ready", "path", opts.Journal, "seq", st.Seq())
	}

	p, err := snapshot.Load(opts.File, popts...)
	if err != nil {
		s.close()
		return nil, WrapExitError(ExitCommandError, "failed to load plot", err)
	}
	s.plot = p
	s.logger.Debug("plot loaded", "file", opts.File)

	return s, nil
}

// save writes the plot back to its file.
func (s *session) save() error {
	if err := snapshot.Save(s.opts.File, s.plot); err != nil {
		return WrapExitError(ExitCommandError, "failed to save plot", err)
	}
	s.out.VerboseLog("plot saved to %s", s.opts.File)
	return nil
}

func (s *session) close() {
	if s.journal == nil {
		return
	}
	if err := s.journal.Close(); err != nil {
		s.logger.Error("error closing journal", "error", err)
	}
}
