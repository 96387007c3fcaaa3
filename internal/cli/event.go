package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/plotline/internal/id"
	"github.com/roach88/plotline/internal/plot"
)

// NewEventCommand creates the event command and its subcommands.
func NewEventCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "event",
		Short: "Manage the events of the plot",
	}

	cmd.AddCommand(newEventSaveCommand(rootOpts))
	cmd.AddCommand(newEventListCommand(rootOpts))

	return cmd
}

func newEventSaveCommand(opts *RootOptions) *cobra.Command {
	var (
		name     string
		interval []string
	)

	cmd := &cobra.Command{
		Use:   "save [id]",
		Short: "Create or update an event",
		Long: `Create an event, or update the event with the given id, and print its id.

An interval is a single point in time or two bounds. Updates keep the
current value of any flag that is not given.

Examples:
  plot event save --name "the war" --interval 5,8
  plot event save 0190c7a4-... --interval 6`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var in plot.SaveEventInput
			if len(args) == 1 {
				k, err := id.Parse(args[0])
				if err != nil {
					return WrapExitError(ExitCommandError, "invalid event id", err)
				}
				in.ID = k
			}
			if cmd.Flags().Changed("name") {
				in.Name = &name
			}
			if cmd.Flags().Changed("interval") {
				iv, err := plot.ParseInterval(interval)
				if err != nil {
					return err
				}
				in.Interval = &iv
			}

			s, err := openSession(cmd, opts)
			if err != nil {
				return err
			}
			defer s.close()

			event, err := s.plot.SaveEvent(cmd.Context(), in)
			if err != nil {
				return err
			}
			if err := s.save(); err != nil {
				return err
			}
			return s.out.Success(eventView(event))
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "name of the event")
	cmd.Flags().StringSliceVarP(&interval, "interval", "i", nil, "period of the event: LO or LO,HI")

	return cmd
}

func newEventListCommand(opts *RootOptions) *cobra.Command {
	var (
		name   string
		within []string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List events in chronological order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := plot.EventFilter{Name: name}
			if cmd.Flags().Changed("within") {
				iv, err := plot.ParseInterval(within)
				if err != nil {
					return err
				}
				filter.Within = &iv
			}

			s, err := openSession(cmd, opts)
			if err != nil {
				return err
			}
			defer s.close()

			events, err := s.plot.ListEvents(filter)
			if err != nil {
				return err
			}
			if events == nil {
				events = []plot.Event{}
			}
			return s.out.Success(eventList(events))
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "only events with this name")
	cmd.Flags().StringSliceVar(&within, "within", nil, "only events intersecting LO or LO,HI")

	return cmd
}

// resolveEvent finds an event by id or unique name.
func resolveEvent(p *plot.Plot, ref string) (plot.Event, error) {
	e, err := p.FindEvent(ref)
	if err != nil {
		return plot.Event{}, fmt.Errorf("event %q: %w", ref, err)
	}
	return e, nil
}
