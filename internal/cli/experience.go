package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/plotline/internal/id"
	"github.com/roach88/plotline/internal/plot"
)

// NewExperienceCommand creates the experience command and its subcommands.
func NewExperienceCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "experience",
		Short: "Manage what events mean for entities",
	}

	cmd.AddCommand(newExperienceSaveCommand(rootOpts))
	cmd.AddCommand(newExperienceListCommand(rootOpts))

	return cmd
}

func newExperienceSaveCommand(opts *RootOptions) *cobra.Command {
	var (
		entity string
		event  string
		before string
		after  string
		values map[string]string
	)

	cmd := &cobra.Command{
		Use:   "save",
		Short: "Record what an event means for an entity",
		Long: `Record what an event means for an entity and print the experience id.

--before names who the entity is before the event and --after who it is
afterwards. Without --before the experience is where the entity starts;
without --after it is where the entity ends. With neither, the entity
starts as itself. Entities and events are given by id or name.

Examples:
  plot experience save --entity Ana --event birth
  plot experience save --entity Ana --event war --before Ana --after Ghost --value mood=angry
  plot experience save --entity Ana --event death --before Ghost`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(values) > 0 && after == "" {
				return NewExitError(ExitCommandError, "--value requires --after")
			}

			s, err := openSession(cmd, opts)
			if err != nil {
				return err
			}
			defer s.close()

			in := plot.SaveExperienceInput{}
			if in.Entity, err = resolveEntityID(s.plot, entity); err != nil {
				return err
			}
			ev, err := resolveEvent(s.plot, event)
			if err != nil {
				return err
			}
			in.Event = ev.ID

			if before != "" {
				k, err := resolveEntityID(s.plot, before)
				if err != nil {
					return err
				}
				in.Before = &plot.Profile{Entity: k}
			}
			if after != "" {
				k, err := resolveEntityID(s.plot, after)
				if err != nil {
					return err
				}
				in.After = &plot.Profile{Entity: k, Values: values}
			}

			x, err := s.plot.SaveExperience(cmd.Context(), in)
			if err != nil {
				return err
			}
			if err := s.save(); err != nil {
				return err
			}
			return s.out.Success(experienceView(x))
		},
	}

	cmd.Flags().StringVar(&entity, "entity", "", "entity having the experience (required)")
	cmd.Flags().StringVar(&event, "event", "", "event being experienced (required)")
	cmd.Flags().StringVar(&before, "before", "", "entity profile before the event")
	cmd.Flags().StringVar(&after, "after", "", "entity profile after the event")
	cmd.Flags().StringToStringVar(&values, "value", nil, "key=value attached to the after profile")
	_ = cmd.MarkFlagRequired("entity")
	_ = cmd.MarkFlagRequired("event")

	return cmd
}

func newExperienceListCommand(opts *RootOptions) *cobra.Command {
	var entity, event string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List experiences in chronological order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, opts)
			if err != nil {
				return err
			}
			defer s.close()

			var filter plot.ExperienceFilter
			if entity != "" {
				if filter.Entity, err = resolveEntityID(s.plot, entity); err != nil {
					return err
				}
			}
			if event != "" {
				ev, err := resolveEvent(s.plot, event)
				if err != nil {
					return err
				}
				filter.Event = ev.ID
			}

			return s.out.Success(timelineView(s.plot.ListExperiences(filter)))
		},
	}

	cmd.Flags().StringVar(&entity, "entity", "", "only experiences of this entity")
	cmd.Flags().StringVar(&event, "event", "", "only experiences of this event")

	return cmd
}

// resolveEntityID finds an entity by id or name.
func resolveEntityID(p *plot.Plot, ref string) (id.ID, error) {
	e, err := p.FindEntity(ref)
	if err != nil {
		return id.Nil, fmt.Errorf("entity %q: %w", ref, err)
	}
	return e.ID, nil
}
