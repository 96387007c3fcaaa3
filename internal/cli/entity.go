package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/plotline/internal/plot"
)

// NewEntityCommand creates the entity command and its subcommands.
func NewEntityCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "entity",
		Short: "Manage the entities of the plot",
	}

	cmd.AddCommand(newEntityCreateCommand(rootOpts))
	cmd.AddCommand(newEntityRemoveCommand(rootOpts))
	cmd.AddCommand(newEntityListCommand(rootOpts))

	return cmd
}

func newEntityCreateCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "create <name>",
		Short: "Create an entity",
		Long: `Create an entity and print its id.

Names are trimmed and must be unique.

Example:
  plot entity create "Ana"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, opts)
			if err != nil {
				return err
			}
			defer s.close()

			entity, err := s.plot.CreateEntity(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := s.save(); err != nil {
				return err
			}
			return s.out.Success(entityView(entity))
		},
	}
}

func newEntityRemoveCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <name>...",
		Short: "Remove entities and their experiences",
		Long: `Remove the named entities along with every experience they have.

Nothing is removed unless every name exists.

Example:
  plot entity remove "Ana" "Bo"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, opts)
			if err != nil {
				return err
			}
			defer s.close()

			removed, err := s.plot.RemoveEntities(cmd.Context(), args...)
			if err != nil {
				return err
			}
			if err := s.save(); err != nil {
				return err
			}
			return s.out.Success(entityList(removed))
		},
	}
}

func newEntityListCommand(opts *RootOptions) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List entities",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, opts)
			if err != nil {
				return err
			}
			defer s.close()

			entities, err := s.plot.ListEntities(plot.EntityFilter{Name: name})
			if err != nil {
				return err
			}
			if entities == nil {
				entities = []plot.Entity{}
			}
			return s.out.Success(entityList(entities))
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "only entities with this name")

	return cmd
}
