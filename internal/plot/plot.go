package plot

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/plotline/internal/graph"
	"github.com/roach88/plotline/internal/id"
	"github.com/roach88/plotline/internal/schema"
	"github.com/roach88/plotline/internal/store"
)

// Schema names, as reported in logs and journal entries.
const (
	SchemaEntities    = "entities"
	SchemaEvents      = "events"
	SchemaExperiences = "experiences"
)

// ResourceIDs is the resource key under which every schema exposes the
// plot's id.Generator.
const ResourceIDs = "ids"

// Trigger names registered on the schemas.
const (
	TriggerName        = "name"
	TriggerInterval    = "interval"
	TriggerProfiles    = "profiles"
	TriggerConstraints = "constraints"
)

// Recorder persists the changes of each committed command.
// store.Store implements it.
type Recorder interface {
	Record(ctx context.Context, command string, changes []store.Change) error
}

// Plot is the set of entities, events and experiences of one story.
//
// Thread-safety: operations may be called concurrently. Writers to the same
// schema are serialized by the schema's write guard.
type Plot struct {
	entities    *schema.Schema[id.ID, Entity]
	events      *schema.Schema[id.ID, Event]
	experiences *schema.Schema[id.ID, Experience]

	ids      id.Generator
	recorder Recorder
	logger   *slog.Logger
}

// Option configures a Plot.
type Option func(*Plot)

// WithIDGenerator sets the generator for new record ids.
// Default: id.UUIDv7Generator.
func WithIDGenerator(g id.Generator) Option {
	return func(p *Plot) {
		p.ids = g
	}
}

// WithRecorder sets where committed changes are journaled.
// Default: none.
func WithRecorder(r Recorder) Option {
	return func(p *Plot) {
		p.recorder = r
	}
}

// WithLogger sets the logger for the plot and its schemas.
// Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Plot) {
		p.logger = logger
	}
}

// New creates an empty Plot.
func New(opts ...Option) *Plot {
	p := &Plot{
		ids:    id.UUIDv7Generator{},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}

	p.entities = schema.New[id.ID, Entity](schema.WithName(SchemaEntities), schema.WithLogger(p.logger))
	p.events = schema.New[id.ID, Event](schema.WithName(SchemaEvents), schema.WithLogger(p.logger))
	p.experiences = schema.New[id.ID, Experience](schema.WithName(SchemaExperiences), schema.WithLogger(p.logger))

	p.entities.Resources().Set(ResourceIDs, p.ids)
	p.events.Resources().Set(ResourceIDs, p.ids)
	p.experiences.Resources().Set(ResourceIDs, p.ids)

	p.entities.Triggers().Register(TriggerName, checkEntityName)
	p.events.Triggers().Register(TriggerName, checkEventName)
	p.events.Triggers().Register(TriggerInterval, checkEventInterval)
	p.experiences.Triggers().Register(TriggerProfiles, checkProfiles)
	p.experiences.Triggers().Register(TriggerConstraints, p.checkConstraints)

	return p
}

// Restore loads records into the plot, replacing any record with the same
// id. Entity names must stay unique, and experiences and their profiles must
// reference known entities and events. Nothing of a kind is restored when
// one of its records is rejected.
func (p *Plot) Restore(entities []Entity, events []Event, experiences []Experience) error {
	if _, err := apply(p.entities, func(c *schema.Context[id.ID, Entity]) error {
		for _, e := range entities {
			c.Save(e)
		}
		byName := make(map[string]id.ID)
		for _, e := range c.Nodes() {
			if other, ok := byName[e.Name]; ok {
				return &Error{
					Code:    ErrCodeAlreadyExists,
					Message: fmt.Sprintf("entity %q already exists as %s", e.Name, other),
					ID:      e.ID,
				}
			}
			byName[e.Name] = e.ID
		}
		return nil
	}); err != nil {
		return fmt.Errorf("restore entities: %w", err)
	}

	if _, err := apply(p.events, func(c *schema.Context[id.ID, Event]) error {
		for _, e := range events {
			c.Save(e)
		}
		return nil
	}); err != nil {
		return fmt.Errorf("restore events: %w", err)
	}

	for _, x := range experiences {
		if !p.hasEntity(x.Entity) {
			return fmt.Errorf("restore experience %s: %w", x.ID, notFound("entity", x.Entity))
		}
		if !p.hasEvent(x.Event) {
			return fmt.Errorf("restore experience %s: %w", x.ID, notFound("event", x.Event))
		}
		for _, profile := range []*Profile{x.Before, x.After} {
			if profile != nil && !p.hasEntity(profile.Entity) {
				return fmt.Errorf("restore experience %s: %w", x.ID, notFound("entity", profile.Entity))
			}
		}
	}

	if _, err := apply(p.experiences, func(c *schema.Context[id.ID, Experience]) error {
		for _, x := range experiences {
			c.Save(x)
		}
		return nil
	}); err != nil {
		return fmt.Errorf("restore experiences: %w", err)
	}

	p.logger.Debug("plot restored",
		"entities", len(entities),
		"events", len(events),
		"experiences", len(experiences),
	)
	return nil
}

// Entities returns every entity, in ascending id order.
func (p *Plot) Entities() []Entity {
	return p.entities.Nodes()
}

// Events returns every event, in ascending id order.
func (p *Plot) Events() []Event {
	return p.events.Nodes()
}

// Experiences returns every experience, in ascending id order.
func (p *Plot) Experiences() []Experience {
	return p.experiences.Nodes()
}

func (p *Plot) hasEntity(k id.ID) bool {
	var ok bool
	p.entities.View(func(src graph.Source[id.ID, Entity]) {
		ok = src.Contains(k)
	})
	return ok
}

func (p *Plot) hasEvent(k id.ID) bool {
	var ok bool
	p.events.View(func(src graph.Source[id.ID, Event]) {
		ok = src.Contains(k)
	})
	return ok
}

func (p *Plot) event(k id.ID) (Event, bool) {
	var (
		e  Event
		ok bool
	)
	p.events.View(func(src graph.Source[id.ID, Event]) {
		e, ok = src.Get(k)
	})
	return e, ok
}

// apply runs fn in a Background transaction over s and commits it.
// Returns the operations that were committed.
func apply[T id.Identifiable[id.ID]](s *schema.Schema[id.ID, T], fn func(*schema.Context[id.ID, T]) error) ([]schema.Operation[id.ID, T], error) {
	tx := s.Transaction()
	defer tx.Rollback()

	c := tx.Begin()
	if err := fn(c); err != nil {
		c.Close()
		return nil, err
	}
	ops := c.Operations()
	c.Close()

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return ops, nil
}

// stage runs fn in a Foreground transaction nested in c, fires the
// schema's triggers over what fn staged, and merges it into c only when
// every trigger passes.
func stage[T id.Identifiable[id.ID]](c *schema.Context[id.ID, T], fn func(*schema.Context[id.ID, T]) error) error {
	nested := c.Transaction()
	defer nested.Rollback()

	nc := nested.Begin()
	err := fn(nc)
	if err == nil {
		for _, op := range nc.Operations() {
			if err = nc.Triggers().Fire(nc, op); err != nil {
				break
			}
		}
	}
	nc.Close()

	if err != nil {
		return err
	}
	return nested.Commit()
}

// changesOf converts committed operations to journal changes.
func changesOf[T id.Identifiable[id.ID]](schemaName string, ops []schema.Operation[id.ID, T]) ([]store.Change, error) {
	changes := make([]store.Change, 0, len(ops))
	for _, op := range ops {
		ch := store.Change{
			Schema: schemaName,
			Kind:   op.Kind().String(),
			NodeID: op.NodeID().String(),
		}
		if node, ok := op.Node(); ok {
			payload, err := store.MarshalPayload(node)
			if err != nil {
				return nil, fmt.Errorf("encode %s %s: %w", schemaName, op.NodeID(), err)
			}
			ch.Payload = payload
		}
		changes = append(changes, ch)
	}
	return changes, nil
}

// record journals a committed command. State is already committed, so a
// journal failure is logged and does not fail the command.
func (p *Plot) record(ctx context.Context, command string, changes []store.Change) {
	if p.recorder == nil || len(changes) == 0 {
		return
	}
	if err := p.recorder.Record(ctx, command, changes); err != nil {
		p.logger.Warn("journal record failed",
			"command", command,
			"changes", len(changes),
			"error", err,
		)
	}
}
