package plot

import (
	"context"
	"fmt"

	"github.com/roach88/plotline/internal/id"
	"github.com/roach88/plotline/internal/schema"
)

// SaveEventInput describes an event to create or update. Nil fields keep
// the current value of an existing event.
type SaveEventInput struct {
	// ID of the event. A nil ID creates an event with a generated id.
	ID       id.ID
	Name     *string
	Interval *Interval
}

// EventFilter selects events. Zero fields match everything.
type EventFilter struct {
	ID   id.ID
	Name string

	// Within, when set, keeps only events intersecting it.
	Within *Interval
}

// SaveEvent creates the event identified by in.ID, or updates it when it
// already exists. A new event requires both a name and an interval.
func (p *Plot) SaveEvent(ctx context.Context, in SaveEventInput) (Event, error) {
	var name string
	if in.Name != nil {
		n, err := normalizeName(*in.Name)
		if err != nil {
			return Event{}, err
		}
		name = n
	}

	var (
		saved   Event
		created bool
	)
	ops, err := apply(p.events, func(c *schema.Context[id.ID, Event]) error {
		k := in.ID
		if k.IsNil() {
			ids, ok := schema.Lookup[id.Generator](c.Resources(), ResourceIDs)
			if !ok {
				return fmt.Errorf("resource %q not registered", ResourceIDs)
			}
			k = ids.Generate()
		}

		current, exists := c.Node(k).Get()
		if !exists {
			if in.Name == nil {
				return &Error{Code: ErrCodeInvalidName, Message: "a new event requires a name", ID: k}
			}
			if in.Interval == nil {
				return &Error{Code: ErrCodeInvalidInterval, Message: "a new event requires an interval", ID: k}
			}
			current = Event{ID: k}
			created = true
		}
		if in.Name != nil {
			current.Name = name
		}
		if in.Interval != nil {
			current.Interval = *in.Interval
		}
		saved = current

		return stage(c, func(nc *schema.Context[id.ID, Event]) error {
			nc.Save(saved)
			return nil
		})
	})
	if err != nil {
		return Event{}, err
	}

	changes, err := changesOf(SchemaEvents, ops)
	if err != nil {
		return Event{}, err
	}
	p.record(ctx, "event save", changes)

	p.logger.Info("event saved",
		"id", saved.ID,
		"name", saved.Name,
		"interval", saved.Interval.String(),
		"created", created,
	)
	return saved, nil
}

// ListEvents returns the events matching filter, ordered by interval then
// id.
func (p *Plot) ListEvents(filter EventFilter) ([]Event, error) {
	var name string
	if filter.Name != "" {
		n, err := normalizeName(filter.Name)
		if err != nil {
			return nil, err
		}
		name = n
	}

	var out []Event
	for _, e := range p.events.Nodes() {
		if !filter.ID.IsNil() && e.ID != filter.ID {
			continue
		}
		if name != "" && e.Name != name {
			continue
		}
		if filter.Within != nil && !e.Interval.Intersects(*filter.Within) {
			continue
		}
		out = append(out, e)
	}
	sortEvents(out)
	return out, nil
}

// FindEvent resolves ref as an event id, then as an event name.
func (p *Plot) FindEvent(ref string) (Event, error) {
	if k, err := id.Parse(ref); err == nil {
		if e, ok := p.event(k); ok {
			return e, nil
		}
		return Event{}, notFound("event", k)
	}

	found, err := p.ListEvents(EventFilter{Name: ref})
	if err != nil {
		return Event{}, err
	}
	switch len(found) {
	case 0:
		return Event{}, &Error{Code: ErrCodeNotFound, Message: fmt.Sprintf("event %q not found", ref)}
	case 1:
		return found[0], nil
	default:
		return Event{}, &Error{Code: ErrCodeCollision, Message: fmt.Sprintf("event name %q is ambiguous, use its id", ref)}
	}
}
