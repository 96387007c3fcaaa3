package plot

import (
	"context"
	"fmt"

	"github.com/roach88/plotline/internal/id"
	"github.com/roach88/plotline/internal/schema"
)

// SaveExperienceInput describes what an event means for an entity.
//
// With neither profile set, the experience is initial and its After
// profile is the entity itself.
type SaveExperienceInput struct {
	Entity id.ID
	Event  id.ID
	Before *Profile
	After  *Profile
}

// ExperienceFilter selects experiences. Zero fields match everything.
type ExperienceFilter struct {
	Entity id.ID
	Event  id.ID
}

// SaveExperience creates the experience of in.Entity for in.Event, or
// updates it when one exists. The result must satisfy every experience
// constraint against the entity's timeline.
func (p *Plot) SaveExperience(ctx context.Context, in SaveExperienceInput) (Experience, error) {
	saved, ops, err := p.saveExperience(in)
	if err != nil {
		return Experience{}, err
	}

	changes, err := changesOf(SchemaExperiences, ops)
	if err != nil {
		return Experience{}, err
	}
	p.record(ctx, "experience save", changes)

	p.logger.Info("experience saved",
		"id", saved.ID,
		"entity", saved.Entity,
		"event", saved.Event,
		"kind", saved.Kind().String(),
	)
	return saved, nil
}

// saveExperience commits the experience while holding the entities write
// guard, so no referenced entity can be removed before the commit.
func (p *Plot) saveExperience(in SaveExperienceInput) (Experience, []schema.Operation[id.ID, Experience], error) {
	entityTx := p.entities.Transaction()
	defer entityTx.Rollback()

	entities := entityTx.Begin()
	defer entities.Close()

	if !entities.Contains(in.Entity) {
		return Experience{}, nil, notFound("entity", in.Entity)
	}
	if !p.hasEvent(in.Event) {
		return Experience{}, nil, notFound("event", in.Event)
	}
	for _, profile := range []*Profile{in.Before, in.After} {
		if profile != nil && !entities.Contains(profile.Entity) {
			return Experience{}, nil, notFound("entity", profile.Entity)
		}
	}

	before, after := in.Before, in.After
	if before == nil && after == nil {
		after = &Profile{Entity: in.Entity}
	}

	var saved Experience
	ops, err := apply(p.experiences, func(c *schema.Context[id.ID, Experience]) error {
		var existing []Experience
		for _, x := range c.Nodes() {
			if x.Entity == in.Entity && x.Event == in.Event {
				existing = append(existing, x)
			}
		}

		switch len(existing) {
		case 0:
			ids, ok := schema.Lookup[id.Generator](c.Resources(), ResourceIDs)
			if !ok {
				return fmt.Errorf("resource %q not registered", ResourceIDs)
			}
			saved = Experience{ID: ids.Generate(), Entity: in.Entity, Event: in.Event}
		case 1:
			saved = existing[0]
		default:
			return &Error{
				Code:    ErrCodeCollision,
				Message: fmt.Sprintf("entity has %d experiences for the same event", len(existing)),
				ID:      in.Event,
			}
		}
		saved.Before = before
		saved.After = after
		saved = saved.Clone()

		return stage(c, func(nc *schema.Context[id.ID, Experience]) error {
			nc.WithTarget(saved).Save(saved)
			return nil
		})
	})
	if err != nil {
		return Experience{}, nil, err
	}
	return saved, ops, nil
}

// ListExperiences returns the experiences matching filter, ordered by the
// interval of their event then id.
func (p *Plot) ListExperiences(filter ExperienceFilter) []ExperiencedEvent {
	var matched []Experience
	for _, x := range p.experiences.Nodes() {
		if !filter.Entity.IsNil() && x.Entity != filter.Entity {
			continue
		}
		if !filter.Event.IsNil() && x.Event != filter.Event {
			continue
		}
		matched = append(matched, x)
	}

	out := make([]ExperiencedEvent, 0, len(matched))
	for _, x := range matched {
		event, ok := p.event(x.Event)
		if !ok {
			continue
		}
		out = append(out, ExperiencedEvent{Experience: x, Event: event})
	}
	sortTimeline(out)
	return out
}
