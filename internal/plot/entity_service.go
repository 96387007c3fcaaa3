package plot

import (
	"context"
	"fmt"

	"github.com/roach88/plotline/internal/graph"
	"github.com/roach88/plotline/internal/id"
	"github.com/roach88/plotline/internal/schema"
)

// EntityFilter selects entities. Zero fields match everything.
type EntityFilter struct {
	ID   id.ID
	Name string
}

// CreateEntity creates an entity named name. Names are normalized and must
// be unique.
func (p *Plot) CreateEntity(ctx context.Context, name string) (Entity, error) {
	n, err := normalizeName(name)
	if err != nil {
		return Entity{}, err
	}

	var created Entity
	ops, err := apply(p.entities, func(c *schema.Context[id.ID, Entity]) error {
		for _, e := range c.Nodes() {
			if e.Name == n {
				return &Error{
					Code:    ErrCodeAlreadyExists,
					Message: fmt.Sprintf("entity %q already exists", n),
					ID:      e.ID,
				}
			}
		}

		ids, ok := schema.Lookup[id.Generator](c.Resources(), ResourceIDs)
		if !ok {
			return fmt.Errorf("resource %q not registered", ResourceIDs)
		}
		created = Entity{ID: ids.Generate(), Name: n}

		return stage(c, func(nc *schema.Context[id.ID, Entity]) error {
			nc.Save(created)
			return nil
		})
	})
	if err != nil {
		return Entity{}, err
	}

	changes, err := changesOf(SchemaEntities, ops)
	if err != nil {
		return Entity{}, err
	}
	p.record(ctx, "entity create", changes)

	p.logger.Info("entity created", "id", created.ID, "name", created.Name)
	return created, nil
}

// RemoveEntities removes the entities with the given names along with their
// experiences. Nothing is removed unless every name exists.
func (p *Plot) RemoveEntities(ctx context.Context, names ...string) ([]Entity, error) {
	wanted := make([]string, 0, len(names))
	for _, name := range names {
		n, err := normalizeName(name)
		if err != nil {
			return nil, err
		}
		wanted = append(wanted, n)
	}

	entityTx := p.entities.Transaction()
	defer entityTx.Rollback()

	ec := entityTx.Begin()
	byName := make(map[string]Entity)
	for _, e := range ec.Nodes() {
		byName[e.Name] = e
	}

	var removed []Entity
	for _, n := range wanted {
		e, ok := byName[n]
		if !ok {
			ec.Close()
			return nil, &Error{Code: ErrCodeNotFound, Message: fmt.Sprintf("entity %q not found", n)}
		}
		if err := stage(ec, func(nc *schema.Context[id.ID, Entity]) error {
			nc.Delete(e.ID)
			return nil
		}); err != nil {
			ec.Close()
			return nil, err
		}
		delete(byName, n)
		removed = append(removed, e)
	}
	entityOps := ec.Operations()
	ec.Close()

	gone := make(map[id.ID]bool, len(removed))
	for _, e := range removed {
		gone[e.ID] = true
	}

	expOps, err := apply(p.experiences, func(c *schema.Context[id.ID, Experience]) error {
		for _, x := range c.Nodes() {
			if gone[x.Entity] {
				c.Delete(x.ID)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := entityTx.Commit(); err != nil {
		return nil, err
	}

	entityChanges, err := changesOf(SchemaEntities, entityOps)
	if err != nil {
		return nil, err
	}
	expChanges, err := changesOf(SchemaExperiences, expOps)
	if err != nil {
		return nil, err
	}
	p.record(ctx, "entity remove", append(entityChanges, expChanges...))

	for _, e := range removed {
		p.logger.Info("entity removed", "id", e.ID, "name", e.Name)
	}
	return removed, nil
}

// ListEntities returns the entities matching filter, ordered by name then id.
func (p *Plot) ListEntities(filter EntityFilter) ([]Entity, error) {
	var name string
	if filter.Name != "" {
		n, err := normalizeName(filter.Name)
		if err != nil {
			return nil, err
		}
		name = n
	}

	var out []Entity
	for _, e := range p.entities.Nodes() {
		if !filter.ID.IsNil() && e.ID != filter.ID {
			continue
		}
		if name != "" && e.Name != name {
			continue
		}
		out = append(out, e)
	}
	sortEntities(out)
	return out, nil
}

// FindEntity resolves ref as an entity id, then as an entity name.
func (p *Plot) FindEntity(ref string) (Entity, error) {
	if k, err := id.Parse(ref); err == nil {
		var (
			e  Entity
			ok bool
		)
		p.entities.View(func(src graph.Source[id.ID, Entity]) {
			e, ok = src.Get(k)
		})
		if ok {
			return e, nil
		}
		return Entity{}, notFound("entity", k)
	}

	found, err := p.ListEntities(EntityFilter{Name: ref})
	if err != nil {
		return Entity{}, err
	}
	if len(found) == 0 {
		return Entity{}, &Error{Code: ErrCodeNotFound, Message: fmt.Sprintf("entity %q not found", ref)}
	}
	return found[0], nil
}
