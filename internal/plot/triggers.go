package plot

import (
	"fmt"

	"github.com/roach88/plotline/internal/graph"
	"github.com/roach88/plotline/internal/id"
	"github.com/roach88/plotline/internal/schema"
)

func checkEntityName(_ graph.Source[id.ID, Entity], op schema.Operation[id.ID, Entity]) error {
	e, ok := op.Node()
	if !ok {
		return nil
	}
	if _, err := normalizeName(e.Name); err != nil {
		return err
	}
	return nil
}

func checkEventName(_ graph.Source[id.ID, Event], op schema.Operation[id.ID, Event]) error {
	e, ok := op.Node()
	if !ok {
		return nil
	}
	if _, err := normalizeName(e.Name); err != nil {
		return err
	}
	return nil
}

func checkEventInterval(_ graph.Source[id.ID, Event], op schema.Operation[id.ID, Event]) error {
	e, ok := op.Node()
	if !ok || e.Interval.Valid() {
		return nil
	}
	return &Error{
		Code:    ErrCodeInvalidInterval,
		Message: fmt.Sprintf("interval lower bound %d is greater than upper bound %d", e.Interval.Lo, e.Interval.Hi),
		ID:      e.ID,
	}
}

func checkProfiles(_ graph.Source[id.ID, Experience], op schema.Operation[id.ID, Experience]) error {
	x, ok := op.Node()
	if !ok || x.Kind() != 0 {
		return nil
	}
	return &Error{
		Code:    ErrCodeInvalidProfile,
		Message: "an experience requires a profile before or after the event",
		ID:      x.ID,
	}
}

// checkConstraints validates a staged experience against the timeline of
// its entity as seen by src.
func (p *Plot) checkConstraints(src graph.Source[id.ID, Experience], op schema.Operation[id.ID, Experience]) error {
	subject, ok := op.Node()
	if !ok {
		return nil
	}

	event, ok := p.event(subject.Event)
	if !ok {
		return notFound("event", subject.Event)
	}

	timeline := p.timeline(graph.List(src), subject.Entity, subject.ID)
	return Check(ExperienceConstraints(ExperiencedEvent{Experience: subject, Event: event}), timeline)
}

// timeline returns the experiences of entity, except the one identified by
// skip, paired with their events in interval order.
func (p *Plot) timeline(experiences []Experience, entity, skip id.ID) []ExperiencedEvent {
	var out []ExperiencedEvent
	for _, x := range experiences {
		if x.Entity != entity || x.ID == skip {
			continue
		}
		event, ok := p.event(x.Event)
		if !ok {
			p.logger.Warn("experience references missing event",
				"experience", x.ID,
				"event", x.Event,
			)
			continue
		}
		out = append(out, ExperiencedEvent{Experience: x, Event: event})
	}
	sortTimeline(out)
	return out
}
