package plot

// ExperienceBelongsToOneOfPrevious requires an experience to start from
// the profile the entity was left with by its previous experience.
//
// With no previous experience, or a terminal one, the subject must be
// initial. Otherwise its Before profile must name the entity of the
// previous After profile.
type ExperienceBelongsToOneOfPrevious struct {
	subject Experience
	closest selectCloser
}

// NewExperienceBelongsToOneOfPrevious returns the constraint for subject.
func NewExperienceBelongsToOneOfPrevious(subject ExperiencedEvent) *ExperienceBelongsToOneOfPrevious {
	return &ExperienceBelongsToOneOfPrevious{
		subject: subject.Experience,
		closest: selectCloser{subject: subject.Event},
	}
}

// With implements Constraint.
func (c *ExperienceBelongsToOneOfPrevious) With(ee ExperiencedEvent) error {
	c.closest.with(ee)
	return nil
}

// Result implements Constraint.
func (c *ExperienceBelongsToOneOfPrevious) Result() error {
	prev := c.closest.before
	if prev == nil || prev.Experience.After == nil {
		if c.subject.Before != nil {
			return ErrNotInPreviousExperience
		}
		return nil
	}

	if c.subject.Before == nil || c.subject.Before.Entity != prev.Experience.After.Entity {
		return ErrNotInPreviousExperience
	}
	return nil
}

// ExperienceKindFollowsPrevious forbids a terminal experience right after
// another terminal one, or as the first experience of an entity.
type ExperienceKindFollowsPrevious struct {
	subject Experience
	closest selectCloser
}

// NewExperienceKindFollowsPrevious returns the constraint for subject.
func NewExperienceKindFollowsPrevious(subject ExperiencedEvent) *ExperienceKindFollowsPrevious {
	return &ExperienceKindFollowsPrevious{
		subject: subject.Experience,
		closest: selectCloser{subject: subject.Event},
	}
}

// With implements Constraint.
func (c *ExperienceKindFollowsPrevious) With(ee ExperiencedEvent) error {
	c.closest.with(ee)
	return nil
}

// Result implements Constraint.
func (c *ExperienceKindFollowsPrevious) Result() error {
	if !c.subject.IsTerminal() {
		return nil
	}
	prev := c.closest.before
	if prev == nil || prev.Experience.IsTerminal() {
		return ErrTerminalFollowsTerminal
	}
	return nil
}

// ExperienceKindPrecedesNext forbids a terminal experience right before
// another terminal one.
type ExperienceKindPrecedesNext struct {
	subject Experience
	closest selectCloser
}

// NewExperienceKindPrecedesNext returns the constraint for subject.
func NewExperienceKindPrecedesNext(subject ExperiencedEvent) *ExperienceKindPrecedesNext {
	return &ExperienceKindPrecedesNext{
		subject: subject.Experience,
		closest: selectCloser{subject: subject.Event},
	}
}

// With implements Constraint.
func (c *ExperienceKindPrecedesNext) With(ee ExperiencedEvent) error {
	c.closest.with(ee)
	return nil
}

// Result implements Constraint.
func (c *ExperienceKindPrecedesNext) Result() error {
	next := c.closest.after
	if next != nil && c.subject.IsTerminal() && next.Experience.IsTerminal() {
		return ErrTerminalPrecedesTerminal
	}
	return nil
}

// ExperienceIsNotSimultaneous forbids two experiences of the same entity
// over overlapping events.
type ExperienceIsNotSimultaneous struct {
	subject Event
	err     error
}

// NewExperienceIsNotSimultaneous returns the constraint for subject.
func NewExperienceIsNotSimultaneous(subject ExperiencedEvent) *ExperienceIsNotSimultaneous {
	return &ExperienceIsNotSimultaneous{subject: subject.Event}
}

// With implements Constraint.
func (c *ExperienceIsNotSimultaneous) With(ee ExperiencedEvent) error {
	if ee.Event.ID != c.subject.ID && ee.Event.Interval.Intersects(c.subject.Interval) {
		c.err = ErrSimultaneousEvents
		return c.err
	}
	return nil
}

// Result implements Constraint.
func (c *ExperienceIsNotSimultaneous) Result() error {
	return c.err
}

// EventIsNotExperiencedMoreThanOnce forbids two experiences of the same
// entity for one event.
type EventIsNotExperiencedMoreThanOnce struct {
	subject Event
	err     error
}

// NewEventIsNotExperiencedMoreThanOnce returns the constraint for subject.
func NewEventIsNotExperiencedMoreThanOnce(subject ExperiencedEvent) *EventIsNotExperiencedMoreThanOnce {
	return &EventIsNotExperiencedMoreThanOnce{subject: subject.Event}
}

// With implements Constraint.
func (c *EventIsNotExperiencedMoreThanOnce) With(ee ExperiencedEvent) error {
	if ee.Event.ID == c.subject.ID {
		c.err = ErrEventAlreadyExperienced
		return c.err
	}
	return nil
}

// Result implements Constraint.
func (c *EventIsNotExperiencedMoreThanOnce) Result() error {
	return c.err
}

// ExperienceConstraints returns every constraint an experience must hold,
// collecting all violations instead of stopping at the first.
func ExperienceConstraints(subject ExperiencedEvent) *Chain {
	return NewChain().
		Chain(NewExperienceBelongsToOneOfPrevious(subject)).
		Chain(NewExperienceKindFollowsPrevious(subject)).
		Chain(NewExperienceKindPrecedesNext(subject)).
		Chain(NewExperienceIsNotSimultaneous(subject)).
		Chain(NewEventIsNotExperiencedMoreThanOnce(subject)).
		WithEarly(false)
}

// Check feeds timeline to c and returns its verdict. A violation reported
// by With ends the check unless c keeps accumulating.
func Check(c Constraint, timeline []ExperiencedEvent) error {
	for _, ee := range timeline {
		if err := c.With(ee); err != nil {
			if ch, ok := c.(*Chain); ok && !ch.early {
				continue
			}
			return err
		}
	}
	return c.Result()
}
