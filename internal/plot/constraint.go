package plot

import (
	"errors"
	"slices"
)

// ExperiencedEvent pairs an experience with the event it belongs to.
type ExperiencedEvent struct {
	Experience Experience `json:"experience"`
	Event      Event      `json:"event"`
}

// Constraint checks one experience against the rest of its entity's
// timeline.
//
// With feeds one timeline element to the constraint. It returns an error
// only when that element alone already violates the constraint, so callers
// may stop early. Result returns the verdict over everything fed so far.
type Constraint interface {
	With(ee ExperiencedEvent) error
	Result() error
}

// Chain evaluates a sequence of constraints as one. Constraints run in
// reverse order of chaining: the last one chained is fed first.
//
// With early set (the default) the chain returns the first violation
// found. Otherwise it collects every violation into a *StackError, in
// chain order.
type Chain struct {
	links []Constraint
	early bool
}

// NewChain returns a chain over cs with early return enabled.
func NewChain(cs ...Constraint) *Chain {
	return &Chain{links: slices.Clone(cs), early: true}
}

// Chain appends c and returns the chain.
func (ch *Chain) Chain(c Constraint) *Chain {
	ch.links = append(ch.links, c)
	return ch
}

// WithEarly sets whether the chain stops at the first violation.
func (ch *Chain) WithEarly(early bool) *Chain {
	ch.early = early
	return ch
}

// With implements Constraint.
func (ch *Chain) With(ee ExperiencedEvent) error {
	return ch.eval(func(c Constraint) error { return c.With(ee) })
}

// Result implements Constraint.
func (ch *Chain) Result() error {
	return ch.eval(Constraint.Result)
}

func (ch *Chain) eval(fn func(Constraint) error) error {
	var errs []error
	for i := len(ch.links) - 1; i >= 0; i-- {
		err := fn(ch.links[i])
		if err == nil {
			continue
		}
		if ch.early {
			return err
		}
		errs = append(errs, err)
	}

	slices.Reverse(errs)
	return stack(errs...)
}

// Inhibitable wraps a constraint and ignores one of its violations.
type Inhibitable struct {
	constraint Constraint
	inhibited  error
}

// NewInhibitable returns c with err suppressed. Matching uses errors.Is.
func NewInhibitable(c Constraint, err error) *Inhibitable {
	return &Inhibitable{constraint: c, inhibited: err}
}

// With implements Constraint.
func (in *Inhibitable) With(ee ExperiencedEvent) error {
	return in.filter(in.constraint.With(ee))
}

// Result implements Constraint.
func (in *Inhibitable) Result() error {
	return in.filter(in.constraint.Result())
}

func (in *Inhibitable) filter(err error) error {
	if err == nil {
		return nil
	}

	var se *StackError
	if errors.As(err, &se) && se == err {
		kept := make([]error, 0, len(se.Errs))
		for _, e := range se.Errs {
			if !errors.Is(e, in.inhibited) {
				kept = append(kept, e)
			}
		}
		return stack(kept...)
	}

	if errors.Is(err, in.inhibited) {
		return nil
	}
	return err
}

// selectCloser tracks the timeline elements closest to a subject event on
// either side. Elements overlapping the subject are ignored.
type selectCloser struct {
	subject Event
	before  *ExperiencedEvent
	after   *ExperiencedEvent
}

func (s *selectCloser) with(ee ExperiencedEvent) {
	switch {
	case ee.Event.Interval.Before(s.subject.Interval):
		if s.before == nil || ee.Event.Interval.Compare(s.before.Event.Interval) > 0 {
			s.before = &ee
		}
	case ee.Event.Interval.After(s.subject.Interval):
		if s.after == nil || ee.Event.Interval.Compare(s.after.Event.Interval) < 0 {
			s.after = &ee
		}
	}
}
