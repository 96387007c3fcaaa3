package plot

import (
	"cmp"
	"slices"
)

func sortEntities(es []Entity) {
	slices.SortFunc(es, func(a, b Entity) int {
		if c := cmp.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}

func sortEvents(es []Event) {
	slices.SortFunc(es, func(a, b Event) int {
		if c := a.Interval.Compare(b.Interval); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}

func sortTimeline(ees []ExperiencedEvent) {
	slices.SortFunc(ees, func(a, b ExperiencedEvent) int {
		if c := a.Event.Interval.Compare(b.Event.Interval); c != 0 {
			return c
		}
		return cmp.Compare(a.Experience.ID, b.Experience.ID)
	})
}
