package cli

import (
	"fmt"
	"strings"

	"github.com/roach88/plotline/internal/plot"
	"github.com/roach88/plotline/internal/store"
)

// Views wrap command results so that text output prints them with fmt
// while JSON output keeps the record's own fields.

// Saved records render as their id.
type entityView plot.Entity

func (v entityView) String() string { return v.ID.String() }

type eventView plot.Event

func (v eventView) String() string { return v.ID.String() }

type experienceView plot.Experience

func (v experienceView) String() string { return v.ID.String() }

type entityList []plot.Entity

func (l entityList) String() string {
	if len(l) == 0 {
		return "No entities."
	}
	lines := make([]string, len(l))
	for i, e := range l {
		lines[i] = fmt.Sprintf("%s  %s", e.ID, e.Name)
	}
	return strings.Join(lines, "\n")
}

type eventList []plot.Event

func (l eventList) String() string {
	if len(l) == 0 {
		return "No events."
	}
	lines := make([]string, len(l))
	for i, e := range l {
		lines[i] = fmt.Sprintf("%s  %-9s %s", e.ID, e.Interval, e.Name)
	}
	return strings.Join(lines, "\n")
}

type timelineView []plot.ExperiencedEvent

func (l timelineView) String() string {
	if len(l) == 0 {
		return "No experiences."
	}
	lines := make([]string, len(l))
	for i, ee := range l {
		lines[i] = fmt.Sprintf("%s  %-9s %-10s %s",
			ee.Experience.ID, ee.Event.Interval, ee.Experience.Kind(), ee.Event.Name)
	}
	return strings.Join(lines, "\n")
}

type historyView []store.Commit

func (l historyView) String() string {
	if len(l) == 0 {
		return "No commits."
	}
	var b strings.Builder
	for i, c := range l {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "#%d %s", c.Seq, c.Command)
		for _, ch := range c.Changes {
			fmt.Fprintf(&b, "\n  %-6s %-11s %s", ch.Kind, ch.Schema, ch.NodeID)
		}
	}
	return b.String()
}
