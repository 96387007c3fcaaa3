package plot

import (
	"maps"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/plotline/internal/id"
)

// Entity is anything able to experience an event.
type Entity struct {
	ID   id.ID  `yaml:"id" json:"id"`
	Name string `yaml:"name" json:"name"`
}

// NodeID implements id.Identifiable.
func (e Entity) NodeID() id.ID {
	return e.ID
}

// Event is a named happening over an interval of time.
type Event struct {
	ID       id.ID    `yaml:"id" json:"id"`
	Name     string   `yaml:"name" json:"name"`
	Interval Interval `yaml:"interval" json:"interval"`
}

// NodeID implements id.Identifiable.
func (e Event) NodeID() id.ID {
	return e.ID
}

// Profile describes who an entity is on one side of an experience.
type Profile struct {
	Entity id.ID             `yaml:"entity" json:"entity"`
	Values map[string]string `yaml:"values,omitempty" json:"values,omitempty"`
}

// Clone implements graph.Cloner.
func (p Profile) Clone() Profile {
	p.Values = maps.Clone(p.Values)
	return p
}

// ExperienceKind classifies an experience by the profiles it carries.
type ExperienceKind int

const (
	// KindInitial has no profile before the event: the entity starts here.
	KindInitial ExperienceKind = iota + 1
	// KindTransitive has a profile on both sides of the event.
	KindTransitive
	// KindTerminal has no profile after the event: the entity ends here.
	KindTerminal
)

// String returns the lowercase kind name.
func (k ExperienceKind) String() string {
	switch k {
	case KindInitial:
		return "initial"
	case KindTransitive:
		return "transitive"
	case KindTerminal:
		return "terminal"
	default:
		return "invalid"
	}
}

// Experience is what one event meant for one entity.
type Experience struct {
	ID     id.ID    `yaml:"id" json:"id"`
	Entity id.ID    `yaml:"entity" json:"entity"`
	Event  id.ID    `yaml:"event" json:"event"`
	Before *Profile `yaml:"before,omitempty" json:"before,omitempty"`
	After  *Profile `yaml:"after,omitempty" json:"after,omitempty"`
}

// NodeID implements id.Identifiable.
func (e Experience) NodeID() id.ID {
	return e.ID
}

// Clone implements graph.Cloner.
func (e Experience) Clone() Experience {
	if e.Before != nil {
		before := e.Before.Clone()
		e.Before = &before
	}
	if e.After != nil {
		after := e.After.Clone()
		e.After = &after
	}
	return e
}

// Kind derives the experience kind from its profiles. An experience
// without profiles has kind 0.
func (e Experience) Kind() ExperienceKind {
	switch {
	case e.Before == nil && e.After != nil:
		return KindInitial
	case e.Before != nil && e.After != nil:
		return KindTransitive
	case e.Before != nil:
		return KindTerminal
	default:
		return 0
	}
}

// IsTerminal reports whether the entity ends at this experience.
func (e Experience) IsTerminal() bool {
	return e.Kind() == KindTerminal
}

// normalizeName trims surrounding space and applies Unicode NFC, so names
// typed with different composition sequences compare equal.
func normalizeName(name string) (string, error) {
	n := norm.NFC.String(strings.TrimSpace(name))
	if n == "" {
		return "", &Error{Code: ErrCodeInvalidName, Message: "name must not be empty"}
	}
	return n, nil
}
