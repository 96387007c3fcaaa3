package id

import (
	"cmp"
	"fmt"

	"github.com/google/uuid"
)

// Identifiable is a value that can be uniquely identified.
//
// NodeID must be total and deterministic for the lifetime of the value.
type Identifiable[K cmp.Ordered] interface {
	NodeID() K
}

// ID identifies a node of the plotline graph.
type ID string

// Nil is the zero ID. It never identifies a stored node.
const Nil ID = ""

// Parse validates s as a UUID and returns it in canonical form.
func Parse(s string) (ID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return Nil, fmt.Errorf("invalid id %q: %w", s, err)
	}
	return ID(u.String()), nil
}

// MustParse is like Parse but panics on invalid input. Intended for tests
// and constants.
func MustParse(s string) ID {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// String implements fmt.Stringer.
func (i ID) String() string {
	return string(i)
}

// IsNil reports whether i is the zero ID.
func (i ID) IsNil() bool {
	return i == Nil
}
