package id

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Generator produces fresh identifiers.
// Implemented by UUIDv7Generator (production) and FixedGenerator (tests).
type Generator interface {
	Generate() ID
}

// UUIDv7Generator generates time-sortable UUIDv7 identifiers.
//
// Thread-safety: UUIDv7Generator is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7.
//
// Panics if UUID generation fails (should never happen in practice).
func (UUIDv7Generator) Generate() ID {
	return ID(uuid.Must(uuid.NewV7()).String())
}

// FixedGenerator returns predetermined identifiers in order.
//
// This enables deterministic tests and golden output comparison.
//
// Thread-safety: FixedGenerator is safe for concurrent use via internal mutex.
type FixedGenerator struct {
	mu  sync.Mutex
	ids []ID
	idx int
}

// NewFixedGenerator creates a generator that returns ids in order.
func NewFixedGenerator(ids ...ID) *FixedGenerator {
	return &FixedGenerator{ids: ids}
}

// NewSequenceGenerator creates a FixedGenerator over n well-formed UUIDs
// whose last group is the 1-based position: ...-000000000001, ...-000000000002.
func NewSequenceGenerator(n int) *FixedGenerator {
	ids := make([]ID, n)
	for i := range ids {
		ids[i] = ID(fmt.Sprintf("00000000-0000-7000-8000-%012d", i+1))
	}
	return NewFixedGenerator(ids...)
}

// Generate returns the next predetermined id.
//
// Panics if all ids have been consumed, to catch test misconfiguration.
func (g *FixedGenerator) Generate() ID {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.idx >= len(g.ids) {
		panic("FixedGenerator: all ids exhausted")
	}
	v := g.ids[g.idx]
	g.idx++
	return v
}
