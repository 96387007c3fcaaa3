package schema

import (
	"cmp"
	"log/slog"
	"sync"

	"github.com/roach88/plotline/internal/graph"
	"github.com/roach88/plotline/internal/id"
)

// Schema owns a graph and arbitrates exclusive write access to it.
//
// Thread-safety model:
//   - Write(): blocks until no other writer or reader holds the graph
//   - View(): shared access, blocks while a writer holds the graph
//   - Resources()/Triggers(): registries are internally synchronized
type Schema[K cmp.Ordered, T id.Identifiable[K]] struct {
	mu    sync.RWMutex
	graph *graph.Graph[K, T]

	name      string
	logger    *slog.Logger
	resources *ResourceSet
	triggers  *TriggerSet[K, T]
}

type config struct {
	name   string
	logger *slog.Logger
}

// Option configures a Schema.
type Option func(*config)

// WithName sets the name reported in logs and errors.
func WithName(name string) Option {
	return func(c *config) {
		c.name = name
	}
}

// WithLogger sets the logger used for transaction events.
// Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// New creates a Schema over an empty graph.
func New[K cmp.Ordered, T id.Identifiable[K]](opts ...Option) *Schema[K, T] {
	cfg := config{}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}

	return &Schema[K, T]{
		graph:     graph.New[K, T](),
		name:      cfg.name,
		logger:    cfg.logger,
		resources: NewResourceSet(),
		triggers:  NewTriggerSet[K, T](),
	}
}

// Name returns the schema name.
func (s *Schema[K, T]) Name() string {
	return s.name
}

// Resources returns the schema's resource registry.
func (s *Schema[K, T]) Resources() *ResourceSet {
	return s.resources
}

// Triggers returns the schema's trigger registry.
func (s *Schema[K, T]) Triggers() *TriggerSet[K, T] {
	return s.triggers
}

// Transaction returns a new Background transaction against s.
func (s *Schema[K, T]) Transaction() *Background[K, T] {
	return NewBackground(s)
}

// View calls fn with shared, read-only access to the graph. The source
// must not be retained after fn returns.
func (s *Schema[K, T]) View(fn func(src graph.Source[K, T])) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(s.graph)
}

// Nodes returns copies of every node, in ascending id order.
func (s *Schema[K, T]) Nodes() []T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.graph.Nodes()
}

// Len returns the number of nodes in the graph.
func (s *Schema[K, T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.graph.Len()
}

// Write acquires exclusive access to the graph, blocking until it is
// available. The guard must be released with Release.
func (s *Schema[K, T]) Write() *WriteGuard[K, T] {
	s.mu.Lock()
	return &WriteGuard[K, T]{schema: s}
}

// viewSource reads the graph under the schema's shared lock, one call at a
// time. It backs contexts that outlive their write guard.
type viewSource[K cmp.Ordered, T id.Identifiable[K]] struct {
	schema *Schema[K, T]
}

func (v viewSource[K, T]) Get(k K) (T, bool) {
	v.schema.mu.RLock()
	defer v.schema.mu.RUnlock()
	return v.schema.graph.Get(k)
}

func (v viewSource[K, T]) Contains(k K) bool {
	v.schema.mu.RLock()
	defer v.schema.mu.RUnlock()
	return v.schema.graph.Contains(k)
}

func (v viewSource[K, T]) Nodes() []T {
	v.schema.mu.RLock()
	defer v.schema.mu.RUnlock()
	return v.schema.graph.Nodes()
}

// WriteGuard is the exclusive-access handle to a schema's graph.
//
// Reads through a released guard fall back to the schema's shared lock, so
// a context that outlives its transaction keeps reading consistent state.
// Writes through a released guard are ignored.
type WriteGuard[K cmp.Ordered, T id.Identifiable[K]] struct {
	schema *Schema[K, T]

	mu       sync.RWMutex
	released bool
}

// Get implements graph.Source.
func (g *WriteGuard[K, T]) Get(k K) (T, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.released {
		return viewSource[K, T]{g.schema}.Get(k)
	}
	return g.schema.graph.Get(k)
}

// Contains implements graph.Source.
func (g *WriteGuard[K, T]) Contains(k K) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.released {
		return viewSource[K, T]{g.schema}.Contains(k)
	}
	return g.schema.graph.Contains(k)
}

// Nodes implements graph.Lister.
func (g *WriteGuard[K, T]) Nodes() []T {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.released {
		return viewSource[K, T]{g.schema}.Nodes()
	}
	return g.schema.graph.Nodes()
}

// Insert stores node and returns the node it replaced, if any.
func (g *WriteGuard[K, T]) Insert(node T) (T, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.released {
		var zero T
		return zero, false
	}
	return g.schema.graph.Insert(node)
}

// Remove deletes the node identified by k and returns it, if any.
func (g *WriteGuard[K, T]) Remove(k K) (T, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.released {
		var zero T
		return zero, false
	}
	return g.schema.graph.Remove(k)
}

// Release gives up exclusive access. Safe to call more than once.
func (g *WriteGuard[K, T]) Release() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.released {
		return
	}
	g.released = true
	g.schema.mu.Unlock()
}
