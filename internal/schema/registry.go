package schema

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/roach88/plotline/internal/graph"
	"github.com/roach88/plotline/internal/id"
)

// ResourceSet is a keyed registry of values shared by everything working
// against one schema. The schema never interprets its contents.
type ResourceSet struct {
	mu     sync.RWMutex
	values map[string]any
}

// NewResourceSet creates an empty registry.
func NewResourceSet() *ResourceSet {
	return &ResourceSet{values: make(map[string]any)}
}

// Set stores value under key, replacing any previous value.
func (r *ResourceSet) Set(key string, value any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values[key] = value
}

// Get returns the value stored under key.
func (r *ResourceSet) Get(key string) (any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.values[key]
	return v, ok
}

// Keys returns the registered keys in ascending order.
func (r *ResourceSet) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, 0, len(r.values))
	for k := range r.values {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Lookup returns the value stored under key if it has type V.
func Lookup[V any](r *ResourceSet, key string) (V, bool) {
	v, ok := r.Get(key)
	if !ok {
		var zero V
		return zero, false
	}
	typed, ok := v.(V)
	return typed, ok
}

// Trigger inspects an operation about to be staged, reading the state it
// would apply to through src. A non-nil error vetoes the operation.
type Trigger[K cmp.Ordered, T id.Identifiable[K]] func(src graph.Source[K, T], op Operation[K, T]) error

type namedTrigger[K cmp.Ordered, T id.Identifiable[K]] struct {
	name string
	fn   Trigger[K, T]
}

// TriggerSet is an ordered registry of named triggers. The schema never
// fires triggers itself; callers decide when an operation warrants it.
type TriggerSet[K cmp.Ordered, T id.Identifiable[K]] struct {
	mu       sync.RWMutex
	triggers []namedTrigger[K, T]
}

// NewTriggerSet creates an empty registry.
func NewTriggerSet[K cmp.Ordered, T id.Identifiable[K]]() *TriggerSet[K, T] {
	return &TriggerSet[K, T]{}
}

// Register appends fn under name. Registering an existing name replaces the
// trigger in place, keeping its position.
func (s *TriggerSet[K, T]) Register(name string, fn Trigger[K, T]) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.triggers {
		if s.triggers[i].name == name {
			s.triggers[i].fn = fn
			return
		}
	}
	s.triggers = append(s.triggers, namedTrigger[K, T]{name: name, fn: fn})
}

// Names returns trigger names in registration order.
func (s *TriggerSet[K, T]) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, len(s.triggers))
	for i, t := range s.triggers {
		names[i] = t.name
	}
	return names
}

// Fire runs every trigger against op in registration order and joins their
// errors. Each error is prefixed with the name of the trigger that raised it.
func (s *TriggerSet[K, T]) Fire(src graph.Source[K, T], op Operation[K, T]) error {
	s.mu.RLock()
	triggers := slices.Clone(s.triggers)
	s.mu.RUnlock()

	var errs []error
	for _, t := range triggers {
		if err := t.fn(src, op); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", t.name, err))
		}
	}
	return errors.Join(errs...)
}
