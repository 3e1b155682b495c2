package schema

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownSchema is returned when a registry lookup misses.
var ErrUnknownSchema = errors.New("unknown schema")

// Registry is a fixed set of named schemas. It is built once at startup and
// only read afterwards, so it is safe for concurrent use.
type Registry struct {
	schemas map[string]Schema
}

// NewRegistry copies the given schemas into a new registry.
func NewRegistry(schemas map[string]Schema) *Registry {
	r := &Registry{schemas: make(map[string]Schema, len(schemas))}
	for name, s := range schemas {
		r.schemas[name] = s
	}
	return r
}

// Get returns the schema registered under name.
func (r *Registry) Get(name string) (Schema, error) {
	s, ok := r.schemas[name]
	if !ok {
		return Schema{}, fmt.Errorf("%w: %q", ErrUnknownSchema, name)
	}
	return s, nil
}

// MustGet is like Get but panics on a miss. It is meant for route wiring at
// startup, where a missing schema is a programming error.
func (r *Registry) MustGet(name string) Schema {
	s, err := r.Get(name)
	if err != nil {
		panic(err)
	}
	return s
}

// Names returns the registered names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.schemas))
	for name := range r.schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate looks up name and validates candidate against it.
func (r *Registry) Validate(name string, candidate any) (Normalized, error) {
	s, err := r.Get(name)
	if err != nil {
		return nil, err
	}
	return s.Validate(candidate)
}
