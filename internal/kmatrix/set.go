package kmatrix

import (
	"fmt"
	"sort"
)

// Set is a registry of named propagators. Production terms that name the
// same propagator share one instance and therefore one evaluation cache.
type Set struct {
	props map[string]*Propagator
}

// NewSet returns an empty registry.
func NewSet() *Set {
	return &Set{props: make(map[string]*Propagator)}
}

// Define registers a propagator built from params.
func (s *Set) Define(name string, params *Params, pair, row int) (*Propagator, error) {
	if _, ok := s.props[name]; ok {
		return nil, fmt.Errorf("%w: %s", ErrDuplicatePropagator, name)
	}
	p, err := NewPropagator(name, params, pair, row)
	if err != nil {
		return nil, err
	}
	s.props[name] = p
	return p, nil
}

// Get looks up a propagator by name.
func (s *Set) Get(name string) (*Propagator, error) {
	p, ok := s.props[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPropagator, name)
	}
	return p, nil
}

// Names returns the registered names in sorted order.
func (s *Set) Names() []string {
	names := make([]string, 0, len(s.props))
	for n := range s.props {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// InvalidateAll drops every cached evaluation.
func (s *Set) InvalidateAll() {
	for _, p := range s.props {
		p.Invalidate()
	}
}
