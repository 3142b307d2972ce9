// Package granule reads the per-beam field arrays of a granule into typed
// column registries.
package granule

import (
	"errors"
	"fmt"
	"slices"
	"sort"
)

var (
	// ErrFieldNotFound is returned by a Source when no field exists at a path.
	ErrFieldNotFound = errors.New("field not found")

	// ErrNoBeams is returned when none of the catalog's beams has data.
	ErrNoBeams = errors.New("no usable beams in granule")
)

// Source exposes the named arrays of a hierarchical data file. Paths are
// absolute and slash separated, e.g. "/gt1r/land_segments/latitude".
// Multi-dimensional arrays are returned flattened in row-major order.
type Source interface {
	Float64s(path string) ([]float64, error)
	Strings(path string) ([]string, error)
}

// MemorySource is an in-memory Source, used to feed synthetic granules.
type MemorySource struct {
	Numbers map[string][]float64
	Text    map[string][]string
}

// NewMemorySource returns an empty MemorySource.
func NewMemorySource() *MemorySource {
	return &MemorySource{
		Numbers: make(map[string][]float64),
		Text:    make(map[string][]string),
	}
}

// SetNumbers stores a numeric array at path.
func (m *MemorySource) SetNumbers(path string, values []float64) {
	m.Numbers[path] = values
}

// SetText stores a string array at path.
func (m *MemorySource) SetText(path string, values []string) {
	m.Text[path] = values
}

// Float64s implements Source.
func (m *MemorySource) Float64s(path string) ([]float64, error) {
	v, ok := m.Numbers[path]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrFieldNotFound, path)
	}
	return slices.Clone(v), nil
}

// Strings implements Source.
func (m *MemorySource) Strings(path string) ([]string, error) {
	v, ok := m.Text[path]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrFieldNotFound, path)
	}
	return slices.Clone(v), nil
}

// Paths returns every stored path in sorted order.
func (m *MemorySource) Paths() []string {
	paths := make([]string, 0, len(m.Numbers)+len(m.Text))
	for p := range m.Numbers {
		paths = append(paths, p)
	}
	for p := range m.Text {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}
