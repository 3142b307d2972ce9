// Package catalog describes which granule fields are read for every beam and
// how they map to output columns.
package catalog

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed atl08.yaml
var defaultCatalog []byte

// ErrInvalidCatalog is returned when a catalog fails validation.
var ErrInvalidCatalog = errors.New("invalid field catalog")

// Column groups. The merged table is the right-biased union of the groups
// in this order.
const (
	GroupOrbit   = "orbit"
	GroupMetrics = "metrics"
	GroupAux     = "aux"
)

// Groups lists the column groups in merge order.
var Groups = []string{GroupOrbit, GroupMetrics, GroupAux}

// Value kinds.
const (
	KindFloat  = "float"
	KindInt    = "int"
	KindString = "string"
)

// Field scopes.
const (
	// ScopeBeam fields are read from <beam>/<path>.
	ScopeBeam = "beam"
	// ScopeGranule fields are read once from an absolute path and their first
	// value is broadcast to every row.
	ScopeGranule = "granule"
	// ScopeBeamName fields hold the beam identifier itself.
	ScopeBeamName = "beamname"
	// ScopeSubIndex fields hold the fine sub-segment index 1..width.
	ScopeSubIndex = "subindex"
)

// FieldSpec describes one field of the granule.
type FieldSpec struct {
	Column string `yaml:"column"`
	Path   string `yaml:"path"`
	Group  string `yaml:"group"`
	Kind   string `yaml:"kind"`
	Scope  string `yaml:"scope"`

	// Width is the number of values per coarse segment. 1 for segment
	// scalars; fine-segment fields carry one value per sub-segment.
	Width int `yaml:"width"`

	// Columns splits a multi-valued field into one named column per value.
	Columns []string `yaml:"columns,omitempty"`

	// Fine fields are only read when fine-segment extraction is enabled.
	Fine bool `yaml:"fine"`
}

// BeamPath returns the absolute path of the field for the given beam.
func (f FieldSpec) BeamPath(beam string) string {
	if f.Scope == ScopeGranule {
		return f.Path
	}
	return "/" + beam + "/" + strings.TrimPrefix(f.Path, "/")
}


// Catalog is the complete read schema of a granule.
type Catalog struct {
	Beams  []string    `yaml:"beams"`
	Probe  string      `yaml:"probe"`
	Fields []FieldSpec `yaml:"fields"`
}

// Default returns the built-in ATL08 catalog.
func Default() *Catalog {
	cat, err := Load(bytes.NewReader(defaultCatalog))
	if err != nil {
		panic(fmt.Sprintf("catalog: embedded catalog is invalid: %v", err))
	}
	return cat
}

// Load parses and validates a YAML catalog.
func Load(r io.Reader) (*Catalog, error) {
	var cat Catalog
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cat); err != nil {
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}

	for i := range cat.Fields {
		f := &cat.Fields[i]
		if f.Scope == "" {
			f.Scope = ScopeBeam
		}
		if f.Width == 0 {
			f.Width = 1
		}
	}

	if err := cat.Validate(); err != nil {
		return nil, err
	}
	return &cat, nil
}

// Validate checks the catalog for structural problems.
func (c *Catalog) Validate() error {
	if len(c.Beams) == 0 {
		return fmt.Errorf("%w: no beams", ErrInvalidCatalog)
	}

	seen := make(map[string]bool)
	probeFound := false
	for _, f := range c.Fields {
		if f.Column == "" {
			return fmt.Errorf("%w: field with path %q has no column name", ErrInvalidCatalog, f.Path)
		}
		for _, name := range f.OutputColumns() {
			if seen[name] {
				return fmt.Errorf("%w: duplicate column %q", ErrInvalidCatalog, name)
			}
			seen[name] = true
		}

		switch f.Group {
		case GroupOrbit, GroupMetrics, GroupAux:
		default:
			return fmt.Errorf("%w: column %q has unknown group %q", ErrInvalidCatalog, f.Column, f.Group)
		}

		switch f.Kind {
		case KindFloat, KindInt, KindString:
		default:
			return fmt.Errorf("%w: column %q has unknown kind %q", ErrInvalidCatalog, f.Column, f.Kind)
		}

		switch f.Scope {
		case ScopeBeam, ScopeGranule:
			if f.Path == "" {
				return fmt.Errorf("%w: column %q has no path", ErrInvalidCatalog, f.Column)
			}
		case ScopeBeamName, ScopeSubIndex:
		default:
			return fmt.Errorf("%w: column %q has unknown scope %q", ErrInvalidCatalog, f.Column, f.Scope)
		}

		if f.Width < 1 {
			return fmt.Errorf("%w: column %q has width %d", ErrInvalidCatalog, f.Column, f.Width)
		}
		if len(f.Columns) > 0 && len(f.Columns) != f.Width {
			return fmt.Errorf("%w: column %q splits width %d into %d columns",
				ErrInvalidCatalog, f.Column, f.Width, len(f.Columns))
		}
		if f.Width > 1 && len(f.Columns) == 0 && !f.Fine {
			return fmt.Errorf("%w: column %q is multi-valued but neither split nor fine", ErrInvalidCatalog, f.Column)
		}

		if f.Column == c.Probe {
			if f.Scope != ScopeBeam || f.Fine {
				return fmt.Errorf("%w: probe %q must be a coarse beam field", ErrInvalidCatalog, c.Probe)
			}
			probeFound = true
		}
	}

	fineWidth := 0
	for _, f := range c.Fields {
		if !f.Fine {
			continue
		}
		if fineWidth != 0 && f.Width != fineWidth {
			return fmt.Errorf("%w: fine column %q has width %d, want %d", ErrInvalidCatalog, f.Column, f.Width, fineWidth)
		}
		fineWidth = f.Width
	}

	if c.Probe == "" {
		return fmt.Errorf("%w: no probe field", ErrInvalidCatalog)
	}
	if !probeFound {
		return fmt.Errorf("%w: probe %q is not a field", ErrInvalidCatalog, c.Probe)
	}

	return nil
}

// OutputColumns returns the column names the field produces.
func (f FieldSpec) OutputColumns() []string {
	if len(f.Columns) > 0 {
		return f.Columns
	}
	return []string{f.Column}
}

// FieldsFor returns the fields to read, excluding fine fields unless fine is set.
func (c *Catalog) FieldsFor(fine bool) []FieldSpec {
	out := make([]FieldSpec, 0, len(c.Fields))
	for _, f := range c.Fields {
		if f.Fine && !fine {
			continue
		}
		out = append(out, f)
	}
	return out
}

// ProbeField returns the field used to detect whether a beam is present.
func (c *Catalog) ProbeField() FieldSpec {
	for _, f := range c.Fields {
		if f.Column == c.Probe {
			return f
		}
	}
	return FieldSpec{}
}

// FineWidth returns the number of fine sub-segments per coarse segment, taken
// from the fine fields of the catalog. It returns 0 if the catalog has no
// fine fields.
func (c *Catalog) FineWidth() int {
	for _, f := range c.Fields {
		if f.Fine {
			return f.Width
		}
	}
	return 0
}
