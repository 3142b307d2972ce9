package granule

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/robert-malhotra/atl08-extract/internal/catalog"
	"github.com/robert-malhotra/atl08-extract/internal/table"
)

// Beam holds the columns read for one beam, split by catalog group.
type Beam struct {
	Name   string
	Rows   int
	Groups map[string]*table.Registry
}

// Collector reads the catalog's fields for every beam of a granule.
type Collector struct {
	catalog *catalog.Catalog
	logger  *slog.Logger
}

// NewCollector creates a Collector for the given catalog.
func NewCollector(cat *catalog.Catalog) *Collector {
	return &Collector{
		catalog: cat,
		logger:  slog.Default(),
	}
}

// WithLogger sets a custom logger for the collector.
func (c *Collector) WithLogger(logger *slog.Logger) *Collector {
	c.logger = logger
	return c
}

// Collect reads every present beam in catalog order. A beam whose probe field
// is missing is skipped. Fine fields are read only when fine is set. If no
// beam has data, Collect returns ErrNoBeams.
func (c *Collector) Collect(ctx context.Context, src Source, fine bool) ([]Beam, error) {
	fields := c.catalog.FieldsFor(fine)
	probe := c.catalog.ProbeField()
	granuleValues := make(map[string]*table.Column)

	var beams []Beam
	for _, name := range c.catalog.Beams {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		probeCol, err := readField(src, probe, name)
		if errors.Is(err, ErrFieldNotFound) {
			c.logger.DebugContext(ctx, "beam absent, skipping",
				slog.String("beam", name),
				slog.String("probe", probe.BeamPath(name)),
			)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to probe beam %s: %w", name, err)
		}
		rows := probeCol.Len()

		beam := Beam{
			Name:   name,
			Rows:   rows,
			Groups: make(map[string]*table.Registry, len(catalog.Groups)),
		}
		for _, g := range catalog.Groups {
			beam.Groups[g] = table.NewRegistry()
		}

		for _, f := range fields {
			cols, err := c.columnsFor(src, f, name, rows, granuleValues)
			if err != nil {
				return nil, fmt.Errorf("beam %s: %w", name, err)
			}
			for _, col := range cols {
				if col.Len() != rows {
					return nil, &table.InconsistencyError{
						Err:     table.ErrRaggedColumns,
						Op:      "collect beam " + name,
						Columns: []string{probe.Column, col.Name},
						Lengths: []int{rows, col.Len()},
					}
				}
				beam.Groups[f.Group].Set(col)
			}
		}

		c.logger.DebugContext(ctx, "read beam",
			slog.String("beam", name),
			slog.Int("segments", rows),
		)
		beams = append(beams, beam)
	}

	if len(beams) == 0 {
		return nil, ErrNoBeams
	}
	return beams, nil
}

func (c *Collector) columnsFor(src Source, f catalog.FieldSpec, beam string, rows int, granuleValues map[string]*table.Column) ([]*table.Column, error) {
	switch f.Scope {
	case catalog.ScopeBeamName:
		values := make([]string, rows*f.Width)
		for i := range values {
			values[i] = beam
		}
		return []*table.Column{{Name: f.Column, Kind: table.String, Width: f.Width, Str: values}}, nil

	case catalog.ScopeSubIndex:
		values := make([]float64, 0, rows*f.Width)
		for range rows {
			for j := 1; j <= f.Width; j++ {
				values = append(values, float64(j))
			}
		}
		return []*table.Column{{Name: f.Column, Kind: kindOf(f.Kind), Width: f.Width, Num: values}}, nil

	case catalog.ScopeGranule:
		cached, ok := granuleValues[f.Column]
		if !ok {
			col, err := readField(src, f, beam)
			if err != nil {
				return nil, err
			}
			if col.Values() == 0 {
				return nil, fmt.Errorf("granule field %s is empty", f.Path)
			}
			granuleValues[f.Column] = col
			cached = col
		}
		return []*table.Column{broadcast(cached, f, rows)}, nil

	default:
		col, err := readField(src, f, beam)
		if err != nil {
			// Only the probe may be absent; anything else is a broken granule.
			return nil, err
		}
		if len(f.Columns) > 0 {
			return split(col, f.Columns), nil
		}
		return []*table.Column{col}, nil
	}
}

// readField reads one field for a beam as a column of the field's width.
func readField(src Source, f catalog.FieldSpec, beam string) (*table.Column, error) {
	path := f.BeamPath(beam)
	col := &table.Column{Name: f.Column, Kind: kindOf(f.Kind), Width: f.Width}

	var err error
	if col.Kind == table.String {
		col.Str, err = src.Strings(path)
	} else {
		col.Num, err = src.Float64s(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if col.Values()%f.Width != 0 {
		return nil, fmt.Errorf("field %s has %d values, not a multiple of width %d", path, col.Values(), f.Width)
	}
	return col, nil
}

// broadcast repeats the first value of a granule-level field for every row.
func broadcast(src *table.Column, f catalog.FieldSpec, rows int) *table.Column {
	n := rows * f.Width
	out := &table.Column{Name: f.Column, Kind: src.Kind, Width: f.Width}
	if src.Kind == table.String {
		out.Str = make([]string, n)
		for i := range out.Str {
			out.Str[i] = src.Str[0]
		}
		return out
	}
	out.Num = make([]float64, n)
	for i := range out.Num {
		out.Num[i] = src.Num[0]
	}
	return out
}

// split turns a row-major (rows x len(names)) column into one column per name.
func split(col *table.Column, names []string) []*table.Column {
	width := len(names)
	rows := col.Len()
	out := make([]*table.Column, width)
	for k, name := range names {
		c := &table.Column{Name: name, Kind: col.Kind, Width: 1}
		if col.Kind == table.String {
			c.Str = make([]string, rows)
			for i := range rows {
				c.Str[i] = col.Str[i*width+k]
			}
		} else {
			c.Num = make([]float64, rows)
			for i := range rows {
				c.Num[i] = col.Num[i*width+k]
			}
		}
		out[k] = c
	}
	return out
}

func kindOf(kind string) table.Kind {
	switch kind {
	case catalog.KindInt:
		return table.Int
	case catalog.KindString:
		return table.String
	default:
		return table.Float
	}
}
