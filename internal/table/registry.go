package table

import (
	"fmt"
	"slices"
)

// Registry is an ordered mapping from column name to column.
type Registry struct {
	names []string
	cols  map[string]*Column
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{cols: make(map[string]*Column)}
}

// Set adds the column. If a column with the same name exists, the new column
// replaces it in place and keeps the existing position. It reports whether a
// column was replaced.
func (r *Registry) Set(c *Column) bool {
	if _, ok := r.cols[c.Name]; ok {
		r.cols[c.Name] = c
		return true
	}
	r.names = append(r.names, c.Name)
	r.cols[c.Name] = c
	return false
}

// Get returns the named column.
func (r *Registry) Get(name string) (*Column, bool) {
	c, ok := r.cols[name]
	return c, ok
}

// Delete removes the named column if present.
func (r *Registry) Delete(name string) {
	if _, ok := r.cols[name]; !ok {
		return
	}
	delete(r.cols, name)
	r.names = slices.DeleteFunc(r.names, func(n string) bool { return n == name })
}

// Names returns the column names in order.
func (r *Registry) Names() []string {
	return slices.Clone(r.names)
}

// Len returns the number of columns.
func (r *Registry) Len() int {
	return len(r.names)
}

// Each calls fn for every column in order.
func (r *Registry) Each(fn func(c *Column)) {
	for _, name := range r.names {
		fn(r.cols[name])
	}
}

// Merge is the right-biased union of the registries: columns keep the
// position of their first appearance and take the values of their last.
// It returns the names that appeared in more than one registry.
func Merge(groups ...*Registry) (*Registry, []string) {
	out := NewRegistry()
	var conflicts []string
	for _, g := range groups {
		if g == nil {
			continue
		}
		g.Each(func(c *Column) {
			if out.Set(c) && !slices.Contains(conflicts, c.Name) {
				conflicts = append(conflicts, c.Name)
			}
		})
	}
	return out, conflicts
}

// Concat joins the registries column by column, in argument order. Every part
// must have the same column names with matching kind and width; the column
// order of the first part is kept.
func Concat(parts []*Registry) (*Registry, error) {
	if len(parts) == 0 {
		return NewRegistry(), nil
	}

	first := parts[0]
	out := NewRegistry()
	for _, name := range first.names {
		head := first.cols[name]
		merged := &Column{Name: name, Kind: head.Kind, Width: head.Width}

		for i, p := range parts {
			c, ok := p.cols[name]
			if !ok {
				return nil, fmt.Errorf("%w: part %d has no column %q", ErrIncompatibleColumns, i, name)
			}
			if !sameShape(head, c) {
				return nil, fmt.Errorf("%w: column %q is %s/%d in part 0 but %s/%d in part %d",
					ErrIncompatibleColumns, name, head.Kind, head.Width, c.Kind, c.Width, i)
			}
			merged.Num = append(merged.Num, c.Num...)
			merged.Str = append(merged.Str, c.Str...)
		}
		out.Set(merged)
	}

	for i, p := range parts[1:] {
		if p.Len() != first.Len() {
			return nil, fmt.Errorf("%w: part %d has %d columns, part 0 has %d",
				ErrIncompatibleColumns, i+1, p.Len(), first.Len())
		}
	}

	return out, nil
}

// Rows returns the common row count of the registry's columns. It fails with
// an InconsistencyError if the columns disagree.
func (r *Registry) Rows() (int, error) {
	rows := -1
	ragged := false
	lengths := make([]int, 0, len(r.names))
	for _, name := range r.names {
		n := r.cols[name].Len()
		lengths = append(lengths, n)
		if rows == -1 {
			rows = n
		} else if n != rows {
			ragged = true
		}
	}
	if ragged {
		return 0, &InconsistencyError{
			Err:     ErrRaggedColumns,
			Op:      "row count",
			Columns: r.Names(),
			Lengths: lengths,
		}
	}
	if rows == -1 {
		rows = 0
	}
	return rows, nil
}
