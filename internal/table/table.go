package table

import (
	"fmt"
	"slices"
)

// Table is a rectangular set of width-1 columns sharing one row count.
type Table struct {
	reg  *Registry
	rows int
}

// New builds a table from the registry. Every column must be width 1 and
// have the same number of rows.
func New(reg *Registry) (*Table, error) {
	var wide []string
	reg.Each(func(c *Column) {
		if c.Width != 1 {
			wide = append(wide, c.Name)
		}
	})
	if len(wide) > 0 {
		return nil, fmt.Errorf("%w: columns %v are not flattened", ErrIncompatibleColumns, wide)
	}

	rows, err := reg.Rows()
	if err != nil {
		return nil, err
	}
	return &Table{reg: reg, rows: rows}, nil
}

// Rows returns the number of rows.
func (t *Table) Rows() int {
	return t.rows
}

// Columns returns the column names in order.
func (t *Table) Columns() []string {
	return t.reg.Names()
}

// Registry exposes the underlying columns. Callers may rewrite values in
// place but must not change column lengths.
func (t *Table) Registry() *Registry {
	return t.reg
}

// Column returns the named column.
func (t *Table) Column(name string) (*Column, bool) {
	return t.reg.Get(name)
}

// Numbers returns the values of a numeric column.
func (t *Table) Numbers(name string) ([]float64, error) {
	c, ok := t.reg.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, name)
	}
	if !c.Kind.Numeric() {
		return nil, fmt.Errorf("column %q is %s, not numeric", name, c.Kind)
	}
	return c.Num, nil
}

// Strings returns the values of a string column.
func (t *Table) Strings(name string) ([]string, error) {
	c, ok := t.reg.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, name)
	}
	if c.Kind != String {
		return nil, fmt.Errorf("column %q is %s, not string", name, c.Kind)
	}
	return c.Str, nil
}

// AddColumn adds or replaces a column. Its length must match the table.
func (t *Table) AddColumn(c *Column) error {
	if c.Width != 1 || c.Len() != t.rows {
		return &InconsistencyError{
			Err:     ErrRaggedColumns,
			Op:      "add column",
			Columns: []string{"<table>", c.Name},
			Lengths: []int{t.rows, c.Len()},
		}
	}
	t.reg.Set(c)
	return nil
}

// Filter returns a new table holding the rows for which keep returns true.
// Row order is preserved and values are copied unchanged.
func (t *Table) Filter(keep func(row int) bool) *Table {
	rows := make([]int, 0, t.rows)
	for i := range t.rows {
		if keep(i) {
			rows = append(rows, i)
		}
	}
	return t.take(rows)
}

func (t *Table) take(rows []int) *Table {
	out := NewRegistry()
	t.reg.Each(func(c *Column) {
		out.Set(c.take(rows))
	})
	return &Table{reg: out, rows: len(rows)}
}

// Select returns a table with the given columns in the given order. The
// names must be exactly the table's columns.
func (t *Table) Select(names []string) (*Table, error) {
	if !sameSet(names, t.reg.names) {
		return nil, &InconsistencyError{
			Err:     ErrColumnSetMismatch,
			Op:      "select",
			Columns: names,
		}
	}
	out := NewRegistry()
	for _, name := range names {
		out.Set(t.reg.cols[name])
	}
	return &Table{reg: out, rows: t.rows}, nil
}

func sameSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	x := slices.Clone(a)
	y := slices.Clone(b)
	slices.Sort(x)
	slices.Sort(y)
	return slices.Equal(x, y)
}
