// Package table holds the typed column registry the granule arrays are merged
// into and the rectangular table built from it.
package table

import (
	"fmt"
	"slices"
)

// Kind is the value type of a column.
type Kind uint8

const (
	Float Kind = iota
	Int
	String
)

func (k Kind) String() string {
	switch k {
	case Float:
		return "float"
	case Int:
		return "int"
	case String:
		return "string"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Numeric reports whether values of the kind live in Column.Num.
func (k Kind) Numeric() bool {
	return k == Float || k == Int
}

// Column is a named, typed array. Numeric kinds store their values in Num,
// String in Str. Width is the number of values per row: 1 for a plain column,
// more for a per-row vector that has not been flattened yet.
type Column struct {
	Name  string
	Kind  Kind
	Width int
	Num   []float64
	Str   []string
}

// NewFloat returns a width-1 Float column.
func NewFloat(name string, values []float64) *Column {
	return &Column{Name: name, Kind: Float, Width: 1, Num: values}
}

// NewInt returns a width-1 Int column.
func NewInt(name string, values []float64) *Column {
	return &Column{Name: name, Kind: Int, Width: 1, Num: values}
}

// NewString returns a width-1 String column.
func NewString(name string, values []string) *Column {
	return &Column{Name: name, Kind: String, Width: 1, Str: values}
}

// Values returns the number of stored values.
func (c *Column) Values() int {
	if c.Kind == String {
		return len(c.Str)
	}
	return len(c.Num)
}

// Len returns the number of rows.
func (c *Column) Len() int {
	w := c.Width
	if w < 1 {
		w = 1
	}
	return c.Values() / w
}

// Clone returns a deep copy of the column.
func (c *Column) Clone() *Column {
	out := *c
	out.Num = slices.Clone(c.Num)
	out.Str = slices.Clone(c.Str)
	return &out
}

// Format returns the value at row i as text. Missing numeric values (NaN)
// format as the empty string.
func (c *Column) Format(i int) string {
	if c.Kind == String {
		return c.Str[i]
	}
	return formatNumber(c.Kind, c.Num[i])
}

// take returns a width-1 copy of the column holding only the given rows.
func (c *Column) take(rows []int) *Column {
	out := &Column{Name: c.Name, Kind: c.Kind, Width: 1}
	if c.Kind == String {
		out.Str = make([]string, len(rows))
		for i, r := range rows {
			out.Str[i] = c.Str[r]
		}
		return out
	}
	out.Num = make([]float64, len(rows))
	for i, r := range rows {
		out.Num[i] = c.Num[r]
	}
	return out
}

// sameShape reports whether two columns can be concatenated.
func sameShape(a, b *Column) bool {
	return a.Kind == b.Kind && a.Width == b.Width
}
