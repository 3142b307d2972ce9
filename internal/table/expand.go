package table

import "fmt"

// Expand converts a registry of coarse rows into fine rows, n per coarse row.
// Width-1 columns repeat each value n times; width-n columns are flattened
// row-major. Either way coarse row i lands on fine rows n*i .. n*i+n-1.
func Expand(reg *Registry, n int) (*Registry, error) {
	if n < 1 {
		return nil, fmt.Errorf("expand factor must be positive, got %d", n)
	}

	out := NewRegistry()
	var err error
	reg.Each(func(c *Column) {
		if err != nil {
			return
		}
		switch c.Width {
		case 1:
			out.Set(repeat(c, n))
		case n:
			flat := c.Clone()
			flat.Width = 1
			out.Set(flat)
		default:
			err = fmt.Errorf("%w: column %q has width %d, cannot expand by %d",
				ErrIncompatibleColumns, c.Name, c.Width, n)
		}
	})
	if err != nil {
		return nil, err
	}

	if _, err := out.Rows(); err != nil {
		return nil, err
	}
	return out, nil
}

func repeat(c *Column, n int) *Column {
	out := &Column{Name: c.Name, Kind: c.Kind, Width: 1}
	if c.Kind == String {
		out.Str = make([]string, 0, len(c.Str)*n)
		for _, v := range c.Str {
			for range n {
				out.Str = append(out.Str, v)
			}
		}
		return out
	}
	out.Num = make([]float64, 0, len(c.Num)*n)
	for _, v := range c.Num {
		for range n {
			out.Num = append(out.Num, v)
		}
	}
	return out
}
