package table

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrRaggedColumns is returned when columns that must share a row count do not.
	ErrRaggedColumns = errors.New("columns have mismatched lengths")

	// ErrColumnSetMismatch is returned when a column ordering does not cover
	// exactly the columns of the table.
	ErrColumnSetMismatch = errors.New("ordered columns differ from table columns")

	// ErrUnknownColumn is returned when a named column does not exist.
	ErrUnknownColumn = errors.New("unknown column")

	// ErrIncompatibleColumns is returned when columns of different kind or
	// width are combined.
	ErrIncompatibleColumns = errors.New("incompatible columns")
)

// InconsistencyError reports a broken row alignment invariant together with
// the shape of every column involved, so the failure can be diagnosed from
// the message alone.
type InconsistencyError struct {
	Err     error
	Op      string
	Columns []string
	Lengths []int
}

func (e *InconsistencyError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %v", e.Op, e.Err)
	if len(e.Columns) > 0 {
		b.WriteString(" [")
		for i, name := range e.Columns {
			if i > 0 {
				b.WriteString(" ")
			}
			if i < len(e.Lengths) {
				fmt.Fprintf(&b, "%s=%d", name, e.Lengths[i])
			} else {
				b.WriteString(name)
			}
		}
		b.WriteString("]")
	}
	return b.String()
}

func (e *InconsistencyError) Unwrap() error {
	return e.Err
}
