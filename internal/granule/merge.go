package granule

import (
	"fmt"

	"github.com/robert-malhotra/atl08-extract/internal/catalog"
	"github.com/robert-malhotra/atl08-extract/internal/table"
)

// Merge concatenates the beams group by group, in beam order, and returns the
// right-biased union of the groups in catalog.Groups order together with the
// column names that more than one group defined.
func Merge(beams []Beam) (*table.Registry, []string, error) {
	if len(beams) == 0 {
		return nil, nil, ErrNoBeams
	}

	groups := make([]*table.Registry, 0, len(catalog.Groups))
	for _, g := range catalog.Groups {
		parts := make([]*table.Registry, 0, len(beams))
		for _, b := range beams {
			parts = append(parts, b.Groups[g])
		}
		merged, err := table.Concat(parts)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to concatenate %s group: %w", g, err)
		}
		groups = append(groups, merged)
	}

	reg, conflicts := table.Merge(groups...)
	if _, err := reg.Rows(); err != nil {
		return nil, nil, err
	}
	return reg, conflicts, nil
}
