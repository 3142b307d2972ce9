package table

import (
	"fmt"
	"slices"
)

// PreferredOrder lists the columns that lead the output when present.
var PreferredOrder = []string{
	"id_unique", "year", "month", "day",
	"lon_20m", "lat_20m", "h_can_20m", "h_te_best_20m",
	"lon", "lat", "h_can", "h_max_can", "h_can_quad", "h_can_unc",
	"h_te_best", "h_te_unc",
	"rh10", "rh15", "rh20", "rh25", "rh30", "rh35", "rh40", "rh45", "rh50",
	"rh55", "rh60", "rh65", "rh70", "rh75", "rh80", "rh85", "rh90", "rh95",
	"can_rh_conf", "h_dif_ref", "seg_landcov", "seg_cover", "seg_water",
	"night_flg", "sol_el", "asr", "ter_slp", "ter_flg", "can_open",
	"gt", "beam_type", "dt", "id_100m", "id_20m", "granule_name",
}

// Order returns the preferred columns present in actual, in preferred order,
// followed by the remaining columns of actual in their original order.
func Order(actual []string) ([]string, error) {
	return OrderBy(PreferredOrder, actual)
}

// OrderBy is Order with an explicit preferred sequence.
func OrderBy(preferred, actual []string) ([]string, error) {
	ordered := make([]string, 0, len(actual))
	for _, name := range preferred {
		if slices.Contains(actual, name) && !slices.Contains(ordered, name) {
			ordered = append(ordered, name)
		}
	}
	for _, name := range actual {
		if !slices.Contains(ordered, name) {
			ordered = append(ordered, name)
		}
	}

	if !sameSet(ordered, actual) {
		return nil, &InconsistencyError{
			Err:     ErrColumnSetMismatch,
			Op:      fmt.Sprintf("order columns (%d ordered, %d actual)", len(ordered), len(actual)),
			Columns: ordered,
		}
	}
	return ordered, nil
}
